package auth

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 8

// Service is the access-control gate: credential checks, token issuance,
// token verification, and refresh rotation. Token operations are pure; the
// only external call is the user store round-trip.
type Service struct {
	store UserStore
	codec *TokenCodec
}

func NewService(store UserStore, codec *TokenCodec) *Service {
	return &Service{store: store, codec: codec}
}

type SignUpInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *Service) SignUp(ctx context.Context, input SignUpInput) (AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if input.Email == "" || input.Username == "" || input.Password == "" {
		return AuthResult{}, ValidationError{Reason: "Email, username and password are required"}
	}
	if input.FirstName == "" || input.LastName == "" {
		return AuthResult{}, ValidationError{Reason: "First name and last name are required"}
	}
	if !emailRegex.MatchString(input.Email) {
		return AuthResult{}, ValidationError{Reason: "Invalid email"}
	}
	if len(input.Password) < minPasswordLength {
		return AuthResult{}, ValidationError{Reason: "Password must be at least 8 characters"}
	}

	_, err := s.store.FindByUsernameAndEmail(ctx, input.Username, input.Email)
	if err == nil {
		return AuthResult{}, ErrUserExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return AuthResult{}, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.store.Create(ctx, CreateUserParams{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
	})
	if err != nil {
		return AuthResult{}, err
	}

	pair, err := s.codec.IssuePair(user.ID, time.Now().UTC())
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{User: user.Public(), TokenPair: pair}, nil
}

func (s *Service) SignIn(ctx context.Context, username, password string) (AuthResult, error) {
	username = strings.TrimSpace(username)

	if username == "" || password == "" {
		return AuthResult{}, ValidationError{Reason: "Username and password are required"}
	}
	if len(password) < minPasswordLength {
		return AuthResult{}, ValidationError{Reason: "Password must be at least 8 characters"}
	}

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthResult{}, ErrUserNotFound
		}
		return AuthResult{}, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return AuthResult{}, ErrInvalidPassword
	}

	pair, err := s.codec.IssuePair(user.ID, time.Now().UTC())
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{User: user.Public(), TokenPair: pair}, nil
}

// Authorize validates an access token and returns its subject. Signature
// failures and expiry surface as distinct error kinds.
func (s *Service) Authorize(accessToken string, now time.Time) (string, error) {
	claims, err := s.codec.DecodeAccess(accessToken)
	if err != nil {
		return "", err
	}

	if claims.Expiry().Before(now) {
		return "", ErrTokenExpired
	}

	return claims.Subject, nil
}

// Refresh rotates a token pair. The presented access token must already be
// expired: refreshing a live session would churn refresh tokens and widen
// the replay window for nothing.
func (s *Service) Refresh(ctx context.Context, refreshToken, accessToken string, now time.Time) (TokenPair, error) {
	refreshClaims, err := s.codec.DecodeRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if refreshClaims.Expiry().Before(now) {
		return TokenPair{}, ErrTokenExpired
	}

	accessClaims, err := s.codec.DecodeAccess(accessToken)
	if err != nil {
		return TokenPair{}, err
	}
	if accessClaims.Expiry().After(now) {
		return TokenPair{}, ErrAccessNotExpired
	}

	user, err := s.store.FindByID(ctx, refreshClaims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, err
	}

	return s.codec.IssuePair(user.ID, now)
}

func (s *Service) GetMe(ctx context.Context, id string) (User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}

	return user, nil
}
