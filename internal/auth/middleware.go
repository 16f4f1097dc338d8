package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const subjectContextKey contextKey = "auth.subject"

var (
	errMissingAuthorization   = errors.New("missing authorization header")
	errMalformedAuthorization = errors.New("malformed authorization header")
)

// Middleware gates a route on a valid access token. Missing or malformed
// credentials are a 403; a present but invalid or expired token is a 401.
func Middleware(service *Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			if errors.Is(err, errMissingAuthorization) {
				writeError(w, http.StatusForbidden, "Not authenticated")
				return
			}
			writeError(w, http.StatusForbidden, "Invalid authentication scheme")
			return
		}

		subject, err := service.Authorize(token, time.Now().UTC())
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Access token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid access token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errMissingAuthorization
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errMalformedAuthorization
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errMalformedAuthorization
	}

	return token, nil
}

func WithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectContextKey, subjectID)
}

// SubjectFromContext returns the authenticated subject id placed on the
// context by Middleware.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectContextKey).(string)
	return subject, ok && subject != ""
}
