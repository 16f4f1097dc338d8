package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body SignUpInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	result, err := h.service.SignUp(r.Context(), body)
	if err != nil {
		var validationErr ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Reason)
		case errors.Is(err, ErrUserExists):
			writeError(w, http.StatusBadRequest, "User already exists")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to sign up")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body signInRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	result, err := h.service.SignIn(r.Context(), body.Username, body.Password)
	if err != nil {
		var validationErr ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Reason)
		case errors.Is(err, ErrUserNotFound):
			writeError(w, http.StatusNotFound, "Can not found user")
		case errors.Is(err, ErrInvalidPassword):
			writeError(w, http.StatusConflict, "Invalid password")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to sign in")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Refresh reads the stale access token from the Authorization header and
// the refresh token from the body, and returns a rotated pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	accessToken, err := bearerToken(r)
	if err != nil {
		if errors.Is(err, errMissingAuthorization) {
			writeError(w, http.StatusForbidden, "Not authenticated")
			return
		}
		writeError(w, http.StatusForbidden, "Invalid authentication scheme")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body refreshRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	pair, err := h.service.Refresh(r.Context(), body.RefreshToken, accessToken, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, ErrAccessNotExpired):
			writeError(w, http.StatusUnauthorized, "Token is not expired")
		case errors.Is(err, ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "Refresh token expired")
		case errors.Is(err, ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		case errors.Is(err, ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to refresh token")
		}
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	user, err := h.service.GetMe(r.Context(), subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
