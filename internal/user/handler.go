package user

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"flightprice-api/internal/auth"
)

const maxJSONBodyBytes = 1 << 20

// Handler exposes user CRUD on top of the same store the auth gate uses.
// Every route sits behind the bearer middleware.
type Handler struct {
	store auth.UserStore
}

func NewHandler(store auth.UserStore) *Handler {
	return &Handler{store: store}
}

type upsertRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	public := make([]auth.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	writeJSON(w, http.StatusOK, public)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeUpsert(w, r)
	if !ok {
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err := h.store.Create(r.Context(), auth.CreateUserParams{
		Username:     body.Username,
		Email:        body.Email,
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		PasswordHash: hash,
	})
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// Update re-hashes the password only when it differs from the stored one,
// so resubmitting an unchanged profile does not rotate the digest.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeUpsert(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	existing, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	passwordHash := existing.PasswordHash
	if !auth.VerifyPassword(body.Password, existing.PasswordHash) {
		passwordHash, err = auth.HashPassword(body.Password)
		if err != nil {
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
	}

	user, err := h.store.Update(r.Context(), id, auth.UpdateUserParams{
		Username:     body.Username,
		Email:        body.Email,
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

func decodeUpsert(w http.ResponseWriter, r *http.Request) (upsertRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body upsertRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return upsertRequest{}, false
	}

	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)
	if body.Username == "" || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Email, username and password are required")
		return upsertRequest{}, false
	}

	return body, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
