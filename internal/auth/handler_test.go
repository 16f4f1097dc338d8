package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestHandler_SignUp(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, _, _ := newTestService()
		handler := NewHandler(svc)

		body := `{"username":"test","email":"test@test.com","password":"test1234","firstName":"test","lastName":"test"}`
		rec := postJSON(t, handler.SignUp, "/api/v1/auth/signUp", body)

		require.Equal(t, http.StatusOK, rec.Code)

		var result AuthResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.Equal(t, "test", result.User.Username)
		require.NotEmpty(t, result.AccessToken)
		require.NotEmpty(t, result.RefreshToken)
	})

	t.Run("invalid json", func(t *testing.T) {
		svc, _, _ := newTestService()
		handler := NewHandler(svc)

		rec := postJSON(t, handler.SignUp, "/api/v1/auth/signUp", "{broken")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid json body")
	})

	t.Run("validation reason passes through", func(t *testing.T) {
		svc, _, _ := newTestService()
		handler := NewHandler(svc)

		body := `{"username":"test","email":"not-an-email","password":"test1234","firstName":"test","lastName":"test"}`
		rec := postJSON(t, handler.SignUp, "/api/v1/auth/signUp", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid email")
	})

	t.Run("duplicate user", func(t *testing.T) {
		svc, _, _ := newTestService()
		handler := NewHandler(svc)

		body := `{"username":"test","email":"test@test.com","password":"test1234","firstName":"test","lastName":"test"}`
		rec := postJSON(t, handler.SignUp, "/api/v1/auth/signUp", body)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = postJSON(t, handler.SignUp, "/api/v1/auth/signUp", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "User already exists")
	})
}

func TestHandler_SignIn(t *testing.T) {
	newSignedUpHandler := func(t *testing.T) *Handler {
		t.Helper()
		svc, _, _ := newTestService()
		_, err := svc.SignUp(context.Background(), validSignUp())
		require.NoError(t, err)
		return NewHandler(svc)
	}

	t.Run("success", func(t *testing.T) {
		handler := newSignedUpHandler(t)
		rec := postJSON(t, handler.SignIn, "/api/v1/auth/signIn", `{"username":"test","password":"test1234"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var result AuthResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.NotEmpty(t, result.AccessToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		handler := newSignedUpHandler(t)
		rec := postJSON(t, handler.SignIn, "/api/v1/auth/signIn", `{"username":"nobody","password":"test1234"}`)

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "Can not found user")
	})

	t.Run("wrong password", func(t *testing.T) {
		handler := newSignedUpHandler(t)
		rec := postJSON(t, handler.SignIn, "/api/v1/auth/signIn", `{"username":"test","password":"wrong-pass"}`)

		require.Equal(t, http.StatusConflict, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid password")
	})
}

func TestHandler_Refresh(t *testing.T) {
	setup := func(t *testing.T) (*Handler, *TokenCodec, string) {
		t.Helper()
		svc, _, codec := newTestService()
		result, err := svc.SignUp(context.Background(), validSignUp())
		require.NoError(t, err)
		return NewHandler(svc), codec, result.User.ID
	}

	refreshRequestWith := func(accessToken, body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refreshToken", strings.NewReader(body))
		if accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		}
		return req
	}

	t.Run("rotates a stale pair", func(t *testing.T) {
		handler, codec, subjectID := setup(t)

		// Issued an hour ago, so the access token is past its 30m TTL.
		stale, err := codec.IssuePair(subjectID, time.Now().UTC().Add(-time.Hour))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.Refresh(rec, refreshRequestWith(stale.AccessToken, `{"refresh_token":"`+stale.RefreshToken+`"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		var pair TokenPair
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))

		access, err := codec.DecodeAccess(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, subjectID, access.Subject)
		require.True(t, access.Expiry().After(time.Now().UTC()))
	})

	t.Run("live access token refused", func(t *testing.T) {
		handler, codec, subjectID := setup(t)

		live, err := codec.IssuePair(subjectID, time.Now().UTC())
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.Refresh(rec, refreshRequestWith(live.AccessToken, `{"refresh_token":"`+live.RefreshToken+`"}`))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Token is not expired")
	})

	t.Run("expired refresh token", func(t *testing.T) {
		handler, codec, subjectID := setup(t)

		ancient, err := codec.IssuePair(subjectID, time.Now().UTC().Add(-8*24*time.Hour))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.Refresh(rec, refreshRequestWith(ancient.AccessToken, `{"refresh_token":"`+ancient.RefreshToken+`"}`))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Refresh token expired")
	})

	t.Run("garbage refresh token", func(t *testing.T) {
		handler, codec, subjectID := setup(t)

		stale, err := codec.IssuePair(subjectID, time.Now().UTC().Add(-time.Hour))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.Refresh(rec, refreshRequestWith(stale.AccessToken, `{"refresh_token":"not.a.token"}`))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid refresh token")
	})

	t.Run("missing authorization header", func(t *testing.T) {
		handler, _, _ := setup(t)

		rec := httptest.NewRecorder()
		handler.Refresh(rec, refreshRequestWith("", `{"refresh_token":"x"}`))

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "Not authenticated")
	})
}

func TestHandler_Me(t *testing.T) {
	svc, _, _ := newTestService()
	handler := NewHandler(svc)
	result, err := svc.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req = req.WithContext(WithSubject(req.Context(), result.User.ID))
		rec := httptest.NewRecorder()
		handler.Me(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var profile PublicUser
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		require.Equal(t, "test", profile.Username)
		require.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("no subject in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		rec := httptest.NewRecorder()
		handler.Me(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Could not validate credentials")
	})
}
