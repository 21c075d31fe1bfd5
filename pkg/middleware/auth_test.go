package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeValidator(valid map[string]*Principal) TokenValidator {
	return func(token string) (*Principal, error) {
		if p, ok := valid[token]; ok {
			return p, nil
		}
		return nil, errors.New("token rejected")
	}
}

func principalEcho() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"user_id": p.UserID, "roles": p.Roles})
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

func TestAuth_ValidToken_StoresPrincipal(t *testing.T) {
	validate := fakeValidator(map[string]*Principal{
		"good": {UserID: "user-123", Email: "a@x.com", Roles: []string{"ROLE_USER"}},
	})
	handler := Auth(validate)(principalEcho())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"user-123","roles":["ROLE_USER"]}`, rec.Body.String())
}

func TestAuth_SchemeIsCaseInsensitive(t *testing.T) {
	handler := Auth(fakeValidator(map[string]*Principal{"good": {UserID: "u"}}))(principalEcho())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_Rejections(t *testing.T) {
	handler := Auth(fakeValidator(nil))(principalEcho())

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"rejected token", "Bearer forged"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := RequireRole("ROLE_ADMIN")(ok)

	tests := []struct {
		name      string
		principal *Principal
		status    int
	}{
		{"admin among roles", &Principal{UserID: "u", Roles: []string{"ROLE_USER", "ROLE_ADMIN"}}, http.StatusNoContent},
		{"plain user", &Principal{UserID: "u", Roles: []string{"ROLE_USER"}}, http.StatusForbidden},
		{"unauthenticated", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tt.principal))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPrincipal_HasRole_Nil(t *testing.T) {
	var p *Principal
	assert.False(t, p.HasRole("ROLE_USER"))
	assert.Equal(t, "", UserIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
