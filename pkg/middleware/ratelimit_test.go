package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorbastosbn/nutricionista/pkg/httputil"
	"github.com/vitorbastosbn/nutricionista/pkg/logger"
)

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
}

func sendFrom(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BurstThen429(t *testing.T) {
	rl := newRateLimiter(0.001, 3, time.Minute, newTestLogger())
	h := rl.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, sendFrom(h, "10.0.0.1:1234").Code, "request %d", i+1)
	}

	rec := sendFrom(h, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_RejectionUsesErrorEnvelope(t *testing.T) {
	rl := newRateLimiter(0.001, 1, time.Minute, newTestLogger())
	h := rl.Middleware(okHandler())
	sendFrom(h, "10.0.0.9:1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:1"
	req = req.WithContext(logger.WithCorrelationID(req.Context(), "corr-429"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RATE_LIMITED", resp.Error.Code)
	assert.Equal(t, "too many requests", resp.Error.Message)
	assert.Equal(t, "corr-429", resp.Error.RequestID)
}

func TestRateLimiter_IndependentPerIP(t *testing.T) {
	rl := newRateLimiter(0.001, 1, time.Minute, newTestLogger())
	h := rl.Middleware(okHandler())

	assert.Equal(t, http.StatusOK, sendFrom(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, sendFrom(h, "10.0.0.2:1").Code)
}

func TestRateLimiter_TokensRefillOverTime(t *testing.T) {
	rl := newRateLimiter(1, 1, time.Minute, newTestLogger())
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	h := rl.Middleware(okHandler())

	assert.Equal(t, http.StatusOK, sendFrom(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(h, "10.0.0.1:1").Code)

	clock = clock.Add(1100 * time.Millisecond)
	assert.Equal(t, http.StatusOK, sendFrom(h, "10.0.0.1:1").Code)
}

func TestRateLimiter_CleanupEvictsIdle(t *testing.T) {
	rl := newRateLimiter(1, 1, time.Minute, newTestLogger())
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	rl.allow("10.0.0.1")
	clock = clock.Add(30 * time.Second)
	rl.allow("10.0.0.2")
	clock = clock.Add(45 * time.Second)

	rl.cleanup()

	assert.Equal(t, 1, rl.size())
}

func TestRateLimiter_CloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(5, 10, newTestLogger())
	rl.Close()
	assert.NotPanics(t, rl.Close)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		wantIP string
	}{
		{"forwarded chain", "203.0.113.7, 10.0.0.1", "", "10.0.0.9:80", "203.0.113.7"},
		{"forwarded garbage falls through", "unknown", "198.51.100.2", "10.0.0.9:80", "198.51.100.2"},
		{"remote addr", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.wantIP, clientIP(req))
		})
	}
}
