package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Level: "info", Output: &buf})

	logger.Info("login_succeeded", map[string]any{"username": "john"})
	logger.Debug("ignored_below_level", nil)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "login_succeeded", line["message"])
	assert.Equal(t, "john", line["username"])
}

func TestLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Level: "chatty", Output: &buf})

	logger.Debug("hidden", nil)
	assert.Zero(t, buf.Len())

	logger.Warn("shown", nil)
	assert.NotZero(t, buf.Len())
}

func TestRequestLoggingMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Output: &buf})

	var seen string
	handler := RequestLoggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/foods/12", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"status":418`)
}

func TestRequestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	incoming := uuid.NewString()
	handler := RequestLoggingMiddleware(NopLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))
}

func TestRecoverMiddleware(t *testing.T) {
	handler := RecoverMiddleware(NopLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/api/foods/:id", NormalizePath("/api/foods/42"))
	assert.Equal(t, "/users/me", NormalizePath("/users/me"))
	assert.Equal(t, "/", NormalizePath("/"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "192.0.2.7:1234", ClientIP(req))
}

func TestScrubCredentials(t *testing.T) {
	event := &sentry.Event{Request: &sentry.Request{
		Cookies: "access_token=abc",
		Headers: map[string]string{"Authorization": "Bearer abc", "Accept": "application/json"},
	}}

	scrubbed := scrubCredentials(event, nil)

	assert.Empty(t, scrubbed.Request.Cookies)
	assert.NotContains(t, scrubbed.Request.Headers, "Authorization")
	assert.Equal(t, "application/json", scrubbed.Request.Headers["Accept"])
}
