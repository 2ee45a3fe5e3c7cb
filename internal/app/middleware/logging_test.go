package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/logger"
)

func newBufferedLogger(t *testing.T, level string) (*bytes.Buffer, logger.StyledLogger) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	_, styled, cleanup, err := logger.NewWithTheme(&logger.Config{Writer: &buf, Level: level})
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return &buf, styled
}

func TestEnhancedLoggingMiddleware(t *testing.T) {
	buf, styled := newBufferedLogger(t, "info")

	var seenID string
	handler := EnhancedLoggingMiddleware(styled)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		require.NotNil(t, GetLogger(r.Context()))
		_, _ = w.Write([]byte("test response"))
	}))

	req := httptest.NewRequest(http.MethodGet, constants.DefaultVersionEndpoint, nil)
	req.Header.Set(constants.HeaderXRequestID, "test-request-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test response", rec.Body.String())
	assert.Equal(t, "test-request-123", seenID)
	assert.Equal(t, "test-request-123", rec.Header().Get(constants.HeaderRingcamRequestID))

	out := buf.String()
	assert.Contains(t, out, "Request started")
	assert.Contains(t, out, "Request completed")
	assert.Contains(t, out, `"request_id":"test-request-123"`)
	assert.Contains(t, out, `"response_bytes":13`)
}

func TestEnhancedLoggingMiddleware_GeneratesRequestID(t *testing.T) {
	_, styled := newBufferedLogger(t, "info")

	handler := EnhancedLoggingMiddleware(styled)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(constants.HeaderRingcamRequestID))
}

func TestEnhancedLoggingMiddleware_PollingAtDebug(t *testing.T) {
	buf, styled := newBufferedLogger(t, "info")

	handler := EnhancedLoggingMiddleware(styled)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, constants.DefaultBatchStreamEndpoint, nil))

	assert.Empty(t, buf.String(), "batch stream polling only logs at debug")
}

func TestAccessLoggingMiddleware(t *testing.T) {
	buf, styled := newBufferedLogger(t, "info")

	handler := AccessLoggingMiddleware(styled)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("access log test"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/batch_stream?wait=1s", nil))

	assert.Equal(t, "access log test", rec.Body.String())
	assert.NotContains(t, buf.String(), "Access log", "access records are file only")
}

func TestIsPollingRequest(t *testing.T) {
	assert.True(t, IsPollingRequest(constants.DefaultBatchStreamEndpoint))
	assert.True(t, IsPollingRequest(constants.DefaultHealthCheckEndpoint))
	assert.False(t, IsPollingRequest(constants.DefaultStatusEndpoint))
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0B"},
		{500, "500B"},
		{1024, "1KiB"},
		{1536, "1.5KiB"},
		{1048576, "1MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBytes(tt.input), "FormatBytes(%d)", tt.input)
	}
}

func TestContextHelpersWithoutValues(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))
	assert.Empty(t, GetRequestID(context.Background()))
}
