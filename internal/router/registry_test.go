package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktogon/ringcam/internal/logger"
)

func createTestLogger() logger.StyledLogger {
	log, _, _ := logger.New(&logger.Config{Level: "error", Theme: "default"})
	return logger.NewPlainStyledLogger(log)
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRouteRegistry_Order(t *testing.T) {
	r := NewRouteRegistry(createTestLogger())
	r.RegisterLimited("/batch_stream", ok, "Frames")
	r.Register("/version", ok, "Version")

	routes := r.GetRoutes()
	require.Len(t, routes, 2)
	assert.Equal(t, 0, routes["/batch_stream"].Order)
	assert.True(t, routes["/batch_stream"].Limited)
	assert.Equal(t, 1, routes["/version"].Order)
	assert.Equal(t, []string{http.MethodGet}, routes["/version"].Methods)
}

func TestRouteRegistry_MethodEnforcement(t *testing.T) {
	r := NewRouteRegistry(createTestLogger())
	r.Register("/batch_stream", ok, "Frames")

	mux := http.NewServeMux()
	r.WireUp(mux, nil)

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodHead, http.StatusOK},
		{http.MethodPost, http.StatusMethodNotAllowed},
		{http.MethodDelete, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tt.method, "/batch_stream", nil))
		assert.Equal(t, tt.want, rec.Code, tt.method)
		if tt.want == http.StatusMethodNotAllowed {
			assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
		}
	}
}

func TestRouteRegistry_LimiterOnlyWrapsLimitedRoutes(t *testing.T) {
	r := NewRouteRegistry(createTestLogger())
	r.RegisterLimited("/batch_stream", ok, "Frames")
	r.Register("/internal/health", ok, "Health")

	blocked := 0
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			blocked++
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}

	mux := http.NewServeMux()
	r.WireUp(mux, deny)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/batch_stream", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, blocked)
}
