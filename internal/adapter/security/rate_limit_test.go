package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktogon/ringcam/internal/adapter/stats"
	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/logger"
)

func createTestLogger() logger.StyledLogger {
	log, _, _ := logger.New(&logger.Config{Level: "error", Theme: "default"})
	return logger.NewPlainStyledLogger(log)
}

func newLimiter(t *testing.T, perMinute, burst int) (*RateLimiter, *stats.Collector) {
	t.Helper()
	log := createTestLogger()
	collector := stats.NewCollector(log)
	rl := NewRateLimiter(config.ServerRateLimits{
		PerIPRequestsPerMinute: perMinute,
		BurstSize:              burst,
		CleanupInterval:        time.Hour,
	}, collector, log)
	t.Cleanup(rl.Stop)
	return rl, collector
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl, _ := newLimiter(t, 0, 1)
	assert.False(t, rl.Enabled())

	for i := 0; i < 100; i++ {
		ok, _ := rl.Allow("10.0.0.1", time.Now())
		require.True(t, ok)
	}
	assert.Zero(t, rl.Tracked())
}

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl, _ := newLimiter(t, 60, 3)
	now := time.Now()

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("10.0.0.1", now)
		assert.True(t, ok, "request %d within burst", i)
	}

	ok, retry := rl.Allow("10.0.0.1", now)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Second)

	ok, _ = rl.Allow("10.0.0.2", now)
	assert.True(t, ok, "other clients have their own bucket")
	assert.Equal(t, 2, rl.Tracked())

	ok, _ = rl.Allow("10.0.0.1", now.Add(1100*time.Millisecond))
	assert.True(t, ok, "a token refills after a second at 60/min")
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, _ := newLimiter(t, 60, 1)
	now := time.Now()

	rl.Allow("10.0.0.1", now.Add(-time.Hour))
	rl.Allow("10.0.0.2", now)
	require.Equal(t, 2, rl.Tracked())

	rl.sweep(now.Add(-idleLimiterTTL))
	assert.Equal(t, 1, rl.Tracked())
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl, collector := newLimiter(t, 60, 1)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, constants.DefaultBatchStreamEndpoint, nil)
	req.RemoteAddr = "192.0.2.1:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(constants.HeaderRetryAfter))
	assert.Equal(t, int64(1), collector.Snapshot().RateLimited)

	health := httptest.NewRequest(http.MethodGet, constants.DefaultHealthCheckEndpoint, nil)
	health.RemoteAddr = req.RemoteAddr
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, health)
	assert.Equal(t, http.StatusOK, rec.Code, "health checks bypass the limiter")
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl, _ := newLimiter(t, 60, 1)
	rl.Stop()
	rl.Stop()
}
