package security

/*
	Per-IP rate limiting for the batch stream.
	Each client IP gets a token bucket refilled at requests_per_minute/60 per
	second. Idle buckets are swept on a ticker so a scan of many addresses
	does not grow the map forever.
*/

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"

	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/core/ports"
	"github.com/jacktogon/ringcam/internal/logger"
	"github.com/jacktogon/ringcam/internal/util"
)

const idleLimiterTTL = 10 * time.Minute

type RateLimiter struct {
	stats   ports.StatsCollector
	logger  logger.StyledLogger
	clients *xsync.Map[string, *clientLimiter]

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once

	perMinute         int
	burstSize         int
	trustProxyHeaders bool
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

func NewRateLimiter(limits config.ServerRateLimits, stats ports.StatsCollector, logger logger.StyledLogger) *RateLimiter {
	burst := limits.BurstSize
	if burst <= 0 {
		burst = 1
	}

	rl := &RateLimiter{
		stats:             stats,
		logger:            logger,
		clients:           xsync.NewMap[string, *clientLimiter](),
		stopCleanup:       make(chan struct{}),
		perMinute:         limits.PerIPRequestsPerMinute,
		burstSize:         burst,
		trustProxyHeaders: limits.TrustProxyHeaders,
	}

	if rl.Enabled() && limits.CleanupInterval > 0 {
		rl.cleanupTicker = time.NewTicker(limits.CleanupInterval)
		go rl.cleanupRoutine()
	}
	return rl
}

// Enabled reports whether any limit is enforced
func (rl *RateLimiter) Enabled() bool {
	return rl.perMinute > 0
}

// Allow consumes a token for clientIP. When denied, retryAfter is how long
// the client should wait before a token is available.
func (rl *RateLimiter) Allow(clientIP string, now time.Time) (allowed bool, retryAfter time.Duration) {
	if !rl.Enabled() {
		return true, 0
	}

	cl := rl.limiterFor(clientIP, now)
	cl.mu.Lock()
	cl.lastAccess = now
	cl.mu.Unlock()

	reservation := cl.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) limiterFor(key string, now time.Time) *clientLimiter {
	if cl, ok := rl.clients.Load(key); ok {
		return cl
	}
	cl, _ := rl.clients.LoadOrStore(key, &clientLimiter{
		limiter:    rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.burstSize),
		lastAccess: now,
	})
	return cl
}

// Tracked returns how many client buckets are live
func (rl *RateLimiter) Tracked() int {
	return rl.clients.Size()
}

func (rl *RateLimiter) cleanupRoutine() {
	for {
		select {
		case <-rl.stopCleanup:
			return
		case now := <-rl.cleanupTicker.C:
			rl.sweep(now.Add(-idleLimiterTTL))
		}
	}
}

func (rl *RateLimiter) sweep(cutoff time.Time) {
	rl.clients.Range(func(key string, cl *clientLimiter) bool {
		cl.mu.Lock()
		idle := cl.lastAccess.Before(cutoff)
		cl.mu.Unlock()
		if idle {
			rl.clients.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		if rl.cleanupTicker != nil {
			rl.cleanupTicker.Stop()
		}
		close(rl.stopCleanup)
	})
}

// Middleware rejects over-limit clients with 429. The health endpoint is
// never limited so probes keep working while a client is throttled.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if !rl.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == constants.DefaultHealthCheckEndpoint {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := util.GetClientIP(r, rl.trustProxyHeaders)
		allowed, retryAfter := rl.Allow(clientIP, time.Now())
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		seconds := int(retryAfter.Seconds()) + 1
		if rl.stats != nil {
			rl.stats.RecordRateLimited()
		}
		rl.logger.Warn("Rate limit exceeded",
			"client_ip", clientIP,
			"method", r.Method,
			"path", r.URL.Path,
			"limit", rl.perMinute,
			"retry_after", seconds)

		w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(seconds))
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	})
}
