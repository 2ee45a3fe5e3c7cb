package handlers

import (
	"net/http"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/jacktogon/ringcam/internal/app/middleware"
	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/internal/core/ports"
	"github.com/jacktogon/ringcam/internal/logger"
	"github.com/jacktogon/ringcam/internal/router"
	"github.com/jacktogon/ringcam/pkg/eventbus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dependencies are the collaborators the handlers read from. Metrics,
// MetricsHandler and RateLimiter are optional.
type Dependencies struct {
	Buffer         ports.FrameBuffer
	Encoder        ports.FrameEncoder
	Stats          ports.StatsCollector
	Producer       ports.ProducerStatus
	Events         *eventbus.EventBus[domain.CaptureEvent]
	Metrics        ports.MetricsRecorder
	MetricsHandler http.Handler
	RateLimiter    router.Middleware
}

// Application holds everything the HTTP handlers need
type Application struct {
	Config         *config.Config
	StartTime      time.Time
	logger         logger.StyledLogger
	buffer         ports.FrameBuffer
	encoder        ports.FrameEncoder
	stats          ports.StatsCollector
	producer       ports.ProducerStatus
	events         *eventbus.EventBus[domain.CaptureEvent]
	metrics        ports.MetricsRecorder
	metricsHandler http.Handler
	rateLimiter    router.Middleware
	routeRegistry  *router.RouteRegistry
	maxWait        atomic.Int64
}

func NewApplication(cfg *config.Config, deps Dependencies, logger logger.StyledLogger) *Application {
	a := &Application{
		Config:         cfg,
		StartTime:      time.Now(),
		logger:         logger,
		buffer:         deps.Buffer,
		encoder:        deps.Encoder,
		stats:          deps.Stats,
		producer:       deps.Producer,
		events:         deps.Events,
		metrics:        deps.Metrics,
		metricsHandler: deps.MetricsHandler,
		rateLimiter:    deps.RateLimiter,
		routeRegistry:  router.NewRouteRegistry(logger),
	}
	a.SetMaxWait(cfg.Stream.MaxWait)
	return a
}

func (a *Application) RegisterRoutes() {
	a.routeRegistry.RegisterLimited(constants.DefaultBatchStreamEndpoint, a.batchStreamHandler, "Drain a batch of base64 frames")
	a.routeRegistry.Register(constants.DefaultHealthCheckEndpoint, a.healthHandler, "Health check endpoint")
	a.routeRegistry.Register(constants.DefaultStatusEndpoint, a.statusHandler, "Ring and capture status")
	a.routeRegistry.Register(constants.DefaultProcessEndpoint, a.processStatsHandler, "Process status")
	a.routeRegistry.Register(constants.DefaultVersionEndpoint, a.versionHandler, "Version information")
	if a.metricsHandler != nil {
		a.routeRegistry.RegisterWithMethod(constants.DefaultMetricsEndpoint, a.metricsHandler, "Prometheus metrics", http.MethodGet)
	}
}

// Handler wires the routes into a mux wrapped with request logging
func (a *Application) Handler() http.Handler {
	mux := http.NewServeMux()
	a.routeRegistry.WireUp(mux, a.rateLimiter)

	if !a.Config.Server.RequestLogging {
		return mux
	}
	return middleware.EnhancedLoggingMiddleware(a.logger)(middleware.AccessLoggingMiddleware(a.logger)(mux))
}

func (a *Application) GetRouteRegistry() *router.RouteRegistry {
	return a.routeRegistry
}

// SetMaxWait caps how long a batch request may wait for a first frame
func (a *Application) SetMaxWait(d time.Duration) {
	if d < 0 {
		d = 0
	}
	a.maxWait.Store(int64(d))
}

func (a *Application) MaxWait() time.Duration {
	return time.Duration(a.maxWait.Load())
}

func (a *Application) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("Failed to encode response", "error", err)
	}
}
