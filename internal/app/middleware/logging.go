package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/docker/go-units"

	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/logger"
	"github.com/jacktogon/ringcam/internal/util"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	LoggerKey    contextKey = "logger"
)

// IsPollingRequest reports whether path is hit by clients on a tight loop.
// Those requests are logged at debug so a 1Hz poller does not drown the terminal.
func IsPollingRequest(path string) bool {
	return path == constants.DefaultBatchStreamEndpoint ||
		path == constants.DefaultHealthCheckEndpoint ||
		path == constants.DefaultMetricsEndpoint
}

// responseWriter captures status and size of the response
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += int64(size)
	return size, err
}

func (rw *responseWriter) WriteHeader(s int) {
	rw.status = s
	rw.ResponseWriter.WriteHeader(s)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// GetLogger returns the request scoped logger, or slog.Default outside a request
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// EnhancedLoggingMiddleware tags each request with an ID, exposes it to
// handlers through the context and logs start and completion.
func EnhancedLoggingMiddleware(styledLogger logger.StyledLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(constants.HeaderXRequestID)
			if requestID == "" {
				requestID = util.GenerateRequestID()
			}

			baseLogger := styledLogger.GetUnderlying().With(constants.ContextRequestIdKey, requestID)
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = context.WithValue(ctx, LoggerKey, baseLogger)
			ctx = context.WithValue(ctx, contextKey(constants.ContextRequestTimeKey), start)

			w.Header().Set(constants.HeaderRingcamRequestID, requestID)
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			level := slog.LevelInfo
			if IsPollingRequest(r.URL.Path) {
				level = slog.LevelDebug
			}

			baseLogger.Log(ctx, level, "Request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent())

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			duration := time.Since(start)
			baseLogger.Log(ctx, level, "Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration_ms", duration.Milliseconds(),
				"response_bytes", wrapped.size,
				"response_size", FormatBytes(wrapped.size))
		})
	}
}

// AccessLoggingMiddleware writes one detailed record per request to the log
// file only.
func AccessLoggingMiddleware(styledLogger logger.StyledLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := GetRequestID(r.Context())
			if requestID == "" {
				requestID = util.GenerateRequestID()
				r = r.WithContext(context.WithValue(r.Context(), RequestIDKey, requestID))
			}

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			styledLogger.GetUnderlying().InfoContext(logger.WithDetailed(r.Context()), "Access log",
				"timestamp", start.Format(time.RFC3339),
				"request_id", requestID,
				"remote_addr", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", wrapped.status,
				"response_bytes", wrapped.size,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", r.UserAgent(),
				"accept", r.Header.Get(constants.HeaderAccept))
		})
	}
}

// FormatBytes renders a byte count in binary units, e.g. "1.5KiB"
func FormatBytes(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	}
	return units.BytesSize(float64(bytes))
}
