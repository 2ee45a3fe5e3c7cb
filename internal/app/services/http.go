package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/jacktogon/ringcam/internal/adapter/encoder"
	"github.com/jacktogon/ringcam/internal/app/handlers"
	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/logger"
	"github.com/jacktogon/ringcam/internal/version"
)

// HTTPService serves the batch stream and the internal endpoints. It only
// starts once the ring is up and the producer is running.
type HTTPService struct {
	config      *config.Config
	logger      logger.StyledLogger
	server      *http.Server
	application *handlers.Application

	statsService    *StatsService
	bufferService   *BufferService
	captureService  *CaptureService
	securityService *SecurityService

	cancel    context.CancelFunc
	done      chan struct{}
	err       error
	boundAddr string
}

func NewHTTPService(cfg *config.Config, logger logger.StyledLogger) *HTTPService {
	return &HTTPService{
		config: cfg,
		logger: logger,
	}
}

func (s *HTTPService) Name() string {
	return ServiceHTTP
}

func (s *HTTPService) Start(ctx context.Context) error {
	if s.statsService == nil || s.bufferService == nil || s.captureService == nil || s.securityService == nil {
		return fmt.Errorf("http service dependencies not set")
	}

	maxEncoded, err := s.config.Stream.MaxEncodedSizeBytes()
	if err != nil {
		return fmt.Errorf("invalid stream.max_encoded_size: %w", err)
	}
	enc, err := encoder.NewBase64Encoder(int(maxEncoded))
	if err != nil {
		return err
	}

	deps := handlers.Dependencies{
		Buffer:      s.bufferService.GetBuffer(),
		Encoder:     enc,
		Stats:       s.statsService.GetCollector(),
		Producer:    s.captureService.GetProducer(),
		Events:      s.bufferService.GetEvents(),
		RateLimiter: s.securityService.GetRateLimiter().Middleware,
	}
	if m := s.bufferService.GetMetrics(); m != nil {
		deps.Metrics = m
		deps.MetricsHandler = m.Handler()
	}

	s.application = handlers.NewApplication(s.config, deps, s.logger)
	s.application.RegisterRoutes()

	addr := s.config.Server.GetAddress()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	serveCtx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(serveCtx)

	s.server = &http.Server{
		Handler:      s.application.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
		// parked long-polls give up as soon as shutdown begins
		BaseContext: func(net.Listener) context.Context { return groupCtx },
	}

	group.Go(func() error {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancelShutdown()
		return s.server.Shutdown(shutdownCtx)
	})

	s.cancel = cancel
	s.boundAddr = listener.Addr().String()
	s.done = make(chan struct{})
	go func() {
		s.err = group.Wait()
		close(s.done)
	}()

	s.logger.Info("HTTP server listening",
		"address", s.boundAddr,
		"readTimeout", s.config.Server.ReadTimeout,
		"writeTimeout", s.config.Server.WriteTimeout,
		"idleTimeout", s.config.Server.IdleTimeout)
	s.logger.InfoWithStatus(version.Name+" started, waiting for requests", "OK", "bind", s.boundAddr)
	return nil
}

// Stop drains in-flight requests within server.shutdown_timeout
func (s *HTTPService) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.logger.Info(" Stopping HTTP server...")
	s.cancel()

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.ResetLine()
	if s.err != nil {
		s.logger.Error("HTTP server shutdown error", "error", s.err)
		return s.err
	}
	s.logger.InfoWithStatus("Stopping HTTP server", "OK")
	return nil
}

func (s *HTTPService) Dependencies() []string {
	return []string{ServiceStats, ServiceBuffer, ServiceCapture, ServiceSecurity}
}

func (s *HTTPService) SetDependencies(stats *StatsService, buffer *BufferService, capture *CaptureService, security *SecurityService) {
	s.statsService = stats
	s.bufferService = buffer
	s.captureService = capture
	s.securityService = security
}

// Done is closed once the server has stopped serving, for whatever reason
func (s *HTTPService) Done() <-chan struct{} {
	return s.done
}

// Err is the reason the server stopped; only valid after Done is closed
func (s *HTTPService) Err() error {
	return s.err
}

func (s *HTTPService) GetApplication() *handlers.Application {
	return s.application
}

// Addr is the bound listener address, useful when port 0 was asked for
func (s *HTTPService) Addr() string {
	return s.boundAddr
}
