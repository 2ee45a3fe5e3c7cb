package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jacktogon/ringcam/internal/app/services"
	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/logger"
)

// Application wires the capture pipeline and the HTTP surface together
// and keeps them in step with config reloads.
type Application struct {
	startTime time.Time
	logger    logger.StyledLogger
	loader    *config.Loader
	manager   *services.ServiceManager

	buffer  *services.BufferService
	capture *services.CaptureService
	http    *services.HTTPService

	config   *config.Config
	configMu sync.RWMutex
}

// New registers every service against cfg. loader may be nil, in which
// case the config is never reloaded.
func New(startTime time.Time, cfg *config.Config, loader *config.Loader, logger logger.StyledLogger) (*Application, error) {
	stats := services.NewStatsService(logger)
	buffer := services.NewBufferService(cfg, logger)
	capture := services.NewCaptureService(&cfg.Capture, logger)
	security := services.NewSecurityService(&cfg.Server, logger)
	httpSvc := services.NewHTTPService(cfg, logger)

	buffer.SetStatsService(stats)
	capture.SetDependencies(stats, buffer)
	security.SetStatsService(stats)
	httpSvc.SetDependencies(stats, buffer, capture, security)

	manager := services.NewServiceManager(logger)
	for _, svc := range []services.ManagedService{stats, buffer, capture, security, httpSvc} {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("failed to register %s service: %w", svc.Name(), err)
		}
	}

	return &Application{
		startTime: startTime,
		logger:    logger,
		loader:    loader,
		manager:   manager,
		buffer:    buffer,
		capture:   capture,
		http:      httpSvc,
		config:    cfg,
	}, nil
}

func (a *Application) Start(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return err
	}

	if a.loader != nil {
		a.loader.Watch(a.applyConfig, func(err error) {
			a.logger.Warn("Ignoring config change", "error", err)
		})
	}

	a.logger.Debug("Started in", "elapsed", time.Since(a.startTime))
	return nil
}

// Stop shuts every service down within server.shutdown_timeout
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.getConfig().Server.ShutdownTimeout)
	defer cancel()

	return a.manager.Stop(shutdownCtx)
}

// Done is closed when the HTTP server stops on its own, e.g. on a serve error
func (a *Application) Done() <-chan struct{} {
	return a.http.Done()
}

// Err reports why the HTTP server stopped once Done is closed
func (a *Application) Err() error {
	return a.http.Err()
}

// Addr is the address the HTTP server is bound to
func (a *Application) Addr() string {
	return a.http.Addr()
}
