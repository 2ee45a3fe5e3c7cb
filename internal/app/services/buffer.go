package services

import (
	"context"
	"fmt"

	"github.com/docker/go-units"

	"github.com/jacktogon/ringcam/internal/adapter/framebuffer"
	"github.com/jacktogon/ringcam/internal/adapter/metrics"
	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/internal/logger"
	"github.com/jacktogon/ringcam/pkg/eventbus"
)

// BufferService owns the frame ring and the capture event bus. When
// telemetry is enabled it also builds the Prometheus collectors, which
// read straight from the ring and the stats collector.
type BufferService struct {
	config       *config.Config
	logger       logger.StyledLogger
	statsService *StatsService
	buffer       *framebuffer.Buffer
	events       *eventbus.EventBus[domain.CaptureEvent]
	metrics      *metrics.PrometheusMetrics
}

func NewBufferService(cfg *config.Config, logger logger.StyledLogger) *BufferService {
	return &BufferService{
		config: cfg,
		logger: logger,
	}
}

func (s *BufferService) Name() string {
	return ServiceBuffer
}

func (s *BufferService) Start(ctx context.Context) error {
	if s.statsService == nil {
		return fmt.Errorf("buffer service has no stats service")
	}

	maxFrame, err := s.config.Buffer.MaxFrameSizeBytes()
	if err != nil {
		return fmt.Errorf("invalid buffer.max_frame_size: %w", err)
	}

	s.buffer, err = framebuffer.New(s.config.Buffer.Capacity,
		framebuffer.WithMaxFrameSize(int(maxFrame)),
		framebuffer.WithBatchSize(s.config.Buffer.BatchSize))
	if err != nil {
		return err
	}

	s.events = eventbus.New[domain.CaptureEvent]()

	if s.config.Telemetry.Metrics.Enabled {
		s.metrics = metrics.NewPrometheusMetrics(s.statsService.GetCollector(), s.buffer)
	}

	maxFrameLabel := "unlimited"
	if maxFrame > 0 {
		maxFrameLabel = units.HumanSize(float64(maxFrame))
	}
	s.logger.Info("Frame ring ready",
		"capacity", s.buffer.Capacity(),
		"holds", s.buffer.Capacity()-1,
		"batchSize", s.buffer.BatchSize(),
		"maxFrameSize", maxFrameLabel,
		"metrics", s.metrics != nil)
	return nil
}

// Stop closes the event bus so parked long-polls return
func (s *BufferService) Stop(ctx context.Context) error {
	if s.events != nil {
		s.events.Shutdown()
	}
	return nil
}

func (s *BufferService) Dependencies() []string {
	return []string{ServiceStats}
}

func (s *BufferService) SetStatsService(stats *StatsService) {
	s.statsService = stats
}

func (s *BufferService) GetBuffer() *framebuffer.Buffer {
	return s.buffer
}

func (s *BufferService) GetEvents() *eventbus.EventBus[domain.CaptureEvent] {
	return s.events
}

// GetMetrics is nil when telemetry.metrics.enabled is off
func (s *BufferService) GetMetrics() *metrics.PrometheusMetrics {
	return s.metrics
}
