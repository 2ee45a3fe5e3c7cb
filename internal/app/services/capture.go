package services

import (
	"context"
	"fmt"

	"github.com/jacktogon/ringcam/internal/adapter/camera"
	"github.com/jacktogon/ringcam/internal/adapter/capture"
	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/core/ports"
	"github.com/jacktogon/ringcam/internal/logger"
)

// CaptureService opens the frame source and runs the producer loop that
// feeds the ring.
type CaptureService struct {
	config        *config.CaptureConfig
	logger        logger.StyledLogger
	statsService  *StatsService
	bufferService *BufferService
	source        ports.FrameSource
	producer      *capture.Producer
}

func NewCaptureService(cfg *config.CaptureConfig, logger logger.StyledLogger) *CaptureService {
	return &CaptureService{
		config: cfg,
		logger: logger,
	}
}

func (s *CaptureService) Name() string {
	return ServiceCapture
}

func (s *CaptureService) Start(ctx context.Context) error {
	if s.statsService == nil || s.bufferService == nil {
		return fmt.Errorf("capture service dependencies not set")
	}

	source, err := camera.NewSource(s.config)
	if err != nil {
		return fmt.Errorf("failed to open %s source: %w", s.config.Source, err)
	}
	s.source = source

	opts := []capture.Option{
		capture.WithPeriod(s.config.Period),
		capture.WithEvents(s.bufferService.GetEvents()),
	}
	// a typed nil would defeat the producer's nil check
	if m := s.bufferService.GetMetrics(); m != nil {
		opts = append(opts, capture.WithMetrics(m))
	}

	s.producer = capture.NewProducer(source, s.bufferService.GetBuffer(), s.statsService.GetCollector(), s.logger, opts...)
	if err := s.producer.Start(ctx); err != nil {
		_ = s.source.Close()
		return err
	}
	return nil
}

// Stop halts the loop before closing the source so no Acquire is left
// without its Release
func (s *CaptureService) Stop(ctx context.Context) error {
	if s.producer != nil {
		s.producer.Stop()
	}
	if s.source != nil {
		if err := s.source.Close(); err != nil {
			return fmt.Errorf("closing %s source: %w", s.source.Name(), err)
		}
	}
	s.logger.ResetLine()
	s.logger.InfoWithStatus("Stopping capture", "OK")
	return nil
}

func (s *CaptureService) Dependencies() []string {
	return []string{ServiceStats, ServiceBuffer}
}

func (s *CaptureService) SetDependencies(stats *StatsService, buffer *BufferService) {
	s.statsService = stats
	s.bufferService = buffer
}

func (s *CaptureService) GetProducer() *capture.Producer {
	return s.producer
}
