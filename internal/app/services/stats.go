package services

import (
	"context"

	"github.com/jacktogon/ringcam/internal/adapter/stats"
	"github.com/jacktogon/ringcam/internal/core/ports"
	"github.com/jacktogon/ringcam/internal/logger"
)

// StatsService owns the capture and batch counters. Everything else
// records into it, so it comes up first.
type StatsService struct {
	collector *stats.Collector
	logger    logger.StyledLogger
}

func NewStatsService(logger logger.StyledLogger) *StatsService {
	return &StatsService{
		logger: logger,
	}
}

func (s *StatsService) Name() string {
	return ServiceStats
}

func (s *StatsService) Start(ctx context.Context) error {
	s.collector = stats.NewCollector(s.logger)
	s.logger.Debug("Stats collector initialised")
	return nil
}

// Stop logs a final tally; the counters need no teardown
func (s *StatsService) Stop(ctx context.Context) error {
	if s.collector == nil {
		return nil
	}
	snap := s.collector.Snapshot()
	s.logger.Info("Capture totals",
		"captured", snap.FramesCaptured,
		"served", snap.FramesServed,
		"evictions", snap.Evictions,
		"acquireFailures", snap.AcquireFailures)
	return nil
}

func (s *StatsService) Dependencies() []string {
	return nil
}

func (s *StatsService) GetCollector() ports.StatsCollector {
	if s.collector == nil {
		panic("stats collector not initialised")
	}
	return s.collector
}
