package services

import (
	"context"
	"fmt"

	"github.com/jacktogon/ringcam/internal/adapter/security"
	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/logger"
)

// SecurityService owns the per client rate limiter in front of /batch_stream
type SecurityService struct {
	serverConfig *config.ServerConfig
	statsService *StatsService
	logger       logger.StyledLogger
	limiter      *security.RateLimiter
}

func NewSecurityService(serverConfig *config.ServerConfig, logger logger.StyledLogger) *SecurityService {
	return &SecurityService{
		serverConfig: serverConfig,
		logger:       logger,
	}
}

func (s *SecurityService) Name() string {
	return ServiceSecurity
}

func (s *SecurityService) Start(ctx context.Context) error {
	if s.statsService == nil {
		return fmt.Errorf("security service has no stats service")
	}

	limits := s.serverConfig.RateLimits
	s.limiter = security.NewRateLimiter(limits, s.statsService.GetCollector(), s.logger)

	if s.limiter.Enabled() {
		s.logger.Info("Rate limiting enabled",
			"perIPRequestsPerMinute", limits.PerIPRequestsPerMinute,
			"burst", limits.BurstSize,
			"trustProxyHeaders", limits.TrustProxyHeaders)
	} else {
		s.logger.Debug("Rate limiting disabled")
	}
	return nil
}

func (s *SecurityService) Stop(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return nil
}

func (s *SecurityService) Dependencies() []string {
	return []string{ServiceStats}
}

func (s *SecurityService) SetStatsService(stats *StatsService) {
	s.statsService = stats
}

func (s *SecurityService) GetRateLimiter() *security.RateLimiter {
	return s.limiter
}
