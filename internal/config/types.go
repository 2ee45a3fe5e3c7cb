package config

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

// Config holds all configuration for the daemon
type Config struct {
	Filename    string            `yaml:"-" mapstructure:"-"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Buffer      BufferConfig      `yaml:"buffer" mapstructure:"buffer"`
	Capture     CaptureConfig     `yaml:"capture" mapstructure:"capture"`
	Stream      StreamConfig      `yaml:"stream" mapstructure:"stream"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" mapstructure:"telemetry"`
	Engineering EngineeringConfig `yaml:"engineering" mapstructure:"engineering"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string           `yaml:"host" mapstructure:"host"`
	RateLimits      ServerRateLimits `yaml:"rate_limits" mapstructure:"rate_limits"`
	Port            int              `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration    `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration    `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration    `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration    `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	RequestLogging  bool             `yaml:"request_logging" mapstructure:"request_logging"`
}

// GetAddress returns the server address in host:port format
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ServerRateLimits throttles /batch_stream per client IP, zero disables it
type ServerRateLimits struct {
	PerIPRequestsPerMinute int           `yaml:"per_ip_requests_per_minute" mapstructure:"per_ip_requests_per_minute"`
	BurstSize              int           `yaml:"burst_size" mapstructure:"burst_size"`
	CleanupInterval        time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
	TrustProxyHeaders      bool          `yaml:"trust_proxy_headers" mapstructure:"trust_proxy_headers"`
}

// BufferConfig sizes the frame ring. Capacity and max frame size are fixed
// at startup; batch size can be changed by a config reload.
type BufferConfig struct {
	MaxFrameSize string `yaml:"max_frame_size" mapstructure:"max_frame_size"`
	Capacity     int    `yaml:"capacity" mapstructure:"capacity"`
	BatchSize    int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// MaxFrameSizeBytes parses MaxFrameSize ("512KB", "2MiB"...); empty means unlimited
func (b *BufferConfig) MaxFrameSizeBytes() (int64, error) {
	return parseSize(b.MaxFrameSize)
}

// CaptureConfig drives the producer loop and picks the frame source
type CaptureConfig struct {
	Source         string        `yaml:"source" mapstructure:"source"`
	Directory      string        `yaml:"directory" mapstructure:"directory"`
	Command        string        `yaml:"command" mapstructure:"command"`
	CommandArgs    []string      `yaml:"command_args" mapstructure:"command_args"`
	Period         time.Duration `yaml:"period" mapstructure:"period"`
	CommandTimeout time.Duration `yaml:"command_timeout" mapstructure:"command_timeout"`
	Width          int           `yaml:"width" mapstructure:"width"`
	Height         int           `yaml:"height" mapstructure:"height"`
	Quality        int           `yaml:"quality" mapstructure:"quality"`
	FrameBuffers   int           `yaml:"frame_buffers" mapstructure:"frame_buffers"`
}

// StreamConfig shapes /batch_stream responses
type StreamConfig struct {
	MaxEncodedSize string        `yaml:"max_encoded_size" mapstructure:"max_encoded_size"`
	MaxWait        time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

func (s *StreamConfig) MaxEncodedSizeBytes() (int64, error) {
	return parseSize(s.MaxEncodedSize)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// EngineeringConfig holds development/debugging configuration
type EngineeringConfig struct {
	// ProfilerAddress serves pprof on a separate listener; empty disables it
	ProfilerAddress string `yaml:"profiler_address" mapstructure:"profiler_address"`
	ShowNerdStats   bool   `yaml:"show_nerdstats" mapstructure:"show_nerdstats"`
}

func parseSize(s string) (int64, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}
