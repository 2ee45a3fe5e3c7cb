package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/internal/logger"
)

const (
	DefaultPort = 8321
	DefaultHost = "0.0.0.0"

	DefaultCapacity     = 50
	DefaultBatchSize    = 10
	DefaultMaxFrameSize = "512KB"
	DefaultPeriod       = 100 * time.Millisecond
	DefaultFrameBuffers = 4

	EnvPrefix         = "RINGCAM"
	EnvConfigFile     = "RINGCAM_CONFIG_FILE"
	DefaultConfigName = "config"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestLogging:  true,
			RateLimits: ServerRateLimits{
				PerIPRequestsPerMinute: 0,
				BurstSize:              20,
				CleanupInterval:        5 * time.Minute,
				TrustProxyHeaders:      false,
			},
		},
		Buffer: BufferConfig{
			Capacity:     DefaultCapacity,
			BatchSize:    DefaultBatchSize,
			MaxFrameSize: DefaultMaxFrameSize,
		},
		Capture: CaptureConfig{
			Source:         constants.SourceSynthetic,
			Period:         DefaultPeriod,
			Command:        "rpicam-jpeg",
			CommandTimeout: 5 * time.Second,
			Width:          640,
			Height:         480,
			Quality:        80,
			FrameBuffers:   DefaultFrameBuffers,
		},
		Stream: StreamConfig{
			MaxWait:        5 * time.Second,
			MaxEncodedSize: "",
		},
		Logging: LoggingConfig{
			Level: logger.LogLevelInfo,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: true},
		},
	}
}

// setDefaults registers every key so AutomaticEnv overrides reach Unmarshal
// even when the key is absent from the config file
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("server.request_logging", cfg.Server.RequestLogging)
	v.SetDefault("server.rate_limits.per_ip_requests_per_minute", cfg.Server.RateLimits.PerIPRequestsPerMinute)
	v.SetDefault("server.rate_limits.burst_size", cfg.Server.RateLimits.BurstSize)
	v.SetDefault("server.rate_limits.cleanup_interval", cfg.Server.RateLimits.CleanupInterval)
	v.SetDefault("server.rate_limits.trust_proxy_headers", cfg.Server.RateLimits.TrustProxyHeaders)

	v.SetDefault("buffer.capacity", cfg.Buffer.Capacity)
	v.SetDefault("buffer.batch_size", cfg.Buffer.BatchSize)
	v.SetDefault("buffer.max_frame_size", cfg.Buffer.MaxFrameSize)

	v.SetDefault("capture.source", cfg.Capture.Source)
	v.SetDefault("capture.directory", cfg.Capture.Directory)
	v.SetDefault("capture.command", cfg.Capture.Command)
	v.SetDefault("capture.command_args", cfg.Capture.CommandArgs)
	v.SetDefault("capture.period", cfg.Capture.Period)
	v.SetDefault("capture.command_timeout", cfg.Capture.CommandTimeout)
	v.SetDefault("capture.width", cfg.Capture.Width)
	v.SetDefault("capture.height", cfg.Capture.Height)
	v.SetDefault("capture.quality", cfg.Capture.Quality)
	v.SetDefault("capture.frame_buffers", cfg.Capture.FrameBuffers)

	v.SetDefault("stream.max_wait", cfg.Stream.MaxWait)
	v.SetDefault("stream.max_encoded_size", cfg.Stream.MaxEncodedSize)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("telemetry.metrics.enabled", cfg.Telemetry.Metrics.Enabled)
	v.SetDefault("engineering.show_nerdstats", cfg.Engineering.ShowNerdStats)
	v.SetDefault("engineering.profiler_address", cfg.Engineering.ProfilerAddress)
}

// Loader owns a viper instance so reloads re-read the same sources
type Loader struct {
	v        *viper.Viper
	onChange func(*Config)
	onError  func(error)
}

// NewLoader prepares a loader. configFile may be empty, in which case
// config.yaml is looked up in . and ./config, then RINGCAM_CONFIG_FILE.
func NewLoader(configFile string) *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = os.Getenv(EnvConfigFile)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v, DefaultConfig())
	return &Loader{v: v}
}

// Load reads, decodes and validates the configuration. A missing config
// file is fine when none was asked for explicitly.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) decode() (*Config, error) {
	cfg := DefaultConfig()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Filename = l.v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch hot reloads the config file. onChange only receives configs that
// pass validation, onError gets everything else.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.onChange = onChange
	l.onError = onError

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		l.reload()
	})
	l.v.WatchConfig()
}

func (l *Loader) reload() {
	cfg, err := l.decode()
	if err != nil {
		if l.onError != nil {
			l.onError(err)
		}
		return
	}
	if l.onChange != nil {
		l.onChange(cfg)
	}
}

// Validate checks the settings the core cannot run without
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &domain.ConfigValidationError{Field: "server.port", Value: c.Server.Port, Reason: "must be between 1 and 65535"}
	}
	if c.Server.RateLimits.PerIPRequestsPerMinute < 0 {
		return &domain.ConfigValidationError{Field: "server.rate_limits.per_ip_requests_per_minute", Value: c.Server.RateLimits.PerIPRequestsPerMinute, Reason: "must not be negative"}
	}

	if c.Buffer.Capacity < 2 {
		return &domain.ConfigValidationError{Field: "buffer.capacity", Value: c.Buffer.Capacity, Reason: "must be at least 2"}
	}
	if c.Buffer.BatchSize < 1 {
		return &domain.ConfigValidationError{Field: "buffer.batch_size", Value: c.Buffer.BatchSize, Reason: "must be at least 1"}
	}
	if _, err := c.Buffer.MaxFrameSizeBytes(); err != nil {
		return &domain.ConfigValidationError{Field: "buffer.max_frame_size", Value: c.Buffer.MaxFrameSize, Reason: err.Error()}
	}

	if c.Capture.Period <= 0 {
		return &domain.ConfigValidationError{Field: "capture.period", Value: c.Capture.Period, Reason: "must be positive"}
	}
	switch c.Capture.Source {
	case constants.SourceSynthetic, constants.SourceCommand:
	case constants.SourceDirectory:
		if c.Capture.Directory == "" {
			return &domain.ConfigValidationError{Field: "capture.directory", Value: c.Capture.Directory, Reason: "required when source is directory"}
		}
	default:
		return &domain.ConfigValidationError{Field: "capture.source", Value: c.Capture.Source, Reason: "must be synthetic, directory or command"}
	}
	if c.Capture.FrameBuffers < 1 {
		return &domain.ConfigValidationError{Field: "capture.frame_buffers", Value: c.Capture.FrameBuffers, Reason: "must be at least 1"}
	}
	if c.Capture.Quality < 1 || c.Capture.Quality > 100 {
		return &domain.ConfigValidationError{Field: "capture.quality", Value: c.Capture.Quality, Reason: "must be between 1 and 100"}
	}
	if c.Capture.Width < 1 || c.Capture.Height < 1 {
		return &domain.ConfigValidationError{Field: "capture.width", Value: fmt.Sprintf("%dx%d", c.Capture.Width, c.Capture.Height), Reason: "frame dimensions must be positive"}
	}

	if c.Stream.MaxWait < 0 {
		return &domain.ConfigValidationError{Field: "stream.max_wait", Value: c.Stream.MaxWait, Reason: "must not be negative"}
	}
	if _, err := c.Stream.MaxEncodedSizeBytes(); err != nil {
		return &domain.ConfigValidationError{Field: "stream.max_encoded_size", Value: c.Stream.MaxEncodedSize, Reason: err.Error()}
	}

	if !logger.IsValidLevel(c.Logging.Level) {
		return &domain.ConfigValidationError{Field: "logging.level", Value: c.Logging.Level, Reason: "must be debug, info, warn or error"}
	}
	return nil
}

// Dump renders the effective configuration as YAML
func (c *Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}
