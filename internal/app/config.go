package app

import (
	"slices"

	"github.com/jacktogon/ringcam/internal/config"
)

func (a *Application) setConfig(cfg *config.Config) {
	a.configMu.Lock()
	defer a.configMu.Unlock()
	a.config = cfg
}

func (a *Application) getConfig() *config.Config {
	a.configMu.RLock()
	defer a.configMu.RUnlock()
	return a.config
}

// applyConfig pushes the live tunables from a reloaded config into the
// running services. Settings baked into the ring, the source or the
// listener are only reported; they need a restart.
func (a *Application) applyConfig(next *config.Config) {
	prev := a.getConfig()

	applied := make([]any, 0, 6)
	if next.Capture.Period != prev.Capture.Period {
		if producer := a.capture.GetProducer(); producer != nil {
			producer.SetPeriod(next.Capture.Period)
		}
		applied = append(applied, "capture.period", next.Capture.Period)
	}
	if next.Buffer.BatchSize != prev.Buffer.BatchSize {
		if buffer := a.buffer.GetBuffer(); buffer != nil {
			buffer.SetBatchSize(next.Buffer.BatchSize)
		}
		applied = append(applied, "buffer.batch_size", next.Buffer.BatchSize)
	}
	if next.Stream.MaxWait != prev.Stream.MaxWait {
		if application := a.http.GetApplication(); application != nil {
			application.SetMaxWait(next.Stream.MaxWait)
		}
		applied = append(applied, "stream.max_wait", next.Stream.MaxWait)
	}

	if restart := restartRequired(prev, next); len(restart) > 0 {
		a.logger.Warn("Config changes need a restart to take effect", "keys", restart)
	}

	// keep the startup values for restart-only keys so later reloads
	// still compare against what is actually running
	merged := *prev
	merged.Capture.Period = next.Capture.Period
	merged.Buffer.BatchSize = next.Buffer.BatchSize
	merged.Stream.MaxWait = next.Stream.MaxWait
	a.setConfig(&merged)

	if len(applied) > 0 {
		a.logger.Info("Config reloaded", applied...)
	}
}

func restartRequired(prev, next *config.Config) []string {
	var keys []string
	if prev.Buffer.Capacity != next.Buffer.Capacity {
		keys = append(keys, "buffer.capacity")
	}
	if prev.Buffer.MaxFrameSize != next.Buffer.MaxFrameSize {
		keys = append(keys, "buffer.max_frame_size")
	}
	if prev.Capture.Source != next.Capture.Source ||
		prev.Capture.Directory != next.Capture.Directory ||
		prev.Capture.Command != next.Capture.Command ||
		!slices.Equal(prev.Capture.CommandArgs, next.Capture.CommandArgs) {
		keys = append(keys, "capture.source")
	}
	if prev.Capture.Width != next.Capture.Width || prev.Capture.Height != next.Capture.Height ||
		prev.Capture.Quality != next.Capture.Quality || prev.Capture.FrameBuffers != next.Capture.FrameBuffers {
		keys = append(keys, "capture.format")
	}
	if prev.Server.GetAddress() != next.Server.GetAddress() {
		keys = append(keys, "server.address")
	}
	if prev.Server.RateLimits != next.Server.RateLimits {
		keys = append(keys, "server.rate_limits")
	}
	if prev.Stream.MaxEncodedSize != next.Stream.MaxEncodedSize {
		keys = append(keys, "stream.max_encoded_size")
	}
	if prev.Telemetry != next.Telemetry {
		keys = append(keys, "telemetry")
	}
	return keys
}
