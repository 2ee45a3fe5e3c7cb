package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/logger"
)

func createTestLogger() logger.StyledLogger {
	log, _, _ := logger.New(&logger.Config{Level: "error", Theme: "default"})
	return logger.NewPlainStyledLogger(log)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.RequestLogging = false
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Capture.Width = 32
	cfg.Capture.Height = 24
	cfg.Capture.Period = 20 * time.Millisecond
	return cfg
}

func startApp(t *testing.T, cfg *config.Config, loader *config.Loader) *Application {
	t.Helper()
	a, err := New(time.Now(), cfg, loader, createTestLogger())
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { _ = a.Stop(context.Background()) })
	return a
}

func TestApplyConfig_LiveTunables(t *testing.T) {
	cfg := testConfig()
	a := startApp(t, cfg, nil)

	next := *cfg
	next.Capture.Period = 250 * time.Millisecond
	next.Buffer.BatchSize = 3
	next.Stream.MaxWait = 2 * time.Second
	a.applyConfig(&next)

	assert.Equal(t, 250*time.Millisecond, a.capture.GetProducer().Period())
	assert.Equal(t, 3, a.buffer.GetBuffer().BatchSize())
	assert.Equal(t, 2*time.Second, a.http.GetApplication().MaxWait())
	assert.Equal(t, 3, a.getConfig().Buffer.BatchSize)
}

func TestApplyConfig_RestartOnlyKeysAreNotApplied(t *testing.T) {
	cfg := testConfig()
	a := startApp(t, cfg, nil)

	next := *cfg
	next.Buffer.Capacity = 99
	next.Capture.Source = "directory"
	a.applyConfig(&next)

	assert.Equal(t, cfg.Buffer.Capacity, a.buffer.GetBuffer().Capacity())
	assert.Equal(t, cfg.Buffer.Capacity, a.getConfig().Buffer.Capacity)
	assert.Equal(t, "synthetic", a.capture.GetProducer().SourceName())
}

func TestRestartRequired(t *testing.T) {
	prev := testConfig()
	next := testConfig()
	assert.Empty(t, restartRequired(prev, next))

	next.Buffer.Capacity = 7
	next.Server.Port = 9999
	next.Capture.CommandArgs = []string{"--flip"}
	next.Telemetry.Metrics.Enabled = false

	assert.Equal(t,
		[]string{"buffer.capacity", "capture.source", "server.address", "telemetry"},
		restartRequired(prev, next))
}

func TestApplication_ReloadsFromFile(t *testing.T) {
	port := freePort(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, port, 10)

	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	require.NoError(t, err)
	cfg.Server.RequestLogging = false

	a := startApp(t, cfg, loader)
	require.Equal(t, 10, a.buffer.GetBuffer().BatchSize())

	writeConfig(t, path, port, 4)
	assert.Eventually(t, func() bool {
		return a.buffer.GetBuffer().BatchSize() == 4
	}, 5*time.Second, 50*time.Millisecond)
}

func writeConfig(t *testing.T, path string, port, batch int) {
	t.Helper()
	body := fmt.Sprintf(`server:
  host: 127.0.0.1
  port: %d
  request_logging: false
buffer:
  capacity: 12
  batch_size: %d
capture:
  source: synthetic
  period: 50ms
  width: 32
  height: 24
`, port, batch)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}
