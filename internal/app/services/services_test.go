package services

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/core/domain"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.RequestLogging = false
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Buffer.Capacity = 8
	cfg.Buffer.BatchSize = 4
	cfg.Capture.Period = 10 * time.Millisecond
	cfg.Capture.Width = 64
	cfg.Capture.Height = 48
	return cfg
}

func startStack(t *testing.T, cfg *config.Config) (*ServiceManager, *HTTPService) {
	t.Helper()
	log := createTestLogger()

	stats := NewStatsService(log)
	buffer := NewBufferService(cfg, log)
	capture := NewCaptureService(&cfg.Capture, log)
	security := NewSecurityService(&cfg.Server, log)
	httpSvc := NewHTTPService(cfg, log)

	buffer.SetStatsService(stats)
	capture.SetDependencies(stats, buffer)
	security.SetStatsService(stats)
	httpSvc.SetDependencies(stats, buffer, capture, security)

	sm := NewServiceManager(log)
	for _, svc := range []ManagedService{httpSvc, capture, security, buffer, stats} {
		require.NoError(t, sm.Register(svc))
	}
	require.NoError(t, sm.Start(context.Background()))
	return sm, httpSvc
}

func TestStack_ServesCapturedFrames(t *testing.T) {
	cfg := testConfig()
	sm, httpSvc := startStack(t, cfg)

	capture, err := sm.GetRegistry().GetCapture()
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return capture.GetProducer().Cycles() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + httpSvc.Addr() + "/batch_stream?wait=1s")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var frames []string
	require.NoError(t, jsoniter.Unmarshal(body, &frames))
	assert.NotEmpty(t, frames)
	assert.LessOrEqual(t, len(frames), cfg.Buffer.BatchSize)

	resp, err = http.Get("http://" + httpSvc.Addr() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sm.Stop(stopCtx))

	<-httpSvc.Done()
	assert.NoError(t, httpSvc.Err())
	assert.Equal(t, domain.ProducerStopped, capture.GetProducer().State())
}

func TestStack_ShutdownReleasesParkedLongPoll(t *testing.T) {
	cfg := testConfig()
	// a slow producer keeps the ring empty after the first drain
	cfg.Capture.Period = time.Hour
	cfg.Stream.MaxWait = 30 * time.Second
	sm, httpSvc := startStack(t, cfg)

	addr := "http://" + httpSvc.Addr() + "/batch_stream"
	resp, err := http.Get(addr)
	require.NoError(t, err)
	resp.Body.Close()

	done := make(chan int, 1)
	go func() {
		resp, err := http.Get(addr + "?wait=30s")
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	// give the request time to park
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sm.Stop(stopCtx))
	assert.Less(t, time.Since(start), 5*time.Second)

	select {
	case code := <-done:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("long-poll was not released by shutdown")
	}
}

func TestStack_ListenFailureRollsBack(t *testing.T) {
	cfg := testConfig()
	sm, httpSvc := startStack(t, cfg)
	defer func() { _ = sm.Stop(context.Background()) }()

	// second stack on the same port must fail and stop its own producer
	clash := testConfig()
	host, port := splitHostPort(t, httpSvc.Addr())
	clash.Server.Host = host
	clash.Server.Port = port

	log := createTestLogger()
	stats := NewStatsService(log)
	buffer := NewBufferService(clash, log)
	capture := NewCaptureService(&clash.Capture, log)
	security := NewSecurityService(&clash.Server, log)
	second := NewHTTPService(clash, log)
	buffer.SetStatsService(stats)
	capture.SetDependencies(stats, buffer)
	security.SetStatsService(stats)
	second.SetDependencies(stats, buffer, capture, security)

	sm2 := NewServiceManager(log)
	for _, svc := range []ManagedService{second, capture, security, buffer, stats} {
		require.NoError(t, sm2.Register(svc))
	}
	err := sm2.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
	assert.Equal(t, domain.ProducerStopped, capture.GetProducer().State())
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, rawPort, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(rawPort)
	require.NoError(t, err)
	return host, port
}
