package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktogon/ringcam/internal/adapter/framebuffer"
	"github.com/jacktogon/ringcam/internal/adapter/stats"
	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/internal/logger"
)

func newTestMetrics(t *testing.T) (*PrometheusMetrics, *stats.Collector, *framebuffer.Buffer) {
	t.Helper()
	log, _, _ := logger.New(&logger.Config{Level: "error", Theme: "default"})
	collector := stats.NewCollector(logger.NewPlainStyledLogger(log))
	buf, err := framebuffer.New(5)
	require.NoError(t, err)
	return NewPrometheusMetrics(collector, buf), collector, buf
}

func TestPrometheusMetrics_Gather(t *testing.T) {
	m, collector, buf := newTestMetrics(t)

	_, err := buf.Write([]byte("abc"), time.Now())
	require.NoError(t, err)
	collector.RecordCapture(3, false)
	collector.RecordBatch(1, 3, 0)

	m.ObserveBatch(2*time.Millisecond, 1)
	m.ObserveCycle(time.Millisecond, nil)
	m.ObserveCycle(time.Millisecond, errors.New("boom"))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				values[f.GetName()] += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, float64(1), values["ringcam_frames_captured_total"])
	assert.Equal(t, float64(3), values["ringcam_captured_bytes_total"])
	assert.Equal(t, float64(1), values["ringcam_frames_served_total"])
	assert.Equal(t, float64(1), values["ringcam_buffer_occupancy"])
	assert.Equal(t, float64(5), values["ringcam_buffer_capacity"])
	assert.Equal(t, float64(framebuffer.DefaultBatchSize), values["ringcam_buffer_batch_size"])
	assert.Equal(t, float64(1), values["ringcam_batch_duration_seconds"])
	assert.Equal(t, float64(2), values["ringcam_capture_cycle_duration_seconds"])
	assert.Contains(t, values, "go_goroutines")
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m, _, _ := newTestMetrics(t)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ringcam_buffer_capacity 5")
}

type countingStats struct {
	*stats.Collector
	snapshots int
}

func (c *countingStats) Snapshot() domain.CaptureStats {
	c.snapshots++
	return c.Collector.Snapshot()
}

func TestPrometheusMetrics_OneSnapshotPerScrape(t *testing.T) {
	_, collector, buf := newTestMetrics(t)
	counting := &countingStats{Collector: collector}
	m := NewPrometheusMetrics(counting, buf)

	collector.RecordCapture(7, true)
	_, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.Equal(t, 1, counting.snapshots)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.Equal(t, 2, counting.snapshots)

	values := make(map[string]float64)
	for _, f := range families {
		if f.GetType().String() == "COUNTER" {
			values[f.GetName()] = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(7), values["ringcam_captured_bytes_total"])
	assert.Equal(t, float64(1), values["ringcam_evictions_total"])
}
