package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/internal/core/ports"
)

const namespace = "ringcam"

// PrometheusMetrics exports ring and capture state. Counters are read from
// the stats collector and the buffer at scrape time, so nothing on the hot
// path touches prometheus except the histograms.
type PrometheusMetrics struct {
	registry      *prometheus.Registry
	batchDuration prometheus.Histogram
	batchFrames   prometheus.Histogram
	cycleDuration *prometheus.HistogramVec
}

func NewPrometheusMetrics(stats ports.StatsCollector, buffer ports.FrameBuffer) *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	p := &PrometheusMetrics{
		registry: registry,
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time spent draining and encoding a batch",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		batchFrames: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_frames",
			Help:      "Frames returned per batch",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		cycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capture_cycle_duration_seconds",
			Help:      "Duration of a capture cycle",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"status"}),
	}

	registry.MustRegister(newStatsCollector(stats))

	gauge := func(name, help string, read func() float64) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, read)
	}

	gauge("buffer_occupancy", "Frames currently held in the ring", func() float64 {
		return float64(buffer.Occupancy())
	})
	gauge("buffer_capacity", "Ring slot count; at most capacity-1 frames are held", func() float64 {
		return float64(buffer.Capacity())
	})
	gauge("buffer_batch_size", "Default frames per batch", func() float64 {
		return float64(buffer.BatchSize())
	})

	return p
}

type statCounter struct {
	desc  *prometheus.Desc
	value func(domain.CaptureStats) int64
}

// statsCollector turns one stats snapshot per scrape into every capture counter
type statsCollector struct {
	stats    ports.StatsCollector
	counters []statCounter
}

func newStatsCollector(stats ports.StatsCollector) *statsCollector {
	c := &statsCollector{stats: stats}
	add := func(name, help string, value func(domain.CaptureStats) int64) {
		c.counters = append(c.counters, statCounter{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
			value: value,
		})
	}

	add("frames_captured_total", "Frames written to the ring",
		func(s domain.CaptureStats) int64 { return s.FramesCaptured })
	add("captured_bytes_total", "Bytes written to the ring",
		func(s domain.CaptureStats) int64 { return s.BytesCaptured })
	add("acquire_failures_total", "Capture cycles skipped because no frame was acquired",
		func(s domain.CaptureStats) int64 { return s.AcquireFailures })
	add("allocation_failures_total", "Frames dropped because slot storage could not be obtained",
		func(s domain.CaptureStats) int64 { return s.AllocationFailures })
	add("evictions_total", "Frames overwritten before they were drained",
		func(s domain.CaptureStats) int64 { return s.Evictions })
	add("batch_requests_total", "Batch stream requests served",
		func(s domain.CaptureStats) int64 { return s.BatchRequests })
	add("frames_served_total", "Frames returned to batch stream clients",
		func(s domain.CaptureStats) int64 { return s.FramesServed })
	add("encode_failures_total", "Frames dropped from a batch because encoding failed",
		func(s domain.CaptureStats) int64 { return s.EncodeFailures })
	add("rate_limited_total", "Requests rejected by the rate limiter",
		func(s domain.CaptureStats) int64 { return s.RateLimited })
	return c
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, counter := range c.counters {
		ch <- counter.desc
	}
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()
	for _, counter := range c.counters {
		ch <- prometheus.MustNewConstMetric(counter.desc, prometheus.CounterValue, float64(counter.value(snap)))
	}
}

func (p *PrometheusMetrics) ObserveBatch(duration time.Duration, frames int) {
	p.batchDuration.Observe(duration.Seconds())
	p.batchFrames.Observe(float64(frames))
}

func (p *PrometheusMetrics) ObserveCycle(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.cycleDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the prometheus text format
func (p *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

var _ ports.MetricsRecorder = (*PrometheusMetrics)(nil)
