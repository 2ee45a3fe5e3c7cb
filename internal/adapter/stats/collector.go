package stats

/*
	Capture Stats Collector
	Everything the producer and the batch handler do is counted here so the
	status endpoint and the Prometheus exporter read from one place.

	Hit on every capture cycle (10/s by default) and every poll, so counters
	are xsync striped counters and the only lock is inside the latency samplers.
*/

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/internal/logger"
)

type Collector struct {
	logger logger.StyledLogger

	framesCaptured     *xsync.Counter
	bytesCaptured      *xsync.Counter
	acquireFailures    *xsync.Counter
	allocationFailures *xsync.Counter
	evictions          *xsync.Counter
	batchRequests      *xsync.Counter
	framesServed       *xsync.Counter
	bytesServed        *xsync.Counter
	encodeFailures     *xsync.Counter
	rateLimited        *xsync.Counter

	captureLatency *ReservoirSampler
	batchLatency   *ReservoirSampler

	lastCapture atomic.Int64
}

func NewCollector(logger logger.StyledLogger) *Collector {
	return &Collector{
		logger:             logger,
		framesCaptured:     xsync.NewCounter(),
		bytesCaptured:      xsync.NewCounter(),
		acquireFailures:    xsync.NewCounter(),
		allocationFailures: xsync.NewCounter(),
		evictions:          xsync.NewCounter(),
		batchRequests:      xsync.NewCounter(),
		framesServed:       xsync.NewCounter(),
		bytesServed:        xsync.NewCounter(),
		encodeFailures:     xsync.NewCounter(),
		rateLimited:        xsync.NewCounter(),
		captureLatency:     NewReservoirSampler(DefaultSampleSize),
		batchLatency:       NewReservoirSampler(DefaultSampleSize),
	}
}

func (c *Collector) RecordCapture(bytes int, evicted bool) {
	c.framesCaptured.Inc()
	c.bytesCaptured.Add(int64(bytes))
	if evicted {
		c.evictions.Inc()
	}
	c.lastCapture.Store(time.Now().UnixNano())
}

func (c *Collector) RecordAcquireFailure() {
	c.acquireFailures.Inc()
}

func (c *Collector) RecordAllocationFailure() {
	c.allocationFailures.Inc()
}

// RecordBatch counts one /batch_stream response, empty batches included
func (c *Collector) RecordBatch(served int, bytes int64, encodeFailures int) {
	c.batchRequests.Inc()
	c.framesServed.Add(int64(served))
	c.bytesServed.Add(bytes)
	if encodeFailures > 0 {
		c.encodeFailures.Add(int64(encodeFailures))
		c.logger.Debug("Frames dropped from batch", "encode_failures", encodeFailures)
	}
}

func (c *Collector) RecordCaptureLatency(d time.Duration) {
	c.captureLatency.Add(d.Microseconds())
}

func (c *Collector) RecordBatchLatency(d time.Duration) {
	c.batchLatency.Add(d.Microseconds())
}

func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

func (c *Collector) Snapshot() domain.CaptureStats {
	s := domain.CaptureStats{
		FramesCaptured:     c.framesCaptured.Value(),
		BytesCaptured:      c.bytesCaptured.Value(),
		AcquireFailures:    c.acquireFailures.Value(),
		AllocationFailures: c.allocationFailures.Value(),
		Evictions:          c.evictions.Value(),
		BatchRequests:      c.batchRequests.Value(),
		FramesServed:       c.framesServed.Value(),
		BytesServed:        c.bytesServed.Value(),
		EncodeFailures:     c.encodeFailures.Value(),
		RateLimited:        c.rateLimited.Value(),
		CaptureLatency:     latencyStats(c.captureLatency),
		BatchLatency:       latencyStats(c.batchLatency),
	}
	if last := c.lastCapture.Load(); last > 0 {
		s.LastCapture = time.Unix(0, last)
	}
	return s
}

func latencyStats(rs *ReservoirSampler) domain.LatencyStats {
	p50, p95, p99 := rs.Percentiles()
	return domain.LatencyStats{
		Count: rs.Count(),
		P50:   p50,
		P95:   p95,
		P99:   p99,
	}
}
