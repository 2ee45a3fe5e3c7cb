package ports

import (
	"context"
	"time"

	"github.com/jacktogon/ringcam/internal/core/domain"
)

// FrameSource is the camera collaborator. Every successful Acquire must be
// matched by exactly one Release, whatever happens to the frame downstream.
type FrameSource interface {
	Name() string
	Acquire(ctx context.Context) (*domain.CapturedFrame, error)
	Release(frame *domain.CapturedFrame)
	Close() error
}

// FrameWriter is the producer side of the ring
type FrameWriter interface {
	Write(data []byte, capturedAt time.Time) (domain.WriteResult, error)
}

// FrameDrainer is the consumer side of the ring
type FrameDrainer interface {
	Drain(maxCount int) []domain.Frame
	Occupancy() int
}

// FrameBuffer is the full ring surface shared by the producer and the HTTP handlers
type FrameBuffer interface {
	FrameWriter
	FrameDrainer
	Capacity() int
	BatchSize() int
	SetBatchSize(n int)
	Stats() domain.BufferStats
}

// FrameEncoder turns frame bytes into printable text for transport
type FrameEncoder interface {
	Encode(data []byte) (string, error)
}

// StatsCollector records capture pipeline outcomes
type StatsCollector interface {
	RecordCapture(bytes int, evicted bool)
	RecordAcquireFailure()
	RecordAllocationFailure()
	RecordBatch(served int, bytes int64, encodeFailures int)
	RecordCaptureLatency(d time.Duration)
	RecordBatchLatency(d time.Duration)
	RecordRateLimited()
	Snapshot() domain.CaptureStats
}

// MetricsRecorder receives per request observations that do not fit counters
type MetricsRecorder interface {
	ObserveBatch(duration time.Duration, frames int)
	ObserveCycle(duration time.Duration, err error)
}

// ProducerStatus exposes the capture loop for status reporting
type ProducerStatus interface {
	State() domain.ProducerState
	Period() time.Duration
	SourceName() string
}
