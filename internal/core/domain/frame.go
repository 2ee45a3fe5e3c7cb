package domain

import "time"

// CapturedFrame is a frame on loan from a camera source. Data belongs to the
// source and is only valid until the frame is handed back via Release.
type CapturedFrame struct {
	Timestamp time.Time
	Data      []byte
	Format    string
	Width     int
	Height    int
	// Handle identifies the source's driver buffer backing Data
	Handle int
}

// Frame is a drained copy of a ring slot, owned by the caller.
type Frame struct {
	CapturedAt time.Time
	Data       []byte
	Seq        uint64
}

// WriteResult describes a successful ring write.
type WriteResult struct {
	Index     int
	Seq       uint64
	Occupancy int
	Evicted   bool
}

// CaptureEvent is published after a frame lands in the ring.
type CaptureEvent struct {
	At        time.Time
	Seq       uint64
	Size      int
	Occupancy int
	Evicted   bool
}

// BufferStats is a snapshot of ring state taken under the buffer lock.
type BufferStats struct {
	Capacity     int    `json:"capacity"`
	Occupancy    int    `json:"occupancy"`
	Head         int    `json:"head"`
	Tail         int    `json:"tail"`
	BatchSize    int    `json:"batch_size"`
	MaxFrameSize int    `json:"max_frame_size"`
	Writes       uint64 `json:"writes"`
	Evictions    uint64 `json:"evictions"`
	FailedWrites uint64 `json:"failed_writes"`
	Drained      uint64 `json:"drained"`
	LastSeq      uint64 `json:"last_seq"`
}

// CaptureStats aggregates producer and consumer outcomes.
type CaptureStats struct {
	LastCapture        time.Time    `json:"last_capture"`
	FramesCaptured     int64        `json:"frames_captured"`
	BytesCaptured      int64        `json:"bytes_captured"`
	AcquireFailures    int64        `json:"acquire_failures"`
	AllocationFailures int64        `json:"allocation_failures"`
	Evictions          int64        `json:"evictions"`
	BatchRequests      int64        `json:"batch_requests"`
	FramesServed       int64        `json:"frames_served"`
	BytesServed        int64        `json:"bytes_served"`
	EncodeFailures     int64        `json:"encode_failures"`
	RateLimited        int64        `json:"rate_limited"`
	CaptureLatency     LatencyStats `json:"capture_latency"`
	BatchLatency       LatencyStats `json:"batch_latency"`
}

// LatencyStats summarises sampled durations in microseconds.
type LatencyStats struct {
	Count int64 `json:"count"`
	P50   int64 `json:"p50_us"`
	P95   int64 `json:"p95_us"`
	P99   int64 `json:"p99_us"`
}
