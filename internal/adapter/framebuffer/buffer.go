package framebuffer

/*
	Ring Frame Buffer
	A fixed-capacity circular buffer shared by the capture producer and the
	batch stream handler. A single mutex guards the slot store and the cursors
	together; nothing else orders the two sides.

	- Write never blocks on the consumer: when the ring is full the oldest
	  frame is evicted.
	- Drain copies payloads out while the lock is held, so encoding can run
	  outside the critical section without racing a later overwrite.
	- Camera acquisition and transport encoding never happen under the lock.
*/

import (
	"fmt"
	"sync"
	"time"

	"github.com/jacktogon/ringcam/internal/core/domain"
)

const (
	DefaultCapacity  = 50
	DefaultBatchSize = 10
	MinCapacity      = 2
)

type Option func(*Buffer)

// WithAllocator overrides how slot storage is obtained, mostly for tests
func WithAllocator(alloc Allocator) Option {
	return func(b *Buffer) {
		b.alloc = alloc
	}
}

// WithMaxFrameSize refuses frames larger than n bytes (0 disables the limit)
func WithMaxFrameSize(n int) Option {
	return func(b *Buffer) {
		b.maxFrameSize = n
	}
}

// WithBatchSize sets the default drain cap
func WithBatchSize(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

type Buffer struct {
	alloc        Allocator
	store        *slotStore
	ring         ringIndex
	mu           sync.Mutex
	batchSize    int
	maxFrameSize int
	seq          uint64
	writes       uint64
	evictions    uint64
	failedWrites uint64
	drained      uint64
}

// New builds an empty ring of the given capacity with head = tail = 0
func New(capacity int, opts ...Option) (*Buffer, error) {
	if capacity < MinCapacity {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidCapacity, capacity)
	}

	b := &Buffer{
		batchSize: DefaultBatchSize,
		ring:      ringIndex{size: capacity},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxFrameSize < 0 {
		return nil, &domain.ConfigValidationError{Field: "buffer.max_frame_size", Value: b.maxFrameSize, Reason: "must not be negative"}
	}

	b.store = newSlotStore(capacity, b.maxFrameSize, b.alloc)
	return b, nil
}

// Write copies data into the slot at head and advances the ring. A failed
// write leaves head, tail and every slot untouched.
func (b *Buffer) Write(data []byte, capturedAt time.Time) (domain.WriteResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	index := b.ring.head
	seq := b.seq + 1
	if err := b.store.write(index, data, seq, capturedAt); err != nil {
		b.failedWrites++
		return domain.WriteResult{}, err
	}

	written, evicted := b.ring.advanceHead()
	b.seq = seq
	b.writes++
	if evicted {
		b.evictions++
	}

	return domain.WriteResult{
		Index:     written,
		Seq:       seq,
		Occupancy: b.ring.occupancy(),
		Evicted:   evicted,
	}, nil
}

// Drain removes up to maxCount frames, oldest first, and returns copies of
// them. maxCount <= 0 uses the configured batch size. Empty slots inside the
// drained run are skipped but still released from occupancy.
func (b *Buffer) Drain(maxCount int) []domain.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	if maxCount <= 0 {
		maxCount = b.batchSize
	}

	count := min(b.ring.occupancy(), maxCount)
	if count == 0 {
		return []domain.Frame{}
	}

	frames := make([]domain.Frame, 0, count)
	for i := 0; i < count; i++ {
		sl, ok := b.store.read(b.ring.at(i))
		if !ok {
			continue
		}
		data := make([]byte, sl.length)
		copy(data, sl.payload[:sl.length])
		frames = append(frames, domain.Frame{
			Seq:        sl.seq,
			CapturedAt: sl.capturedAt,
			Data:       data,
		})
	}

	b.ring.advanceTailBy(count)
	b.drained += uint64(len(frames))
	return frames
}

func (b *Buffer) Occupancy() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring.occupancy()
}

func (b *Buffer) Capacity() int {
	return b.ring.size
}

func (b *Buffer) BatchSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.batchSize
}

// SetBatchSize changes the default drain cap; non-positive values are ignored
func (b *Buffer) SetBatchSize(n int) {
	if n <= 0 {
		return
	}
	b.mu.Lock()
	b.batchSize = n
	b.mu.Unlock()
}

func (b *Buffer) Stats() domain.BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return domain.BufferStats{
		Capacity:     b.ring.size,
		Occupancy:    b.ring.occupancy(),
		Head:         b.ring.head,
		Tail:         b.ring.tail,
		BatchSize:    b.batchSize,
		MaxFrameSize: b.maxFrameSize,
		Writes:       b.writes,
		Evictions:    b.evictions,
		FailedWrites: b.failedWrites,
		Drained:      b.drained,
		LastSeq:      b.seq,
	}
}
