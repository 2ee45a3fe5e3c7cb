package framebuffer

import (
	"fmt"
	"time"

	"github.com/jacktogon/ringcam/internal/core/domain"
)

// Allocator obtains backing storage for a slot. It is only called when the
// slot's existing storage is too small for the incoming frame.
type Allocator func(size int) ([]byte, error)

func defaultAllocator(size int) ([]byte, error) {
	return make([]byte, size), nil
}

type slot struct {
	capturedAt time.Time
	payload    []byte
	seq        uint64
	length     int
}

func (s *slot) empty() bool {
	return s.length == 0
}

// slotStore owns every slot payload. Storage is reused across writes to the
// same index and only replaced when a frame outgrows it.
type slotStore struct {
	alloc        Allocator
	slots        []slot
	maxFrameSize int
}

func newSlotStore(capacity, maxFrameSize int, alloc Allocator) *slotStore {
	if alloc == nil {
		alloc = defaultAllocator
	}
	return &slotStore{
		alloc:        alloc,
		slots:        make([]slot, capacity),
		maxFrameSize: maxFrameSize,
	}
}

// write replaces the payload at index. On failure the slot is left exactly as it was.
func (s *slotStore) write(index int, data []byte, seq uint64, capturedAt time.Time) error {
	size := len(data)
	if s.maxFrameSize > 0 && size > s.maxFrameSize {
		return &domain.SlotWriteError{Index: index, Size: size, Err: allocationFailed(domain.ErrFrameTooLarge)}
	}

	sl := &s.slots[index]
	buf := sl.payload
	if cap(buf) < size {
		fresh, err := s.alloc(size)
		if err != nil {
			return &domain.SlotWriteError{Index: index, Size: size, Err: allocationFailed(err)}
		}
		if cap(fresh) < size {
			return &domain.SlotWriteError{Index: index, Size: size, Err: domain.ErrAllocationFailed}
		}
		buf = fresh
	}

	buf = buf[:size]
	copy(buf, data)

	sl.payload = buf
	sl.length = size
	sl.seq = seq
	sl.capturedAt = capturedAt
	return nil
}

// allocationFailed keeps the cause matchable alongside ErrAllocationFailed
func allocationFailed(cause error) error {
	return fmt.Errorf("%w: %w", domain.ErrAllocationFailed, cause)
}

// read returns a borrowed view of the slot, valid only while the lock is held
func (s *slotStore) read(index int) (*slot, bool) {
	sl := &s.slots[index]
	if sl.empty() {
		return nil, false
	}
	return sl, true
}
