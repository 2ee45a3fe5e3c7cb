package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFrame is returned by a source when no frame is ready this cycle
	ErrNoFrame = errors.New("no frame available")

	// ErrAllocationFailed means slot storage for a frame could not be obtained
	ErrAllocationFailed = errors.New("slot allocation failed")

	// ErrFrameTooLarge is returned when a frame exceeds the configured max frame size
	ErrFrameTooLarge = errors.New("frame exceeds max frame size")

	// ErrInvalidCapacity is returned when a ring cannot be constructed for the requested size
	ErrInvalidCapacity = errors.New("ring capacity must be at least 2")

	// ErrEncodedTooLarge is returned when an encoded frame exceeds the transport limit
	ErrEncodedTooLarge = errors.New("encoded frame exceeds max encoded size")

	// ErrSourceClosed is returned by sources after Close
	ErrSourceClosed = errors.New("frame source closed")
)

// AcquireError wraps a failed frame acquisition. The cycle is skipped and the ring is untouched.
type AcquireError struct {
	Err    error
	Source string
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("acquire from %s failed: %v", e.Source, e.Err)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

// SlotWriteError is returned when a frame could not be stored; cursors and slot content are unchanged.
type SlotWriteError struct {
	Err   error
	Index int
	Size  int
}

func (e *SlotWriteError) Error() string {
	return fmt.Sprintf("write of %d bytes to slot %d failed: %v", e.Size, e.Index, e.Err)
}

func (e *SlotWriteError) Unwrap() error {
	return e.Err
}

// EncodeError marks a single frame that could not be encoded for transport.
type EncodeError struct {
	Err  error
	Seq  uint64
	Size int
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode of frame %d (%d bytes) failed: %v", e.Seq, e.Size, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

type ConfigValidationError struct {
	Value  interface{}
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s=%v: %s", e.Field, e.Value, e.Reason)
}
