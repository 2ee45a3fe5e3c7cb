package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/core/domain"
)

// fillFunc writes one frame into dst (growing it if needed) and returns the
// filled slice
type fillFunc func(ctx context.Context, dst []byte) ([]byte, error)

type driverBuffer struct {
	data  []byte
	inUse bool
}

// driver models the camera's own frame buffers: a fixed number of reusable
// buffers lent out by Acquire and handed back by Release. When every buffer
// is on loan the next grab fails instead of waiting. One mutex serialises all
// access to the device, as there is a single sensor behind it.
type driver struct {
	fill    fillFunc
	name    string
	buffers []driverBuffer
	width   int
	height  int
	mu      sync.Mutex
	closed  bool
}

func newDriver(name string, frameBuffers, width, height int, fill fillFunc) (*driver, error) {
	if frameBuffers < 1 {
		return nil, &domain.ConfigValidationError{Field: "capture.frame_buffers", Value: frameBuffers, Reason: "must be at least 1"}
	}
	return &driver{
		fill:    fill,
		name:    name,
		buffers: make([]driverBuffer, frameBuffers),
		width:   width,
		height:  height,
	}, nil
}

func (d *driver) Name() string {
	return d.name
}

func (d *driver) Acquire(ctx context.Context) (*domain.CapturedFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, domain.ErrSourceClosed
	}

	handle := -1
	for i := range d.buffers {
		if !d.buffers[i].inUse {
			handle = i
			break
		}
	}
	if handle < 0 {
		return nil, fmt.Errorf("%w: all %d driver buffers in use", domain.ErrNoFrame, len(d.buffers))
	}

	buf := &d.buffers[handle]
	data, err := d.fill(ctx, buf.data[:0])
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s produced an empty frame", domain.ErrNoFrame, d.name)
	}

	buf.data = data
	buf.inUse = true
	return &domain.CapturedFrame{
		Timestamp: time.Now(),
		Data:      data,
		Format:    constants.FormatJPEG,
		Width:     d.width,
		Height:    d.height,
		Handle:    handle,
	}, nil
}

// Release hands a frame's buffer back. Unknown or already released frames
// are ignored.
func (d *driver) Release(frame *domain.CapturedFrame) {
	if frame == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if frame.Handle < 0 || frame.Handle >= len(d.buffers) {
		return
	}
	d.buffers[frame.Handle].inUse = false
	frame.Data = nil
}

// Outstanding reports how many buffers are currently lent out
func (d *driver) Outstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for i := range d.buffers {
		if d.buffers[i].inUse {
			n++
		}
	}
	return n
}

func (d *driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errors.New("camera: already closed")
	}
	d.closed = true
	return nil
}
