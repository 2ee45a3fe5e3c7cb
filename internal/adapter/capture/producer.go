package capture

/*
	Capture Producer
	Drives the camera at a fixed period and pushes every frame into the ring.

	Each cycle goes Idle -> Acquiring -> Writing -> Idle:
	- a failed acquire skips the cycle and leaves the ring alone
	- the write copies the frame into the ring under the buffer lock
	- the frame goes back to the source exactly once, whatever the write did

	The producer never waits on consumers. A full ring evicts its oldest frame.
*/

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/internal/core/ports"
	"github.com/jacktogon/ringcam/internal/logger"
	"github.com/jacktogon/ringcam/pkg/eventbus"
)

const DefaultPeriod = 100 * time.Millisecond

var ErrAlreadyRunning = errors.New("capture producer already running")

type Option func(*Producer)

func WithPeriod(d time.Duration) Option {
	return func(p *Producer) {
		if d > 0 {
			p.period.Store(int64(d))
		}
	}
}

// WithMetrics reports cycle timings to a metrics backend
func WithMetrics(m ports.MetricsRecorder) Option {
	return func(p *Producer) {
		p.metrics = m
	}
}

// WithEvents publishes a CaptureEvent after every successful write
func WithEvents(bus *eventbus.EventBus[domain.CaptureEvent]) Option {
	return func(p *Producer) {
		p.events = bus
	}
}

type Producer struct {
	source  ports.FrameSource
	buffer  ports.FrameWriter
	stats   ports.StatsCollector
	metrics ports.MetricsRecorder
	events  *eventbus.EventBus[domain.CaptureEvent]
	logger  logger.StyledLogger

	periodChanged chan struct{}
	cancel        context.CancelFunc
	done          chan struct{}

	period atomic.Int64
	state  atomic.Int32
	cycles atomic.Uint64

	// only touched by the loop goroutine
	failing bool

	mu sync.Mutex
}

func NewProducer(source ports.FrameSource, buffer ports.FrameWriter, stats ports.StatsCollector, logger logger.StyledLogger, opts ...Option) *Producer {
	p := &Producer{
		source:        source,
		buffer:        buffer,
		stats:         stats,
		logger:        logger,
		periodChanged: make(chan struct{}, 1),
	}
	p.period.Store(int64(DefaultPeriod))
	p.state.Store(int32(domain.ProducerStopped))

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the capture loop; it runs until ctx is cancelled or Stop is called
func (p *Producer) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.setState(domain.ProducerIdle)

	go p.run(loopCtx, p.done)

	p.logger.InfoWithSource("Capture producer started, source", p.source.Name(), "period", p.Period())
	return nil
}

// Stop cancels the loop and waits for the in-flight cycle to finish
func (p *Producer) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	p.logger.InfoProducerState("Capture producer", domain.ProducerStopped, "cycles", p.cycles.Load())
}

func (p *Producer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer p.setState(domain.ProducerStopped)

	ticker := time.NewTicker(p.Period())
	defer ticker.Stop()

	p.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.periodChanged:
			ticker.Reset(p.Period())
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

// cycle performs one acquire/write/release round
func (p *Producer) cycle(ctx context.Context) {
	start := time.Now()
	p.cycles.Add(1)

	err := p.captureOnce(ctx)
	p.setState(domain.ProducerIdle)

	elapsed := time.Since(start)
	p.stats.RecordCaptureLatency(elapsed)
	if p.metrics != nil {
		p.metrics.ObserveCycle(elapsed, err)
	}
}

func (p *Producer) captureOnce(ctx context.Context) error {
	p.setState(domain.ProducerAcquiring)
	frame, err := p.source.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.stats.RecordAcquireFailure()
		p.reportFailure(&domain.AcquireError{Source: p.source.Name(), Err: err})
		return err
	}
	defer p.source.Release(frame)

	if len(frame.Data) == 0 {
		p.stats.RecordAcquireFailure()
		p.reportFailure(&domain.AcquireError{Source: p.source.Name(), Err: domain.ErrNoFrame})
		return domain.ErrNoFrame
	}

	p.setState(domain.ProducerWriting)
	res, err := p.buffer.Write(frame.Data, frame.Timestamp)
	if err != nil {
		p.stats.RecordAllocationFailure()
		p.reportFailure(err)
		return err
	}

	p.stats.RecordCapture(len(frame.Data), res.Evicted)
	p.reportRecovered()

	if p.events != nil {
		p.events.Publish(domain.CaptureEvent{
			At:        frame.Timestamp,
			Seq:       res.Seq,
			Size:      len(frame.Data),
			Occupancy: res.Occupancy,
			Evicted:   res.Evicted,
		})
	}
	return nil
}

// reportFailure warns once when a failure streak starts; the rest of the
// streak goes to debug so a dead camera does not flood the terminal
func (p *Producer) reportFailure(err error) {
	if p.failing {
		p.logger.Debug("Capture cycle skipped", "error", err)
		return
	}
	p.failing = true
	p.logger.WarnWithContext("Capture failing for source", p.source.Name(), logger.LogContext{
		UserArgs:     []any{"error", err},
		DetailedArgs: []any{"cycle", p.cycles.Load(), "period", p.Period()},
	})
}

func (p *Producer) reportRecovered() {
	if p.failing {
		p.failing = false
		p.logger.InfoWithSource("Capture recovered for source", p.source.Name())
	}
}

func (p *Producer) setState(s domain.ProducerState) {
	p.state.Store(int32(s))
}

func (p *Producer) State() domain.ProducerState {
	return domain.ProducerState(p.state.Load())
}

func (p *Producer) Period() time.Duration {
	return time.Duration(p.period.Load())
}

// SetPeriod changes the capture period of a running loop; non-positive values are ignored
func (p *Producer) SetPeriod(d time.Duration) {
	if d <= 0 || time.Duration(p.period.Swap(int64(d))) == d {
		return
	}
	select {
	case p.periodChanged <- struct{}{}:
	default:
	}
}

func (p *Producer) SourceName() string {
	return p.source.Name()
}

// Cycles reports how many capture rounds have run
func (p *Producer) Cycles() uint64 {
	return p.cycles.Load()
}
