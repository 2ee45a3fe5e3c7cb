package eventbus

/*
	EventBus - generic fan-out of events to short lived subscribers.

	Publishers never block: a subscriber whose buffer is full simply misses the
	event and the drop is counted. Subscriptions end when their context is
	cancelled, when the returned cleanup func is called or when the bus shuts
	down, whichever comes first.
*/

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

type EventBus[T any] struct {
	subscribers   *xsync.Map[string, *subscriber[T]]
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	subscriberSeq atomic.Uint64
	published     atomic.Uint64
	bufferSize    int
	isShutdown    atomic.Bool
}

type subscriber[T any] struct {
	ch         chan T
	id         string
	lastActive atomic.Int64
	dropped    atomic.Uint64
	mu         sync.Mutex
	closed     bool
}

// send delivers without blocking; false means the event was dropped
func (s *subscriber[T]) send(event T, now int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- event:
		s.lastActive.Store(now)
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

func (s *subscriber[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

type Config struct {
	BufferSize      int
	CleanupPeriod   time.Duration
	InactiveTimeout time.Duration
}

var DefaultConfig = Config{
	BufferSize:      16,
	CleanupPeriod:   time.Minute,
	InactiveTimeout: 10 * time.Minute,
}

func New[T any]() *EventBus[T] {
	return NewWithConfig[T](DefaultConfig)
}

func NewWithConfig[T any](config Config) *EventBus[T] {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig.BufferSize
	}

	eb := &EventBus[T]{
		subscribers: xsync.NewMap[string, *subscriber[T]](),
		bufferSize:  config.BufferSize,
		stopCleanup: make(chan struct{}),
	}

	if config.CleanupPeriod > 0 {
		eb.cleanupTicker = time.NewTicker(config.CleanupPeriod)
		go eb.cleanupLoop(config.InactiveTimeout)
	}
	return eb
}

// Subscribe returns a channel of events and a cleanup func. The channel is
// closed once the subscription ends.
func (eb *EventBus[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	if eb.isShutdown.Load() {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}

	sub := &subscriber[T]{
		id: "sub_" + strconv.FormatUint(eb.subscriberSeq.Add(1), 10),
		ch: make(chan T, eb.bufferSize),
	}
	sub.lastActive.Store(time.Now().UnixNano())
	eb.subscribers.Store(sub.id, sub)

	// a Shutdown that ran before Store could not see this subscriber
	if eb.isShutdown.Load() {
		eb.unsubscribe(sub.id)
		return sub.ch, func() {}
	}

	done := make(chan struct{})
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			close(done)
			eb.unsubscribe(sub.id)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cleanup()
		case <-done:
		}
	}()

	return sub.ch, cleanup
}

// Publish sends event to every subscriber and returns how many received it
func (eb *EventBus[T]) Publish(event T) int {
	if eb.isShutdown.Load() {
		return 0
	}
	eb.published.Add(1)

	delivered := 0
	now := time.Now().UnixNano()
	eb.subscribers.Range(func(_ string, sub *subscriber[T]) bool {
		if sub.send(event, now) {
			delivered++
		}
		return true
	})
	return delivered
}

func (eb *EventBus[T]) Shutdown() {
	if !eb.isShutdown.CompareAndSwap(false, true) {
		return
	}

	if eb.cleanupTicker != nil {
		eb.cleanupTicker.Stop()
		close(eb.stopCleanup)
	}

	eb.subscribers.Range(func(id string, sub *subscriber[T]) bool {
		sub.close()
		eb.subscribers.Delete(id)
		return true
	})
}

type Stats struct {
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
	Dropped     uint64 `json:"dropped"`
	IsShutdown  bool   `json:"is_shutdown"`
}

func (eb *EventBus[T]) Stats() Stats {
	stats := Stats{
		Published:  eb.published.Load(),
		IsShutdown: eb.isShutdown.Load(),
	}
	eb.subscribers.Range(func(_ string, sub *subscriber[T]) bool {
		stats.Subscribers++
		stats.Dropped += sub.dropped.Load()
		return true
	})
	return stats
}

func (eb *EventBus[T]) unsubscribe(id string) {
	if sub, exists := eb.subscribers.LoadAndDelete(id); exists {
		sub.close()
	}
}

func (eb *EventBus[T]) cleanupLoop(inactiveTimeout time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("eventbus cleanup panic recovered", "panic", r)
		}
	}()

	for {
		select {
		case <-eb.stopCleanup:
			return
		case <-eb.cleanupTicker.C:
			eb.removeInactive(inactiveTimeout)
		}
	}
}

// removeInactive drops subscribers nobody has delivered to in a while,
// usually a handler that forgot its cleanup func
func (eb *EventBus[T]) removeInactive(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	cutoff := time.Now().Add(-timeout).UnixNano()

	var stale []string
	eb.subscribers.Range(func(id string, sub *subscriber[T]) bool {
		if sub.lastActive.Load() < cutoff {
			stale = append(stale, id)
		}
		return true
	})
	for _, id := range stale {
		eb.unsubscribe(id)
	}
}
