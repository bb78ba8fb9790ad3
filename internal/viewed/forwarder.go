package viewed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelbrown/vitrine/internal/metrics"
	"github.com/abelbrown/vitrine/internal/otel"
)

const (
	defaultQueueSize   = 256
	defaultPostTimeout = 10 * time.Second
)

// Tracker receives view events upstream. *fetch.Client implements it.
type Tracker interface {
	PostViewEvent(ctx context.Context, itemID int64) error
}

// ForwarderOptions configures a Forwarder.
type ForwarderOptions struct {
	QueueSize   int
	PostTimeout time.Duration
	Events      otel.Emitter
	Metrics     *metrics.Metrics
}

// Forwarder delivers view events in the background. Forward never blocks:
// when the queue is full the event is dropped and counted. Failed deliveries
// are logged and counted, never retried. A nil *Forwarder discards.
type Forwarder struct {
	tracker Tracker
	ch      chan int64
	done    chan struct{}
	timeout time.Duration
	events  otel.Emitter
	metrics *metrics.Metrics

	sent      atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewForwarder starts the delivery goroutine. Call Close to flush.
func NewForwarder(t Tracker, opts ForwarderOptions) *Forwarder {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	timeout := opts.PostTimeout
	if timeout <= 0 {
		timeout = defaultPostTimeout
	}
	f := &Forwarder{
		tracker: t,
		ch:      make(chan int64, size),
		done:    make(chan struct{}),
		timeout: timeout,
		events:  opts.Events,
		metrics: opts.Metrics,
	}
	go f.drain()
	return f
}

func (f *Forwarder) drain() {
	defer close(f.done)
	for id := range f.ch {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		start := time.Now()
		err := f.tracker.PostViewEvent(ctx, id)
		cancel()

		if err != nil {
			f.failed.Add(1)
			f.metrics.ForwardError()
			f.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindViewForwardError, ItemID: id, Err: err.Error()})
			continue
		}
		f.sent.Add(1)
		f.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindViewForwarded, ItemID: id, Dur: time.Since(start)})
	}
}

// Forward queues id for delivery. It reports false when the event was
// dropped.
func (f *Forwarder) Forward(id int64) (queued bool) {
	if f == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			f.dropped.Add(1)
			queued = false
		}
	}()
	if f.closed.Load() {
		f.dropped.Add(1)
		return false
	}
	select {
	case f.ch <- id:
		return true
	default:
		f.dropped.Add(1)
		return false
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
// Idempotent.
func (f *Forwarder) Close() {
	if f == nil {
		return
	}
	f.closeOnce.Do(func() {
		f.closed.Store(true)
		close(f.ch)
		<-f.done
	})
}

// Stats returns delivered, failed and dropped counts.
func (f *Forwarder) Stats() (sent, failed, dropped uint64) {
	if f == nil {
		return 0, 0, 0
	}
	return f.sent.Load(), f.failed.Load(), f.dropped.Load()
}
