package otel

// Goroutine safety:
// The drain goroutine is the sole reader of l.ch and the sole writer to l.w.
// Logger.mu protects only the l.ring pointer. The ring buffer has its own lock.
// drain releases Logger.mu before calling ring.Push, so locks never nest.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// writerChanSize is the capacity of the async write channel.
const writerChanSize = 4096

type logEntry struct {
	data []byte
	ev   Event
}

// Logger serializes events as JSONL via an async background writer.
// Goroutine-safe. A nil *Logger is valid and discards everything, so
// components can be built without observability in tests.
type Logger struct {
	mu        sync.Mutex
	ring      *RingBuffer
	sessionID string
	ch        chan logEntry
	w         io.Writer
	dropped   atomic.Uint64
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewLogger creates a Logger writing JSONL to w, tagging every event with
// sessionID. Starts the drain goroutine; call Close to flush.
func NewLogger(w io.Writer, sessionID string) *Logger {
	l := &Logger{
		sessionID: sessionID,
		ch:        make(chan logEntry, writerChanSize),
		w:         w,
		done:      make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger creates a Logger that discards output but still feeds an
// attached ring buffer.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard, "")
}

func (l *Logger) drain() {
	defer close(l.done)
	for entry := range l.ch {
		if _, err := l.w.Write(entry.data); err != nil {
			l.dropped.Add(1)
		}

		l.mu.Lock()
		rb := l.ring
		l.mu.Unlock()

		if rb != nil {
			rb.Push(entry.ev)
		}
	}
}

// Emit queues an event. Sets Time (if zero) and SessionID. Non-blocking: if
// the channel is full or the logger is closed, the event is dropped and
// counted. A send racing Close is recovered and counted as dropped.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	data, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	data = append(data, '\n')

	select {
	case l.ch <- logEntry{data: data, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// For returns an Emitter that stamps every event with comp.
func (l *Logger) For(comp string) Emitter {
	return Emitter{l: l, comp: comp}
}

// SetRingBuffer attaches a ring buffer for live inspection.
func (l *Logger) SetRingBuffer(rb *RingBuffer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring = rb
}

// SessionID returns the id stamped on every event.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// Dropped returns the number of events dropped since creation.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close flushes pending events and stops the drain goroutine. Idempotent.
// Reports dropped events to stderr.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done

		if d := l.dropped.Load(); d > 0 {
			fmt.Fprintf(os.Stderr, "vitrine: %d events dropped during session %s\n", d, l.sessionID)
		}
	})
}

// Emitter is a component-scoped view of a Logger. The zero value discards.
type Emitter struct {
	l    *Logger
	comp string
}

// Emit stamps Comp and forwards to the logger.
func (em Emitter) Emit(e Event) {
	if em.l == nil {
		return
	}
	if e.Comp == "" {
		e.Comp = em.comp
	}
	em.l.Emit(e)
}

// Info emits an info-level event.
func (em Emitter) Info(kind EventKind, msg string) {
	em.Emit(Event{Level: LevelInfo, Kind: kind, Msg: msg})
}

// Warn emits a warn-level event.
func (em Emitter) Warn(kind EventKind, msg string) {
	em.Emit(Event{Level: LevelWarn, Kind: kind, Msg: msg})
}

// Error emits an error-level event. A nil err is logged as an empty string.
func (em Emitter) Error(kind EventKind, err error) {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	em.Emit(Event{Level: LevelError, Kind: kind, Err: errStr})
}
