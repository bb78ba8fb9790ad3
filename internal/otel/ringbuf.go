package otel

import (
	"maps"
	"strings"
	"sync"
)

// DefaultRingSize is the default ring buffer capacity.
const DefaultRingSize = 1024

// RingBuffer is a fixed-size circular buffer of Events. Goroutine-safe.
type RingBuffer struct {
	mu     sync.Mutex
	buf    []Event
	pushed uint64 // total events ever pushed; next slot is pushed % len(buf)
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size)}
}

// Push adds an event, overwriting the oldest when full. The Extra map is
// copied so callers may keep mutating theirs.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		e.Extra = maps.Clone(e.Extra)
	}
	r.mu.Lock()
	r.buf[r.pushed%uint64(len(r.buf))] = e
	r.pushed++
	r.mu.Unlock()
}

// lenLocked returns the number of valid entries. Caller holds r.mu.
func (r *RingBuffer) lenLocked() int {
	if r.pushed < uint64(len(r.buf)) {
		return int(r.pushed)
	}
	return len(r.buf)
}

// Last returns the n most recent events, oldest first. n <= 0 returns nil.
func (r *RingBuffer) Last(n int) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.lenLocked()
	if n > count {
		n = count
	}
	if n == 0 {
		return nil
	}
	out := make([]Event, n)
	size := uint64(len(r.buf))
	first := r.pushed - uint64(n)
	for i := range out {
		out[i] = r.buf[(first+uint64(i))%size]
	}
	return out
}

// Snapshot returns every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	return r.Last(r.Cap())
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lenLocked()
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}

// Stats counts buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	counts := make(map[EventKind]int)
	for _, e := range r.Snapshot() {
		counts[e.Kind]++
	}
	return counts
}

// Subsystem sums Stats over every kind with the given "<subsystem>." prefix.
func (r *RingBuffer) Subsystem(name string) int {
	total := 0
	for k, n := range r.Stats() {
		if strings.HasPrefix(string(k), name+".") {
			total += n
		}
	}
	return total
}
