// Package viewed tracks the items the session has seen.
//
// The Ledger is the local, authoritative ViewedSet: marks are optimistic and
// never undone, server-pushed sets are merged by union, and every new mark
// is forwarded upstream through a fire-and-forget Forwarder.
package viewed

import (
	"slices"
	"sync"

	"github.com/abelbrown/vitrine/internal/metrics"
	"github.com/abelbrown/vitrine/internal/otel"
)

// Persister stores viewed ids for session resume. *store.Store implements it.
type Persister interface {
	AddViewed(sessionID string, ids ...int64) error
}

// Options configures a Ledger.
type Options struct {
	SessionID string
	// Seed is the initial server-provided or resumed set.
	Seed      []int64
	Forwarder *Forwarder
	Persist   Persister
	Events    otel.Emitter
	Metrics   *metrics.Metrics
}

// Ledger is the session ViewedSet. Goroutine-safe.
type Ledger struct {
	mu    sync.RWMutex
	set   map[int64]struct{}
	order []int64

	sessionID string
	fwd       *Forwarder
	persist   Persister
	events    otel.Emitter
	metrics   *metrics.Metrics
}

// NewLedger creates a ledger holding opts.Seed. Seeding neither forwards nor
// persists.
func NewLedger(opts Options) *Ledger {
	l := &Ledger{
		set:       make(map[int64]struct{}, len(opts.Seed)),
		sessionID: opts.SessionID,
		fwd:       opts.Forwarder,
		persist:   opts.Persist,
		events:    opts.Events,
		metrics:   opts.Metrics,
	}
	l.add(opts.Seed)
	return l
}

// add inserts ids not yet present and returns them. Caller holds mu or owns l.
func (l *Ledger) add(ids []int64) []int64 {
	var added []int64
	for _, id := range ids {
		if _, ok := l.set[id]; ok {
			continue
		}
		l.set[id] = struct{}{}
		l.order = append(l.order, id)
		added = append(added, id)
	}
	return added
}

// MarkViewed adds id to the set and forwards it. Marking an id already in
// the set does nothing and reports false.
func (l *Ledger) MarkViewed(id int64) bool {
	l.mu.Lock()
	added := l.add([]int64{id})
	l.mu.Unlock()
	if len(added) == 0 {
		return false
	}

	l.metrics.ViewMarked()
	l.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindViewMarked, ItemID: id})
	l.fwd.Forward(id)
	l.save(added)
	return true
}

// Merge unions ids into the set and returns how many were new. The set never
// shrinks. Merged ids came from the server, so they are not forwarded.
func (l *Ledger) Merge(ids []int64) int {
	if len(ids) == 0 {
		return 0
	}
	l.mu.Lock()
	added := l.add(ids)
	l.mu.Unlock()
	if len(added) == 0 {
		return 0
	}

	l.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindViewMerged, Count: len(added)})
	l.save(added)
	return len(added)
}

func (l *Ledger) save(ids []int64) {
	if l.persist == nil {
		return
	}
	if err := l.persist.AddViewed(l.sessionID, ids...); err != nil {
		l.events.Error(otel.KindStoreError, err)
	}
}

// Has reports whether id has been viewed.
func (l *Ledger) Has(id int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.set[id]
	return ok
}

// Viewed returns the set in the order ids were first seen.
func (l *Ledger) Viewed() []int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.order)
}

// Len returns the set size.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}
