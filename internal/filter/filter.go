// Package filter holds the active facet filter of a view.
//
// The Store keeps one normalized catalog.FilterKey. Setting a value that
// compares equal to the current key is a no-op; any real change is pushed to
// every subscriber, whose commands are batched into the returned tea.Cmd.
package filter

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/otel"
)

// Partial is a filter update. Nil fields keep their current value.
type Partial struct {
	Platform *string
	Query    *string
}

// WithPlatform returns a Partial that sets only the platform.
func WithPlatform(slug string) Partial {
	return Partial{Platform: &slug}
}

// WithQuery returns a Partial that sets only the free-text query.
func WithQuery(q string) Partial {
	return Partial{Query: &q}
}

// apply merges p into k and normalizes the result.
func (p Partial) apply(k catalog.FilterKey) catalog.FilterKey {
	if p.Platform != nil {
		k.Platform = *p.Platform
	}
	if p.Query != nil {
		k.Query = *p.Query
	}
	return k.Normalize()
}

// Listener reacts to a new filter key. It may return a command to run.
type Listener func(catalog.FilterKey) tea.Cmd

type subscription struct {
	id int
	fn Listener
}

// Store is the facet filter store of one view. Not safe for concurrent use;
// it lives on the event loop.
type Store struct {
	key     catalog.FilterKey
	subs    []subscription
	nextID  int
	changes int
	events  otel.Emitter
}

// New creates a store holding initial.
func New(initial catalog.FilterKey, events otel.Emitter) *Store {
	return &Store{key: initial.Normalize(), events: events}
}

// Get returns the current key.
func (s *Store) Get() catalog.FilterKey {
	return s.key
}

// Changes counts how many times the key actually changed.
func (s *Store) Changes() int {
	return s.changes
}

// Subscribe registers fn for key changes and returns a function that
// removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Set merges p into the current key and returns the resulting key. When the
// result equals the current key nothing is notified and the command is nil.
func (s *Store) Set(p Partial) (catalog.FilterKey, tea.Cmd) {
	return s.replace(p.apply(s.key))
}

// Reset restores the default key.
func (s *Store) Reset() (catalog.FilterKey, tea.Cmd) {
	return s.replace(catalog.DefaultFilterKey())
}

func (s *Store) replace(next catalog.FilterKey) (catalog.FilterKey, tea.Cmd) {
	if next.Equal(s.key) {
		s.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFilterNoop, Filter: next.String()})
		return s.key, nil
	}

	prev := s.key
	s.key = next
	s.changes++
	s.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindFilterChange,
		Filter: next.String(),
		Extra:  map[string]any{"prev": prev.String()},
	})

	var cmds []tea.Cmd
	for _, sub := range s.subs {
		if cmd := sub.fn(next); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return next, tea.Batch(cmds...)
}
