package viewed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/vitrine/internal/metrics"
)

type mockTracker struct {
	mu    sync.Mutex
	ids   []int64
	err   error
	block chan struct{}
}

func (m *mockTracker) PostViewEvent(_ context.Context, id int64) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
	return m.err
}

func (m *mockTracker) posted() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.ids...)
}

type mockPersister struct {
	saved []int64
	err   error
}

func (m *mockPersister) AddViewed(_ string, ids ...int64) error {
	m.saved = append(m.saved, ids...)
	return m.err
}

func TestMarkViewedIsIdempotent(t *testing.T) {
	tracker := &mockTracker{}
	fwd := NewForwarder(tracker, ForwarderOptions{})
	l := NewLedger(Options{Forwarder: fwd})

	sizes := []int{}
	for range 5 {
		l.MarkViewed(7)
		sizes = append(sizes, l.Len())
	}
	fwd.Close()

	assert.Equal(t, []int64{7}, l.Viewed())
	assert.Equal(t, []int{1, 1, 1, 1, 1}, sizes)
	assert.Equal(t, []int64{7}, tracker.posted(), "only the first mark is forwarded")
}

func TestViewedGrowsMonotonically(t *testing.T) {
	l := NewLedger(Options{Seed: []int64{1, 2}})
	prev := l.Len()
	for _, step := range []func(){
		func() { l.MarkViewed(3) },
		func() { l.Merge([]int64{1}) },
		func() { l.Merge(nil) },
		func() { l.Merge([]int64{4, 5, 2}) },
		func() { l.MarkViewed(1) },
	} {
		step()
		require.GreaterOrEqual(t, l.Len(), prev)
		prev = l.Len()
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, l.Viewed())
}

func TestMergeIsUnion(t *testing.T) {
	l := NewLedger(Options{})
	l.MarkViewed(10)
	l.MarkViewed(11)

	// A fresher server set that lacks a local mark must not remove it.
	added := l.Merge([]int64{11, 12})
	assert.Equal(t, 1, added)
	assert.True(t, l.Has(10))
	assert.True(t, l.Has(12))
	assert.Equal(t, 3, l.Len())
}

func TestForwardFailureKeepsLocalMark(t *testing.T) {
	m := metrics.New()
	tracker := &mockTracker{err: errors.New("503")}
	fwd := NewForwarder(tracker, ForwarderOptions{Metrics: m})
	l := NewLedger(Options{Forwarder: fwd, Metrics: m})

	assert.True(t, l.MarkViewed(3))
	fwd.Close()

	assert.True(t, l.Has(3))
	_, failed, _ := fwd.Stats()
	assert.Equal(t, uint64(1), failed)
	assert.Equal(t, 1.0, m.Value("vitrine_view_forward_errors_total", nil))
	assert.Equal(t, 1.0, m.Value("vitrine_views_marked_total", nil))
}

func TestForwarderDropsWhenFull(t *testing.T) {
	tracker := &mockTracker{block: make(chan struct{})}
	fwd := NewForwarder(tracker, ForwarderOptions{QueueSize: 1, PostTimeout: time.Second})

	// The first id may be picked up by the drain goroutine and block there;
	// keep pushing until one is dropped.
	dropped := false
	for id := int64(1); id <= 10; id++ {
		if !fwd.Forward(id) {
			dropped = true
			break
		}
	}
	assert.True(t, dropped)

	close(tracker.block)
	fwd.Close()
	_, _, d := fwd.Stats()
	assert.GreaterOrEqual(t, d, uint64(1))
}

func TestForwardAfterClose(t *testing.T) {
	fwd := NewForwarder(&mockTracker{}, ForwarderOptions{})
	fwd.Close()
	fwd.Close()
	assert.False(t, fwd.Forward(1))

	var nilFwd *Forwarder
	assert.False(t, nilFwd.Forward(1))
	nilFwd.Close()
}

func TestLedgerPersistsNewIDs(t *testing.T) {
	p := &mockPersister{}
	l := NewLedger(Options{SessionID: "s", Seed: []int64{1}, Persist: p})

	l.MarkViewed(1)
	l.MarkViewed(2)
	l.Merge([]int64{2, 3})

	assert.Equal(t, []int64{2, 3}, p.saved, "seed is not persisted, duplicates are skipped")
}

func TestPersistFailureIsNotFatal(t *testing.T) {
	p := &mockPersister{err: errors.New("disk full")}
	l := NewLedger(Options{Persist: p})
	assert.True(t, l.MarkViewed(1))
	assert.True(t, l.Has(1))
}
