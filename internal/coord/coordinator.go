// Package coord coordinates catalog page fetches for one view.
//
// A Coordinator owns the view's PageCache. It hands out tea.Cmds that run
// the network call off the event loop and deliver a PageLoaded message back
// to it; Handle applies that message. Every request carries an identity
// (sequence number and filter key) so a response for a superseded request is
// discarded instead of applied.
//
// At most one request is in flight per view. A reset replaces whatever is in
// flight; a load-more is refused while anything is in flight.
package coord

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/metrics"
	"github.com/abelbrown/vitrine/internal/otel"
)

// defaultTimeout bounds one page request when Options.Timeout is unset.
const defaultTimeout = 30 * time.Second

// PageSource fetches catalog pages. *fetch.Client implements it.
type PageSource interface {
	ListPage(ctx context.Context, scope catalog.Scope, key catalog.FilterKey, page, perPage int) (*catalog.Page, error)
}

// ViewMerger receives server-pushed viewed ids. *viewed.Ledger implements it.
type ViewMerger interface {
	Merge(ids []int64) int
}

// Purpose tells a first-page reset from a load-more.
type Purpose int

const (
	PurposeReset Purpose = iota
	PurposeMore
)

// String implements fmt.Stringer.
func (p Purpose) String() string {
	if p == PurposeMore {
		return "more"
	}
	return "reset"
}

// Outcome is what Handle did with a response.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeStale
	OutcomeRejected
	OutcomeFailed
	OutcomeIgnored // addressed to another view
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeStale:
		return "stale"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "error"
	}
	return "ignored"
}

// PageLoaded carries one page response back to the event loop.
type PageLoaded struct {
	Scope   catalog.Scope
	Seq     uint64
	Purpose Purpose
	Key     catalog.FilterKey
	Page    int
	Result  *catalog.Page
	Err     error
	Dur     time.Duration
}

type request struct {
	seq     uint64
	purpose Purpose
	key     catalog.FilterKey
	page    int
}

// requestSeq numbers requests across all coordinators, so a view mounted
// again never accepts a response addressed to its predecessor.
var requestSeq atomic.Uint64

// Options configures a Coordinator.
type Options struct {
	Scope    catalog.Scope
	PageSize int
	Timeout  time.Duration
	// Current returns the filter store's key. Responses captured under any
	// other key are stale. Nil means the cache key is authoritative.
	Current func() catalog.FilterKey
	Ledger  ViewMerger
	Events  otel.Emitter
	Metrics *metrics.Metrics
}

// Coordinator serializes page requests for one view.
type Coordinator struct {
	src      PageSource
	scope    catalog.Scope
	pageSize int
	timeout  time.Duration
	current  func() catalog.FilterKey
	ledger   ViewMerger
	events   otel.Emitter
	metrics  *metrics.Metrics

	cache      *catalog.PageCache
	seq        uint64
	inflight   *request
	lastFailed *request
	err        error
}

// New creates a Coordinator with an empty cache.
func New(src PageSource, opts Options) *Coordinator {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 24
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Coordinator{
		src:      src,
		scope:    opts.Scope,
		pageSize: pageSize,
		timeout:  timeout,
		current:  opts.Current,
		ledger:   opts.Ledger,
		events:   opts.Events,
		metrics:  opts.Metrics,
		cache:    catalog.NewPageCache(),
	}
}

// ResetAndFetchFirstPage invalidates the cache, binds it to key and returns
// the command fetching page 1. Anything already in flight becomes stale.
func (c *Coordinator) ResetAndFetchFirstPage(key catalog.FilterKey) tea.Cmd {
	key = key.Normalize()
	c.cache.Reset(key)
	c.err = nil
	c.lastFailed = nil
	return c.issue(PurposeReset, key, 1)
}

// FetchNextPage returns the command fetching the page after the last applied
// one, or nil when a request is already in flight or there is nothing more.
func (c *Coordinator) FetchNextPage() tea.Cmd {
	if c.inflight != nil {
		c.skip("request in flight")
		return nil
	}
	if !c.cache.HasMore() {
		c.skip("no more pages")
		return nil
	}
	return c.issue(PurposeMore, c.cache.Key(), c.cache.Cursor().CurrentPage+1)
}

// Retry re-issues the last failed request. It returns nil when nothing has
// failed, the failure is not retryable, or a request is in flight.
func (c *Coordinator) Retry() tea.Cmd {
	if !c.CanRetry() {
		return nil
	}
	failed := *c.lastFailed
	if failed.purpose == PurposeReset {
		key := failed.key
		if c.current != nil {
			key = c.current()
		}
		return c.ResetAndFetchFirstPage(key)
	}
	if !failed.key.Equal(c.cache.Key()) || failed.page != c.cache.Cursor().CurrentPage+1 {
		c.lastFailed = nil
		return nil
	}
	c.err = nil
	c.lastFailed = nil
	return c.issue(PurposeMore, failed.key, failed.page)
}

func (c *Coordinator) skip(reason string) {
	c.events.Emit(otel.Event{
		Level:  otel.LevelDebug,
		Kind:   otel.KindPageSkipped,
		View:   c.scope.String(),
		Filter: c.cache.Key().String(),
		Msg:    reason,
	})
}

func (c *Coordinator) issue(purpose Purpose, key catalog.FilterKey, page int) tea.Cmd {
	c.seq = requestSeq.Add(1)
	req := request{seq: c.seq, purpose: purpose, key: key, page: page}
	c.inflight = &req

	c.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindPageRequest,
		View:   c.scope.String(),
		Filter: key.String(),
		Seq:    req.seq,
		Page:   page,
		Msg:    purpose.String(),
	})

	src, scope, perPage, timeout := c.src, c.scope, c.pageSize, c.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		p, err := src.ListPage(ctx, scope, key, page, perPage)
		return PageLoaded{
			Scope:   scope,
			Seq:     req.seq,
			Purpose: purpose,
			Key:     key,
			Page:    page,
			Result:  p,
			Err:     err,
			Dur:     time.Since(start),
		}
	}
}

// Handle applies a page response on the event loop.
func (c *Coordinator) Handle(msg PageLoaded) Outcome {
	if msg.Scope != c.scope {
		return OutcomeIgnored
	}
	outcome := c.handle(msg)
	c.metrics.PageRequest(msg.Purpose.String(), outcome.String())
	return outcome
}

func (c *Coordinator) handle(msg PageLoaded) Outcome {
	ev := otel.Event{
		View:   c.scope.String(),
		Filter: msg.Key.String(),
		Seq:    msg.Seq,
		Page:   msg.Page,
		Dur:    msg.Dur,
		Msg:    msg.Purpose.String(),
	}

	if c.inflight == nil || c.inflight.seq != msg.Seq {
		ev.Level, ev.Kind = otel.LevelDebug, otel.KindPageStale
		c.events.Emit(ev)
		return OutcomeStale
	}
	if c.current != nil && !msg.Key.Equal(c.current()) {
		// The store moved on without telling us; the request is dead.
		c.inflight = nil
		ev.Level, ev.Kind = otel.LevelDebug, otel.KindPageStale
		c.events.Emit(ev)
		return OutcomeStale
	}

	req := *c.inflight
	c.inflight = nil

	if msg.Err == nil && msg.Result == nil {
		msg.Err = catalog.NewError(catalog.KindMalformed, "list page", errors.New("empty response"))
	}
	if msg.Err != nil {
		c.fail(req, msg.Err)
		ev.Level, ev.Kind, ev.Err = otel.LevelWarn, otel.KindPageError, msg.Err.Error()
		c.events.Emit(ev)
		return OutcomeFailed
	}

	var err error
	skipped := 0
	switch req.purpose {
	case PurposeReset:
		err = c.cache.Replace(req.key, *msg.Result)
	case PurposeMore:
		skipped, err = c.cache.Append(req.key, *msg.Result)
	}
	if err != nil {
		// An out-of-order page is a contract violation, surfaced as malformed.
		c.fail(req, catalog.NewError(catalog.KindMalformed, "list page", err))
		ev.Level, ev.Kind, ev.Err = otel.LevelWarn, otel.KindPageRejected, err.Error()
		c.events.Emit(ev)
		return OutcomeRejected
	}

	if err := c.cache.Cursor().Check(c.cache.Len()); err != nil {
		c.events.Emit(otel.Event{
			Level: otel.LevelWarn, Kind: otel.KindPageApplied, View: c.scope.String(),
			Filter: msg.Key.String(), Seq: msg.Seq, Msg: "cursor inconsistent", Err: err.Error(),
		})
	}
	c.err = nil
	if c.ledger != nil && len(msg.Result.ViewedIDs) > 0 {
		c.ledger.Merge(msg.Result.ViewedIDs)
	}

	ev.Level, ev.Kind, ev.Count = otel.LevelInfo, otel.KindPageApplied, len(msg.Result.Items)
	if skipped > 0 {
		ev.Extra = map[string]any{"skipped": skipped}
	}
	c.events.Emit(ev)
	return OutcomeApplied
}

// fail records err for req. A failed reset leaves the empty cache marked
// exhausted so load-more cannot spin; Retry re-issues it.
func (c *Coordinator) fail(req request, err error) {
	c.err = err
	c.lastFailed = &req
	if req.purpose == PurposeReset {
		c.cache.MarkExhausted()
	}
}

// Scope returns the view this coordinator serves.
func (c *Coordinator) Scope() catalog.Scope { return c.scope }

// Key returns the key the cache is bound to.
func (c *Coordinator) Key() catalog.FilterKey { return c.cache.Key() }

// Items returns a copy of the cached items.
func (c *Coordinator) Items() []catalog.Item { return c.cache.Items() }

// Len returns the number of cached items.
func (c *Coordinator) Len() int { return c.cache.Len() }

// Cursor returns the cursor of the last applied page.
func (c *Coordinator) Cursor() catalog.PageCursor { return c.cache.Cursor() }

// HasMore reports whether FetchNextPage would issue a request once idle.
func (c *Coordinator) HasMore() bool { return c.cache.HasMore() }

// Loaded reports whether a first page has been applied for the current key.
func (c *Coordinator) Loaded() bool { return c.cache.Loaded() }

// Loading reports whether a request is in flight, and for what.
func (c *Coordinator) Loading() (Purpose, bool) {
	if c.inflight == nil {
		return 0, false
	}
	return c.inflight.purpose, true
}

// Err returns the last surfaced error, cleared by a successful response or
// a new reset.
func (c *Coordinator) Err() error { return c.err }

// CanRetry reports whether Retry would issue a request. A NotFound answer
// is final for the request that got it.
func (c *Coordinator) CanRetry() bool {
	return c.inflight == nil && c.lastFailed != nil && catalog.Retryable(c.err)
}

// String implements fmt.Stringer.
func (c *Coordinator) String() string {
	return fmt.Sprintf("coord(%s %s items=%d page=%d/%d)", c.scope, c.cache.Key(),
		c.cache.Len(), c.cache.Cursor().CurrentPage, c.cache.Cursor().LastPage)
}
