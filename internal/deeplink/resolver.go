package deeplink

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/metrics"
	"github.com/abelbrown/vitrine/internal/otel"
)

const defaultTimeout = 15 * time.Second

// ItemSource fetches a single item by slug. *fetch.Client implements it.
type ItemSource interface {
	GetItem(ctx context.Context, slug string) (*catalog.Item, error)
}

// Overlay is the part of the detail overlay the resolver drives. The
// location-driven transitions must not write the location back.
type Overlay interface {
	IsOpen() bool
	CurrentSlug() string
	OpenFromLocation(item catalog.Item, list []catalog.Item)
	CloseFromLocation()
}

// ItemLoaded carries a single-item response back to the event loop.
type ItemLoaded struct {
	Seq  uint64
	Slug string
	Item *catalog.Item
	Err  error
	Dur  time.Duration
}

// Outcome is what Handle did with a response.
type Outcome int

const (
	OutcomeOpened Outcome = iota
	OutcomeStale
	OutcomeNotFound
	OutcomeFailed
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeOpened:
		return "open"
	case OutcomeStale:
		return "stale"
	case OutcomeNotFound:
		return "not_found"
	}
	return "error"
}

// Failure describes the last lookup that rolled the location back.
type Failure struct {
	Slug string
	Kind catalog.Kind
	Err  error
}

// Options configures a Resolver.
type Options struct {
	// BasePath is the non-detail path of the current view.
	BasePath func() string
	// List returns the currently rendered list, used as the overlay's
	// navigation list.
	List    func() []catalog.Item
	Timeout time.Duration
	Events  otel.Emitter
	Metrics *metrics.Metrics
}

type lookup struct {
	seq  uint64
	slug string
}

// Resolver maps the location to overlay state.
type Resolver struct {
	loc      Location
	overlay  Overlay
	src      ItemSource
	basePath func() string
	list     func() []catalog.Item
	timeout  time.Duration
	events   otel.Emitter
	metrics  *metrics.Metrics

	seq     uint64
	pending *lookup
	failure *Failure
}

// NewResolver creates a Resolver.
func NewResolver(loc Location, overlay Overlay, src ItemSource, opts Options) *Resolver {
	basePath := opts.BasePath
	if basePath == nil {
		basePath = func() string { return "/" }
	}
	list := opts.List
	if list == nil {
		list = func() []catalog.Item { return nil }
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Resolver{
		loc:      loc,
		overlay:  overlay,
		src:      src,
		basePath: basePath,
		list:     list,
		timeout:  timeout,
		events:   opts.Events,
		metrics:  opts.Metrics,
	}
}

// Observe reconciles the overlay with the current location. It returns a
// command when an item must be fetched. Observing the same path again while
// the right item is open, or already being fetched, does nothing.
func (r *Resolver) Observe() tea.Cmd {
	path := r.loc.Path()
	slug, ok := ParseItemPath(path)
	if !ok {
		r.pending = nil
		if r.overlay.IsOpen() {
			r.overlay.CloseFromLocation()
		}
		return nil
	}

	if r.overlay.IsOpen() && r.overlay.CurrentSlug() == slug {
		r.pending = nil
		return nil
	}
	if r.pending != nil && r.pending.slug == slug {
		return nil
	}

	r.seq++
	req := lookup{seq: r.seq, slug: slug}
	r.pending = &req
	r.failure = nil

	r.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindItemRequest, Seq: req.seq, Slug: slug, Path: path})

	src, timeout := r.src, r.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		item, err := src.GetItem(ctx, slug)
		return ItemLoaded{Seq: req.seq, Slug: slug, Item: item, Err: err, Dur: time.Since(start)}
	}
}

// Handle applies a single-item response. On failure the location is rolled
// back to the view's base path and the overlay is left closed.
func (r *Resolver) Handle(msg ItemLoaded) Outcome {
	outcome := r.handle(msg)
	r.metrics.ItemLookup(outcome.String())
	return outcome
}

func (r *Resolver) handle(msg ItemLoaded) Outcome {
	ev := otel.Event{Seq: msg.Seq, Slug: msg.Slug, Dur: msg.Dur}

	if r.pending == nil || r.pending.seq != msg.Seq {
		ev.Level, ev.Kind = otel.LevelDebug, otel.KindItemStale
		r.events.Emit(ev)
		return OutcomeStale
	}
	r.pending = nil
	if slug, ok := ParseItemPath(r.loc.Path()); !ok || slug != msg.Slug {
		ev.Level, ev.Kind = otel.LevelDebug, otel.KindItemStale
		r.events.Emit(ev)
		return OutcomeStale
	}

	err := msg.Err
	if err == nil && msg.Item == nil {
		err = catalog.NewError(catalog.KindNotFound, "get item", errors.New("empty response"))
	}
	if err != nil {
		r.rollback(msg.Slug, err)
		if catalog.IsNotFound(err) {
			ev.Level, ev.Kind = otel.LevelWarn, otel.KindItemNotFound
		} else {
			ev.Level, ev.Kind = otel.LevelWarn, otel.KindItemError
		}
		ev.Err = err.Error()
		r.events.Emit(ev)
		if catalog.IsNotFound(err) {
			return OutcomeNotFound
		}
		return OutcomeFailed
	}

	r.overlay.OpenFromLocation(*msg.Item, r.list())
	// The server may answer with a canonical slug; the location follows it.
	if canonical := msg.Item.Slug; canonical != "" && canonical != msg.Slug {
		r.loc.Replace(ItemPath(canonical))
		ev.Path = ItemPath(canonical)
	}
	ev.Level, ev.Kind, ev.ItemID = otel.LevelInfo, otel.KindItemOpen, msg.Item.ID
	r.events.Emit(ev)
	return OutcomeOpened
}

func (r *Resolver) rollback(slug string, err error) {
	if r.overlay.IsOpen() {
		r.overlay.CloseFromLocation()
	}
	base := r.basePath()
	r.loc.Replace(base)
	r.failure = &Failure{Slug: slug, Kind: catalog.KindOf(err), Err: err}
	r.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLinkRollback, Slug: slug, Path: base})
}

// Pending returns the slug being fetched, if any.
func (r *Resolver) Pending() (string, bool) {
	if r.pending == nil {
		return "", false
	}
	return r.pending.slug, true
}

// LastFailure returns the last lookup that was rolled back, cleared by the
// next lookup.
func (r *Resolver) LastFailure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}
