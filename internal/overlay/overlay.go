// Package overlay implements the single-item detail overlay state machine.
//
// The controller is either Closed or Open(item, navigation list). User
// transitions (Open, Navigate, Close) write the location; transitions driven
// by the location itself (OpenFromLocation, CloseFromLocation) do not, so the
// two can follow each other without looping.
package overlay

import (
	"slices"

	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/deeplink"
	"github.com/abelbrown/vitrine/internal/otel"
)

// State is the overlay state.
type State int

const (
	Closed State = iota
	Open
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Options configures a Controller.
type Options struct {
	// BasePath is the non-detail path of the current view.
	BasePath func() string
	// Wrap makes Navigate wrap around at either end instead of stopping.
	Wrap bool
	// OnShow is called every time an item becomes the current item.
	OnShow func(catalog.Item)
	Events otel.Emitter
}

// Controller owns the overlay state of one view. Not safe for concurrent
// use; it lives on the event loop.
type Controller struct {
	loc      deeplink.Location
	basePath func() string
	wrap     bool
	onShow   func(catalog.Item)
	events   otel.Emitter

	state      State
	current    catalog.Item
	list       []catalog.Item
	index      int
	returnPath string
}

// New creates a closed Controller.
func New(loc deeplink.Location, opts Options) *Controller {
	basePath := opts.BasePath
	if basePath == nil {
		basePath = func() string { return "/" }
	}
	return &Controller{
		loc:      loc,
		basePath: basePath,
		wrap:     opts.Wrap,
		onShow:   opts.OnShow,
		events:   opts.Events,
	}
}

// Open shows item with list as its navigation list and points the location
// at the item. The path current before the first open is restored by Close.
func (c *Controller) Open(item catalog.Item, list []catalog.Item) {
	if c.state == Closed {
		c.returnPath = c.loc.Path()
	}
	c.show(item, list)
	if path := deeplink.ItemPath(item.Slug); c.loc.Path() != path {
		c.loc.Push(path)
	}
	c.emit(otel.KindOverlayOpen, "user")
}

// OpenFromLocation shows item because the location already names it. The
// location is left alone; Close returns to the view's base path.
func (c *Controller) OpenFromLocation(item catalog.Item, list []catalog.Item) {
	if c.state == Closed {
		c.returnPath = c.basePath()
	}
	c.show(item, list)
	c.emit(otel.KindOverlayOpen, "location")
}

// show installs item and list. An item missing from a non-empty list is put
// in front so the current item is always reachable by navigation.
func (c *Controller) show(item catalog.Item, list []catalog.Item) {
	nav := slices.Clone(list)
	idx := catalog.IndexOf(nav, item.ID)
	if idx < 0 && len(nav) > 0 {
		nav = append([]catalog.Item{item}, nav...)
		idx = 0
	}
	c.state = Open
	c.current = item
	c.list = nav
	c.index = idx
	c.notify()
}

// Navigate moves delta entries through the navigation list. Past either end
// it stops unless wrapping is enabled. It reports whether the current item
// changed.
func (c *Controller) Navigate(delta int) bool {
	if c.state != Open || len(c.list) == 0 || delta == 0 {
		return false
	}
	next := c.index + delta
	if c.wrap {
		n := len(c.list)
		next = ((next % n) + n) % n
	} else if next < 0 || next >= len(c.list) {
		return false
	}
	if next == c.index {
		return false
	}

	c.index = next
	c.current = c.list[next]
	c.loc.Replace(deeplink.ItemPath(c.current.Slug))
	c.notify()
	c.emit(otel.KindOverlayNavigate, "")
	return true
}

// Next moves to the following item.
func (c *Controller) Next() bool { return c.Navigate(1) }

// Prev moves to the preceding item.
func (c *Controller) Prev() bool { return c.Navigate(-1) }

// Close hides the overlay and restores the location it was opened from.
func (c *Controller) Close() bool {
	if c.state != Open {
		return false
	}
	target := c.returnPath
	if _, isItem := deeplink.ParseItemPath(target); target == "" || isItem {
		target = c.basePath()
	}
	c.reset()
	if c.loc.Path() != target {
		c.loc.Push(target)
	}
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindOverlayClose, Path: target, Msg: "user"})
	return true
}

// CloseFromLocation hides the overlay because the location no longer names
// an item. The location is left alone.
func (c *Controller) CloseFromLocation() {
	if c.state != Open {
		return
	}
	c.reset()
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindOverlayClose, Path: c.loc.Path(), Msg: "location"})
}

// SetList replaces the navigation list while open, keeping the current item.
// Used when a load-more extends the rendered list under an open overlay.
func (c *Controller) SetList(list []catalog.Item) {
	if c.state != Open {
		return
	}
	nav := slices.Clone(list)
	idx := catalog.IndexOf(nav, c.current.ID)
	if idx < 0 && len(nav) > 0 {
		nav = append([]catalog.Item{c.current}, nav...)
		idx = 0
	}
	c.list = nav
	c.index = idx
}

func (c *Controller) reset() {
	c.state = Closed
	c.current = catalog.Item{}
	c.list = nil
	c.index = 0
	c.returnPath = ""
}

func (c *Controller) notify() {
	if c.onShow != nil {
		c.onShow(c.current)
	}
}

func (c *Controller) emit(kind otel.EventKind, msg string) {
	c.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   kind,
		Slug:   c.current.Slug,
		ItemID: c.current.ID,
		Path:   c.loc.Path(),
		Count:  len(c.list),
		Msg:    msg,
	})
}

// State returns the overlay state.
func (c *Controller) State() State { return c.state }

// IsOpen reports whether the overlay is open.
func (c *Controller) IsOpen() bool { return c.state == Open }

// Current returns the open item.
func (c *Controller) Current() (catalog.Item, bool) {
	return c.current, c.state == Open
}

// CurrentSlug returns the open item's slug, or "".
func (c *Controller) CurrentSlug() string {
	if c.state != Open {
		return ""
	}
	return c.current.Slug
}

// List returns a copy of the navigation list.
func (c *Controller) List() []catalog.Item { return slices.Clone(c.list) }

// Position returns the index of the current item in the navigation list and
// the list length. The index is -1 when the list is empty.
func (c *Controller) Position() (int, int) {
	if c.state != Open || len(c.list) == 0 {
		return -1, len(c.list)
	}
	return c.index, len(c.list)
}

// ReturnPath is where Close will send the location.
func (c *Controller) ReturnPath() string { return c.returnPath }
