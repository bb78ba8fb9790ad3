package catalog

import (
	"fmt"
	"slices"
)

// PageCursor is the server-reported pagination position for one FilterKey.
// A zero cursor (CurrentPage 0) means nothing has been loaded yet.
type PageCursor struct {
	CurrentPage int
	LastPage    int
	PageSize    int
	Total       int
	HasMore     bool
}

// Check verifies the cursor invariants against the number of items fetched
// so far under it.
func (c PageCursor) Check(fetched int) error {
	switch {
	case c.CurrentPage < 1:
		return fmt.Errorf("current page %d < 1", c.CurrentPage)
	case c.LastPage < 1:
		return fmt.Errorf("last page %d < 1", c.LastPage)
	case c.PageSize <= 0:
		return fmt.Errorf("page size %d <= 0", c.PageSize)
	case c.Total < 0:
		return fmt.Errorf("total %d < 0", c.Total)
	case c.HasMore != (c.CurrentPage < c.LastPage):
		return fmt.Errorf("has_more=%t with page %d of %d", c.HasMore, c.CurrentPage, c.LastPage)
	case c.Total < fetched:
		return fmt.Errorf("total %d < %d fetched", c.Total, fetched)
	}
	return nil
}

// Page is one decoded list response.
type Page struct {
	Items     []Item
	Cursor    PageCursor
	ViewedIDs []int64 // optional server view state, nil when absent
}

// PageCache holds the items fetched so far for the current FilterKey of one
// view, plus the cursor of the last applied page. Items are append-only for
// the lifetime of a key; a key change replaces the cache wholesale.
//
// Not safe for concurrent use. The owning coordinator mutates it only from
// the event loop.
type PageCache struct {
	key       FilterKey
	items     []Item
	ids       map[int64]struct{}
	cursor    PageCursor
	exhausted bool
}

// NewPageCache returns an empty cache for the default key.
func NewPageCache() *PageCache {
	return &PageCache{key: DefaultFilterKey(), ids: make(map[int64]struct{})}
}

// Reset invalidates the cache and rebinds it to key.
func (c *PageCache) Reset(key FilterKey) {
	c.key = key.Normalize()
	c.items = nil
	c.ids = make(map[int64]struct{})
	c.cursor = PageCursor{}
	c.exhausted = false
}

// Replace installs page 1 for key, discarding whatever was held before.
func (c *PageCache) Replace(key FilterKey, p Page) error {
	if p.Cursor.CurrentPage != 1 {
		return fmt.Errorf("replace with page %d: %w", p.Cursor.CurrentPage, ErrPageOrder)
	}
	c.Reset(key)
	c.appendItems(p.Items)
	c.cursor = p.Cursor
	return nil
}

// Append adds the next page for the cache's key. The page must directly follow
// the last applied one; duplicates and gaps are rejected without mutation.
// Items already present (the server shifted rows between pages) are skipped
// and counted in the returned value.
func (c *PageCache) Append(key FilterKey, p Page) (skipped int, err error) {
	if !c.key.Equal(key) {
		return 0, fmt.Errorf("append %s to %s: %w", key, c.key, ErrKeyMismatch)
	}
	if c.cursor.CurrentPage == 0 {
		return 0, fmt.Errorf("append page %d before first page: %w", p.Cursor.CurrentPage, ErrPageOrder)
	}
	if want := c.cursor.CurrentPage + 1; p.Cursor.CurrentPage != want {
		return 0, fmt.Errorf("append page %d, want %d: %w", p.Cursor.CurrentPage, want, ErrPageOrder)
	}
	skipped = c.appendItems(p.Items)
	c.cursor = p.Cursor
	return skipped, nil
}

func (c *PageCache) appendItems(items []Item) (skipped int) {
	for _, it := range items {
		if _, dup := c.ids[it.ID]; dup {
			skipped++
			continue
		}
		c.ids[it.ID] = struct{}{}
		c.items = append(c.items, it)
	}
	return skipped
}

// MarkExhausted stops further load-more attempts until the next Reset or
// Replace. Used after a failed first page so scrolling cannot spin on retries.
func (c *PageCache) MarkExhausted() {
	c.exhausted = true
}

// Key returns the key the cache is bound to.
func (c *PageCache) Key() FilterKey { return c.key }

// Cursor returns the cursor of the last applied page.
func (c *PageCache) Cursor() PageCursor { return c.cursor }

// Loaded reports whether a first page has been applied.
func (c *PageCache) Loaded() bool { return c.cursor.CurrentPage > 0 }

// Exhausted reports whether MarkExhausted was called since the last reset.
func (c *PageCache) Exhausted() bool { return c.exhausted }

// HasMore reports whether a next page may be requested.
func (c *PageCache) HasMore() bool {
	return c.Loaded() && !c.exhausted && c.cursor.HasMore
}

// Len returns the number of cached items.
func (c *PageCache) Len() int { return len(c.items) }

// Items returns a copy of the cached items in order.
func (c *PageCache) Items() []Item {
	return slices.Clone(c.items)
}

// Contains reports whether an item id is cached.
func (c *PageCache) Contains(id int64) bool {
	_, ok := c.ids[id]
	return ok
}
