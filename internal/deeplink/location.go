// Package deeplink keeps the location path and the detail overlay in
// agreement. A path of the form /item/<slug> means the overlay is open for
// that slug; any other path means it is closed.
package deeplink

import (
	"net/url"
	"strings"
	"sync"
)

const itemPrefix = "/item/"

// ItemPath returns the location path naming an open item.
func ItemPath(slug string) string {
	return itemPrefix + url.PathEscape(slug)
}

// ParseItemPath extracts the slug from an item path. Query strings,
// fragments and a trailing slash are ignored.
func ParseItemPath(path string) (string, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "/")
	if !strings.HasPrefix(path, itemPrefix) {
		return "", false
	}
	rest := path[len(itemPrefix):]
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	slug, err := url.PathUnescape(rest)
	if err != nil || strings.TrimSpace(slug) == "" {
		return "", false
	}
	return slug, true
}

// Location is the address the user sees and can share. Push adds a history
// entry; Replace rewrites the current one.
type Location interface {
	Path() string
	Push(path string)
	Replace(path string)
}

// MemoryLocation is an in-process Location with a history stack, standing in
// for a browser address bar. Safe for concurrent use.
type MemoryLocation struct {
	mu      sync.Mutex
	history []string
	writes  int
}

// NewMemoryLocation starts at path ("/" when empty).
func NewMemoryLocation(path string) *MemoryLocation {
	if path == "" {
		path = "/"
	}
	return &MemoryLocation{history: []string{path}}
}

// Path returns the current path.
func (l *MemoryLocation) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history[len(l.history)-1]
}

// Push makes path current and keeps the previous path in history.
func (l *MemoryLocation) Push(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = append(l.history, path)
	l.writes++
}

// Replace overwrites the current path.
func (l *MemoryLocation) Replace(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history[len(l.history)-1] = path
	l.writes++
}

// Back drops the current entry and returns the new current path. It reports
// false at the start of history.
func (l *MemoryLocation) Back() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.history) < 2 {
		return l.history[0], false
	}
	l.history = l.history[:len(l.history)-1]
	return l.history[len(l.history)-1], true
}

// Depth returns the number of history entries.
func (l *MemoryLocation) Depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}

// Writes counts Push and Replace calls.
func (l *MemoryLocation) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}
