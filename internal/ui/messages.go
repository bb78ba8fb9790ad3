// Package ui provides the Bubble Tea TUI for vitrine.
package ui

import "github.com/abelbrown/vitrine/internal/catalog"

// Page and item results arrive as coord.PageLoaded and deeplink.ItemLoaded;
// the facet directory as facets.Loaded. The messages below are the UI's own.

// LocationChanged points the running session at a new path. The go-to prompt
// (o) sends it; an embedding program may send it with tea.Program.Send.
type LocationChanged struct {
	Path string
}

// SessionSaved is sent when the session snapshot has been written.
type SessionSaved struct {
	Path   string
	Filter catalog.FilterKey
	Err    error
}

// searchSettled fires when the search input has been idle for the debounce
// interval. Only the latest seq applies.
type searchSettled struct {
	seq   int
	query string
}
