// Package otel provides structured observability for vitrine.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and a background drain
// goroutine. An optional RingBuffer keeps recent events in memory for the
// debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Filter store
	KindFilterChange EventKind = "filter.change"
	KindFilterNoop   EventKind = "filter.noop"

	// Fetch coordinator
	KindPageRequest  EventKind = "page.request"
	KindPageApplied  EventKind = "page.applied"
	KindPageStale    EventKind = "page.stale"
	KindPageRejected EventKind = "page.rejected"
	KindPageError    EventKind = "page.error"
	KindPageSkipped  EventKind = "page.skipped" // load-more refused locally

	// Deep-link resolver
	KindItemRequest  EventKind = "item.request"
	KindItemOpen     EventKind = "item.open"
	KindItemStale    EventKind = "item.stale"
	KindItemNotFound EventKind = "item.not_found"
	KindItemError    EventKind = "item.error"
	KindLinkRollback EventKind = "link.rollback"

	// Overlay
	KindOverlayOpen     EventKind = "overlay.open"
	KindOverlayNavigate EventKind = "overlay.navigate"
	KindOverlayClose    EventKind = "overlay.close"

	// View ledger
	KindViewMarked       EventKind = "view.marked"
	KindViewMerged       EventKind = "view.merged"
	KindViewForwarded    EventKind = "view.forwarded"
	KindViewForwardError EventKind = "view.forward_error"

	// Facet directory
	KindFacetLoaded EventKind = "facet.loaded"
	KindFacetError  EventKind = "facet.error"

	// Session store
	KindStoreError EventKind = "store.error"

	// UI
	KindKeyPress EventKind = "ui.key"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace (only when VITRINE_TRACE is set)
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "coord", "deeplink", "overlay", "viewed", "ui", "main"
	SessionID string         `json:"session_id,omitempty"`
	View      string         `json:"view,omitempty"`   // scope of the view, e.g. "catalog", "category:fintech"
	Filter    string         `json:"filter,omitempty"` // FilterKey.String()
	Seq       uint64         `json:"seq,omitempty"`    // request identity
	Page      int            `json:"page,omitempty"`
	Slug      string         `json:"slug,omitempty"`
	ItemID    int64          `json:"item_id,omitempty"`
	Path      string         `json:"path,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
