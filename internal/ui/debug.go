package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/vitrine/internal/metrics"
	"github.com/abelbrown/vitrine/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugInfo is everything the debug overlay shows besides the ring.
type debugInfo struct {
	Breaker string
	Metrics *metrics.Metrics
	Pending string
}

// debugOverlay renders the debug panel showing request stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, info debugInfo, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Request Stats"))
	lines = append(lines, fmt.Sprintf("  Pages:      %d requested, %d applied, %d stale, %d rejected, %d errors",
		stats[otel.KindPageRequest], stats[otel.KindPageApplied], stats[otel.KindPageStale],
		stats[otel.KindPageRejected], stats[otel.KindPageError]))
	lines = append(lines, fmt.Sprintf("  Items:      %d requested, %d opened, %d stale, %d missing, %d errors",
		stats[otel.KindItemRequest], stats[otel.KindItemOpen], stats[otel.KindItemStale],
		stats[otel.KindItemNotFound], stats[otel.KindItemError]))
	lines = append(lines, fmt.Sprintf("  Filters:    %d changes, %d no-ops",
		stats[otel.KindFilterChange], stats[otel.KindFilterNoop]))
	lines = append(lines, fmt.Sprintf("  Views:      %d marked, %d forwarded, %d forward errors",
		stats[otel.KindViewMarked], stats[otel.KindViewForwarded], stats[otel.KindViewForwardError]))
	if info.Breaker != "" {
		lines = append(lines, fmt.Sprintf("  Breaker:    %s", info.Breaker))
	}
	if info.Pending != "" {
		lines = append(lines, fmt.Sprintf("  Pending:    %s", info.Pending))
	}
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))

	if info.Metrics != nil {
		if samples, err := info.Metrics.Snapshot(); err == nil && len(samples) > 0 {
			lines = append(lines, "", DebugHeaderStyle.Render("Metrics"))
			for _, s := range samples {
				lines = append(lines, fmt.Sprintf("  %-42s %g", truncateRunes(s.Name+formatLabels(s.Labels), 42), s.Value))
			}
		}
	}
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-18s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Seq > 0 {
			line += fmt.Sprintf("  #%d", e.Seq)
		}
		if e.Slug != "" {
			line += "  " + truncateRunes(e.Slug, 24)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 96
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, k := range []string{"operation", "purpose", "outcome"} {
		if v, ok := labels[k]; ok {
			parts = append(parts, v)
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
