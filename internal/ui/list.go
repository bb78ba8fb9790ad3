package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/vitrine/internal/catalog"
)

// row is one rendered list entry.
type row struct {
	item   catalog.Item
	locked bool
	seen   bool
}

// RenderList renders rows into height lines, scrolled so the cursor stays
// visible. Locked rows never show their title.
func RenderList(rows []row, cursor, width, height int) string {
	if len(rows) == 0 {
		return ""
	}
	if height < 1 {
		height = 1
	}

	offset := calcScrollOffset(cursor, len(rows), height)
	end := offset + height
	if end > len(rows) {
		end = len(rows)
	}

	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		lines = append(lines, renderRow(rows[i], i == cursor, width))
	}
	return strings.Join(lines, "\n")
}

// calcScrollOffset keeps the cursor roughly centered once the list is
// taller than the viewport.
func calcScrollOffset(cursor, total, visible int) int {
	if visible <= 0 || total <= visible {
		return 0
	}
	offset := cursor - visible/2
	if offset < 0 {
		offset = 0
	}
	if maxOffset := total - visible; offset > maxOffset {
		offset = maxOffset
	}
	return offset
}

func renderRow(r row, selected bool, width int) string {
	if r.locked {
		line := "  🔒 Locked item · upgrade to see more"
		if selected {
			return SelectedItem.Width(width).Render(line)
		}
		return LockedItem.Render(line)
	}

	badge := "   "
	if !r.seen {
		badge = NewBadge.Render("new")
	}
	platform := ""
	if tags := r.item.Tags(catalog.FacetPlatform); len(tags) > 0 {
		platform = PlatformBadge.Render(tags[0].Name)
	}

	titleWidth := width - 3 - lipgloss.Width(platform) - 4
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := truncateRunes(termText(r.item.Title), titleWidth)
	if title == "" {
		title = r.item.Slug
	}

	if selected {
		plain := fmt.Sprintf("%s %s", badgeText(r.seen), title)
		return SelectedItem.Width(width).Render(plain)
	}
	style := NormalItem
	if r.seen {
		style = SeenItem
	}
	return badge + " " + platform + style.Render(title)
}

func badgeText(seen bool) string {
	if seen {
		return "   "
	}
	return "new"
}

// truncateRunes shortens s to at most n runes, marking the cut with "…".
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
