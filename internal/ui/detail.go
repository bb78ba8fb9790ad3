package ui

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"

	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/deeplink"
	"github.com/abelbrown/vitrine/internal/facets"
)

// descriptionPolicy strips all markup from server-provided descriptions.
var descriptionPolicy = bluemonday.StrictPolicy()

// plainText sanitizes an HTML fragment into terminal text.
func plainText(s string) string {
	clean := descriptionPolicy.Sanitize(s)
	clean = html.UnescapeString(clean)
	return termText(clean)
}

// termText makes server text safe to print: escape sequences and control
// characters are removed and whitespace runs collapse to one space.
func termText(s string) string {
	s = ansi.Strip(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// renderDetail renders the overlay panel for item. pos and total describe the
// item's place in the navigation list; pos is -1 when it has none.
func renderDetail(item catalog.Item, pos, total int, seen bool, dir facets.Directory, width int) string {
	panelWidth := width - 4
	if panelWidth > 100 {
		panelWidth = 100
	}
	if panelWidth < 30 {
		panelWidth = 30
	}
	inner := panelWidth - 6

	var lines []string
	title := termText(item.Title)
	if title == "" {
		title = item.Slug
	}
	lines = append(lines, DetailTitle.Render(truncateRunes(title, inner)))

	meta := deeplink.ItemPath(item.Slug)
	if pos >= 0 && total > 0 {
		meta += fmt.Sprintf("  ·  %d of %d", pos+1, total)
	}
	if seen {
		meta += "  ·  seen"
	}
	lines = append(lines, DetailMuted.Render(meta), "")

	for _, f := range catalog.Facets() {
		tags := item.Tags(f)
		if len(tags) == 0 {
			continue
		}
		names := make([]string, len(tags))
		for i, t := range tags {
			names[i] = termText(dir.Name(f, t.Slug))
		}
		lines = append(lines, DetailLabel.Render(string(f))+strings.Join(names, ", "))
	}

	if item.Media != "" {
		lines = append(lines, DetailLabel.Render("media")+truncateRunes(termText(item.Media), inner-13))
	}

	if desc := plainText(item.Description); desc != "" {
		lines = append(lines, "", desc)
	}

	return DetailPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}
