package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// AllPlatforms is the platform slug meaning "no platform filter".
const AllPlatforms = "all"

// FilterKey is the normalized pagination filter: a platform slug (or "all")
// plus free-text query. Only these two components are paginated on; the other
// facets are navigational views (see Scope).
type FilterKey struct {
	Platform string
	Query    string
}

// DefaultFilterKey is the unfiltered catalog.
func DefaultFilterKey() FilterKey {
	return FilterKey{Platform: AllPlatforms}
}

// NewFilterKey builds a normalized key.
func NewFilterKey(platform, query string) FilterKey {
	return FilterKey{Platform: platform, Query: query}.Normalize()
}

// Normalize trims and lower-cases both components and maps an empty platform
// to AllPlatforms. Queries are NFC-normalized and inner whitespace collapsed so
// "Dark  Mode" and "dark mode" address the same result set.
func (k FilterKey) Normalize() FilterKey {
	p := strings.ToLower(strings.TrimSpace(k.Platform))
	if p == "" {
		p = AllPlatforms
	}
	return FilterKey{Platform: p, Query: normalizeQuery(k.Query)}
}

func normalizeQuery(q string) string {
	q = norm.NFC.String(q)
	q = strings.Join(strings.Fields(q), " ")
	// Casers carry state, so one per call.
	return cases.Lower(language.Und).String(q)
}

// Equal compares two keys after normalization.
func (k FilterKey) Equal(other FilterKey) bool {
	return k.Normalize() == other.Normalize()
}

// IsDefault reports whether k is the unfiltered catalog.
func (k FilterKey) IsDefault() bool {
	return k.Equal(DefaultFilterKey())
}

// String implements fmt.Stringer.
func (k FilterKey) String() string {
	n := k.Normalize()
	if n.Query == "" {
		return "platform=" + n.Platform
	}
	return "platform=" + n.Platform + " q=" + n.Query
}
