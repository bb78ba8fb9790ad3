// Package catalog defines the catalog data model shared by the browsing core:
// items and their facet tags, the normalized filter key, pagination cursors,
// the per-view page cache and the error taxonomy.
package catalog

import (
	"strings"
	"time"
)

// Facet is a tag dimension an item can belong to.
type Facet string

const (
	FacetPlatform    Facet = "platform"
	FacetCategory    Facet = "category"
	FacetIndustry    Facet = "industry"
	FacetInteraction Facet = "interaction"
)

// Facets lists every facet in display order.
func Facets() []Facet {
	return []Facet{FacetPlatform, FacetCategory, FacetIndustry, FacetInteraction}
}

// Valid reports whether f is a known facet.
func (f Facet) Valid() bool {
	switch f {
	case FacetPlatform, FacetCategory, FacetIndustry, FacetInteraction:
		return true
	}
	return false
}

// Tag is a facet value. Identity is ID; Slug is the key used in paths.
type Tag struct {
	ID    int64  `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Slug  string `json:"slug" validate:"required"`
	Image string `json:"image,omitempty"`
}

// Item is a single catalog entry.
type Item struct {
	ID           int64     `json:"id" validate:"required"`
	Slug         string    `json:"slug" validate:"required"`
	Title        string    `json:"title"`
	Media        string    `json:"media,omitempty"`
	Description  string    `json:"description,omitempty"`
	Platforms    []Tag     `json:"platforms,omitempty" validate:"dive"`
	Categories   []Tag     `json:"categories,omitempty" validate:"dive"`
	Industries   []Tag     `json:"industries,omitempty" validate:"dive"`
	Interactions []Tag     `json:"interactions,omitempty" validate:"dive"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Tags returns the item's memberships for one facet.
func (it Item) Tags(f Facet) []Tag {
	switch f {
	case FacetPlatform:
		return it.Platforms
	case FacetCategory:
		return it.Categories
	case FacetIndustry:
		return it.Industries
	case FacetInteraction:
		return it.Interactions
	}
	return nil
}

// HasTag reports whether the item belongs to the tag with the given slug.
func (it Item) HasTag(f Facet, slug string) bool {
	for _, t := range it.Tags(f) {
		if strings.EqualFold(t.Slug, slug) {
			return true
		}
	}
	return false
}

// Normalize drops duplicate tag ids from every facet, keeping first occurrence.
// Memberships are sets; servers occasionally repeat a tag when joins fan out.
func (it Item) Normalize() Item {
	it.Platforms = dedupeTags(it.Platforms)
	it.Categories = dedupeTags(it.Categories)
	it.Industries = dedupeTags(it.Industries)
	it.Interactions = dedupeTags(it.Interactions)
	return it
}

func dedupeTags(tags []Tag) []Tag {
	if len(tags) < 2 {
		return tags
	}
	seen := make(map[int64]struct{}, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// IndexOf returns the position of the item with id in items, or -1.
func IndexOf(items []Item, id int64) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// Scope names the catalog view being paginated. The zero Scope is the root
// catalog; a facet scope is a navigational view such as /category/fintech.
type Scope struct {
	Facet Facet
	Slug  string
}

// IsRoot reports whether s is the root catalog view.
func (s Scope) IsRoot() bool {
	return s.Facet == "" || s.Slug == ""
}

// BasePath is the location path of the view with no item open.
func (s Scope) BasePath() string {
	if s.IsRoot() {
		return "/"
	}
	return "/" + string(s.Facet) + "/" + s.Slug
}

// String implements fmt.Stringer.
func (s Scope) String() string {
	if s.IsRoot() {
		return "catalog"
	}
	return string(s.Facet) + ":" + s.Slug
}

// ParseScope maps a view path back to a Scope. "/" and "" are the root.
func ParseScope(path string) (Scope, bool) {
	path = strings.Trim(path, "/")
	if path == "" {
		return Scope{}, true
	}
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] == "" {
		return Scope{}, false
	}
	f := Facet(parts[0])
	if !f.Valid() {
		return Scope{}, false
	}
	return Scope{Facet: f, Slug: parts[1]}, true
}
