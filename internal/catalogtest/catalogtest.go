// Package catalogtest serves an in-process fake of the catalog API. It backs
// client and end-to-end tests and the --demo mode of cmd/vitrine.
package catalogtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abelbrown/vitrine/internal/catalog"
)

// Route names used for failure injection and hit counting.
const (
	RouteList  = "list"
	RouteItem  = "item"
	RouteFacet = "facet"
	RouteView  = "view"
)

var directory = map[catalog.Facet][]string{
	catalog.FacetPlatform:    {"web", "ios", "android"},
	catalog.FacetCategory:    {"onboarding", "checkout", "settings", "search", "dashboard"},
	catalog.FacetIndustry:    {"fintech", "health", "retail", "travel"},
	catalog.FacetInteraction: {"modal", "swipe", "drag", "toast"},
}

// Tags returns the fixed tag directory of a facet.
func Tags(f catalog.Facet) []catalog.Tag {
	slugs := directory[f]
	base := int64(1 + slices.Index(catalog.Facets(), f)*100)
	out := make([]catalog.Tag, len(slugs))
	for i, s := range slugs {
		out[i] = catalog.Tag{ID: base + int64(i), Name: strings.ToUpper(s[:1]) + s[1:], Slug: s}
	}
	return out
}

// Generate builds n deterministic items from seed. IDs run from 1 to n and
// every item belongs to one tag of each facet.
func Generate(seed uint64, n int) []catalog.Item {
	f := gofakeit.New(seed)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := make([]catalog.Item, n)
	for i := range items {
		id := int64(i + 1)
		title := f.ProductName()
		items[i] = catalog.Item{
			ID:           id,
			Slug:         fmt.Sprintf("%s-%d", slugify(title), id),
			Title:        title,
			Media:        f.URL(),
			Description:  f.Paragraph(1, 3, 12, " "),
			Platforms:    []catalog.Tag{pick(f, catalog.FacetPlatform)},
			Categories:   []catalog.Tag{pick(f, catalog.FacetCategory)},
			Industries:   []catalog.Tag{pick(f, catalog.FacetIndustry)},
			Interactions: []catalog.Tag{pick(f, catalog.FacetInteraction)},
			CreatedAt:    start.Add(time.Duration(i) * time.Hour),
		}
	}
	return items
}

func pick(f *gofakeit.Faker, facet catalog.Facet) catalog.Tag {
	tags := Tags(facet)
	return tags[f.Number(0, len(tags)-1)]
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

type failure struct {
	status int
	left   int
}

// Catalog is the fake API state. Safe for concurrent use.
type Catalog struct {
	mu       sync.Mutex
	items    []catalog.Item
	failures map[string]*failure
	hits     map[string]int
	headers  map[string]http.Header
	views    map[string][]int64 // session id -> item ids, in arrival order
	latency  time.Duration
}

// New creates a fake serving items.
func New(items []catalog.Item) *Catalog {
	return &Catalog{
		items:    slices.Clone(items),
		failures: make(map[string]*failure),
		hits:     make(map[string]int),
		headers:  make(map[string]http.Header),
		views:    make(map[string][]int64),
	}
}

// SetLatency delays every response by d.
func (c *Catalog) SetLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = d
}

// FailNext makes the next n requests to route answer with status.
func (c *Catalog) FailNext(route string, status, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[route] = &failure{status: status, left: n}
}

// Hits returns how many requests route has received.
func (c *Catalog) Hits(route string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[route]
}

// LastHeader returns a header of the last request to route.
func (c *Catalog) LastHeader(route, name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.headers[route]; ok {
		return h.Get(name)
	}
	return ""
}

// Views returns the item ids reported by a session.
func (c *Catalog) Views(sessionID string) []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.views[sessionID])
}

// SeedViews records prior views for a session, as if from another device.
func (c *Catalog) SeedViews(sessionID string, ids ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[sessionID] = append(c.views[sessionID], ids...)
}

// Handler returns the HTTP routes of the fake.
func (c *Catalog) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.With(c.track(RouteList)).Get("/catalog", c.handleList)
	r.With(c.track(RouteItem)).Get("/catalog/item/{slug}", c.handleItem)
	r.With(c.track(RouteFacet)).Get("/catalog/facets/{facet}", c.handleFacet)
	r.With(c.track(RouteView)).Post("/view-events", c.handleView)
	return r
}

// Start serves the fake on a local port until the server is closed.
func (c *Catalog) Start() *httptest.Server {
	return httptest.NewServer(c.Handler())
}

// track counts hits, applies latency and injected failures.
func (c *Catalog) track(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.mu.Lock()
			c.hits[route]++
			c.headers[route] = r.Header.Clone()
			latency := c.latency
			status := 0
			if f := c.failures[route]; f != nil && f.left > 0 {
				f.left--
				status = f.status
			}
			c.mu.Unlock()

			if latency > 0 {
				select {
				case <-time.After(latency):
				case <-r.Context().Done():
					return
				}
			}
			if status != 0 {
				writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type pagination struct {
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	HasMore     bool `json:"has_more"`
}

func (c *Catalog) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	perPage := atoiDefault(q.Get("per_page"), 24)
	if page < 1 || perPage < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad pagination"})
		return
	}

	query := strings.ToLower(strings.TrimSpace(q.Get("q")))
	c.mu.Lock()
	var matched []catalog.Item
	for _, it := range c.items {
		if !matches(it, q, query) {
			continue
		}
		matched = append(matched, it)
	}
	viewed := slices.Clone(c.views[r.Header.Get("X-Session-ID")])
	c.mu.Unlock()

	total := len(matched)
	last := max(1, (total+perPage-1)/perPage)
	lo := min((page-1)*perPage, total)
	hi := min(lo+perPage, total)

	resp := map[string]any{
		"items": matched[lo:hi],
		"pagination": pagination{
			CurrentPage: page,
			LastPage:    last,
			PerPage:     perPage,
			Total:       total,
			HasMore:     page < last,
		},
	}
	if len(viewed) > 0 {
		resp["viewedIds"] = viewed
	}
	writeJSON(w, http.StatusOK, resp)
}

func matches(it catalog.Item, q map[string][]string, query string) bool {
	for _, f := range catalog.Facets() {
		vals := q[string(f)]
		if len(vals) == 0 || vals[0] == "" || vals[0] == catalog.AllPlatforms {
			continue
		}
		if !it.HasTag(f, vals[0]) {
			return false
		}
	}
	if query != "" && !strings.Contains(strings.ToLower(it.Title), query) &&
		!strings.Contains(strings.ToLower(it.Description), query) {
		return false
	}
	return true
}

func (c *Catalog) handleItem(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	c.mu.Lock()
	idx := slices.IndexFunc(c.items, func(it catalog.Item) bool { return it.Slug == slug })
	var item catalog.Item
	if idx >= 0 {
		item = c.items[idx]
	}
	c.mu.Unlock()

	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (c *Catalog) handleFacet(w http.ResponseWriter, r *http.Request) {
	f := catalog.Facet(chi.URLParam(r, "facet"))
	if !f.Valid() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown facet"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": Tags(f)})
}

func (c *Catalog) handleView(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemID int64 `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ItemID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad view event"})
		return
	}
	c.mu.Lock()
	sid := r.Header.Get("X-Session-ID")
	c.views[sid] = append(c.views[sid], body.ItemID)
	c.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
