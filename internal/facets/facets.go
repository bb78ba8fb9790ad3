// Package facets loads the tag directories used for platform cycling and
// navigational views.
package facets

import (
	"context"
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/otel"
)

// maxConcurrentLoads limits parallel directory requests.
const maxConcurrentLoads = 4

// loadTimeout bounds each directory request.
const loadTimeout = 15 * time.Second

// Source fetches one facet's tags. *fetch.Client implements it.
type Source interface {
	ListFacet(ctx context.Context, facet catalog.Facet) ([]catalog.Tag, error)
}

// Directory maps each facet to its tags.
type Directory map[catalog.Facet][]catalog.Tag

// Loaded is delivered to the event loop when every facet has been tried.
// Failed facets appear in Errs and are absent from Dir.
type Loaded struct {
	Dir  Directory
	Errs map[catalog.Facet]error
}

// Load fetches every facet in parallel. Errors are reported per facet;
// one failure does not cancel the others.
func Load(ctx context.Context, src Source, events otel.Emitter) Loaded {
	var (
		mu  sync.Mutex
		out = Loaded{Dir: Directory{}, Errs: map[catalog.Facet]error{}}
		g   errgroup.Group
	)
	g.SetLimit(maxConcurrentLoads)

	for _, f := range catalog.Facets() {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
			defer cancel()

			start := time.Now()
			tags, err := src.ListFacet(loadCtx, f)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Errs[f] = err
				events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindFacetError, Msg: string(f), Err: err.Error()})
				return nil
			}
			out.Dir[f] = tags
			events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFacetLoaded, Msg: string(f), Count: len(tags), Dur: time.Since(start)})
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// LoadCmd runs Load off the event loop.
func LoadCmd(src Source, events otel.Emitter) tea.Cmd {
	return func() tea.Msg {
		return Load(context.Background(), src, events)
	}
}

// Platforms returns the platform filter values in cycling order, starting
// with "all".
func (d Directory) Platforms() []string {
	out := []string{catalog.AllPlatforms}
	for _, t := range d[catalog.FacetPlatform] {
		out = append(out, t.Slug)
	}
	return out
}

// NextPlatform returns the platform after current in cycling order,
// wrapping to "all". An unknown current value restarts at "all".
func (d Directory) NextPlatform(current string) string {
	platforms := d.Platforms()
	i := slices.Index(platforms, current)
	if i < 0 {
		return catalog.AllPlatforms
	}
	return platforms[(i+1)%len(platforms)]
}

// Scopes lists the navigational views of every non-platform facet.
func (d Directory) Scopes() []catalog.Scope {
	var out []catalog.Scope
	for _, f := range catalog.Facets() {
		if f == catalog.FacetPlatform {
			continue
		}
		for _, t := range d[f] {
			out = append(out, catalog.Scope{Facet: f, Slug: t.Slug})
		}
	}
	return out
}

// Name returns the display name of a tag, or the slug when unknown.
func (d Directory) Name(f catalog.Facet, slug string) string {
	for _, t := range d[f] {
		if t.Slug == slug {
			return t.Name
		}
	}
	return slug
}
