package facets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/catalogtest"
	"github.com/abelbrown/vitrine/internal/otel"
)

type mockSource struct {
	fail catalog.Facet
}

func (m mockSource) ListFacet(_ context.Context, f catalog.Facet) ([]catalog.Tag, error) {
	if f == m.fail {
		return nil, errors.New("boom")
	}
	return catalogtest.Tags(f), nil
}

func TestLoadAll(t *testing.T) {
	got := Load(context.Background(), mockSource{}, otel.Emitter{})
	assert.Empty(t, got.Errs)
	require.Len(t, got.Dir, len(catalog.Facets()))
	assert.Equal(t, []string{"all", "web", "ios", "android"}, got.Dir.Platforms())
}

func TestLoadPartialFailure(t *testing.T) {
	got := Load(context.Background(), mockSource{fail: catalog.FacetIndustry}, otel.Emitter{})
	assert.Contains(t, got.Errs, catalog.FacetIndustry)
	assert.NotContains(t, got.Dir, catalog.FacetIndustry)
	assert.Contains(t, got.Dir, catalog.FacetCategory)
}

func TestLoadCmd(t *testing.T) {
	msg := LoadCmd(mockSource{}, otel.Emitter{})()
	loaded, ok := msg.(Loaded)
	require.True(t, ok)
	assert.NotEmpty(t, loaded.Dir[catalog.FacetPlatform])
}

func TestNextPlatform(t *testing.T) {
	d := Directory{catalog.FacetPlatform: catalogtest.Tags(catalog.FacetPlatform)}
	tests := []struct{ cur, want string }{
		{"all", "web"},
		{"web", "ios"},
		{"android", "all"},
		{"gone", "all"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.NextPlatform(tt.cur), tt.cur)
	}

	var empty Directory
	assert.Equal(t, "all", empty.NextPlatform("all"))
}

func TestScopesAndName(t *testing.T) {
	d := Load(context.Background(), mockSource{}, otel.Emitter{}).Dir
	scopes := d.Scopes()
	for _, s := range scopes {
		assert.NotEqual(t, catalog.FacetPlatform, s.Facet)
	}
	assert.Contains(t, scopes, catalog.Scope{Facet: catalog.FacetIndustry, Slug: "fintech"})
	assert.Equal(t, "Fintech", d.Name(catalog.FacetIndustry, "fintech"))
	assert.Equal(t, "nope", d.Name(catalog.FacetIndustry, "nope"))
}
