package catalogtest

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/vitrine/internal/catalog"
)

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(42, 10)
	b := Generate(42, 10)
	require.Len(t, a, 10)
	assert.Equal(t, a, b)

	slugs := map[string]bool{}
	for i, it := range a {
		assert.Equal(t, int64(i+1), it.ID)
		assert.NotEmpty(t, it.Slug)
		assert.False(t, slugs[it.Slug], "duplicate slug %s", it.Slug)
		slugs[it.Slug] = true
		assert.Len(t, it.Platforms, 1)
	}
}

func TestListPaginates(t *testing.T) {
	srv := New(Generate(1, 5)).Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/catalog?page=3&per_page=2")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Items      []catalog.Item `json:"items"`
		Pagination pagination     `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Items, 1)
	assert.Equal(t, pagination{CurrentPage: 3, LastPage: 3, PerPage: 2, Total: 5, HasMore: false}, body.Pagination)
}

func TestFailNextAndHits(t *testing.T) {
	fake := New(Generate(1, 3))
	srv := fake.Start()
	defer srv.Close()

	fake.FailNext(RouteItem, http.StatusServiceUnavailable, 1)
	slug := Generate(1, 3)[0].Slug

	resp, err := http.Get(srv.URL + "/catalog/item/" + slug)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/catalog/item/" + slug)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/catalog/item/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, 3, fake.Hits(RouteItem))
}

func TestTagsDirectory(t *testing.T) {
	tags := Tags(catalog.FacetPlatform)
	require.Len(t, tags, 3)
	assert.Equal(t, "web", tags[0].Slug)
	assert.Equal(t, "Web", tags[0].Name)
	assert.NotEqual(t, Tags(catalog.FacetCategory)[0].ID, tags[0].ID)
}
