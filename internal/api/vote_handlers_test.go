package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scentlog/scentlog-server/internal/service"
)

func categoryView(t *testing.T, d service.PerfumeDetail, key string) service.CategoryView {
	t.Helper()
	for _, c := range d.Community {
		if c.Category == key {
			return c
		}
	}
	t.Fatalf("category %s missing", key)
	return service.CategoryView{}
}

func selected(cv service.CategoryView) []string {
	var out []string
	for _, o := range cv.Options {
		if o.Mine {
			out = append(out, o.Option)
		}
	}
	return out
}

func TestVotes_Mine(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	p := createPerfume(t, ts, map[string]any{"name": "Aventus"})
	path := "/api/v1/perfumes/" + p.ID + "/votes/mine/rating"

	resp := ts.api.Put(path, map[string]any{"option": "love"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	d := decodeData[service.PerfumeDetail](t, resp)
	assert.Equal(t, []string{"love"}, selected(categoryView(t, d, "rating")))

	d = decodeData[service.PerfumeDetail](t, ts.api.Put(path, map[string]any{}))
	assert.Empty(t, selected(categoryView(t, d, "rating")))

	resp = ts.api.Put(path, map[string]any{"option": "meh"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Put("/api/v1/perfumes/"+p.ID+"/votes/mine/colour", map[string]any{"option": "love"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestVotes_Community(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	p := createPerfume(t, ts, map[string]any{"name": "Aventus"})
	path := "/api/v1/perfumes/" + p.ID + "/votes/community"

	resp := ts.api.Put(path, map[string]any{
		"votes": map[string]map[string]int{
			"rating":    {"love": 40, "like": 10},
			"packaging": {"nice": 3},
		},
		"source": "Fragrantica",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	res := decodeData[service.CommunityVotesResult](t, resp)
	assert.Contains(t, res.Ignored, "packaging")

	resp = ts.api.Put(path, map[string]any{"votes": map[string]map[string]int{"rating": {"love": -1}}})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Put("/api/v1/perfumes/pf-missing/votes/community", map[string]any{
		"votes": map[string]map[string]int{"rating": {"love": 1}},
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
