package service

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scentlog/scentlog-server/internal/domain"
	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
	"github.com/scentlog/scentlog-server/internal/search"
)

func TestCreatePerfume_ResolvesReferences(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	p := env.create(t, PerfumeInput{
		Name:          "  Aventus ",
		Brand:         "Creed",
		Concentration: "EDP",
		Tags:          []string{"fruity", " ", "smoky", "fruity"},
		Outlets:       []string{"Harrods", "Harrods"},
		Links:         []LinkInput{{URL: "https://example.com/aventus"}, {Label: "Review", URL: "https://example.com/r"}},
	})

	assert.Equal(t, "Aventus", p.Name)
	assert.Equal(t, "Creed", p.Brand)
	assert.Equal(t, "EDP", p.Concentration)
	assert.Equal(t, []string{"fruity", "smoky"}, p.Tags)
	require.Len(t, p.Outlets, 1)
	assert.Equal(t, "Harrods", p.Outlets[0].Display)
	assert.Equal(t, []domain.Link{
		{Label: "https://example.com/aventus", URL: "https://example.com/aventus"},
		{Label: "Review", URL: "https://example.com/r"},
	}, p.Links)
	assert.Equal(t, testNow, p.CreatedAt)
	assert.Equal(t, testNow, p.UpdatedAt)
	assert.Equal(t, "New", p.State.Label)

	// The seeded EDP entry is reused and the brand is shared.
	second := env.create(t, PerfumeInput{Name: "Green Irish Tweed", Brand: "creed", Concentration: "edp"})
	assert.Equal(t, p.BrandID, second.BrandID)
	assert.Equal(t, p.ConcentrationID, second.ConcentrationID)

	concentrations, err := env.svc.ListReferences(ctx, "concentration")
	require.NoError(t, err)
	assert.Len(t, concentrations, len(domain.DefaultConcentrations))
}

func TestCreatePerfume_Validation(t *testing.T) {
	env := newTestService(t, nil)

	tests := []struct {
		name  string
		in    PerfumeInput
		field string
	}{
		{"missing name", PerfumeInput{Brand: "Creed"}, "name"},
		{"blank name", PerfumeInput{Name: "   "}, "name"},
		{"bad link", PerfumeInput{Name: "Aventus", Links: []LinkInput{{URL: "not a url"}}}, "links[0].url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreatePerfume(context.Background(), tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var derr *domainerrors.Error
			require.ErrorAs(t, err, &derr)
			assert.Contains(t, derr.Details, tt.field)
		})
	}
	assert.Equal(t, 1, env.mem.Saves())
}

func TestGetPerfume_NotFound(t *testing.T) {
	env := newTestService(t, nil)

	_, err := env.svc.GetPerfume(context.Background(), "pf-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUpdatePerfume(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus", Brand: "Creed", Tags: []string{"fruity"}})

	later := testNow.Add(time.Hour)
	env.svc.now = func() time.Time { return later }

	updated, err := env.svc.UpdatePerfume(ctx, p.ID, PerfumePatch{
		Name:  ptr("Aventus Cologne"),
		Tags:  &[]string{"citrus"},
		Brand: ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Aventus Cologne", updated.Name)
	assert.Equal(t, []string{"citrus"}, updated.Tags)
	assert.Empty(t, updated.BrandID)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, testNow, updated.CreatedAt)

	t.Run("blank name", func(t *testing.T) {
		_, err := env.svc.UpdatePerfume(ctx, p.ID, PerfumePatch{Name: ptr("  ")})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	})

	t.Run("unknown perfume", func(t *testing.T) {
		_, err := env.svc.UpdatePerfume(ctx, "pf-missing", PerfumePatch{Name: ptr("x")})
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("search follows the rename", func(t *testing.T) {
		res, err := env.svc.Search(ctx, search.Params{Query: "cologne"})
		require.NoError(t, err)
		require.Len(t, res.Hits, 1)
		assert.Equal(t, p.ID, res.Hits[0].ID)
	})
}

func TestDeletePerfume(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus", Brand: "Creed"})

	require.NoError(t, env.svc.DeletePerfume(ctx, p.ID))

	_, err := env.svc.GetPerfume(ctx, p.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	res, err := env.svc.Search(ctx, search.Params{Query: "aventus"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)

	// The brand stays behind.
	brands, err := env.svc.ListReferences(ctx, "brand")
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, 0, brands[0].UsageCount)

	assert.ErrorIs(t, env.svc.DeletePerfume(ctx, p.ID), domainerrors.ErrNotFound)
}

func TestQuery_FilterAndSort(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	shalimar := env.create(t, PerfumeInput{Name: "Shalimar", Brand: "Guerlain", Tags: []string{"vanilla"}})
	aventus := env.create(t, PerfumeInput{Name: "Aventus", Brand: "Creed", Tags: []string{"fruity"}})
	habit := env.create(t, PerfumeInput{Name: "Habit Rouge", Brand: "Guerlain", Tags: []string{"vanilla", "citrus"}})

	t.Run("default filter keeps everything", func(t *testing.T) {
		res, err := env.svc.Query(ctx, QueryInput{})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		assert.Empty(t, res.Filter)
	})

	t.Run("brand filter with name sort", func(t *testing.T) {
		filter := domain.NewFilterConfig()
		filter.Brands = []string{"Guerlain"}
		res, err := env.svc.Query(ctx, QueryInput{
			Filter: &filter,
			Sort:   domain.SortConfig{Keys: []domain.SortKey{{Dimension: domain.SortName, Order: domain.OrderAsc}}},
		})
		require.NoError(t, err)
		require.Equal(t, 2, res.Total)
		assert.Equal(t, habit.ID, res.Perfumes[0].ID)
		assert.Equal(t, shalimar.ID, res.Perfumes[1].ID)
		assert.Equal(t, []string{"Brands: Guerlain"}, res.Filter)
	})

	t.Run("text matches tags", func(t *testing.T) {
		res, err := env.svc.Query(ctx, QueryInput{Text: "fruit"})
		require.NoError(t, err)
		require.Equal(t, 1, res.Total)
		assert.Equal(t, aventus.ID, res.Perfumes[0].ID)
	})

	t.Run("summaries carry community defaults", func(t *testing.T) {
		res, err := env.svc.Query(ctx, QueryInput{Text: "aventus"})
		require.NoError(t, err)
		require.Len(t, res.Perfumes, 1)
		sum := res.Perfumes[0]
		assert.Equal(t, "Creed", sum.Brand)
		assert.NotContains(t, sum.Scores, "season_time")
		assert.Contains(t, sum.Summaries, "season_time")
	})

	assert.Equal(t, 4, env.rec.queries)
}

func TestQuery_RejectsMalformedFilters(t *testing.T) {
	env := newTestService(t, nil)

	tests := []struct {
		name   string
		mutate func(f *domain.FilterConfig)
		sort   []domain.SortKey
		field  string
	}{
		{"unknown state", func(f *domain.FilterConfig) { f.States = []domain.StateFilter{"lost"} }, nil, "filter.states[0]"},
		{"time as season", func(f *domain.FilterConfig) { f.Seasons = []string{"night"} }, nil, "filter.seasons[0]"},
		{"unknown gender", func(f *domain.FilterConfig) { f.Genders = []string{"robot"} }, nil, "filter.genders[0]"},
		{"range above scale", func(f *domain.FilterConfig) { f.Rating.Max = 6 }, nil, "filter.rating"},
		{"inverted range", func(f *domain.FilterConfig) { f.Sillage.Min, f.Sillage.Max = 3, 2 }, nil, "filter.sillage"},
		{"nan range", func(f *domain.FilterConfig) { f.Value.Min = math.NaN() }, nil, "filter.value"},
		{"tag logic", func(f *domain.FilterConfig) { f.TagLogic = "xor" }, nil, "filter.tag_logic"},
		{"sort order for dimension", func(*domain.FilterConfig) {}, []domain.SortKey{{Dimension: domain.SortGender, Order: domain.OrderAsc}}, "keys[0].order"},
		{"unknown sort dimension", func(*domain.FilterConfig) {}, []domain.SortKey{{Dimension: "color", Order: domain.OrderAsc}}, "keys[0].dimension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := domain.NewFilterConfig()
			tt.mutate(&filter)

			_, err := env.svc.Query(context.Background(), QueryInput{Filter: &filter, Sort: domain.SortConfig{Keys: tt.sort}})
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var derr *domainerrors.Error
			require.ErrorAs(t, err, &derr)
			assert.Contains(t, derr.Details, tt.field)
		})
	}
}

func TestSearch_FallsBackWithoutIndex(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	env.create(t, PerfumeInput{Name: "Aventus", Brand: "Creed"})
	env.create(t, PerfumeInput{Name: "Aventus for Her", Brand: "Creed"})
	env.create(t, PerfumeInput{Name: "Shalimar", Brand: "Guerlain"})

	plain := NewCollectionService(env.mem, nil, nil, nil, nil, Options{})
	res, err := plain.Search(ctx, search.Params{Query: "aventus", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Total)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Aventus for Her", res.Hits[0].Name)
	assert.Equal(t, "Creed", res.Hits[0].Brand)
}

func TestSearch_QueryTooLong(t *testing.T) {
	env := newTestService(t, nil)

	_, err := env.svc.Search(context.Background(), search.Params{Query: strings.Repeat("a", 201)})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func hasMyVote() *domain.FilterConfig {
	f := domain.NewFilterConfig()
	f.HasMyVote = true
	return &f
}
