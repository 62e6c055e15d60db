package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
)

func category(t *testing.T, d *PerfumeDetail, key string) CategoryView {
	t.Helper()
	for _, cv := range d.Community {
		if cv.Category == key {
			return cv
		}
	}
	t.Fatalf("category %s missing", key)
	return CategoryView{}
}

func mine(cv CategoryView) []string {
	var out []string
	for _, o := range cv.Options {
		if o.Mine {
			out = append(out, o.Option)
		}
	}
	return out
}

func TestSetMyVote_SingleChoice(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus"})

	steps := []struct {
		option *string
		want   []string
	}{
		{ptr("like"), []string{"like"}},
		{ptr("love"), []string{"love"}},
		{ptr("love"), nil},
		{ptr("ok"), []string{"ok"}},
		{nil, nil},
	}
	for _, step := range steps {
		d, err := env.svc.SetMyVote(ctx, p.ID, "rating", step.option)
		require.NoError(t, err)
		assert.Equal(t, step.want, mine(category(t, d, "rating")))
	}
}

func TestSetMyVote_SeasonTimeToggles(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus"})

	for _, option := range []string{"summer", "night", "spring"} {
		_, err := env.svc.SetMyVote(ctx, p.ID, "season_time", ptr(option))
		require.NoError(t, err)
	}
	d, err := env.svc.SetMyVote(ctx, p.ID, "season_time", ptr("summer"))
	require.NoError(t, err)
	assert.Equal(t, []string{"spring", "night"}, mine(category(t, d, "season_time")))

	// Personal votes never leak into community numbers.
	assert.False(t, category(t, d, "season_time").HasData)

	res, err := env.svc.Query(ctx, QueryInput{Filter: hasMyVote()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestSetMyVote_Rejects(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus"})

	_, err := env.svc.SetMyVote(ctx, p.ID, "colour", ptr("red"))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.svc.SetMyVote(ctx, p.ID, "sillage", ptr("nuclear"))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.svc.SetMyVote(ctx, "pf-missing", "sillage", ptr("strong"))
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSetCommunityVotes(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus"})

	res, err := env.svc.SetCommunityVotes(ctx, p.ID, CommunityVotesInput{
		Votes: map[string]map[string]int{
			"rating":    {"love": 40, "like": 10, "superb": 3},
			"sillage":   {"strong": 5},
			"packaging": {"nice": 1},
		},
		URL:    "https://example.com/aventus",
		Source: " fragrantica ",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"packaging", "rating.superb"}, res.Ignored)

	rating := category(t, res.Perfume, "rating")
	assert.True(t, rating.HasData)
	assert.Equal(t, 50, rating.SampleSize)
	assert.False(t, rating.LowSample)
	assert.Equal(t, 40, rating.Options[0].Count)

	sillage := category(t, res.Perfume, "sillage")
	assert.True(t, sillage.LowSample)

	require.NotNil(t, res.Perfume.CommunitySource)
	assert.Equal(t, "fragrantica", res.Perfume.CommunitySource.Source)
	assert.Equal(t, testNow, res.Perfume.CommunitySource.UpdatedAt)

	t.Run("replaces the whole set", func(t *testing.T) {
		res, err := env.svc.SetCommunityVotes(ctx, p.ID, CommunityVotesInput{
			Votes: map[string]map[string]int{"gender": {"male": 3}},
		})
		require.NoError(t, err)
		assert.Empty(t, res.Ignored)
		assert.False(t, category(t, res.Perfume, "rating").HasData)
		assert.True(t, category(t, res.Perfume, "gender").HasData)
	})

	t.Run("negative counts", func(t *testing.T) {
		_, err := env.svc.SetCommunityVotes(ctx, p.ID, CommunityVotesInput{
			Votes: map[string]map[string]int{"rating": {"love": -1}},
		})
		require.Error(t, err)

		var derr *domainerrors.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, map[string]string{"votes.rating.love": "must not be negative"}, derr.Details)
	})

	t.Run("missing votes", func(t *testing.T) {
		_, err := env.svc.SetCommunityVotes(ctx, p.ID, CommunityVotesInput{})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	})
}
