package query

import (
	"slices"
	"strings"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/scoring"
	"github.com/scentlog/scentlog-server/internal/state"
)

// Filter returns the perfumes matching f, in input order.
func (e *Engine) Filter(perfumes []*domain.Perfume, f domain.FilterConfig) []*domain.Perfume {
	out := make([]*domain.Perfume, 0, len(perfumes))
	for _, p := range perfumes {
		if e.Matches(p, f) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether p passes every active facet of f.
// A filter without active facets matches everything.
func (e *Engine) Matches(p *domain.Perfume, f domain.FilterConfig) bool {
	if len(f.Brands) > 0 && !slices.Contains(f.Brands, e.refs.BrandName(p.BrandID)) {
		return false
	}
	if len(f.States) > 0 && !matchesStates(e.State(p), f.States) {
		return false
	}
	if len(f.Seasons)+len(f.Times) > 0 {
		options := append(slices.Clone(f.Seasons), f.Times...)
		if !e.anyPresent(p, domain.CategorySeasonTime, options) {
			return false
		}
	}
	for _, sf := range f.ScoreFacets() {
		if !sf.Range.Active(sf.Category.FullScale()) {
			continue
		}
		if !matchesRange(scoring.Score(sf.Category, p.Community[sf.Category]), sf.Range) {
			return false
		}
	}
	if len(f.Genders) > 0 && !e.anyPresent(p, domain.CategoryGender, f.Genders) {
		return false
	}
	if len(f.Tags) > 0 && !matchesTags(e.refs.TagNames(p.TagIDs), f.Tags, f.TagLogic) {
		return false
	}
	if f.HasMyVote && !p.Mine.HasAny() {
		return false
	}
	if f.HasCommunity && !p.Community.HasAny() {
		return false
	}
	return true
}

// matchesStates passes when any requested state holds.
func matchesStates(s state.State, requested []domain.StateFilter) bool {
	for _, r := range requested {
		switch r {
		case domain.StateOwned:
			if s.Owned() {
				return true
			}
		case domain.StateTested:
			if strings.Contains(s.Label, state.LabelTested) {
				return true
			}
		case domain.StateWishlist:
			if s.Label == state.LabelWishlist {
				return true
			}
		}
	}
	return false
}

// anyPresent passes when any requested option has enough community votes or
// a personal vote. Unknown option keys never match.
func (e *Engine) anyPresent(p *domain.Perfume, c domain.Category, options []string) bool {
	community, mine := p.Community[c], p.Mine[c]
	for _, option := range options {
		i, ok := c.OptionIndex(option)
		if !ok {
			continue
		}
		if community[i] >= e.presence || mine[i] > 0 {
			return true
		}
	}
	return false
}

// matchesRange treats a zero score as "no data": include mode rejects it and
// exclude mode lets it through. min > max is an empty range.
func matchesRange(score float64, r domain.ScoreRange) bool {
	hit := score > 0 && r.Min <= score && score <= r.Max
	if r.Exclude {
		return !hit
	}
	return hit
}

func matchesTags(have, want []string, logic domain.TagLogic) bool {
	if logic == domain.TagLogicAnd {
		for _, w := range want {
			if !slices.Contains(have, w) {
				return false
			}
		}
		return true
	}
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}
