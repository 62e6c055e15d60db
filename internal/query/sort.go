package query

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/scoring"
	"github.com/scentlog/scentlog-server/internal/state"
)

// State sort buckets.
const (
	bucketLeading  = 0
	bucketWishlist = 2
	bucketOther    = 3
)

// component is one element of a composite sort key.
type component struct {
	text string
	num  float64
	desc bool
}

func (c component) compare(o component) int {
	r := cmp.Compare(c.num, o.num)
	if r == 0 {
		r = strings.Compare(c.text, o.text)
	}
	if c.desc {
		return -r
	}
	return r
}

type keyed struct {
	p   *domain.Perfume
	key []component
}

// Sort returns perfumes ordered by the composite key of cfg. Earlier keys
// take priority and equal keys keep their input order. An empty config
// returns the input order.
func (e *Engine) Sort(perfumes []*domain.Perfume, cfg domain.SortConfig) []*domain.Perfume {
	out := slices.Clone(perfumes)
	if len(cfg.Keys) == 0 {
		return out
	}

	fold := cases.Fold()
	rows := make([]keyed, len(out))
	for i, p := range out {
		rows[i] = keyed{p: p, key: e.sortKey(p, cfg.Keys, fold)}
	}
	slices.SortStableFunc(rows, func(a, b keyed) int {
		for i := range a.key {
			if r := a.key[i].compare(b.key[i]); r != 0 {
				return r
			}
		}
		return 0
	})
	for i, r := range rows {
		out[i] = r.p
	}
	return out
}

func (e *Engine) sortKey(p *domain.Perfume, keys []domain.SortKey, fold cases.Caser) []component {
	key := make([]component, len(keys))
	for i, k := range keys {
		key[i] = e.component(p, k, fold)
	}
	return key
}

func (e *Engine) component(p *domain.Perfume, k domain.SortKey, fold cases.Caser) component {
	desc := k.Order == domain.OrderDesc
	switch k.Dimension {
	case domain.SortBrand:
		return component{text: fold.String(e.refs.BrandName(p.BrandID)), desc: desc}
	case domain.SortName:
		return component{text: fold.String(p.Name), desc: desc}
	case domain.SortRating:
		return component{num: communityScore(p, domain.CategoryRating), desc: desc}
	case domain.SortLongevity:
		return component{num: communityScore(p, domain.CategoryLongevity), desc: desc}
	case domain.SortSillage:
		return component{num: communityScore(p, domain.CategorySillage), desc: desc}
	case domain.SortValue:
		return component{num: communityScore(p, domain.CategoryValue), desc: desc}
	case domain.SortGender:
		return genderComponent(communityScore(p, domain.CategoryGender), k.Order)
	case domain.SortState:
		return component{num: float64(stateBucket(e.State(p)))}
	default:
		return component{}
	}
}

func communityScore(p *domain.Perfume, c domain.Category) float64 {
	return scoring.Score(c, p.Community[c])
}

// genderComponent orders by raw score for female_first, by reversed score for
// male_first and by distance from the midpoint for unisex_first.
func genderComponent(score float64, order domain.SortOrder) component {
	switch order {
	case domain.OrderMaleFirst:
		return component{num: score, desc: true}
	case domain.OrderUnisexFirst:
		return component{num: math.Abs(score - scoring.Midpoint(domain.CategoryGender))}
	default:
		return component{num: score}
	}
}

// stateBucket maps the leading label clause to its bucket. Both state order
// modes share this mapping.
func stateBucket(s state.State) int {
	first := s.FirstClause()
	switch {
	case first == state.LabelTested, strings.HasPrefix(first, state.LabelOwned):
		return bucketLeading
	case first == state.LabelWishlist:
		return bucketWishlist
	default:
		return bucketOther
	}
}
