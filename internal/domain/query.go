package domain

import (
	"fmt"
	"strings"
)

// StateFilter is a requested ownership/testing state.
type StateFilter string

// State filter values.
const (
	StateOwned    StateFilter = "owned"
	StateTested   StateFilter = "tested"
	StateWishlist StateFilter = "wishlist"
)

// TagLogic selects how requested tags combine.
type TagLogic string

// Tag logic values.
const (
	TagLogicOr  TagLogic = "or"
	TagLogicAnd TagLogic = "and"
)

// ScoreRange is an inclusive score window with an include/exclude switch.
type ScoreRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Exclude bool    `json:"exclude"`
}

// FullRange returns the default (inactive) range for a category.
func FullRange(c Category) ScoreRange {
	return ScoreRange{Min: 0, Max: c.FullScale()}
}

// Active reports whether the range deviates from the full-scale include default.
func (r ScoreRange) Active(fullScale float64) bool {
	return r.Min > 0 || r.Max < fullScale || r.Exclude
}

// FilterConfig is a set of independently optional facets.
// Use NewFilterConfig for a config with every facet inactive; the zero value
// has active (empty) score ranges.
type FilterConfig struct {
	Brands       []string      `json:"brands,omitempty"`
	States       []StateFilter `json:"states,omitempty"`
	Seasons      []string      `json:"seasons,omitempty"`
	Times        []string      `json:"times,omitempty"`
	Rating       ScoreRange    `json:"rating"`
	Longevity    ScoreRange    `json:"longevity"`
	Sillage      ScoreRange    `json:"sillage"`
	Value        ScoreRange    `json:"value"`
	Genders      []string      `json:"genders,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	TagLogic     TagLogic      `json:"tag_logic,omitempty"`
	HasMyVote    bool          `json:"has_my_vote,omitempty"`
	HasCommunity bool          `json:"has_community,omitempty"`
}

// NewFilterConfig returns a filter that selects everything.
func NewFilterConfig() FilterConfig {
	return FilterConfig{
		Rating:    FullRange(CategoryRating),
		Longevity: FullRange(CategoryLongevity),
		Sillage:   FullRange(CategorySillage),
		Value:     FullRange(CategoryValue),
		TagLogic:  TagLogicOr,
	}
}

// ScoreFacet pairs a range facet with its category.
type ScoreFacet struct {
	Category Category
	Range    ScoreRange
}

// ScoreFacets returns the four range facets in display order.
func (f FilterConfig) ScoreFacets() []ScoreFacet {
	return []ScoreFacet{
		{CategoryRating, f.Rating},
		{CategoryLongevity, f.Longevity},
		{CategorySillage, f.Sillage},
		{CategoryValue, f.Value},
	}
}

// ActiveFacets counts the facets that deviate from their defaults.
func (f FilterConfig) ActiveFacets() int {
	n := 0
	for _, active := range []bool{
		len(f.Brands) > 0,
		len(f.States) > 0,
		len(f.Seasons)+len(f.Times) > 0,
		len(f.Genders) > 0,
		len(f.Tags) > 0,
		f.HasMyVote,
		f.HasCommunity,
	} {
		if active {
			n++
		}
	}
	for _, sf := range f.ScoreFacets() {
		if sf.Range.Active(sf.Category.FullScale()) {
			n++
		}
	}
	return n
}

// Describe renders one line per active facet, for filter summaries.
func (f FilterConfig) Describe() []string {
	var lines []string
	if len(f.Brands) > 0 {
		lines = append(lines, "Brands: "+strings.Join(f.Brands, ", "))
	}
	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, s := range f.States {
			states[i] = capitalize(string(s))
		}
		lines = append(lines, "States: "+strings.Join(states, ", "))
	}
	var when []string
	if len(f.Seasons) > 0 {
		when = append(when, "Seasons: "+strings.Join(f.Seasons, ", "))
	}
	if len(f.Times) > 0 {
		when = append(when, "Times: "+strings.Join(f.Times, ", "))
	}
	if len(when) > 0 {
		lines = append(lines, "When to Wear: "+strings.Join(when, " | "))
	}
	for _, sf := range f.ScoreFacets() {
		if !sf.Range.Active(sf.Category.FullScale()) {
			continue
		}
		mode := "Include"
		if sf.Range.Exclude {
			mode = "Exclude"
		}
		lines = append(lines, fmt.Sprintf("%s: %.1f ~ %.1f (%s)", sf.Category.Title(), sf.Range.Min, sf.Range.Max, mode))
	}
	if len(f.Genders) > 0 {
		labels := make([]string, len(f.Genders))
		for i, g := range f.Genders {
			labels[i] = OptionLabel(g)
		}
		lines = append(lines, "Gender: "+strings.Join(labels, ", "))
	}
	if len(f.Tags) > 0 {
		logic := "Match Any"
		if f.TagLogic == TagLogicAnd {
			logic = "Match All"
		}
		lines = append(lines, fmt.Sprintf("Tags (%s): %s", logic, strings.Join(f.Tags, ", ")))
	}
	if f.HasMyVote {
		lines = append(lines, "Perfumes I've voted on")
	}
	if f.HasCommunity {
		lines = append(lines, "Perfumes with community vote data")
	}
	return lines
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SortDimension is one key of a composite sort.
type SortDimension string

// Sort dimensions.
const (
	SortBrand     SortDimension = "brand"
	SortName      SortDimension = "name"
	SortRating    SortDimension = "rating"
	SortLongevity SortDimension = "longevity"
	SortSillage   SortDimension = "sillage"
	SortGender    SortDimension = "gender"
	SortValue     SortDimension = "value"
	SortState     SortDimension = "state"
)

// SortOrder is the order mode of one sort key. Which modes apply depends on
// the dimension: asc/desc for strings and scores, female_first/male_first/
// unisex_first for gender, owned_first/tested_first for state.
type SortOrder string

// Sort orders.
const (
	OrderAsc         SortOrder = "asc"
	OrderDesc        SortOrder = "desc"
	OrderFemaleFirst SortOrder = "female_first"
	OrderMaleFirst   SortOrder = "male_first"
	OrderUnisexFirst SortOrder = "unisex_first"
	OrderOwnedFirst  SortOrder = "owned_first"
	OrderTestedFirst SortOrder = "tested_first"
)

// SortKey is one (dimension, order) pair.
type SortKey struct {
	Dimension SortDimension `json:"dimension"`
	Order     SortOrder     `json:"order"`
}

// SortConfig lists sort keys by priority; later keys only break ties.
type SortConfig struct {
	Keys []SortKey `json:"keys"`
}

// OrdersFor returns the order modes a dimension accepts.
func OrdersFor(d SortDimension) []SortOrder {
	switch d {
	case SortBrand, SortName, SortRating, SortLongevity, SortSillage, SortValue:
		return []SortOrder{OrderAsc, OrderDesc}
	case SortGender:
		return []SortOrder{OrderFemaleFirst, OrderMaleFirst, OrderUnisexFirst}
	case SortState:
		return []SortOrder{OrderOwnedFirst, OrderTestedFirst}
	default:
		return nil
	}
}
