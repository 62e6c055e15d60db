package service

import (
	"fmt"
	"math"
	"slices"

	"github.com/scentlog/scentlog-server/internal/domain"
	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
)

// seasons and times split the season_time options into the two filter facets.
//
//nolint:gochecknoglobals // Static option lists.
var (
	seasonOptions = []string{"spring", "summer", "fall", "winter"}
	timeOptions   = []string{"day", "night"}
)

// validateQuery rejects malformed facet input. The engine itself trusts its
// input, so this is the only place a bad range or unknown option is caught.
func (s *CollectionService) validateQuery(f domain.FilterConfig, in QueryInput) error {
	details := make(map[string]string)

	for i, st := range f.States {
		if !slices.Contains([]domain.StateFilter{domain.StateOwned, domain.StateTested, domain.StateWishlist}, st) {
			details[fmt.Sprintf("filter.states[%d]", i)] = "must be one of: owned tested wishlist"
		}
	}
	checkOptions(details, "filter.seasons", f.Seasons, seasonOptions)
	checkOptions(details, "filter.times", f.Times, timeOptions)
	checkOptions(details, "filter.genders", f.Genders, domain.CategoryGender.Options())

	for _, sf := range f.ScoreFacets() {
		field := "filter." + sf.Category.Key()
		r, full := sf.Range, sf.Category.FullScale()
		switch {
		case math.IsNaN(r.Min) || math.IsNaN(r.Max):
			details[field] = "must be a number"
		case r.Min < 0 || r.Max > full:
			details[field] = fmt.Sprintf("must lie within 0 and %g", full)
		case r.Min > r.Max:
			details[field] = "min must not exceed max"
		}
	}

	switch f.TagLogic {
	case "", domain.TagLogicOr, domain.TagLogicAnd:
	default:
		details["filter.tag_logic"] = "must be one of: or and"
	}

	if len(details) > 0 {
		return domainerrors.ValidationWithDetails("validation failed", details)
	}

	// Sort keys and text length go through the struct validator.
	return s.validator.Validate(sortRequest{Keys: in.Sort.Keys, Text: in.Text})
}

type sortRequest struct {
	Keys []domain.SortKey `json:"keys" validate:"max=8,dive"`
	Text string           `json:"q" validate:"max=200"`
}

func checkOptions(details map[string]string, field string, got, allowed []string) {
	for i, v := range got {
		if !slices.Contains(allowed, v) {
			details[fmt.Sprintf("%s[%d]", field, i)] = fmt.Sprintf("must be one of: %v", allowed)
		}
	}
}
