package scoring

import (
	"strings"

	"github.com/scentlog/scentlog-server/internal/domain"
)

// Normalize converts a tally into display fractions using the category's mode.
//
// Sum mode divides by the total, so fractions add up to 1. Max mode divides by
// the largest count, so every option is judged independently and several may
// reach 1 at once. An empty tally yields all zeros.
func Normalize(c domain.Category, t domain.Tally) []float64 {
	fractions := make([]float64, c.Len())
	denom := t.Total(c)
	if c.Mode() == domain.NormalizeMax {
		denom = t.Max(c)
	}
	if denom <= 0 {
		return fractions
	}
	for i := range fractions {
		fractions[i] = float64(t[i]) / float64(denom)
	}
	return fractions
}

// SampleSize is the confidence proxy shown next to a tally:
// the total in sum mode, the largest count in max mode.
func SampleSize(c domain.Category, t domain.Tally) int {
	if c.Mode() == domain.NormalizeMax {
		return t.Max(c)
	}
	return t.Total(c)
}

// IsLowSample reports whether the tally has fewer votes than threshold.
// Empty tallies are "no data", not low-sample.
func IsLowSample(c domain.Category, t domain.Tally, threshold int) bool {
	n := SampleSize(c, t)
	return n > 0 && n < threshold
}

// seasonTopShare is the share of the leading count an option needs to be listed.
const seasonTopShare = 0.6

//nolint:gochecknoglobals // Static option groups.
var (
	seasonOptions = []int{domain.OptionSpring, domain.OptionSummer, domain.OptionFall, domain.OptionWinter}
	timeOptions   = []int{domain.OptionDay, domain.OptionNight}
)

// TopOptions returns the season_time option positions whose count is at
// least 60% of the leading count, ties included.
func TopOptions(t domain.Tally) []int {
	c := domain.CategorySeasonTime
	leading := t.Max(c)
	if leading == 0 {
		return nil
	}
	threshold := seasonTopShare * float64(leading)
	var top []int
	for i := range c.Len() {
		if float64(t[i]) >= threshold {
			top = append(top, i)
		}
	}
	return top
}

// SeasonTimeSummary describes the strongest seasons and times of day,
// e.g. "year-round | anytime" or "except winter | night".
func SeasonTimeSummary(t domain.Tally) string {
	top := TopOptions(t)
	if len(top) == 0 {
		return NoData
	}
	picked := make(map[int]bool, len(top))
	for _, i := range top {
		picked[i] = true
	}

	var seasons, missing []string
	for _, i := range seasonOptions {
		label := domain.OptionLabel(domain.CategorySeasonTime.Option(i))
		if picked[i] {
			seasons = append(seasons, label)
		} else {
			missing = append(missing, label)
		}
	}
	var times []string
	for _, i := range timeOptions {
		if picked[i] {
			times = append(times, domain.CategorySeasonTime.Option(i))
		}
	}

	var parts []string
	switch len(seasons) {
	case 0:
	case len(seasonOptions):
		parts = append(parts, "year-round")
	case len(seasonOptions) - 1:
		parts = append(parts, "except "+missing[0])
	default:
		parts = append(parts, strings.Join(seasons, ", "))
	}
	switch len(times) {
	case 0:
	case len(timeOptions):
		parts = append(parts, "anytime")
	default:
		parts = append(parts, strings.Join(times, ", "))
	}

	if len(parts) == 0 {
		return NoData
	}
	return strings.Join(parts, " | ")
}
