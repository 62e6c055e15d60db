// Package scoring turns raw vote tallies into comparable scores, display
// summaries, normalized fractions and sample sizes.
//
// Every function is a pure function of its inputs. A tally whose counts are
// all zero is "no data": the score is 0 and the summary is NoData.
package scoring

import (
	"math"
	"strconv"

	"github.com/scentlog/scentlog-server/internal/domain"
)

// NoData is the summary rendered for a tally without votes.
const NoData = "—"

// DefaultLowSampleThreshold is the sample size below which data is flagged as sparse.
const DefaultLowSampleThreshold = 30

// Weight returns the weight of the option at declared position i.
//
// Rating declares its options best to worst (love first), so its weights
// descend from N to 1. Every other category weighs options i+1 in declared order.
func Weight(c domain.Category, i int) int {
	if c == domain.CategoryRating {
		return c.Len() - i
	}
	return i + 1
}

// Score returns Σ(count×weight) / Σcount, or 0 when the tally is empty.
func Score(c domain.Category, t domain.Tally) float64 {
	total := t.Total(c)
	if total == 0 {
		return 0
	}
	weighted := 0
	for i := range c.Len() {
		weighted += t[i] * Weight(c, i)
	}
	return float64(weighted) / float64(total)
}

// Summary renders the human summary of a tally.
//
// Rating, longevity and sillage show the score to two decimals; gender and
// value show the option nearest the score; season_time lists the top options.
func Summary(c domain.Category, t domain.Tally) string {
	if c == domain.CategorySeasonTime {
		return SeasonTimeSummary(t)
	}
	if t.Total(c) == 0 {
		return NoData
	}
	score := Score(c, t)
	switch c {
	case domain.CategoryGender, domain.CategoryValue:
		return domain.OptionLabel(c.Option(NearestOption(c, score)))
	default:
		return strconv.FormatFloat(score, 'f', 2, 64)
	}
}

// NearestOption maps a score back to an option position:
// clamp(round(score-1), 0, N-1). Halves round to even.
func NearestOption(c domain.Category, score float64) int {
	i := int(math.RoundToEven(score - 1))
	return max(0, min(c.Len()-1, i))
}

// Midpoint is the score halfway along the category's scale.
func Midpoint(c domain.Category) float64 {
	return float64(1+c.Len()) / 2
}
