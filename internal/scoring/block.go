package scoring

import "github.com/scentlog/scentlog-server/internal/domain"

// Block is everything a renderer needs for one category of one perfume.
type Block struct {
	Category   domain.Category
	Score      float64
	Summary    string
	SampleSize int
	LowSample  bool
	Fractions  []float64
	HasData    bool
}

// Evaluate computes the block for a community tally.
func Evaluate(c domain.Category, t domain.Tally, lowSampleThreshold int) Block {
	return Block{
		Category:   c,
		Score:      Score(c, t),
		Summary:    Summary(c, t),
		SampleSize: SampleSize(c, t),
		LowSample:  IsLowSample(c, t, lowSampleThreshold),
		Fractions:  Normalize(c, t),
		HasData:    t.Total(c) > 0,
	}
}

// EvaluateAll computes a block per category in display order.
func EvaluateAll(votes domain.VoteSet, lowSampleThreshold int) []Block {
	blocks := make([]Block, 0, domain.CategoryCount)
	for _, c := range domain.Categories() {
		blocks = append(blocks, Evaluate(c, votes[c], lowSampleThreshold))
	}
	return blocks
}
