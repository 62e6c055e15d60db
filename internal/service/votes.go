package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/scentlog/scentlog-server/internal/domain"
	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
)

// CommunityVotesInput replaces the community tallies of a perfume.
type CommunityVotesInput struct {
	Votes  map[string]map[string]int `json:"votes" validate:"required"`
	URL    string                    `json:"url" validate:"omitempty,url"`
	Source string                    `json:"source" validate:"max=100"`
}

// CommunityVotesResult is the updated perfume plus the keys that were
// dropped because no category or option carries them.
type CommunityVotesResult struct {
	Perfume *PerfumeDetail `json:"perfume"`
	Ignored []string       `json:"ignored"`
}

// SetMyVote changes the personal selection of one category.
//
// A nil option clears the category. Season/time toggles the option on its
// own; every other category holds at most one selection, and choosing the
// current one clears it.
func (s *CollectionService) SetMyVote(ctx context.Context, perfumeID, category string, option *string) (*PerfumeDetail, error) {
	c, ok := domain.ParseCategory(category)
	if !ok {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"category": "must be a vote category"})
	}
	idx := -1
	if option != nil {
		i, ok := c.OptionIndex(*option)
		if !ok {
			return nil, domainerrors.ValidationWithDetails("validation failed",
				map[string]string{"option": "must be one of: " + strings.Join(c.Options(), " ")})
		}
		idx = i
	}

	var out *PerfumeDetail
	err := s.mutate(ctx, "set_my_vote", func(tx *txn) error {
		p, err := tx.perfume(perfumeID)
		if err != nil {
			return err
		}
		p.Mine.Set(c, toggle(c, p.Mine.Get(c), idx))
		tx.touch(p)
		out = s.detail(p, tx.refs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithPerfume(perfumeID).Info("personal vote set", "category", c.Key())
	return out, nil
}

// toggle applies one selection to a personal tally; idx < 0 clears it.
func toggle(c domain.Category, t domain.Tally, idx int) domain.Tally {
	if idx < 0 {
		return domain.Tally{}
	}
	if c.MultiChoice() {
		if t[idx] > 0 {
			t[idx] = 0
		} else {
			t[idx] = 1
		}
		return t
	}
	if t[idx] > 0 {
		return domain.Tally{}
	}
	var next domain.Tally
	next[idx] = 1
	return next
}

// SetCommunityVotes stores imported community tallies verbatim. Categories
// missing from the input end up empty. Unknown keys are reported back rather
// than rejected; negative counts are rejected.
func (s *CollectionService) SetCommunityVotes(ctx context.Context, perfumeID string, in CommunityVotesInput) (*CommunityVotesResult, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var (
		votes   domain.VoteSet
		ignored []string
	)
	negatives := make(map[string]string)
	for key, counts := range in.Votes {
		c, ok := domain.ParseCategory(key)
		if !ok {
			ignored = append(ignored, key)
			continue
		}
		for option, n := range counts {
			if n < 0 {
				negatives[fmt.Sprintf("votes.%s.%s", key, option)] = "must not be negative"
			}
		}
		t, unknown := domain.TallyFromCounts(c, counts)
		for _, option := range unknown {
			ignored = append(ignored, key+"."+option)
		}
		votes.Set(c, t)
	}
	if len(negatives) > 0 {
		return nil, domainerrors.ValidationWithDetails("validation failed", negatives)
	}
	slices.Sort(ignored)

	var out *PerfumeDetail
	err := s.mutate(ctx, "set_community_votes", func(tx *txn) error {
		p, err := tx.perfume(perfumeID)
		if err != nil {
			return err
		}
		p.Community = votes
		p.CommunitySource = &domain.CommunitySource{
			URL:       strings.TrimSpace(in.URL),
			Source:    strings.TrimSpace(in.Source),
			UpdatedAt: tx.now,
		}
		tx.touch(p)
		out = s.detail(p, tx.refs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithPerfume(perfumeID).Info("community votes imported", "ignored", len(ignored))
	if ignored == nil {
		ignored = []string{}
	}
	return &CommunityVotesResult{Perfume: out, Ignored: ignored}, nil
}
