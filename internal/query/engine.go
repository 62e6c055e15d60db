// Package query filters and orders a collection of perfumes.
//
// The engine is a pure function of the perfumes and reference tables it is
// handed. It holds no locks; callers serialize access to the collection.
package query

import (
	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/state"
)

// DefaultPresenceThreshold is the community vote count at which a season,
// time or gender option counts as present.
const DefaultPresenceThreshold = 10

// Resolver resolves the reference ids a query needs.
type Resolver interface {
	BrandName(id string) string
	TagNames(ids []string) []string
}

// Query combines a filter, a sort and an optional free-text search.
type Query struct {
	Filter domain.FilterConfig `json:"filter"`
	Sort   domain.SortConfig   `json:"sort"`
	Text   string              `json:"q,omitempty"`
}

// Engine evaluates queries against perfumes.
type Engine struct {
	refs     Resolver
	presence int
}

// NewEngine creates an engine. A non-positive presenceThreshold selects
// DefaultPresenceThreshold.
func NewEngine(refs Resolver, presenceThreshold int) *Engine {
	if presenceThreshold <= 0 {
		presenceThreshold = DefaultPresenceThreshold
	}
	return &Engine{refs: refs, presence: presenceThreshold}
}

// PresenceThreshold returns the configured presence threshold.
func (e *Engine) PresenceThreshold() int {
	return e.presence
}

// State derives the state of p using the engine's tag resolution.
func (e *Engine) State(p *domain.Perfume) state.State {
	return state.Derive(p, e.refs.TagNames(p.TagIDs))
}

// Run filters perfumes by q.Filter and q.Text, orders the survivors by q.Sort
// and returns their ids.
func (e *Engine) Run(perfumes []*domain.Perfume, q Query) []string {
	matched := make([]*domain.Perfume, 0, len(perfumes))
	for _, p := range perfumes {
		if e.Matches(p, q.Filter) && e.MatchesText(p, q.Text) {
			matched = append(matched, p)
		}
	}
	sorted := e.Sort(matched, q.Sort)
	ids := make([]string, len(sorted))
	for i, p := range sorted {
		ids[i] = p.ID
	}
	return ids
}
