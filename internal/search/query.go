package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"golang.org/x/text/cases"
)

// Page size limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params configures a search.
type Params struct {
	Query  string
	Limit  int
	Offset int
}

// Result is one page of hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching perfume.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Brand      string            `json:"brand,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search runs params against the index. An empty query lists every perfume
// by brand, then name.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	params.Query = normalize(params.Query)
	limit := params.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	offset := max(params.Offset, 0)

	req := bleve.NewSearchRequestOptions(buildQuery(params.Query), limit, offset, false)
	if params.Query == "" {
		req.SortBy([]string{fieldBrandKey, fieldNameKey, "_id"})
	} else {
		req.SortBy([]string{"-_score", fieldBrandKey, fieldNameKey})
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField(fieldName)
		req.Highlight.AddField(fieldBrand)
	}
	req.Fields = []string{fieldName, fieldBrand, fieldTags}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if n, ok := h.Fields[fieldName].(string); ok {
			hit.Name = n
		}
		if b, ok := h.Fields[fieldBrand].(string); ok {
			hit.Brand = b
		}
		// A single tag comes back as a string, several as a slice.
		switch tags := h.Fields[fieldTags].(type) {
		case string:
			hit.Tags = []string{tags}
		case []any:
			for _, t := range tags {
				if ts, ok := t.(string); ok {
					hit.Tags = append(hit.Tags, ts)
				}
			}
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// buildQuery matches q against every text field. Exact matches on the name
// score highest; fuzzy matches tolerate one typo per term.
func buildQuery(q string) query.Query {
	if q == "" {
		return bleve.NewMatchAllQuery()
	}

	match := func(field string, boost float64, fuzziness int) query.Query {
		m := bleve.NewMatchQuery(q)
		m.SetField(field)
		m.SetBoost(boost)
		if fuzziness > 0 {
			m.SetFuzziness(fuzziness)
		}
		return m
	}

	queries := []query.Query{
		match(fieldName, 3.0, 0),
		match(fieldBrand, 2.0, 0),
		match(fieldTags, 1.5, 0),
		match(fieldNotes, 1.0, 0),
		match(fieldName, 0.8, 1),
		match(fieldBrand, 0.6, 1),
	}

	// Prefix on the last word so partially typed names still match.
	words := strings.Fields(q)
	if last := cases.Fold().String(words[len(words)-1]); len([]rune(last)) >= 2 {
		prefix := bleve.NewPrefixQuery(last)
		prefix.SetField(fieldName)
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}

	return bleve.NewDisjunctionQuery(queries...)
}
