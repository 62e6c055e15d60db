package query

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/scentlog/scentlog-server/internal/domain"
)

// MatchesText reports whether the case-folded query is a substring of the
// perfume's brand, name, tag names and note titles and contents.
// A blank query matches everything.
func (e *Engine) MatchesText(p *domain.Perfume, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(e.searchBlob(p)), fold.String(text))
}

func (e *Engine) searchBlob(p *domain.Perfume) string {
	notes := make([]string, len(p.Notes))
	for i, n := range p.Notes {
		notes[i] = n.Title + " " + n.Content
	}
	return strings.Join([]string{
		e.refs.BrandName(p.BrandID),
		p.Name,
		strings.Join(e.refs.TagNames(p.TagIDs), " "),
		strings.Join(notes, " "),
	}, " ")
}
