// Package search keeps an in-memory Bleve index over the collection so
// perfumes can be found by brand, name, tag or note text with typo tolerance.
package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/reference"
)

// Field names shared by the mapping, documents and queries.
const (
	fieldName     = "name"
	fieldBrand    = "brand"
	fieldTags     = "tags"
	fieldNotes    = "notes"
	fieldNameKey  = "name_key"
	fieldBrandKey = "brand_key"
	fieldUpdated  = "updated_at"
)

// Document is the indexed form of one perfume. Brand and tag names are
// denormalized so a single query covers them.
type Document struct {
	ID        string
	Name      string
	Brand     string
	Tags      []string
	Notes     string
	UpdatedAt int64 // Unix millis
}

// FromPerfume builds the document for p, resolving names through refs.
func FromPerfume(p *domain.Perfume, refs *reference.Store) *Document {
	var notes strings.Builder
	for i, n := range p.Notes {
		if i > 0 {
			notes.WriteByte('\n')
		}
		notes.WriteString(n.Title)
		notes.WriteByte(' ')
		notes.WriteString(n.Content)
	}

	return &Document{
		ID:        p.ID,
		Name:      p.Name,
		Brand:     refs.BrandName(p.BrandID),
		Tags:      refs.TagNames(p.TagIDs),
		Notes:     notes.String(),
		UpdatedAt: p.UpdatedAt.UnixMilli(),
	}
}

// ToMap converts the document to the field names used by the mapping.
func (d *Document) ToMap() map[string]any {
	fold := cases.Fold()
	m := map[string]any{
		fieldName:     normalize(d.Name),
		fieldBrand:    normalize(d.Brand),
		fieldNameKey:  fold.String(normalize(d.Name)),
		fieldBrandKey: fold.String(normalize(d.Brand)),
		fieldUpdated:  d.UpdatedAt,
	}
	if len(d.Tags) > 0 {
		tags := make([]string, len(d.Tags))
		for i, t := range d.Tags {
			tags[i] = normalize(t)
		}
		m[fieldTags] = tags
	}
	if d.Notes != "" {
		m[fieldNotes] = normalize(d.Notes)
	}
	return m
}

// normalize composes text so precomposed and decomposed accents index alike.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
