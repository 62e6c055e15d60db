package service

import (
	"time"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/query"
	"github.com/scentlog/scentlog-server/internal/reference"
	"github.com/scentlog/scentlog-server/internal/scoring"
	"github.com/scentlog/scentlog-server/internal/state"
)

// PerfumeSummary is one row of a collection listing.
type PerfumeSummary struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	BrandID       string             `json:"brand_id,omitempty"`
	Brand         string             `json:"brand"`
	Concentration string             `json:"concentration,omitempty"`
	Tags          []string           `json:"tags"`
	State         state.State        `json:"state"`
	Scores        map[string]float64 `json:"scores"`
	Summaries     map[string]string  `json:"summaries"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// OptionView is one option of a category block.
type OptionView struct {
	Option   string  `json:"option"`
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"`
	Mine     bool    `json:"mine"`
}

// CategoryView is the rendered community data of one category plus the
// personal selection.
type CategoryView struct {
	Category   string       `json:"category"`
	Title      string       `json:"title"`
	Score      float64      `json:"score"`
	Summary    string       `json:"summary"`
	SampleSize int          `json:"sample_size"`
	LowSample  bool         `json:"low_sample"`
	HasData    bool         `json:"has_data"`
	Options    []OptionView `json:"options"`
}

// EventView is an event with its purchase type resolved.
type EventView struct {
	domain.Event
	PurchaseType string `json:"purchase_type,omitempty"`
}

// OutletView is a resolved outlet reference.
type OutletView struct {
	ID      string `json:"id"`
	Display string `json:"display"`
}

// PerfumeDetail is the full view of one perfume.
type PerfumeDetail struct {
	PerfumeSummary
	ConcentrationID string                  `json:"concentration_id,omitempty"`
	TagIDs          []string                `json:"tag_ids"`
	Outlets         []OutletView            `json:"outlets"`
	Events          []EventView             `json:"events"`
	Notes           []domain.Note           `json:"notes"`
	Links           []domain.Link           `json:"links"`
	Community       []CategoryView          `json:"community"`
	CommunitySource *domain.CommunitySource `json:"community_source,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// QueryResult is an ordered, filtered listing.
type QueryResult struct {
	Total    int              `json:"total"`
	Filter   []string         `json:"filter"`
	Perfumes []PerfumeSummary `json:"perfumes"`
}

// summaryCategories are the categories shown in a listing row.
//
//nolint:gochecknoglobals // Static display list.
var summaryCategories = []domain.Category{
	domain.CategoryRating,
	domain.CategoryLongevity,
	domain.CategorySillage,
	domain.CategoryGender,
	domain.CategoryValue,
	domain.CategorySeasonTime,
}

func summarize(p *domain.Perfume, refs *reference.Store, eng *query.Engine) PerfumeSummary {
	sum := PerfumeSummary{
		ID:            p.ID,
		Name:          p.Name,
		BrandID:       p.BrandID,
		Brand:         refs.BrandName(p.BrandID),
		Concentration: refs.ConcentrationName(p.ConcentrationID),
		Tags:          refs.TagNames(p.TagIDs),
		State:         eng.State(p),
		Scores:        make(map[string]float64, len(summaryCategories)),
		Summaries:     make(map[string]string, len(summaryCategories)),
		UpdatedAt:     p.UpdatedAt,
	}
	for _, c := range summaryCategories {
		t := p.Community.Get(c)
		if c != domain.CategorySeasonTime {
			sum.Scores[c.Key()] = scoring.Score(c, t)
		}
		sum.Summaries[c.Key()] = scoring.Summary(c, t)
	}
	return sum
}

func (s *CollectionService) detail(p *domain.Perfume, refs *reference.Store) *PerfumeDetail {
	d := &PerfumeDetail{
		PerfumeSummary:  summarize(p, refs, s.engine(refs)),
		ConcentrationID: p.ConcentrationID,
		TagIDs:          append([]string{}, p.TagIDs...),
		Outlets:         make([]OutletView, 0, len(p.OutletIDs)),
		Events:          make([]EventView, 0, len(p.Events)),
		Notes:           append([]domain.Note{}, p.Notes...),
		Links:           append([]domain.Link{}, p.Links...),
		CreatedAt:       p.CreatedAt,
	}
	for _, outletID := range p.OutletIDs {
		if display := refs.OutletDisplay(outletID); display != "" {
			d.Outlets = append(d.Outlets, OutletView{ID: outletID, Display: display})
		}
	}
	for _, e := range p.ChronologicalEvents() {
		d.Events = append(d.Events, eventView(e, refs))
	}
	if p.CommunitySource != nil {
		src := *p.CommunitySource
		d.CommunitySource = &src
	}

	for _, b := range scoring.EvaluateAll(p.Community, s.opts.LowSampleThreshold) {
		mine := p.Mine.Get(b.Category)
		counts := p.Community.Get(b.Category)
		cv := CategoryView{
			Category:   b.Category.Key(),
			Title:      b.Category.Title(),
			Score:      b.Score,
			Summary:    b.Summary,
			SampleSize: b.SampleSize,
			LowSample:  b.LowSample,
			HasData:    b.HasData,
			Options:    make([]OptionView, b.Category.Len()),
		}
		for i := range b.Category.Len() {
			option := b.Category.Option(i)
			cv.Options[i] = OptionView{
				Option:   option,
				Label:    domain.OptionLabel(option),
				Count:    counts[i],
				Fraction: b.Fractions[i],
				Mine:     mine[i] > 0,
			}
		}
		d.Community = append(d.Community, cv)
	}
	return d
}

func eventView(e domain.Event, refs *reference.Store) EventView {
	return EventView{Event: e, PurchaseType: refs.PurchaseTypeName(e.PurchaseTypeID)}
}
