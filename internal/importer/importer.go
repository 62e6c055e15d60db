// Package importer converts legacy perfumes.json documents into a collection
// snapshot.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/id"
	"github.com/scentlog/scentlog-server/internal/reference"
)

const (
	votesSuffix = "_votes"
	myPrefix    = "my_"
)

// ErrUnsupportedVersion is returned for documents newer than version 2.
var ErrUnsupportedVersion = errors.New("unsupported legacy version")

// Result is an imported collection plus what was dropped along the way.
type Result struct {
	Snapshot *domain.Snapshot
	Events   int
	Notes    int
	Warnings []string
}

// Importer reads legacy documents.
type Importer struct {
	logger *slog.Logger
	now    func() time.Time
}

// New creates an importer.
func New(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{logger: logger, now: time.Now}
}

// ReadFile imports the document at path.
func (im *Importer) ReadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open legacy file: %w", err)
	}
	defer f.Close()
	return im.Read(f)
}

// Read imports one document.
func (im *Importer) Read(r io.Reader) (*Result, error) {
	var doc legacyFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode legacy file: %w", err)
	}
	if doc.Version > 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	// Version 1 documents have no tables; rebuild them from the inline names.
	c := &conversion{
		refs:          reference.New(),
		now:           im.now(),
		migrateBrands: len(doc.BrandsMap) == 0,
		migrateTags:   len(doc.TagsMap) == 0,
	}
	c.loadTables(&doc)
	if _, err := c.refs.SeedDefaults(); err != nil {
		return nil, err
	}

	perfumes := make([]*domain.Perfume, 0, len(doc.Perfumes))
	seen := make(map[string]bool, len(doc.Perfumes))
	for i := range doc.Perfumes {
		p, err := c.perfume(&doc.Perfumes[i])
		if err != nil {
			return nil, err
		}
		if seen[p.ID] {
			c.warnf("perfume %s: duplicate id, skipped", p.ID)
			continue
		}
		seen[p.ID] = true
		perfumes = append(perfumes, p)
	}

	updatedAt := doc.UpdatedAt.Time
	if updatedAt.IsZero() {
		updatedAt = c.now
	}

	res := &Result{
		Snapshot: &domain.Snapshot{
			Perfumes:   perfumes,
			References: c.refs.Data(),
			UpdatedAt:  updatedAt,
		},
		Events:   c.events,
		Notes:    c.notes,
		Warnings: c.warnings,
	}

	im.logger.Info("legacy collection imported",
		"version", doc.Version,
		"perfumes", len(perfumes),
		"events", c.events,
		"notes", c.notes,
		"warnings", len(c.warnings),
	)
	for _, w := range c.warnings {
		im.logger.Debug("import warning", "detail", w)
	}
	return res, nil
}

// conversion carries the state of one Read call.
type conversion struct {
	refs          *reference.Store
	now           time.Time
	migrateBrands bool
	migrateTags   bool
	events        int
	notes         int
	warnings      []string
}

func (c *conversion) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *conversion) loadTables(doc *legacyFile) {
	for _, t := range []struct {
		table   *reference.Table[string]
		entries orderedMap[string]
	}{
		{c.refs.Brands, doc.BrandsMap},
		{c.refs.Concentrations, doc.ConcentrationMap},
		{c.refs.Tags, doc.TagsMap},
		{c.refs.PurchaseTypes, doc.PurchaseTypesMap},
	} {
		for _, e := range t.entries {
			t.table.Insert(e.Key, e.Value)
		}
	}
	for _, e := range doc.OutletsMap {
		c.refs.Outlets.Insert(e.Key, domain.Outlet{Name: e.Value.Name, Region: e.Value.Region})
	}
}

func (c *conversion) timeOr(t flexTime, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t.Time
}

func (c *conversion) newID(prefix string) (string, error) {
	newID, err := id.Generate(prefix)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return newID, nil
}

func (c *conversion) perfume(lp *legacyPerfume) (*domain.Perfume, error) {
	p := &domain.Perfume{
		ID:              lp.ID,
		Name:            strings.TrimSpace(lp.Name),
		BrandID:         lp.BrandID,
		ConcentrationID: lp.ConcentrationID,
		OutletIDs:       domain.DedupeIDs(lp.OutletIDs),
		TagIDs:          domain.DedupeIDs(lp.TagIDs),
	}
	if p.ID == "" {
		newID, err := c.newID(id.PrefixPerfume)
		if err != nil {
			return nil, err
		}
		p.ID = newID
	}
	p.CreatedAt = c.timeOr(lp.CreatedAt, c.now)
	p.UpdatedAt = c.timeOr(lp.UpdatedAt, p.CreatedAt)

	for _, l := range lp.Links {
		if strings.TrimSpace(l.URL) == "" {
			continue
		}
		p.Links = append(p.Links, domain.Link{Label: l.Label, URL: l.URL})
	}

	for i := range lp.Events {
		e, ok, err := c.event(p.ID, &lp.Events[i])
		if err != nil {
			return nil, err
		}
		if ok {
			p.Events = append(p.Events, e)
		}
	}
	for _, ln := range lp.Notes {
		n := domain.Note{ID: ln.ID, Title: ln.Title, Content: ln.Content, CreatedAt: c.timeOr(ln.CreatedAt, p.CreatedAt)}
		if n.ID == "" {
			newID, err := c.newID(id.PrefixNote)
			if err != nil {
				return nil, err
			}
			n.ID = newID
		}
		if strings.TrimSpace(n.Title) == "" {
			n.Title = domain.DefaultNoteTitle
		}
		p.Notes = append(p.Notes, n)
		c.notes++
	}

	p.Community, p.CommunitySource = c.communityVotes(p.ID, lp.Fragrantica)
	p.Mine = c.myVotes(p.ID, lp.MyVotes)

	if c.migrateBrands {
		if err := c.migrateBrand(lp, p); err != nil {
			return nil, err
		}
	}
	if c.migrateTags {
		if err := c.migrateTagNames(lp, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (c *conversion) event(perfumeID string, le *legacyEvent) (domain.Event, bool, error) {
	t := domain.EventType(le.EventType)
	if !t.IsValid() {
		c.warnf("perfume %s: event %s has unknown type %q, skipped", perfumeID, le.ID, le.EventType)
		return domain.Event{}, false, nil
	}
	e := domain.Event{
		ID:             le.ID,
		PerfumeID:      perfumeID,
		Type:           t,
		Timestamp:      c.timeOr(le.Timestamp, c.now),
		EventDate:      strings.TrimSpace(le.EventDate),
		VolumeDelta:    le.MLDelta,
		Price:          le.Price,
		PurchaseTypeID: le.PurchaseTypeID,
		Note:           le.Note,
		Location:       strings.TrimSpace(le.Location),
	}
	if e.ID == "" {
		newID, err := c.newID(id.PrefixEvent)
		if err != nil {
			return domain.Event{}, false, err
		}
		e.ID = newID
	}
	if name := strings.TrimSpace(le.PurchaseType); e.PurchaseTypeID == "" && name != "" {
		ptID, err := c.refs.PurchaseTypes.FindOrCreate(name)
		if err != nil {
			return domain.Event{}, false, err
		}
		e.PurchaseTypeID = ptID
	}
	if e.EventDate != "" {
		if _, err := time.Parse(domain.EventDateLayout, e.EventDate); err != nil {
			c.warnf("perfume %s: event %s date %q dropped", perfumeID, e.ID, e.EventDate)
			e.EventDate = ""
		}
	}
	c.events++
	return e, true, nil
}

// communityVotes reads {"rating_votes": {...}, "url": ..., "source": ..., "last_updated": ...}.
func (c *conversion) communityVotes(perfumeID string, raw map[string]json.RawMessage) (domain.VoteSet, *domain.CommunitySource) {
	var votes domain.VoteSet
	for _, cat := range domain.Categories() {
		block, ok := raw[cat.Key()+votesSuffix]
		if !ok {
			continue
		}
		votes.Set(cat, c.tally(perfumeID, cat, block, false))
	}

	var src domain.CommunitySource
	decodeString(raw["url"], &src.URL)
	decodeString(raw["source"], &src.Source)
	if lu, ok := raw["last_updated"]; ok {
		var ft flexTime
		if err := json.Unmarshal(lu, &ft); err == nil {
			src.UpdatedAt = ft.Time
		}
	}
	if src.URL == "" && src.Source == "" && src.UpdatedAt.IsZero() {
		return votes, nil
	}
	return votes, &src
}

// myVotes reads {"my_rating_votes": {"love": 1}, ...}; any positive count selects.
func (c *conversion) myVotes(perfumeID string, raw map[string]json.RawMessage) domain.VoteSet {
	var votes domain.VoteSet
	for _, cat := range domain.Categories() {
		block, ok := raw[myPrefix+cat.Key()+votesSuffix]
		if !ok {
			continue
		}
		votes.Set(cat, c.tally(perfumeID, cat, block, true))
	}
	return votes
}

func (c *conversion) tally(perfumeID string, cat domain.Category, block json.RawMessage, selection bool) domain.Tally {
	var counts map[string]float64
	if err := json.Unmarshal(block, &counts); err != nil {
		c.warnf("perfume %s: %s votes unreadable, dropped", perfumeID, cat)
		return domain.Tally{}
	}

	clean := make(map[string]int, len(counts))
	for option, n := range counts {
		switch {
		case n < 0:
			c.warnf("perfume %s: %s.%s negative count dropped", perfumeID, cat, option)
		case selection && n > 0:
			clean[option] = 1
		default:
			clean[option] = int(n)
		}
	}

	t, unknown := domain.TallyFromCounts(cat, clean)
	for _, option := range unknown {
		c.warnf("perfume %s: unknown option %s.%s dropped", perfumeID, cat, option)
	}
	return t
}

func decodeString(raw json.RawMessage, dst *string) {
	if raw == nil {
		return
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*dst = strings.TrimSpace(s)
	}
}

// migrateBrand turns a version 1 inline brand name into a brand entry.
// A brand_id already on the record is kept as the entry id.
func (c *conversion) migrateBrand(lp *legacyPerfume, p *domain.Perfume) error {
	name := strings.TrimSpace(lp.Brand)
	if name == "" {
		return nil
	}
	if lp.BrandID != "" {
		c.refs.Brands.Insert(lp.BrandID, name)
		return nil
	}
	brandID, err := c.refs.Brands.FindOrCreate(name)
	if err != nil {
		return err
	}
	p.BrandID = brandID
	return nil
}

// migrateTagNames turns version 1 inline tag names into tag entries, pairing
// names with tag_ids by position when both are present.
func (c *conversion) migrateTagNames(lp *legacyPerfume, p *domain.Perfume) error {
	if len(lp.Tags) == 0 {
		return nil
	}
	ids := slices.Clone(lp.TagIDs)
	for j, name := range lp.Tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if j < len(ids) && ids[j] != "" {
			c.refs.Tags.Insert(ids[j], name)
			continue
		}
		tagID, err := c.refs.Tags.FindOrCreate(name)
		if err != nil {
			return err
		}
		if j < len(ids) {
			ids[j] = tagID
		} else {
			ids = append(ids, tagID)
		}
	}
	p.TagIDs = domain.DedupeIDs(ids)
	return nil
}
