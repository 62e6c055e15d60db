package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/reference"
)

const v2Document = `{
  "version": 2,
  "updated_at": 1735689600,
  "brands_map": {"b-zz": "Creed", "b-aa": "Chanel"},
  "concentrations_map": {"c-1": "EDP"},
  "outlets_map": {"o-1": {"name": "Harrods", "region": "London"}, "o-2": "Sephora"},
  "tags_map": {"t-2": "smoky", "t-1": "want"},
  "purchase_types_map": {"p-1": "full"},
  "perfumes": [
    {
      "id": "aventus",
      "name": " Aventus ",
      "brand_id": "b-zz",
      "concentration_id": "c-1",
      "outlet_ids": ["o-1", "o-1"],
      "tag_ids": ["t-2", "t-1"],
      "created_at": 1700000000,
      "updated_at": 1700000100,
      "events": [
        {"id": "e1", "perfume_id": "aventus", "event_type": "smell", "timestamp": "2024-05-01T12:34:56.123456", "location": "Harrods (London)"},
        {"id": "e2", "perfume_id": "aventus", "event_type": "buy", "timestamp": "2024-05-02T10:00:00", "ml_delta": 10, "price": 35.5, "purchase_type": "decant", "event_date": "2024-05-02"},
        {"id": "e3", "perfume_id": "aventus", "event_type": "spray", "timestamp": "2024-05-03T10:00:00"}
      ],
      "notes": [{"id": "n1", "title": "", "content": "pineapple", "created_at": 1700000200}],
      "links": [{"label": "Fragrantica", "url": "https://example.com/aventus"}, {"label": "empty", "url": ""}],
      "fragrantica": {
        "rating_votes": {"love": 120, "like": 40, "ok": 10, "dislike": 3, "hate": 2, "superb": 9},
        "gender_votes": {"male": 300, "more_male": 80, "unisex": 20},
        "url": "https://example.com/aventus",
        "source": "fragrantica",
        "last_updated": 1700000300
      },
      "my_votes": {
        "my_season_time_votes": {"spring": 1, "fall": 1, "night": 0},
        "my_rating_votes": {"love": 1}
      }
    }
  ]
}`

func newTestImporter() *Importer {
	im := New(nil)
	im.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return im
}

func TestRead_Version2(t *testing.T) {
	res, err := newTestImporter().Read(strings.NewReader(v2Document))
	require.NoError(t, err)

	snap := res.Snapshot
	refs := snap.References

	// Table order follows the document, not the keys.
	assert.Equal(t, []domain.NamedEntry{{ID: "b-zz", Name: "Creed"}, {ID: "b-aa", Name: "Chanel"}}, refs.Brands)
	assert.Equal(t, []domain.NamedEntry{{ID: "t-2", Name: "smoky"}, {ID: "t-1", Name: "want"}}, refs.Tags)
	assert.Equal(t, []domain.OutletEntry{
		{ID: "o-1", Outlet: domain.Outlet{Name: "Harrods", Region: "London"}},
		{ID: "o-2", Outlet: domain.Outlet{Name: "Sephora"}},
	}, refs.Outlets)
	assert.Equal(t, []domain.NamedEntry{{ID: "c-1", Name: "EDP"}}, refs.Concentrations)

	// The legacy purchase_type name was resolved into the table.
	require.Len(t, refs.PurchaseTypes, 2)
	assert.Equal(t, "decant", refs.PurchaseTypes[1].Name)

	assert.Equal(t, time.Unix(1735689600, 0).UTC(), snap.UpdatedAt)

	require.Len(t, snap.Perfumes, 1)
	p := snap.Perfumes[0]
	assert.Equal(t, "aventus", p.ID)
	assert.Equal(t, "Aventus", p.Name)
	assert.Equal(t, "b-zz", p.BrandID)
	assert.Equal(t, []string{"o-1"}, p.OutletIDs)
	assert.Equal(t, []string{"t-2", "t-1"}, p.TagIDs)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), p.CreatedAt)

	// The unknown event type is skipped.
	require.Len(t, p.Events, 2)
	assert.Equal(t, 2, res.Events)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 34, 56, 123456000, time.UTC), p.Events[0].Timestamp)
	assert.Equal(t, refs.PurchaseTypes[1].ID, p.Events[1].PurchaseTypeID)
	require.NotNil(t, p.Events[1].VolumeDelta)
	assert.InDelta(t, 10.0, *p.Events[1].VolumeDelta, 1e-9)

	require.Len(t, p.Notes, 1)
	assert.Equal(t, domain.DefaultNoteTitle, p.Notes[0].Title)
	assert.Len(t, p.Links, 1)

	assert.Equal(t, domain.TallyOf(120, 40, 10, 3, 2), p.Community.Get(domain.CategoryRating))
	assert.Equal(t, domain.TallyOf(300, 80, 20), p.Community.Get(domain.CategoryGender))
	require.NotNil(t, p.CommunitySource)
	assert.Equal(t, "https://example.com/aventus", p.CommunitySource.URL)
	assert.Equal(t, time.Unix(1700000300, 0).UTC(), p.CommunitySource.UpdatedAt)

	assert.Equal(t, domain.TallyOf(1, 0, 1, 0, 0, 0), p.Mine.Get(domain.CategorySeasonTime))
	assert.Equal(t, domain.TallyOf(1), p.Mine.Get(domain.CategoryRating))

	warnings := strings.Join(res.Warnings, "\n")
	assert.Contains(t, warnings, "rating.superb")
	assert.Contains(t, warnings, `"spray"`)
}

func TestRead_Version1Migration(t *testing.T) {
	doc := `{
	  "perfumes": [
	    {"id": "p1", "name": "No 5", "brand": "Chanel", "tags": ["floral", "classic"]},
	    {"id": "p2", "name": "Coco", "brand": "Chanel", "tags": ["floral", ""]},
	    {"id": "p3", "name": "Silver Mountain", "brand": "Creed", "brand_id": "legacy-creed", "tags": ["fresh"], "tag_ids": ["legacy-fresh"]}
	  ]
	}`

	res, err := newTestImporter().Read(strings.NewReader(doc))
	require.NoError(t, err)

	snap := res.Snapshot
	refs := reference.FromData(snap.References)

	require.Len(t, snap.Perfumes, 3)
	p1, p2, p3 := snap.Perfumes[0], snap.Perfumes[1], snap.Perfumes[2]

	// Repeated names share one entry.
	assert.Equal(t, p1.BrandID, p2.BrandID)
	assert.Equal(t, "Chanel", refs.BrandName(p1.BrandID))
	assert.Equal(t, "legacy-creed", p3.BrandID)
	assert.Equal(t, "Creed", refs.BrandName("legacy-creed"))
	assert.Equal(t, 2, refs.Brands.Len())

	assert.Equal(t, []string{"floral", "classic"}, refs.TagNames(p1.TagIDs))
	assert.Equal(t, []string{"floral"}, refs.TagNames(p2.TagIDs))
	assert.Equal(t, []string{"legacy-fresh"}, p3.TagIDs)
	assert.Equal(t, "fresh", refs.Tags.Name("legacy-fresh"))

	// Empty tables get the default seeds.
	assert.Len(t, snap.References.Concentrations, len(domain.DefaultConcentrations))
	assert.Len(t, snap.References.PurchaseTypes, len(domain.DefaultPurchaseTypes))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p1.CreatedAt)
}

func TestRead_Version2IgnoresInlineNames(t *testing.T) {
	doc := `{"version": 2, "brands_map": {"b1": "Dior"},
	  "perfumes": [{"id": "p1", "name": "Sauvage", "brand_id": "b1", "brand": "Christian Dior"}]}`

	res, err := newTestImporter().Read(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []domain.NamedEntry{{ID: "b1", Name: "Dior"}}, res.Snapshot.References.Brands)
}

func TestRead_MissingIDsAreGenerated(t *testing.T) {
	doc := `{"perfumes": [{"name": "Untitled", "events": [{"event_type": "skin"}], "notes": [{"content": "x"}]}]}`

	res, err := newTestImporter().Read(strings.NewReader(doc))
	require.NoError(t, err)

	p := res.Snapshot.Perfumes[0]
	assert.True(t, strings.HasPrefix(p.ID, "pf-"))
	assert.True(t, strings.HasPrefix(p.Events[0].ID, "ev-"))
	assert.Equal(t, p.ID, p.Events[0].PerfumeID)
	assert.True(t, strings.HasPrefix(p.Notes[0].ID, "nt-"))
}

func TestRead_DuplicatePerfumeIDs(t *testing.T) {
	doc := `{"perfumes": [{"id": "p1", "name": "A"}, {"id": "p1", "name": "B"}]}`

	res, err := newTestImporter().Read(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, res.Snapshot.Perfumes, 1)
	assert.Equal(t, "A", res.Snapshot.Perfumes[0].Name)
	assert.Len(t, res.Warnings, 1)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `perfumes`},
		{"future version", `{"version": 3}`},
		{"map is array", `{"brands_map": ["Chanel"]}`},
		{"bad timestamp", `{"perfumes": [{"id": "p1", "created_at": "yesterday"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestImporter().Read(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perfumes.json")
	require.NoError(t, os.WriteFile(path, []byte(v2Document), 0o644))

	res, err := newTestImporter().ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, res.Snapshot.Perfumes, 1)

	_, err = newTestImporter().ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Time{}},
		{"1700000000", time.Unix(1700000000, 0).UTC()},
		{"2024-05-01T12:00:00Z", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"2024-05-01T12:00:00+02:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-05-01 08:30:00", time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)},
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}
