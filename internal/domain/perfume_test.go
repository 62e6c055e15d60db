package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType(t *testing.T) {
	tests := []struct {
		typ       EventType
		valid     bool
		isTesting bool
	}{
		{EventSmell, true, true},
		{EventSkin, true, true},
		{EventBuy, true, false},
		{EventSell, true, false},
		{"swap", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.typ.IsValid())
			assert.Equal(t, tt.isTesting, tt.typ.IsTesting())
		})
	}
}

func TestPerfume_ChronologicalEvents(t *testing.T) {
	base := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	p := &Perfume{Events: []Event{
		{ID: "late-dated", Timestamp: base, EventDate: "2026-05-01"},
		{ID: "undated", Timestamp: base.Add(-time.Hour)},
		{ID: "early-dated", Timestamp: base.Add(time.Hour), EventDate: "2025-12-24"},
		{ID: "same-day", Timestamp: base.Add(2 * time.Hour), EventDate: "2026-05-01"},
	}}

	var ids []string
	for _, e := range p.ChronologicalEvents() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"early-dated", "late-dated", "same-day", "undated"}, ids)
	assert.Equal(t, "late-dated", p.Events[0].ID, "stored order is untouched")
}

func TestPerfume_Lookups(t *testing.T) {
	p := &Perfume{
		Events: []Event{{ID: "ev-1", Location: "Liberty"}, {ID: "ev-2", Location: ""}},
		Notes:  []Note{{ID: "nt-1", Title: DefaultNoteTitle}},
	}

	assert.Equal(t, 1, p.FindEvent("ev-2"))
	assert.Equal(t, -1, p.FindEvent("ev-3"))
	assert.Equal(t, 0, p.FindNote("nt-1"))
	assert.Equal(t, -1, p.FindNote("ev-1"))
	assert.Empty(t, p.LastLocation())
	assert.Empty(t, (&Perfume{}).LastLocation())
}

func TestPerfume_CloneIsIndependent(t *testing.T) {
	vol := 50.0
	p := &Perfume{
		ID:              "pf-1",
		TagIDs:          []string{"tg-1"},
		Events:          []Event{{ID: "ev-1", VolumeDelta: &vol}},
		CommunitySource: &CommunitySource{Source: "fragrantica"},
	}
	p.Mine.Set(CategoryRating, TallyOf(1))

	c := p.Clone()
	c.TagIDs[0] = "tg-2"
	*c.Events[0].VolumeDelta = 10
	c.CommunitySource.Source = "manual"
	c.Mine.Set(CategoryRating, Tally{})

	assert.Equal(t, "tg-1", p.TagIDs[0])
	assert.InDelta(t, 50.0, *p.Events[0].VolumeDelta, 1e-9)
	assert.Equal(t, "fragrantica", p.CommunitySource.Source)
	assert.True(t, p.Mine.HasAny())
}

func TestDedupeIDs(t *testing.T) {
	assert.Nil(t, DedupeIDs(nil))
	assert.Equal(t, []string{"b", "a", "c"}, DedupeIDs([]string{"b", "a", "", "b", "c", "a"}))
	assert.Empty(t, DedupeIDs([]string{"", ""}))
}

func TestRefKind(t *testing.T) {
	for _, k := range RefKinds() {
		assert.True(t, k.IsValid(), k.String())
	}
	assert.False(t, RefKind("perfume").IsValid())
}

func TestOutlet_Display(t *testing.T) {
	assert.Equal(t, "Liberty (London)", Outlet{Name: "Liberty", Region: "London"}.Display())
	assert.Equal(t, "Jovoy", Outlet{Name: "Jovoy"}.Display())
}

func TestSnapshot_Clone(t *testing.T) {
	s := &Snapshot{
		Perfumes: []*Perfume{{ID: "pf-1", Name: "Shalimar"}},
		References: ReferenceData{
			Brands:  []NamedEntry{{ID: "br-1", Name: "Guerlain"}},
			Outlets: []OutletEntry{{ID: "ou-1", Outlet: Outlet{Name: "Liberty"}}},
		},
	}

	c := s.Clone()
	c.Perfumes[0].Name = "Mitsouko"
	c.References.Brands[0].Name = "Chanel"
	c.References.Outlets[0].Region = "London"

	require.NotNil(t, s.FindPerfume("pf-1"))
	assert.Equal(t, "Shalimar", s.FindPerfume("pf-1").Name)
	assert.Equal(t, "Guerlain", s.References.Brands[0].Name)
	assert.Empty(t, s.References.Outlets[0].Region)
	assert.Nil(t, s.FindPerfume("pf-2"))
}
