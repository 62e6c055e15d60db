package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scentlog/scentlog-server/internal/domain"
)

func ml(v float64) *float64 { return &v }

func perfumeWith(events ...domain.Event) *domain.Perfume {
	return &domain.Perfume{ID: "pf-1", Name: "Test", Events: events}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name   string
		p      *domain.Perfume
		tags   []string
		label  string
		volume float64
	}{
		{
			name:  "no events",
			p:     perfumeWith(),
			label: LabelNew,
		},
		{
			name:  "smelled",
			p:     perfumeWith(domain.Event{Type: domain.EventSmell}),
			label: "Tested",
		},
		{
			name:  "worn on skin",
			p:     perfumeWith(domain.Event{Type: domain.EventSkin}),
			label: "Tested | On-skin",
		},
		{
			name: "bought a bottle",
			p: perfumeWith(
				domain.Event{Type: domain.EventSkin},
				domain.Event{Type: domain.EventBuy, VolumeDelta: ml(50)},
			),
			label:  "Tested | On-skin | Owned 50ml",
			volume: 50,
		},
		{
			name: "fractional volume",
			p: perfumeWith(
				domain.Event{Type: domain.EventBuy, VolumeDelta: ml(10)},
				domain.Event{Type: domain.EventSell, VolumeDelta: ml(-2.5)},
			),
			label:  "Owned 7.5ml",
			volume: 7.5,
		},
		{
			name: "sold more than bought",
			p: perfumeWith(
				domain.Event{Type: domain.EventBuy, VolumeDelta: ml(5)},
				domain.Event{Type: domain.EventSell, VolumeDelta: ml(-10)},
			),
			label:  LabelNew,
			volume: -5,
		},
		{
			name:   "wrong sign taken literally",
			p:      perfumeWith(domain.Event{Type: domain.EventSell, VolumeDelta: ml(3)}),
			label:  "Owned 3ml",
			volume: 3,
		},
		{
			name:  "want tag",
			p:     perfumeWith(),
			tags:  []string{"woody", "WANT"},
			label: "Want",
		},
		{
			name:  "want in event note",
			p:     perfumeWith(domain.Event{Type: domain.EventSmell, Note: "I really Want this"}),
			label: "Tested | Want",
		},
		{
			name:  "partial tag is not want",
			p:     perfumeWith(),
			tags:  []string{"wanted"},
			label: LabelNew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Derive(tt.p, tt.tags)
			assert.Equal(t, tt.label, s.Label)
			assert.InDelta(t, tt.volume, s.OwnedVolume, 1e-9)
		})
	}
}

func TestDerive_NeverProducesWishlist(t *testing.T) {
	s := Derive(perfumeWith(), []string{"wishlist"})
	assert.NotEqual(t, LabelWishlist, s.Label)
}

func TestFirstClause(t *testing.T) {
	assert.Equal(t, "Tested", State{Label: "Tested | Owned 5ml"}.FirstClause())
	assert.Equal(t, "Owned 5ml", State{Label: "Owned 5ml"}.FirstClause())
	assert.Equal(t, LabelNew, State{Label: LabelNew}.FirstClause())
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "50", FormatVolume(50))
	assert.Equal(t, "0.5", FormatVolume(0.5))
	assert.Equal(t, "12.25", FormatVolume(12.25))
}
