// Package state derives the ownership and testing descriptor of a perfume
// from its event log and tags.
package state

import (
	"strconv"
	"strings"

	"github.com/scentlog/scentlog-server/internal/domain"
)

// Label clauses.
const (
	LabelTested = "Tested"
	LabelOnSkin = "On-skin"
	LabelOwned  = "Owned"
	LabelWant   = "Want"
	LabelNew    = "New"

	// LabelWishlist is accepted by the state filter but Derive never produces it.
	LabelWishlist = "Wishlist"
)

// Separator joins label clauses.
const Separator = " | "

const wantKeyword = "want"

// State is the derived descriptor of one perfume.
type State struct {
	Label       string  `json:"label"`
	OwnedVolume float64 `json:"owned_volume"`
	Tested      bool    `json:"tested"`
	OnSkin      bool    `json:"on_skin"`
	Want        bool    `json:"want"`
}

// Owned reports whether the net volume is positive.
func (s State) Owned() bool {
	return s.OwnedVolume > 0
}

// FirstClause returns the leading clause of the label.
func (s State) FirstClause() string {
	first, _, _ := strings.Cut(s.Label, Separator)
	return first
}

// Derive computes the state of p. tagNames are the resolved names of p's tags.
//
// Volume deltas are summed literally, so sells beyond recorded buys yield a
// negative volume.
func Derive(p *domain.Perfume, tagNames []string) State {
	var s State
	for i := range p.Events {
		e := &p.Events[i]
		if e.Type.IsTesting() {
			s.Tested = true
		}
		if e.Type == domain.EventSkin {
			s.OnSkin = true
		}
		if e.VolumeDelta != nil {
			s.OwnedVolume += *e.VolumeDelta
		}
		if containsFold(e.Note, wantKeyword) {
			s.Want = true
		}
	}
	for _, name := range tagNames {
		if strings.EqualFold(name, wantKeyword) {
			s.Want = true
			break
		}
	}

	var clauses []string
	if s.Tested {
		clauses = append(clauses, LabelTested)
	}
	if s.OnSkin {
		clauses = append(clauses, LabelOnSkin)
	}
	if s.Owned() {
		clauses = append(clauses, LabelOwned+" "+FormatVolume(s.OwnedVolume)+"ml")
	}
	if s.Want {
		clauses = append(clauses, LabelWant)
	}
	if len(clauses) == 0 {
		s.Label = LabelNew
	} else {
		s.Label = strings.Join(clauses, Separator)
	}
	return s
}

// FormatVolume renders millilitres without trailing zeros ("50", "7.5").
func FormatVolume(ml float64) string {
	return strconv.FormatFloat(ml, 'f', -1, 64)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
