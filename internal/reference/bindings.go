package reference

import (
	"slices"

	"github.com/scentlog/scentlog-server/internal/domain"
)

// binding names the record fields that hold ids of one table.
// Exactly one accessor is set per kind.
type binding struct {
	scalar func(p *domain.Perfume) *string
	list   func(p *domain.Perfume) *[]string
	event  func(e *domain.Event) *string
}

//nolint:gochecknoglobals // Static field map.
var bindings = map[domain.RefKind]binding{
	domain.RefBrand:         {scalar: func(p *domain.Perfume) *string { return &p.BrandID }},
	domain.RefConcentration: {scalar: func(p *domain.Perfume) *string { return &p.ConcentrationID }},
	domain.RefTag:           {list: func(p *domain.Perfume) *[]string { return &p.TagIDs }},
	domain.RefOutlet:        {list: func(p *domain.Perfume) *[]string { return &p.OutletIDs }},
	domain.RefPurchaseType:  {event: func(e *domain.Event) *string { return &e.PurchaseTypeID }},
}

// usageCount counts perfumes (scalar and list kinds) or events (event kinds)
// referencing id.
func (b binding) usageCount(id string, perfumes []*domain.Perfume) int {
	n := 0
	for _, p := range perfumes {
		switch {
		case b.scalar != nil:
			if *b.scalar(p) == id {
				n++
			}
		case b.list != nil:
			if slices.Contains(*b.list(p), id) {
				n++
			}
		case b.event != nil:
			for i := range p.Events {
				if *b.event(&p.Events[i]) == id {
					n++
				}
			}
		}
	}
	return n
}

// usageCounts computes usage for every id in one pass.
func (b binding) usageCounts(perfumes []*domain.Perfume) map[string]int {
	counts := make(map[string]int)
	for _, p := range perfumes {
		switch {
		case b.scalar != nil:
			counts[*b.scalar(p)]++
		case b.list != nil:
			for _, id := range domain.DedupeIDs(*b.list(p)) {
				counts[id]++
			}
		case b.event != nil:
			for i := range p.Events {
				counts[*b.event(&p.Events[i])]++
			}
		}
	}
	return counts
}

// rewrite points every reference in from at to. List references are
// de-duplicated afterwards, keeping first-seen order. It returns the ids of
// the perfumes and events that changed.
func (b binding) rewrite(from map[string]bool, to string, perfumes []*domain.Perfume) (perfumeIDs, eventIDs []string) {
	for _, p := range perfumes {
		changed := false
		switch {
		case b.scalar != nil:
			if ref := b.scalar(p); from[*ref] {
				*ref = to
				changed = true
			}
		case b.list != nil:
			ref := b.list(p)
			for i, id := range *ref {
				if from[id] {
					(*ref)[i] = to
					changed = true
				}
			}
			if changed {
				*ref = domain.DedupeIDs(*ref)
			}
		case b.event != nil:
			for i := range p.Events {
				if ref := b.event(&p.Events[i]); from[*ref] {
					*ref = to
					changed = true
					eventIDs = append(eventIDs, p.Events[i].ID)
				}
			}
		}
		if changed {
			perfumeIDs = append(perfumeIDs, p.ID)
		}
	}
	return perfumeIDs, eventIDs
}
