// Package reference holds the five ordered reference tables (brand, tag,
// concentration, outlet, purchase type) and the operations that keep perfume
// and event references consistent with them.
//
// Tables never see the collection on their own: operations that count or
// rewrite references take the perfumes they apply to.
package reference

import (
	"fmt"
	"strings"

	"github.com/scentlog/scentlog-server/internal/domain"
)

// Id prefixes per table.
const (
	PrefixBrand         = "br"
	PrefixTag           = "tg"
	PrefixConcentration = "cc"
	PrefixOutlet        = "ol"
	PrefixPurchaseType  = "pt"
)

func plain(v string) domain.Outlet { return domain.Outlet{Name: v} }
func outlet(o domain.Outlet) domain.Outlet { return o }

// Store is the set of reference tables of one collection.
type Store struct {
	Brands         *Table[string]
	Tags           *Table[string]
	Concentrations *Table[string]
	Outlets        *Table[domain.Outlet]
	PurchaseTypes  *Table[string]
}

// New returns a store with five empty tables.
func New() *Store {
	return &Store{
		Brands:         newTable(domain.RefBrand, PrefixBrand, plain),
		Tags:           newTable(domain.RefTag, PrefixTag, plain),
		Concentrations: newTable(domain.RefConcentration, PrefixConcentration, plain),
		Outlets:        newTable(domain.RefOutlet, PrefixOutlet, outlet),
		PurchaseTypes:  newTable(domain.RefPurchaseType, PrefixPurchaseType, plain),
	}
}

// FromData builds a store from persisted tables, keeping their order.
func FromData(d domain.ReferenceData) *Store {
	s := New()
	for _, e := range d.Brands {
		s.Brands.Insert(e.ID, e.Name)
	}
	for _, e := range d.Tags {
		s.Tags.Insert(e.ID, e.Name)
	}
	for _, e := range d.Concentrations {
		s.Concentrations.Insert(e.ID, e.Name)
	}
	for _, e := range d.Outlets {
		s.Outlets.Insert(e.ID, e.Outlet)
	}
	for _, e := range d.PurchaseTypes {
		s.PurchaseTypes.Insert(e.ID, e.Name)
	}
	return s
}

// Data returns the persisted form of the store.
func (s *Store) Data() domain.ReferenceData {
	named := func(t *Table[string]) []domain.NamedEntry {
		out := make([]domain.NamedEntry, 0, t.Len())
		for _, e := range t.entries {
			out = append(out, domain.NamedEntry{ID: e.ID, Name: e.Value})
		}
		return out
	}
	outlets := make([]domain.OutletEntry, 0, s.Outlets.Len())
	for _, e := range s.Outlets.entries {
		outlets = append(outlets, domain.OutletEntry{ID: e.ID, Outlet: e.Value})
	}
	return domain.ReferenceData{
		Brands:         named(s.Brands),
		Tags:           named(s.Tags),
		Concentrations: named(s.Concentrations),
		Outlets:        outlets,
		PurchaseTypes:  named(s.PurchaseTypes),
	}
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store {
	return &Store{
		Brands:         s.Brands.clone(),
		Tags:           s.Tags.clone(),
		Concentrations: s.Concentrations.clone(),
		Outlets:        s.Outlets.clone(),
		PurchaseTypes:  s.PurchaseTypes.clone(),
	}
}

// SeedDefaults fills empty concentration and purchase type tables with the
// default values. It reports whether anything was added.
func (s *Store) SeedDefaults() (bool, error) {
	seeded := false
	for _, seed := range []struct {
		table  *Table[string]
		values []string
	}{
		{s.Concentrations, domain.DefaultConcentrations},
		{s.PurchaseTypes, domain.DefaultPurchaseTypes},
	} {
		if seed.table.Len() > 0 {
			continue
		}
		for _, v := range seed.values {
			if _, err := seed.table.FindOrCreate(v); err != nil {
				return seeded, err
			}
		}
		seeded = true
	}
	return seeded, nil
}

// Table returns the value-independent operations of one table.
func (s *Store) Table(kind domain.RefKind) (Ops, error) {
	if kind == domain.RefOutlet {
		return s.Outlets, nil
	}
	return s.Strings(kind)
}

// Strings returns one of the four plain string tables.
func (s *Store) Strings(kind domain.RefKind) (*Table[string], error) {
	switch kind {
	case domain.RefBrand:
		return s.Brands, nil
	case domain.RefTag:
		return s.Tags, nil
	case domain.RefConcentration:
		return s.Concentrations, nil
	case domain.RefPurchaseType:
		return s.PurchaseTypes, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// FindOrCreateOutlet trims name and finds or creates an outlet with that
// name. A blank name yields "".
func (s *Store) FindOrCreateOutlet(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	return s.Outlets.FindOrCreate(domain.Outlet{Name: name})
}

// FindOrCreateTags resolves tag names to ids, creating missing tags.
// Blank names are skipped and the result is duplicate-free.
func (s *Store) FindOrCreateTags(names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tagID, err := s.Tags.FindOrCreate(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, tagID)
	}
	return domain.DedupeIDs(ids), nil
}

// BrandName resolves a brand id, or "" when unknown.
func (s *Store) BrandName(id string) string { return s.Brands.Name(id) }

// ConcentrationName resolves a concentration id, or "" when unknown.
func (s *Store) ConcentrationName(id string) string { return s.Concentrations.Name(id) }

// PurchaseTypeName resolves a purchase type id, or "" when unknown.
func (s *Store) PurchaseTypeName(id string) string { return s.PurchaseTypes.Name(id) }

// OutletDisplay resolves an outlet id to "name (region)", or "" when unknown.
func (s *Store) OutletDisplay(id string) string { return s.Outlets.Display(id) }

// TagNames resolves tag ids in order, skipping unknown ids.
func (s *Store) TagNames(ids []string) []string {
	return resolveAll(ids, s.Tags.Name)
}

// OutletDisplays resolves outlet ids in order, skipping unknown ids.
func (s *Store) OutletDisplays(ids []string) []string {
	return resolveAll(ids, s.Outlets.Display)
}

func resolveAll(ids []string, resolve func(string) string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name := resolve(id); name != "" {
			out = append(out, name)
		}
	}
	return out
}
