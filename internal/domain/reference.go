package domain

import (
	"slices"
	"time"
)

// RefKind names one of the five reference tables.
type RefKind string

// Reference table kinds.
const (
	RefBrand         RefKind = "brand"
	RefTag           RefKind = "tag"
	RefConcentration RefKind = "concentration"
	RefOutlet        RefKind = "outlet"
	RefPurchaseType  RefKind = "purchase_type"
)

// RefKinds returns every reference kind.
func RefKinds() []RefKind {
	return []RefKind{RefBrand, RefTag, RefConcentration, RefOutlet, RefPurchaseType}
}

// IsValid checks if the kind is a recognized value.
func (k RefKind) IsValid() bool {
	return slices.Contains(RefKinds(), k)
}

// String returns the string representation of the kind.
func (k RefKind) String() string {
	return string(k)
}

// Outlet is a place where perfumes can be tested or bought.
type Outlet struct {
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

// Display renders "name (region)", or just the name when region is empty.
func (o Outlet) Display() string {
	if o.Region == "" {
		return o.Name
	}
	return o.Name + " (" + o.Region + ")"
}

// NamedEntry is one row of a plain string reference table.
type NamedEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OutletEntry is one row of the outlet table.
type OutletEntry struct {
	ID string `json:"id"`
	Outlet
}

// ReferenceData is the persisted form of the five ordered reference tables.
// Slice order is the user-visible table order.
type ReferenceData struct {
	Brands         []NamedEntry  `json:"brands"`
	Tags           []NamedEntry  `json:"tags"`
	Concentrations []NamedEntry  `json:"concentrations"`
	Outlets        []OutletEntry `json:"outlets"`
	PurchaseTypes  []NamedEntry  `json:"purchase_types"`
}

// Default seed values for a fresh collection.
//
//nolint:gochecknoglobals // Static seed lists.
var (
	DefaultConcentrations = []string{"Extrait", "Parfum", "EDP", "EDT", "Cologne"}
	DefaultPurchaseTypes  = []string{"full", "decant", "sample", "gift"}
)

// Snapshot is the whole in-memory collection handed between the
// persistence layer and the engine.
type Snapshot struct {
	Perfumes   []*Perfume    `json:"perfumes"`
	References ReferenceData `json:"references"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Perfumes:  make([]*Perfume, len(s.Perfumes)),
		UpdatedAt: s.UpdatedAt,
		References: ReferenceData{
			Brands:         slices.Clone(s.References.Brands),
			Tags:           slices.Clone(s.References.Tags),
			Concentrations: slices.Clone(s.References.Concentrations),
			Outlets:        slices.Clone(s.References.Outlets),
			PurchaseTypes:  slices.Clone(s.References.PurchaseTypes),
		},
	}
	for i, p := range s.Perfumes {
		c.Perfumes[i] = p.Clone()
	}
	return c
}

// FindPerfume returns the perfume with the given id, or nil.
func (s *Snapshot) FindPerfume(id string) *Perfume {
	for _, p := range s.Perfumes {
		if p.ID == id {
			return p
		}
	}
	return nil
}
