package reference

import (
	"cmp"
	"slices"
	"strings"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/id"
)

// Entry is one row of a reference table.
type Entry[V comparable] struct {
	ID    string
	Value V
}

// View is the display form of an entry.
type View struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Region     string `json:"region,omitempty"`
	Display    string `json:"display"`
	UsageCount int    `json:"usage_count"`
}

// MutationResult describes a completed table change: the table in its new
// order plus the perfumes and events whose references were rewritten.
// Rename and delete never rewrite references, so their id sets are empty.
type MutationResult struct {
	TargetID   string   `json:"target_id,omitempty"`
	Entry      *View    `json:"entry,omitempty"`
	Removed    []string `json:"removed"`
	PerfumeIDs []string `json:"perfume_ids"`
	EventIDs   []string `json:"event_ids"`
	Table      []View   `json:"table"`
}

// Ops are the table operations that do not depend on the value type.
type Ops interface {
	Kind() domain.RefKind
	Len() int
	IDs() []string
	Contains(id string) bool
	Name(id string) string
	Display(id string) string
	FindByName(name string) (string, bool)
	Views(perfumes []*domain.Perfume) []View
	UsageCount(id string, perfumes []*domain.Perfume) (int, error)
	Delete(id string, perfumes []*domain.Perfume) error
	Reorder(order []string) error
	SortByName()
	SortByCount(perfumes []*domain.Perfume)
	MoveUp(id string) error
	MoveDown(id string) error
}

// Table is an insertion-ordered id -> value table. Order is user-visible and
// only changes through Reorder and the helpers built on it.
type Table[V comparable] struct {
	kind     domain.RefKind
	prefix   string
	entries  []Entry[V]
	asOutlet func(V) domain.Outlet
}

func newTable[V comparable](kind domain.RefKind, prefix string, asOutlet func(V) domain.Outlet) *Table[V] {
	return &Table[V]{kind: kind, prefix: prefix, asOutlet: asOutlet}
}

// Kind returns the table kind.
func (t *Table[V]) Kind() domain.RefKind { return t.kind }

// Len returns the number of entries.
func (t *Table[V]) Len() int { return len(t.entries) }

// Entries returns a copy of the entries in table order.
func (t *Table[V]) Entries() []Entry[V] {
	return slices.Clone(t.entries)
}

// IDs returns the ids in table order.
func (t *Table[V]) IDs() []string {
	return entryIDs(t.entries)
}

func (t *Table[V]) indexOf(id string) int {
	return slices.IndexFunc(t.entries, func(e Entry[V]) bool { return e.ID == id })
}

// Contains reports whether id is in the table.
func (t *Table[V]) Contains(id string) bool {
	return t.indexOf(id) >= 0
}

// Get returns the value stored under id.
func (t *Table[V]) Get(id string) (V, bool) {
	if i := t.indexOf(id); i >= 0 {
		return t.entries[i].Value, true
	}
	var zero V
	return zero, false
}

// Name resolves id to its name part, or "" when unknown.
func (t *Table[V]) Name(id string) string {
	v, ok := t.Get(id)
	if !ok {
		return ""
	}
	return t.asOutlet(v).Name
}

// Display resolves id to its display string, or "" when unknown.
func (t *Table[V]) Display(id string) string {
	v, ok := t.Get(id)
	if !ok {
		return ""
	}
	return t.asOutlet(v).Display()
}

// FindByName returns the first entry, in table order, whose name equals name exactly.
func (t *Table[V]) FindByName(name string) (string, bool) {
	for _, e := range t.entries {
		if t.asOutlet(e.Value).Name == name {
			return e.ID, true
		}
	}
	return "", false
}

// FindOrCreate returns the id of the entry named like v, or appends v under a
// fresh id. Existing entries are never overwritten.
func (t *Table[V]) FindOrCreate(v V) (string, error) {
	if existing, ok := t.FindByName(t.asOutlet(v).Name); ok {
		return existing, nil
	}
	return t.add(v)
}

// Create appends v, rejecting a value whose name already exists.
func (t *Table[V]) Create(v V) (string, error) {
	name := t.asOutlet(v).Name
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyValue
	}
	if _, ok := t.FindByName(name); ok {
		return "", ErrDuplicate
	}
	return t.add(v)
}

// Append adds v under a fresh id without looking for duplicates. Outlets
// are added this way, since one name may exist in several regions.
func (t *Table[V]) Append(v V) (string, error) {
	if strings.TrimSpace(t.asOutlet(v).Name) == "" {
		return "", ErrEmptyValue
	}
	return t.add(v)
}

func (t *Table[V]) add(v V) (string, error) {
	for {
		newID, err := id.Generate(t.prefix)
		if err != nil {
			return "", err
		}
		if !t.Contains(newID) {
			t.entries = append(t.entries, Entry[V]{ID: newID, Value: v})
			return newID, nil
		}
	}
}

// Insert appends an entry under a caller-chosen id, replacing the value in
// place when the id already exists. Used when loading persisted tables.
func (t *Table[V]) Insert(entryID string, v V) {
	if i := t.indexOf(entryID); i >= 0 {
		t.entries[i].Value = v
		return
	}
	t.entries = append(t.entries, Entry[V]{ID: entryID, Value: v})
}

// Rename replaces the value of id in place. References are untouched.
func (t *Table[V]) Rename(entryID string, v V) error {
	i := t.indexOf(entryID)
	if i < 0 {
		return unknownEntry(t.kind, entryID)
	}
	t.entries[i].Value = v
	return nil
}

// UsageCount counts the records referencing id.
func (t *Table[V]) UsageCount(entryID string, perfumes []*domain.Perfume) (int, error) {
	if !t.Contains(entryID) {
		return 0, unknownEntry(t.kind, entryID)
	}
	return bindings[t.kind].usageCount(entryID, perfumes), nil
}

// Delete removes id, or fails with *StillReferencedError while it is in use.
func (t *Table[V]) Delete(entryID string, perfumes []*domain.Perfume) error {
	count, err := t.UsageCount(entryID, perfumes)
	if err != nil {
		return err
	}
	if count > 0 {
		return &StillReferencedError{Kind: t.kind, ID: entryID, Count: count}
	}
	t.entries = slices.DeleteFunc(t.entries, func(e Entry[V]) bool { return e.ID == entryID })
	return nil
}

// Merge folds ids into the first of them. The target takes keep as its value,
// every reference to another listed id is rewritten to the target, and the
// other entries are removed. All ids are validated before anything changes.
func (t *Table[V]) Merge(ids []string, keep V, perfumes []*domain.Perfume) (MutationResult, error) {
	ids = domain.DedupeIDs(ids)
	if len(ids) == 0 {
		return MutationResult{}, ErrEmptyMerge
	}
	for _, entryID := range ids {
		if !t.Contains(entryID) {
			return MutationResult{}, unknownEntry(t.kind, entryID)
		}
	}

	target := ids[0]
	result := MutationResult{
		TargetID:   target,
		Removed:    slices.Clone(ids[1:]),
		PerfumeIDs: []string{},
		EventIDs:   []string{},
	}
	_ = t.Rename(target, keep)
	if len(result.Removed) == 0 {
		result.Table = t.Views(perfumes)
		return result, nil
	}

	from := make(map[string]bool, len(result.Removed))
	for _, entryID := range result.Removed {
		from[entryID] = true
	}
	perfumeIDs, eventIDs := bindings[t.kind].rewrite(from, target, perfumes)
	result.PerfumeIDs = append(result.PerfumeIDs, perfumeIDs...)
	result.EventIDs = append(result.EventIDs, eventIDs...)
	t.entries = slices.DeleteFunc(t.entries, func(e Entry[V]) bool { return from[e.ID] })
	result.Table = t.Views(perfumes)
	return result, nil
}

// Reorder replaces the table order with order, which must be a permutation
// of the current ids.
func (t *Table[V]) Reorder(order []string) error {
	if len(order) != len(t.entries) {
		return ErrInvalidOrder
	}
	byID := make(map[string]Entry[V], len(t.entries))
	for _, e := range t.entries {
		byID[e.ID] = e
	}
	reordered := make([]Entry[V], 0, len(order))
	for _, entryID := range order {
		e, ok := byID[entryID]
		if !ok {
			return ErrInvalidOrder
		}
		delete(byID, entryID)
		reordered = append(reordered, e)
	}
	t.entries = reordered
	return nil
}

// SortByName orders entries by case-insensitive name.
func (t *Table[V]) SortByName() {
	order := t.Entries()
	slices.SortStableFunc(order, func(a, b Entry[V]) int {
		return t.compareNames(a, b)
	})
	_ = t.Reorder(entryIDs(order))
}

// SortByCount orders entries by usage count, most used first, then by name.
func (t *Table[V]) SortByCount(perfumes []*domain.Perfume) {
	counts := bindings[t.kind].usageCounts(perfumes)
	order := t.Entries()
	slices.SortStableFunc(order, func(a, b Entry[V]) int {
		if c := cmp.Compare(counts[b.ID], counts[a.ID]); c != 0 {
			return c
		}
		return t.compareNames(a, b)
	})
	_ = t.Reorder(entryIDs(order))
}

func (t *Table[V]) compareNames(a, b Entry[V]) int {
	return strings.Compare(
		strings.ToLower(t.asOutlet(a.Value).Name),
		strings.ToLower(t.asOutlet(b.Value).Name),
	)
}

// MoveUp swaps id with its predecessor. Moving the first entry is a no-op.
func (t *Table[V]) MoveUp(entryID string) error {
	i := t.indexOf(entryID)
	if i < 0 {
		return unknownEntry(t.kind, entryID)
	}
	if i > 0 {
		t.entries[i-1], t.entries[i] = t.entries[i], t.entries[i-1]
	}
	return nil
}

// MoveDown swaps id with its successor. Moving the last entry is a no-op.
func (t *Table[V]) MoveDown(entryID string) error {
	i := t.indexOf(entryID)
	if i < 0 {
		return unknownEntry(t.kind, entryID)
	}
	if i < len(t.entries)-1 {
		t.entries[i+1], t.entries[i] = t.entries[i], t.entries[i+1]
	}
	return nil
}

// Views renders every entry with its usage count, in table order.
func (t *Table[V]) Views(perfumes []*domain.Perfume) []View {
	counts := bindings[t.kind].usageCounts(perfumes)
	views := make([]View, len(t.entries))
	for i, e := range t.entries {
		o := t.asOutlet(e.Value)
		views[i] = View{
			ID:         e.ID,
			Name:       o.Name,
			Region:     o.Region,
			Display:    o.Display(),
			UsageCount: counts[e.ID],
		}
	}
	return views
}

func (t *Table[V]) clone() *Table[V] {
	c := *t
	c.entries = slices.Clone(t.entries)
	return &c
}

func entryIDs[V comparable](entries []Entry[V]) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
