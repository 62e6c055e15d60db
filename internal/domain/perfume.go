package domain

import (
	"slices"
	"time"
)

// EventType classifies an entry of a perfume's event log.
type EventType string

// Event types.
const (
	EventSmell EventType = "smell"
	EventSkin  EventType = "skin"
	EventBuy   EventType = "buy"
	EventSell  EventType = "sell"
)

// IsValid checks if the event type is a recognized value.
func (t EventType) IsValid() bool {
	switch t {
	case EventSmell, EventSkin, EventBuy, EventSell:
		return true
	default:
		return false
	}
}

// IsTesting reports whether the event counts as having tested the perfume.
func (t EventType) IsTesting() bool {
	return t == EventSmell || t == EventSkin
}

// EventDateLayout is the layout of the optional user-supplied event date.
const EventDateLayout = "2006-01-02"

// Event is one sampling or transaction record.
// VolumeDelta is signed: buys are expected to be >= 0 and sells <= 0, but that
// is a data-entry contract; derivations take the value literally.
type Event struct {
	ID             string    `json:"id"`
	PerfumeID      string    `json:"perfume_id"`
	Type           EventType `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	EventDate      string    `json:"event_date,omitempty"` // YYYY-MM-DD, optional
	VolumeDelta    *float64  `json:"volume_delta,omitempty"`
	Price          *float64  `json:"price,omitempty"`
	PurchaseTypeID string    `json:"purchase_type_id,omitempty"`
	Note           string    `json:"note,omitempty"`
	Location       string    `json:"location,omitempty"`
}

// SortKey orders events chronologically: the user date when present,
// then the system timestamp as a tiebreaker.
func (e *Event) SortKey() string {
	ts := e.Timestamp.UTC().Format(time.RFC3339Nano)
	if e.EventDate != "" {
		return e.EventDate + "T00:00:00_" + ts
	}
	return ts + "_" + ts
}

// Note is a titled free-text note attached to a perfume.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultNoteTitle is used when a note is saved without a title.
const DefaultNoteTitle = "Note"

// Link is a labelled external URL.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// CommunitySource records where the community tallies came from.
type CommunitySource struct {
	URL       string    `json:"url,omitempty"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Perfume is one record of the collection.
// Reference fields hold ids into the reference tables; list references are
// kept duplicate-free in first-seen order.
type Perfume struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	BrandID         string           `json:"brand_id"`
	ConcentrationID string           `json:"concentration_id,omitempty"`
	OutletIDs       []string         `json:"outlet_ids,omitempty"`
	TagIDs          []string         `json:"tag_ids,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Events          []Event          `json:"events,omitempty"`
	Notes           []Note           `json:"notes,omitempty"`
	Links           []Link           `json:"links,omitempty"`
	Community       VoteSet          `json:"community"`
	CommunitySource *CommunitySource `json:"community_source,omitempty"`
	Mine            VoteSet          `json:"mine"`
}

// Touch updates the UpdatedAt timestamp.
func (p *Perfume) Touch() {
	p.UpdatedAt = time.Now()
}

// FindEvent returns the index of the event with the given id, or -1.
func (p *Perfume) FindEvent(eventID string) int {
	return slices.IndexFunc(p.Events, func(e Event) bool { return e.ID == eventID })
}

// FindNote returns the index of the note with the given id, or -1.
func (p *Perfume) FindNote(noteID string) int {
	return slices.IndexFunc(p.Notes, func(n Note) bool { return n.ID == noteID })
}

// LastLocation returns the location of the most recently appended event.
func (p *Perfume) LastLocation() string {
	if len(p.Events) == 0 {
		return ""
	}
	return p.Events[len(p.Events)-1].Location
}

// ChronologicalEvents returns the events ordered by SortKey.
func (p *Perfume) ChronologicalEvents() []Event {
	events := slices.Clone(p.Events)
	slices.SortStableFunc(events, func(a, b Event) int {
		ka, kb := a.SortKey(), b.SortKey()
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		default:
			return 0
		}
	})
	return events
}

// Clone returns a deep copy of the perfume.
func (p *Perfume) Clone() *Perfume {
	c := *p
	c.OutletIDs = slices.Clone(p.OutletIDs)
	c.TagIDs = slices.Clone(p.TagIDs)
	c.Notes = slices.Clone(p.Notes)
	c.Links = slices.Clone(p.Links)
	c.Events = make([]Event, len(p.Events))
	for i, e := range p.Events {
		c.Events[i] = e
		if e.VolumeDelta != nil {
			v := *e.VolumeDelta
			c.Events[i].VolumeDelta = &v
		}
		if e.Price != nil {
			v := *e.Price
			c.Events[i].Price = &v
		}
	}
	if p.CommunitySource != nil {
		src := *p.CommunitySource
		c.CommunitySource = &src
	}
	return &c
}

// DedupeIDs removes duplicates while keeping first-seen order and dropping blanks.
func DedupeIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
