package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// legacyFile is a version 1 or 2 perfumes.json document. Reference maps keep their
// key order because table order is user-visible.
type legacyFile struct {
	Version          int                      `json:"version"`
	UpdatedAt        flexTime                 `json:"updated_at"`
	Perfumes         []legacyPerfume          `json:"perfumes"`
	BrandsMap        orderedMap[string]       `json:"brands_map"`
	ConcentrationMap orderedMap[string]       `json:"concentrations_map"`
	OutletsMap       orderedMap[legacyOutlet] `json:"outlets_map"`
	TagsMap          orderedMap[string]       `json:"tags_map"`
	PurchaseTypesMap orderedMap[string]       `json:"purchase_types_map"`
}

type legacyPerfume struct {
	ID              string                     `json:"id"`
	Name            string                     `json:"name"`
	BrandID         string                     `json:"brand_id"`
	ConcentrationID string                     `json:"concentration_id"`
	OutletIDs       []string                   `json:"outlet_ids"`
	TagIDs          []string                   `json:"tag_ids"`
	CreatedAt       flexTime                   `json:"created_at"`
	UpdatedAt       flexTime                   `json:"updated_at"`
	Events          []legacyEvent              `json:"events"`
	Notes           []legacyNote               `json:"notes"`
	Links           []legacyLink               `json:"links"`
	Fragrantica     map[string]json.RawMessage `json:"fragrantica"`
	MyVotes         map[string]json.RawMessage `json:"my_votes"`

	// Version 1 fields, replaced by the reference maps.
	Brand string   `json:"brand"`
	Tags  []string `json:"tags"`
}

type legacyEvent struct {
	ID             string   `json:"id"`
	PerfumeID      string   `json:"perfume_id"`
	EventType      string   `json:"event_type"`
	Timestamp      flexTime `json:"timestamp"`
	Location       string   `json:"location"`
	MLDelta        *float64 `json:"ml_delta"`
	Price          *float64 `json:"price"`
	PurchaseType   string   `json:"purchase_type"`
	PurchaseTypeID string   `json:"purchase_type_id"`
	Note           string   `json:"note"`
	EventDate      string   `json:"event_date"`
}

type legacyNote struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	CreatedAt flexTime `json:"created_at"`
}

type legacyLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// legacyOutlet accepts both {"name","region"} objects and bare strings.
type legacyOutlet struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

func (o *legacyOutlet) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		type plain legacyOutlet
		var p plain
		if err := json.Unmarshal(b, &p); err != nil {
			return err
		}
		*o = legacyOutlet(p)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = legacyOutlet{Name: s}
		return nil
	}
	// Numbers and the like are kept as their literal text.
	*o = legacyOutlet{Name: string(b)}
	return nil
}

type mapEntry[V any] struct {
	Key   string
	Value V
}

// orderedMap decodes a JSON object into its entries in document order.
type orderedMap[V any] []mapEntry[V]

func (m *orderedMap[V]) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	var entries orderedMap[V]
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		entries = append(entries, mapEntry[V]{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = entries
	return nil
}

// naiveLayouts are tried for timestamps without a zone, read as UTC.
//
//nolint:gochecknoglobals // Static layout list.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// flexTime reads unix seconds (number or numeric string) or ISO-8601 text.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] != '"' {
		secs, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("timestamp %s: %w", b, err)
		}
		t.Time = unixSeconds(secs)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return unixSeconds(secs), nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func unixSeconds(secs float64) time.Time {
	whole := int64(secs)
	frac := int64((secs - float64(whole)) * float64(time.Second))
	return time.Unix(whole, frac).UTC()
}
