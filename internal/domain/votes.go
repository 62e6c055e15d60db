package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Category is one of the six fixed vote categories.
// The option order of each category is declared once and drives weighting,
// so it must never be derived from a sorted container.
type Category int

// Vote categories in display order.
const (
	CategoryRating Category = iota
	CategorySeasonTime
	CategoryLongevity
	CategorySillage
	CategoryGender
	CategoryValue
)

// CategoryCount is the number of vote categories.
const CategoryCount = 6

// MaxOptions is the size of the widest category (season_time).
const MaxOptions = 6

// NormalizeMode selects how a tally is turned into display fractions.
type NormalizeMode int

// Normalize modes.
const (
	NormalizeSum NormalizeMode = iota
	NormalizeMax
)

// Season/time option indexes, in declared order.
const (
	OptionSpring = iota
	OptionSummer
	OptionFall
	OptionWinter
	OptionDay
	OptionNight
)

type categoryDef struct {
	key     string
	title   string
	options []string
	mode    NormalizeMode
}

//nolint:gochecknoglobals // Static category table.
var categoryDefs = [CategoryCount]categoryDef{
	CategoryRating:     {"rating", "Rating", []string{"love", "like", "ok", "dislike", "hate"}, NormalizeSum},
	CategorySeasonTime: {"season_time", "When to Wear", []string{"spring", "summer", "fall", "winter", "day", "night"}, NormalizeMax},
	CategoryLongevity:  {"longevity", "Longevity", []string{"eternal", "long", "moderate", "weak", "poor"}, NormalizeSum},
	CategorySillage:    {"sillage", "Sillage", []string{"enormous", "strong", "moderate", "intimate"}, NormalizeSum},
	CategoryGender:     {"gender", "Gender", []string{"male", "more_male", "unisex", "more_female", "female"}, NormalizeSum},
	CategoryValue:      {"value", "Price Value", []string{"excellent", "good", "fair", "expensive", "overpriced"}, NormalizeSum},
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CategoryRating, CategorySeasonTime, CategoryLongevity, CategorySillage, CategoryGender, CategoryValue}
}

// ParseCategory resolves a category key such as "season_time".
func ParseCategory(key string) (Category, bool) {
	for i, def := range categoryDefs {
		if def.key == key {
			return Category(i), true
		}
	}
	return 0, false
}

// IsValid checks if the category is one of the known categories.
func (c Category) IsValid() bool {
	return c >= 0 && int(c) < CategoryCount
}

// Key returns the stable key of the category.
func (c Category) Key() string {
	if !c.IsValid() {
		return ""
	}
	return categoryDefs[c].key
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return c.Key()
}

// Title returns the human title of the category.
func (c Category) Title() string {
	if !c.IsValid() {
		return ""
	}
	return categoryDefs[c].title
}

// Options returns the ordered option keys of the category.
func (c Category) Options() []string {
	if !c.IsValid() {
		return nil
	}
	return slices.Clone(categoryDefs[c].options)
}

// Len returns the number of options in the category.
func (c Category) Len() int {
	if !c.IsValid() {
		return 0
	}
	return len(categoryDefs[c].options)
}

// Option returns the option key at position i.
func (c Category) Option(i int) string {
	if i < 0 || i >= c.Len() {
		return ""
	}
	return categoryDefs[c].options[i]
}

// OptionIndex returns the declared position of an option key.
func (c Category) OptionIndex(option string) (int, bool) {
	if !c.IsValid() {
		return 0, false
	}
	i := slices.Index(categoryDefs[c].options, option)
	return i, i >= 0
}

// Mode returns the normalize mode of the category.
func (c Category) Mode() NormalizeMode {
	if !c.IsValid() {
		return NormalizeSum
	}
	return categoryDefs[c].mode
}

// FullScale is the highest score the category can produce.
func (c Category) FullScale() float64 {
	return float64(c.Len())
}

// MultiChoice reports whether a personal vote may select several options.
// Only season_time allows that; every other category is single-choice.
func (c Category) MultiChoice() bool {
	return c == CategorySeasonTime
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.Key()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, ok := ParseCategory(string(b))
	if !ok {
		return fmt.Errorf("unknown category %q", string(b))
	}
	*c = parsed
	return nil
}

// OptionLabel converts an option key to its display label ("more_male" -> "more male").
func OptionLabel(option string) string {
	return strings.ReplaceAll(option, "_", " ")
}

// Tally is an immutable snapshot of vote counts for one category,
// indexed by the category's declared option order.
// Positions beyond the category length are always zero.
type Tally [MaxOptions]int

// TallyOf builds a tally from counts given in declared order.
// Extra counts are ignored.
func TallyOf(counts ...int) Tally {
	var t Tally
	copy(t[:], counts)
	return t
}

// TallyFromCounts converts a loosely keyed option→count map into a tally.
// Unknown option keys are dropped and returned so the boundary can report them.
func TallyFromCounts(c Category, counts map[string]int) (Tally, []string) {
	var t Tally
	var unknown []string
	for option, n := range counts {
		i, ok := c.OptionIndex(option)
		if !ok {
			unknown = append(unknown, option)
			continue
		}
		t[i] = n
	}
	slices.Sort(unknown)
	return t, unknown
}

// Counts returns the counts of the category's options in declared order.
func (t Tally) Counts(c Category) []int {
	return slices.Clone(t[:c.Len()])
}

// Total returns the sum of counts over the category's options.
func (t Tally) Total(c Category) int {
	total := 0
	for _, n := range t[:c.Len()] {
		total += n
	}
	return total
}

// Max returns the largest count over the category's options.
func (t Tally) Max(c Category) int {
	m := 0
	for _, n := range t[:c.Len()] {
		m = max(m, n)
	}
	return m
}

// HasAny reports whether any option count is non-zero.
func (t Tally) HasAny() bool {
	for _, n := range t {
		if n != 0 {
			return true
		}
	}
	return false
}

// ToMap renders the tally keyed by option, omitting nothing.
func (t Tally) ToMap(c Category) map[string]int {
	m := make(map[string]int, c.Len())
	for i := range c.Len() {
		m[c.Option(i)] = t[i]
	}
	return m
}

// VoteSet holds one tally per category. Absent categories are all-zero.
type VoteSet [CategoryCount]Tally

// Get returns the tally for a category.
func (v *VoteSet) Get(c Category) Tally {
	if v == nil || !c.IsValid() {
		return Tally{}
	}
	return v[c]
}

// Set replaces the tally for a category.
func (v *VoteSet) Set(c Category, t Tally) {
	if !c.IsValid() {
		return
	}
	v[c] = t
}

// HasAny reports whether any category carries a non-zero count.
func (v *VoteSet) HasAny() bool {
	if v == nil {
		return false
	}
	for _, t := range v {
		if t.HasAny() {
			return true
		}
	}
	return false
}

// MarshalJSON renders the set as {"rating": {"love": 3, ...}, ...},
// omitting categories without any votes.
func (v VoteSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]int)
	for _, c := range Categories() {
		if v[c].HasAny() {
			out[c.Key()] = v[c].ToMap(c)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the keyed form written by MarshalJSON.
// Unknown categories and options are ignored.
func (v *VoteSet) UnmarshalJSON(b []byte) error {
	var raw map[string]map[string]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = VoteSet{}
	for key, counts := range raw {
		c, ok := ParseCategory(key)
		if !ok {
			continue
		}
		t, _ := TallyFromCounts(c, counts)
		v[c] = t
	}
	return nil
}
