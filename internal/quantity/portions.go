// internal/quantity/portions.go
package quantity

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PortionEntry maps a food-type keyword to the assumed weight of one unit.
type PortionEntry struct {
	Keyword string  `yaml:"keyword"`
	Grams   float64 `yaml:"grams"`
}

// PortionTable converts count-based quantities into gram multipliers. Lookup
// is a case-insensitive substring match, first entry wins, so order matters:
// specific keywords must come before generic ones.
type PortionTable struct {
	entries []PortionEntry
}

// DefaultPortionWeightGrams is assumed when no keyword matches.
const DefaultPortionWeightGrams = 100

// DefaultPortionTable returns the compiled-in table used when no external
// data file is configured.
func DefaultPortionTable() *PortionTable {
	return &PortionTable{entries: []PortionEntry{
		{Keyword: "biscuit", Grams: 20},
		{Keyword: "cookie", Grams: 20},
		{Keyword: "croissant", Grams: 60},
		{Keyword: "yaourt", Grams: 125},
		{Keyword: "yogurt", Grams: 125},
		{Keyword: "tranche", Grams: 25},
		{Keyword: "slice", Grams: 25},
		{Keyword: "pomme", Grams: 150},
		{Keyword: "apple", Grams: 150},
		{Keyword: "banane", Grams: 120},
		{Keyword: "banana", Grams: 120},
		{Keyword: "orange", Grams: 130},
		{Keyword: "tomate", Grams: 120},
		{Keyword: "oeuf", Grams: 60},
		{Keyword: "egg", Grams: 60},
		{Keyword: "carotte", Grams: 80},
		{Keyword: "baguette", Grams: 250},
		{Keyword: "pain", Grams: 50},
		{Keyword: "bread", Grams: 50},
		{Keyword: "assiette", Grams: 250},
		{Keyword: "bol", Grams: 200},
		{Keyword: "bowl", Grams: 200},
		{Keyword: "verre", Grams: 200},
		{Keyword: "glass", Grams: 200},
		{Keyword: "tasse", Grams: 150},
		{Keyword: "cup", Grams: 150},
		{Keyword: "cuillere", Grams: 15},
		{Keyword: "spoon", Grams: 15},
		{Keyword: "portion", Grams: 100},
	}}
}

// LoadPortionTable reads a keyword/grams list from a YAML file. Entries with
// an empty keyword or a non-positive weight are rejected.
func LoadPortionTable(path string) (*PortionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portion table: %w", err)
	}
	var entries []PortionEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse portion table: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Keyword) == "" {
			return nil, fmt.Errorf("portion table entry %d: empty keyword", i)
		}
		if e.Grams <= 0 {
			return nil, fmt.Errorf("portion table entry %q: grams must be > 0", e.Keyword)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("portion table %s: no entries", path)
	}
	return &PortionTable{entries: entries}, nil
}

// Lookup finds the first keyword contained in text and returns its unit
// weight. The boolean is false when nothing matched and the default applies.
func (t *PortionTable) Lookup(text string) (grams float64, keyword string, ok bool) {
	lower := strings.ToLower(text)
	for _, e := range t.entries {
		if strings.Contains(lower, strings.ToLower(e.Keyword)) {
			return e.Grams, e.Keyword, true
		}
	}
	return DefaultPortionWeightGrams, "", false
}

// Len returns the number of entries, used by config validation logging.
func (t *PortionTable) Len() int {
	return len(t.entries)
}
