// internal/suggest/generator.go
package suggest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"meal-assistant/internal/models"
)

// SuggestionSet is the curated list of quantity choices for one food family.
type SuggestionSet struct {
	Keywords    []string                    `yaml:"keywords"`
	Suggestions []models.QuantitySuggestion `yaml:"suggestions"`
}

// Generator proposes a short ranked list of plausible quantities for a
// 100g-normalized estimate. Exactly one entry of every returned list is the
// default choice.
type Generator struct {
	sets     []SuggestionSet
	fallback []models.QuantitySuggestion
}

// DefaultGenerator returns the compiled-in suggestion tables.
func DefaultGenerator() *Generator {
	return &Generator{
		sets: []SuggestionSet{
			{
				Keywords: []string{"pâtes", "pates", "pasta", "spaghetti", "riz", "rice"},
				Suggestions: []models.QuantitySuggestion{
					{Label: "100 g", Value: "100g", WeightGrams: 100},
					{Label: "150 g", Value: "150g", WeightGrams: 150, IsDefault: true},
					{Label: "200 g", Value: "200g", WeightGrams: 200},
					{Label: "1 portion", Value: "1 portion", WeightGrams: 250},
				},
			},
			{
				Keywords: []string{"salade", "salad"},
				Suggestions: []models.QuantitySuggestion{
					{Label: "1 portion", Value: "1 portion", WeightGrams: 150, IsDefault: true},
					{Label: "200 g", Value: "200g", WeightGrams: 200},
					{Label: "300 g", Value: "300g", WeightGrams: 300},
				},
			},
			{
				Keywords: []string{"chips", "crackers", "cacahuètes", "peanuts"},
				Suggestions: []models.QuantitySuggestion{
					{Label: "30 g", Value: "30g", WeightGrams: 30, IsDefault: true},
					{Label: "50 g", Value: "50g", WeightGrams: 50},
					{Label: "75 g", Value: "75g", WeightGrams: 75},
					{Label: "1 portion", Value: "1 portion", WeightGrams: 100},
				},
			},
			{
				Keywords: []string{"biscuit", "cookie", "gâteau", "gateau"},
				Suggestions: []models.QuantitySuggestion{
					{Label: "1 biscuit", Value: "1 biscuit", WeightGrams: 20},
					{Label: "2 biscuits", Value: "2 biscuits", WeightGrams: 40, IsDefault: true},
					{Label: "3 biscuits", Value: "3 biscuits", WeightGrams: 60},
					{Label: "50 g", Value: "50g", WeightGrams: 50},
					{Label: "100 g", Value: "100g", WeightGrams: 100},
				},
			},
		},
		fallback: []models.QuantitySuggestion{
			{Label: "1 portion", Value: "1 portion", WeightGrams: 150, IsDefault: true},
			{Label: "100 g", Value: "100g", WeightGrams: 100},
			{Label: "200 g", Value: "200g", WeightGrams: 200},
			{Label: "300 g", Value: "300g", WeightGrams: 300},
		},
	}
}

// LoadGenerator reads suggestion sets from a YAML file. The file format is
// {sets: [...], fallback: [...]}; every list must mark exactly one default.
func LoadGenerator(path string) (*Generator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suggestion table: %w", err)
	}
	var doc struct {
		Sets     []SuggestionSet             `yaml:"sets"`
		Fallback []models.QuantitySuggestion `yaml:"fallback"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse suggestion table: %w", err)
	}
	if err := validateDefaults(doc.Fallback); err != nil {
		return nil, fmt.Errorf("suggestion fallback: %w", err)
	}
	for _, set := range doc.Sets {
		if len(set.Keywords) == 0 {
			return nil, fmt.Errorf("suggestion set without keywords")
		}
		if err := validateDefaults(set.Suggestions); err != nil {
			return nil, fmt.Errorf("suggestion set %v: %w", set.Keywords, err)
		}
	}
	return &Generator{sets: doc.Sets, fallback: doc.Fallback}, nil
}

func validateDefaults(suggestions []models.QuantitySuggestion) error {
	defaults := 0
	for _, s := range suggestions {
		if s.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		return fmt.Errorf("expected exactly one default, got %d", defaults)
	}
	return nil
}

// Suggest returns the quantity choices for the estimate's primary detected
// food, or the generic fallback when no curated set matches.
func (g *Generator) Suggest(estimate models.RawMealEstimate) []models.QuantitySuggestion {
	primary := strings.ToLower(estimate.PrimaryFood())
	if primary != "" {
		for _, set := range g.sets {
			for _, kw := range set.Keywords {
				if strings.Contains(primary, strings.ToLower(kw)) {
					return cloneSuggestions(set.Suggestions)
				}
			}
		}
	}
	return cloneSuggestions(g.fallback)
}

func cloneSuggestions(in []models.QuantitySuggestion) []models.QuantitySuggestion {
	out := make([]models.QuantitySuggestion, len(in))
	copy(out, in)
	return out
}
