// internal/nutrition/corrector.go
package nutrition

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"meal-assistant/internal/models"
)

// CorrectionFactor rescales the protein estimate for foods the analysis
// backend is known to systematically over-estimate. Ratio is target/backend.
type CorrectionFactor struct {
	Keywords []string `yaml:"keywords"`
	Ratio    float64  `yaml:"ratio"`
}

// Corrector applies at most one correction factor per estimate lifecycle:
// it runs exactly once, right after the analysis backend returns and before
// any normalization.
type Corrector struct {
	factors []CorrectionFactor
}

// DefaultCorrector returns the compiled-in correction table. Ratios come from
// reference protein content per 100g versus the values the backend reports.
func DefaultCorrector() *Corrector {
	return &Corrector{factors: []CorrectionFactor{
		{Keywords: []string{"poulet", "chicken"}, Ratio: 23.0 / 31.0},
		{Keywords: []string{"boeuf", "beef"}, Ratio: 26.0 / 35.0},
		{Keywords: []string{"oeuf", "egg"}, Ratio: 12.0 / 15.0},
		{Keywords: []string{"saumon", "salmon"}, Ratio: 20.0 / 25.0},
		{Keywords: []string{"thon", "tuna"}, Ratio: 24.0 / 30.0},
		{Keywords: []string{"porc", "pork"}, Ratio: 21.0 / 27.0},
		{Keywords: []string{"dinde", "turkey"}, Ratio: 24.0 / 29.0},
	}}
}

// LoadCorrector reads a correction table from a YAML file.
func LoadCorrector(path string) (*Corrector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read correction table: %w", err)
	}
	var factors []CorrectionFactor
	if err := yaml.Unmarshal(data, &factors); err != nil {
		return nil, fmt.Errorf("parse correction table: %w", err)
	}
	for i, f := range factors {
		if len(f.Keywords) == 0 {
			return nil, fmt.Errorf("correction entry %d: no keywords", i)
		}
		if f.Ratio <= 0 {
			return nil, fmt.Errorf("correction entry %d: ratio must be > 0", i)
		}
	}
	if len(factors) == 0 {
		return nil, fmt.Errorf("correction table %s: no entries", path)
	}
	return &Corrector{factors: factors}, nil
}

// Correct returns the estimate with the first matching correction applied to
// its protein value. All other fields pass through unchanged; no keyword
// match means identity.
func (c *Corrector) Correct(estimate models.RawMealEstimate, foodDescription string) models.RawMealEstimate {
	lower := strings.ToLower(foodDescription)
	for _, f := range c.factors {
		for _, kw := range f.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				estimate.EstimatedProtein *= f.Ratio
				return estimate
			}
		}
	}
	return estimate
}
