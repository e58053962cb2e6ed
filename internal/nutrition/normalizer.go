// internal/nutrition/normalizer.go
package nutrition

import (
	"fmt"
	"math"
	"unicode/utf8"

	"meal-assistant/internal/models"
)

// shouldScaleLengthRatio is the threshold of the should-scale heuristic: a
// description sent to the analyzer that is below this fraction of the
// original text length is assumed to be the bare food name, so the quantity
// multiplier still has to be applied. Kept as-is for compatibility; it only
// guesses from string shrinkage, it does not verify what the backend consumed.
const shouldScaleLengthRatio = 0.6

// ShouldScale decides whether an upstream estimate still needs the quantity
// multiplier applied, by comparing the description actually sent to the
// analyzer with the original quantity-laden user text.
func ShouldScale(sentDescription, originalText string) bool {
	origLen := utf8.RuneCountInString(originalText)
	if origLen == 0 {
		return false
	}
	sentLen := utf8.RuneCountInString(sentDescription)
	return float64(sentLen) < shouldScaleLengthRatio*float64(origLen)
}

// NormalizeTo100g rescales an estimate whose reference weight differs from
// the 100g baseline back to that baseline. It is applied to any estimate
// before a quantity is known; afterwards the estimate is safe to scale by a
// parsed multiplier.
func NormalizeTo100g(estimate models.RawMealEstimate) models.RawMealEstimate {
	if estimate.EstimatedWeightGrams <= 0 {
		estimate.EstimatedWeightGrams = 100
		return estimate
	}
	if estimate.EstimatedWeightGrams == 100 {
		return estimate
	}
	ratio := 100 / estimate.EstimatedWeightGrams
	estimate.EstimatedProtein *= ratio
	estimate.EstimatedCalories = scalePtr(estimate.EstimatedCalories, ratio)
	estimate.EstimatedCarbs = scalePtr(estimate.EstimatedCarbs, ratio)
	estimate.EstimatedFat = scalePtr(estimate.EstimatedFat, ratio)
	estimate.EstimatedFiber = scalePtr(estimate.EstimatedFiber, ratio)
	estimate.EstimatedWeightGrams = 100
	return estimate
}

// Normalize combines a (already corrected, 100g-baselined when scaling) raw
// estimate with a parsed quantity into the terminal nutrition record.
//
// The source kind only affects the description text, never the arithmetic:
// packaged, unit-counted and other estimates are all assumed per-100g on the
// scaling path.
func Normalize(estimate models.RawMealEstimate, qty models.ParsedQuantity, shouldScale bool, kind models.SourceKind) models.NormalizedNutrition {
	description := buildDescription(estimate, qty, kind)

	if !shouldScale {
		// The upstream estimate already reflects the requested quantity; the
		// weight is recorded purely for display.
		confidence := estimate.Confidence
		if confidence < 0.8 {
			confidence = 0.8
		}
		return models.NormalizedNutrition{
			Description:          description,
			Protein:              round1(estimate.EstimatedProtein),
			Calories:             roundCalories(estimate.EstimatedCalories, 1),
			Confidence:           clamp01(confidence),
			EstimatedWeightGrams: qty.Multiplier * 100,
		}
	}

	ratio := qty.Multiplier
	return models.NormalizedNutrition{
		Description:          description,
		Protein:              round1(estimate.EstimatedProtein * ratio),
		Calories:             roundCalories(estimate.EstimatedCalories, ratio),
		Confidence:           clamp01(math.Min(estimate.Confidence, qty.Confidence)),
		EstimatedWeightGrams: ratio * 100,
	}
}

func buildDescription(estimate models.RawMealEstimate, qty models.ParsedQuantity, kind models.SourceKind) string {
	primary := estimate.PrimaryFood()
	if primary == "" {
		primary = "repas"
	}
	switch kind {
	case models.SourcePackagedProduct:
		return primary + " (produit emballé)"
	case models.SourceUnitCountedFood:
		if qty.Components.Number != nil {
			return fmt.Sprintf("%s %s", formatCount(*qty.Components.Number), primary)
		}
		if qty.Components.TextNumber != "" {
			return qty.Components.TextNumber + " " + primary
		}
		return primary
	default:
		return primary
	}
}

func formatCount(n float64) string {
	if n == math.Trunc(n) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%.1f", n)
}

func scalePtr(v *float64, ratio float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * ratio
	return &scaled
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundCalories(v *float64, ratio float64) int64 {
	if v == nil {
		return 0
	}
	return int64(math.Round(*v * ratio))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
