// internal/models/meal.go
package models

// SourceKind classifies where a raw nutrition estimate came from.
type SourceKind string

const (
	SourcePackagedProduct SourceKind = "packaged_product"
	SourceUnitCountedFood SourceKind = "unit_counted_food"
	SourceOther           SourceKind = "other"
)

// RawMealEstimate is a nutrition estimate as returned by the analysis backend
// or the product lookup, before any quantity has been resolved. Absolute
// nutrient values describe EstimatedWeightGrams of food.
type RawMealEstimate struct {
	DetectedFoods        []string `json:"detectedFoods"`
	EstimatedProtein     float64  `json:"estimatedProtein"`
	EstimatedCalories    *float64 `json:"estimatedCalories,omitempty"`
	EstimatedCarbs       *float64 `json:"estimatedCarbs,omitempty"`
	EstimatedFat         *float64 `json:"estimatedFat,omitempty"`
	EstimatedFiber       *float64 `json:"estimatedFiber,omitempty"`
	EstimatedWeightGrams float64  `json:"estimatedWeightGrams"`
	Confidence           float64  `json:"confidence"`
	SourceHint           string   `json:"sourceHint,omitempty"`
	Explanation          string   `json:"explanation,omitempty"`
}

// PrimaryFood returns the first detected food name, or "" when the estimate
// carries none.
func (e RawMealEstimate) PrimaryFood() string {
	if len(e.DetectedFoods) == 0 {
		return ""
	}
	return e.DetectedFoods[0]
}

// Usable reports whether the estimate is good enough to continue the turn:
// at least one detected food and a confidence above the re-prompt threshold.
func (e RawMealEstimate) Usable() bool {
	return len(e.DetectedFoods) > 0 && e.Confidence >= 0.3
}

// NormalizedNutrition is the terminal, user-facing nutrition record for one
// meal. Once produced, the pending estimate of the conversation is cleared.
type NormalizedNutrition struct {
	Description          string  `json:"description"`
	Protein              float64 `json:"protein"`
	Calories             int64   `json:"calories"`
	Confidence           float64 `json:"confidence"`
	EstimatedWeightGrams float64 `json:"estimatedWeightGrams"`
}
