// internal/analyzer/analyzer.go
package analyzer

import (
	"encoding/json"
	"errors"
	"strings"

	"meal-assistant/internal/models"
)

// Config holds the analysis-backend settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	TimeoutSec int
}

// ErrNoEstimate is returned when the backend answered but produced nothing
// usable (no foods, unparsable payload).
var ErrNoEstimate = errors.New("analyzer returned no usable estimate")

// estimatePayload is the strict JSON contract the model is asked to answer
// with. Field names are part of the prompt; keep them in sync.
type estimatePayload struct {
	Foods          []string `json:"foods"`
	ProteinGrams   float64  `json:"protein_g"`
	Calories       *float64 `json:"calories"`
	CarbsGrams     *float64 `json:"carbs_g"`
	FatGrams       *float64 `json:"fat_g"`
	FiberGrams     *float64 `json:"fiber_g"`
	EstimatedGrams float64  `json:"estimated_weight_g"`
	Confidence     float64  `json:"confidence"`
	Source         string   `json:"source"`
	Explanation    string   `json:"explanation"`
}

// decodeEstimate parses the model answer into a RawMealEstimate. Code fences
// around the JSON are tolerated; anything else fails with ErrNoEstimate.
func decodeEstimate(answer string) (*models.RawMealEstimate, error) {
	cleaned := strings.TrimSpace(answer)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload estimatePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, ErrNoEstimate
	}
	if len(payload.Foods) == 0 {
		return nil, ErrNoEstimate
	}

	weight := payload.EstimatedGrams
	if weight <= 0 {
		weight = 100
	}
	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &models.RawMealEstimate{
		DetectedFoods:        payload.Foods,
		EstimatedProtein:     payload.ProteinGrams,
		EstimatedCalories:    payload.Calories,
		EstimatedCarbs:       payload.CarbsGrams,
		EstimatedFat:         payload.FatGrams,
		EstimatedFiber:       payload.FiberGrams,
		EstimatedWeightGrams: weight,
		Confidence:           confidence,
		SourceHint:           payload.Source,
		Explanation:          payload.Explanation,
	}, nil
}
