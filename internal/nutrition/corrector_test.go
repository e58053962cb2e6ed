// internal/nutrition/corrector_test.go
package nutrition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-assistant/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func estimateWithProtein(food string, protein float64) models.RawMealEstimate {
	return models.RawMealEstimate{
		DetectedFoods:        []string{food},
		EstimatedProtein:     protein,
		EstimatedWeightGrams: 100,
		Confidence:           0.8,
	}
}

// ==========================
// Correction Tests
// ==========================

func TestCorrector_Correct(t *testing.T) {
	tests := []struct {
		name            string
		food            string
		description     string
		protein         float64
		expectedProtein float64
	}{
		{name: "chicken french", food: "poulet", description: "poulet grillé", protein: 31, expectedProtein: 23},
		{name: "chicken english", food: "chicken", description: "grilled chicken", protein: 31, expectedProtein: 23},
		{name: "beef", food: "boeuf", description: "boeuf haché", protein: 35, expectedProtein: 26},
		{name: "egg", food: "oeuf", description: "oeufs brouillés", protein: 15, expectedProtein: 12},
		{name: "no match passes through", food: "riz", description: "riz blanc", protein: 7, expectedProtein: 7},
		{name: "empty description passes through", food: "poulet", description: "", protein: 31, expectedProtein: 31},
	}

	corrector := DefaultCorrector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := corrector.Correct(estimateWithProtein(tt.food, tt.protein), tt.description)

			assert.InDelta(t, tt.expectedProtein, result.EstimatedProtein, 0.01)
		})
	}
}

func TestCorrector_Correct_OnlyProteinChanges(t *testing.T) {
	calories := 200.0
	estimate := estimateWithProtein("poulet", 31)
	estimate.EstimatedCalories = &calories

	result := DefaultCorrector().Correct(estimate, "poulet rôti")

	assert.InDelta(t, 23, result.EstimatedProtein, 0.01)
	require.NotNil(t, result.EstimatedCalories)
	assert.Equal(t, 200.0, *result.EstimatedCalories)
	assert.Equal(t, estimate.Confidence, result.Confidence)
	assert.Equal(t, estimate.EstimatedWeightGrams, result.EstimatedWeightGrams)
}

func TestCorrector_Correct_FirstMatchOnly(t *testing.T) {
	// A description naming two corrected foods applies the first factor only.
	result := DefaultCorrector().Correct(estimateWithProtein("poulet", 31), "poulet et boeuf")

	assert.InDelta(t, 23, result.EstimatedProtein, 0.01)
}

func TestCorrector_Correct_CaseInsensitive(t *testing.T) {
	result := DefaultCorrector().Correct(estimateWithProtein("Poulet", 31), "POULET grillé")

	assert.InDelta(t, 23, result.EstimatedProtein, 0.01)
}

// ==========================
// Table Loading Tests
// ==========================

func TestLoadCorrector(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "corrections.yaml")
		content := "- keywords: [tofu]\n  ratio: 0.9\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		corrector, err := LoadCorrector(path)
		require.NoError(t, err)

		result := corrector.Correct(estimateWithProtein("tofu", 10), "tofu fumé")
		assert.InDelta(t, 9, result.EstimatedProtein, 0.01)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCorrector(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("entry without keywords rejected", func(t *testing.T) {
		path := filepath.Join(dir, "no-keywords.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- keywords: []\n  ratio: 0.9\n"), 0o644))

		_, err := LoadCorrector(path)
		assert.Error(t, err)
	})

	t.Run("non-positive ratio rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad-ratio.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- keywords: [tofu]\n  ratio: 0\n"), 0o644))

		_, err := LoadCorrector(path)
		assert.Error(t, err)
	})
}
