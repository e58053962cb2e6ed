// internal/nutrition/classifier_test.go
package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"meal-assistant/internal/models"
)

func TestClassify(t *testing.T) {
	number := 2.0

	tests := []struct {
		name     string
		estimate models.RawMealEstimate
		qty      *models.ParsedQuantity
		expected models.SourceKind
	}{
		{
			name: "source hint wins",
			estimate: models.RawMealEstimate{
				DetectedFoods: []string{"poulet rôti"},
				SourceHint:    "openfoodfacts",
			},
			expected: models.SourcePackagedProduct,
		},
		{
			name: "explanation mentioning barcode",
			estimate: models.RawMealEstimate{
				DetectedFoods: []string{"céréales"},
				Explanation:   "valeurs issues du code-barres scanné",
			},
			expected: models.SourcePackagedProduct,
		},
		{
			name: "packaged food keyword",
			estimate: models.RawMealEstimate{
				DetectedFoods: []string{"chips nature"},
			},
			expected: models.SourcePackagedProduct,
		},
		{
			name: "branded product name",
			estimate: models.RawMealEstimate{
				DetectedFoods: []string{"nutella"},
			},
			expected: models.SourcePackagedProduct,
		},
		{
			name: "counted food via quantity",
			estimate: models.RawMealEstimate{
				DetectedFoods: []string{"pomme"},
			},
			qty: &models.ParsedQuantity{
				Components: models.QuantityComponents{
					Number:   &number,
					UnitType: models.UnitTypePiece,
					FoodType: "pomme",
				},
			},
			expected: models.SourceUnitCountedFood,
		},
		{
			name: "piece unit without food type stays other",
			estimate: models.RawMealEstimate{
				DetectedFoods: []string{"plat maison"},
			},
			qty: &models.ParsedQuantity{
				Components: models.QuantityComponents{
					Number:   &number,
					UnitType: models.UnitTypePiece,
				},
			},
			expected: models.SourceOther,
		},
		{
			name: "plain meal no quantity",
			estimate: models.RawMealEstimate{
				DetectedFoods: []string{"poulet avec du riz"},
			},
			expected: models.SourceOther,
		},
		{
			name:     "empty estimate",
			estimate: models.RawMealEstimate{},
			expected: models.SourceOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.estimate, tt.qty))
		})
	}
}

func TestClassify_PackagedBeatsCounted(t *testing.T) {
	// A counted packaged good (2 yaourts) is still a packaged product: the
	// keyword check runs before the unit-count check.
	number := 2.0
	estimate := models.RawMealEstimate{DetectedFoods: []string{"yaourt nature"}}
	qty := &models.ParsedQuantity{
		Components: models.QuantityComponents{
			Number:   &number,
			UnitType: models.UnitTypePiece,
			FoodType: "yaourt",
		},
	}

	assert.Equal(t, models.SourcePackagedProduct, Classify(estimate, qty))
}
