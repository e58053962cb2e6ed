// internal/nutrition/classifier.go
package nutrition

import (
	"strings"

	"meal-assistant/internal/models"
)

// packagedHints are provenance tags and explanation fragments that identify a
// packaged-product database result.
var packagedHints = []string{
	"openfoodfacts",
	"open food facts",
	"product database",
	"base produits",
	"barcode",
	"code-barres",
}

// packagedFoodKeywords flag the first detected food name as a packaged good.
var packagedFoodKeywords = []string{
	"chips", "biscuit", "cookie", "yaourt", "yogurt",
	"céréales", "cereal", "muesli", "granola",
	"soda", "coca", "pepsi", "fanta", "sprite",
	"nutella", "kellogg", "oreo", "kinder", "snickers",
	"barre", "crackers", "compote",
}

// Classify decides the provenance of a raw estimate. The paired quantity may
// be nil when no quantity has been parsed for this estimate yet.
func Classify(estimate models.RawMealEstimate, qty *models.ParsedQuantity) models.SourceKind {
	hint := strings.ToLower(estimate.SourceHint)
	explanation := strings.ToLower(estimate.Explanation)
	for _, h := range packagedHints {
		if hint != "" && strings.Contains(hint, h) {
			return models.SourcePackagedProduct
		}
		if explanation != "" && strings.Contains(explanation, h) {
			return models.SourcePackagedProduct
		}
	}

	if primary := strings.ToLower(estimate.PrimaryFood()); primary != "" {
		for _, kw := range packagedFoodKeywords {
			if strings.Contains(primary, kw) {
				return models.SourcePackagedProduct
			}
		}
	}

	if qty != nil && qty.Components.UnitType == models.UnitTypePiece && qty.Components.FoodType != "" {
		return models.SourceUnitCountedFood
	}

	return models.SourceOther
}
