// internal/models/quantity.go
package models

// UnitType categorizes the unit recognized inside a quantity expression.
type UnitType string

const (
	UnitTypePiece   UnitType = "piece"
	UnitTypeWeight  UnitType = "weight"
	UnitTypeVolume  UnitType = "volume"
	UnitTypePortion UnitType = "portion"
)

// QuantityComponents carries the raw pieces a quantity expression was built from.
// Zero values mean the component was absent from the text.
type QuantityComponents struct {
	Number     *float64 `json:"number,omitempty"`
	TextNumber string   `json:"textNumber,omitempty"`
	UnitType   UnitType `json:"unitType,omitempty"`
	FoodType   string   `json:"foodType,omitempty"`
}

// ParsedQuantity is the normalized result of parsing one quantity expression.
// Multiplier is always relative to the 100g baseline: 1.0 means "exactly the
// baseline portion, no rescale".
type ParsedQuantity struct {
	Multiplier   float64            `json:"multiplier"`
	Unit         string             `json:"unit,omitempty"`
	Confidence   float64            `json:"confidence"`
	OriginalText string             `json:"originalText"`
	Components   QuantityComponents `json:"components"`
}

// HasQuantity reports whether the parse found anything better than the
// low-confidence fallback.
func (q ParsedQuantity) HasQuantity() bool {
	return q.Confidence > 0.3
}

// QuantitySuggestion is one proposed quantity choice shown to the user when the
// quantity is still unknown. Value is a text the parser understands verbatim.
type QuantitySuggestion struct {
	Label       string  `json:"label" yaml:"label"`
	Value       string  `json:"value" yaml:"value"`
	WeightGrams float64 `json:"weightGrams" yaml:"grams"`
	IsDefault   bool    `json:"isDefault" yaml:"default"`
}
