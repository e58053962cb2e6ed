// internal/quantity/parser.go
package quantity

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"meal-assistant/internal/common/metrics"
	"meal-assistant/internal/models"
)

// Parser maps a free-text quantity expression to a ParsedQuantity. It is pure
// and deterministic: identical input always yields the identical result, and
// it never fails; when nothing matches it returns the 1.0/0.3 fallback.
//
// Strategies run in a fixed order and the first one clearing its own floor
// wins, even if a later strategy would have scored higher. Explicit weights
// beat fractions beat counts beat spelled-out numbers.
type Parser struct {
	portions *PortionTable
}

// Strategy confidence levels and the floor each must clear.
const (
	weightConfidence   = 0.9
	weightFloor        = 0.8
	fractionConfidence = 0.8
	fractionFloor      = 0.7
	numericFoodConf    = 0.7
	numericBareConf    = 0.6
	numericFloor       = 0.6
	wordConfidence     = 0.7
	wordFloor          = 0.5
	fallbackConfidence = 0.3
)

var (
	weightPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(kg|lb|oz|ml|g|l)\b`)
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// gramsPerUnit converts a recognized unit to grams (ml treated as grams).
var gramsPerUnit = map[string]float64{
	"g":  1,
	"kg": 1000,
	"ml": 1,
	"l":  1000,
	"oz": 28.35,
	"lb": 453.59,
}

// NewParser builds a parser over the given portion table. A nil table falls
// back to the compiled-in defaults.
func NewParser(portions *PortionTable) *Parser {
	if portions == nil {
		portions = DefaultPortionTable()
	}
	return &Parser{portions: portions}
}

// Parse resolves text into a quantity relative to the 100g baseline.
func (p *Parser) Parse(text string) models.ParsedQuantity {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" {
		if q, ok := p.parseWeight(text, trimmed); ok && q.Confidence >= weightFloor {
			metrics.ParseStrategyHits.WithLabelValues("weight").Inc()
			return q
		}
		if q, ok := p.parseFraction(text, trimmed); ok && q.Confidence >= fractionFloor {
			metrics.ParseStrategyHits.WithLabelValues("fraction").Inc()
			return q
		}
		if q, ok := p.parseNumeric(text, trimmed); ok && q.Confidence >= numericFloor {
			metrics.ParseStrategyHits.WithLabelValues("numeric").Inc()
			return q
		}
		if q, ok := p.parseWordNumber(text, trimmed); ok && q.Confidence >= wordFloor {
			metrics.ParseStrategyHits.WithLabelValues("word").Inc()
			return q
		}
	}
	metrics.ParseStrategyHits.WithLabelValues("fallback").Inc()
	return models.ParsedQuantity{
		Multiplier:   1.0,
		Confidence:   fallbackConfidence,
		OriginalText: text,
	}
}

// parseWeight handles explicit <number><unit> expressions such as "150g",
// "1,5 kg" or "250 ml". The gram amount is divided by the 100g baseline.
func (p *Parser) parseWeight(original, text string) (models.ParsedQuantity, bool) {
	m := weightPattern.FindStringSubmatch(text)
	if m == nil {
		return models.ParsedQuantity{}, false
	}
	number, err := parseDecimal(m[1])
	if err != nil || number <= 0 {
		return models.ParsedQuantity{}, false
	}
	unit := strings.ToLower(m[2])
	grams := number * gramsPerUnit[unit]

	unitType := models.UnitTypeWeight
	if unit == "ml" || unit == "l" {
		unitType = models.UnitTypeVolume
	}
	return models.ParsedQuantity{
		Multiplier:   grams / 100,
		Unit:         unit,
		Confidence:   weightConfidence,
		OriginalText: original,
		Components: models.QuantityComponents{
			Number:   &number,
			UnitType: unitType,
		},
	}, true
}

// parseFraction matches a fixed table of fraction tokens ("1/2", "demi",
// "tiers", ...). A food-type keyword in the same text sets the unit weight,
// otherwise the 100g default keeps the fraction a bare baseline multiplier.
func (p *Parser) parseFraction(original, text string) (models.ParsedQuantity, bool) {
	lower := strings.ToLower(text)
	for _, f := range fractionTokens {
		if !strings.Contains(lower, f.token) {
			continue
		}
		grams, keyword, _ := p.portions.Lookup(lower)
		return models.ParsedQuantity{
			Multiplier:   f.value * grams / 100,
			Confidence:   fractionConfidence,
			OriginalText: original,
			Components: models.QuantityComponents{
				TextNumber: f.token,
				UnitType:   models.UnitTypePortion,
				FoodType:   keyword,
			},
		}, true
	}
	return models.ParsedQuantity{}, false
}

// parseNumeric handles "<number> <free text>". When the remainder names a
// known food type the number counts units of that food; otherwise the number
// is a raw multiplier of the 100g baseline.
func (p *Parser) parseNumeric(original, text string) (models.ParsedQuantity, bool) {
	loc := numberPattern.FindStringIndex(text)
	if loc == nil {
		return models.ParsedQuantity{}, false
	}
	number, err := parseDecimal(text[loc[0]:loc[1]])
	if err != nil || number <= 0 {
		return models.ParsedQuantity{}, false
	}
	remainder := text[:loc[0]] + text[loc[1]:]

	if grams, keyword, ok := p.portions.Lookup(remainder); ok {
		return models.ParsedQuantity{
			Multiplier:   number * grams / 100,
			Confidence:   numericFoodConf,
			OriginalText: original,
			Components: models.QuantityComponents{
				Number:   &number,
				UnitType: models.UnitTypePiece,
				FoodType: keyword,
			},
		}, true
	}
	return models.ParsedQuantity{
		Multiplier:   number,
		Confidence:   numericBareConf,
		OriginalText: original,
		Components: models.QuantityComponents{
			Number: &number,
		},
	}, true
}

// parseWordNumber matches spelled-out French and English numbers and vague
// quantifiers, word by word.
func (p *Parser) parseWordNumber(original, text string) (models.ParsedQuantity, bool) {
	for _, word := range splitWords(text) {
		value, ok := wordNumbers[word]
		if !ok {
			continue
		}
		components := models.QuantityComponents{TextNumber: word}
		multiplier := value
		if grams, keyword, found := p.portions.Lookup(text); found {
			multiplier = value * grams / 100
			components.UnitType = models.UnitTypePiece
			components.FoodType = keyword
		}
		return models.ParsedQuantity{
			Multiplier:   multiplier,
			Confidence:   wordConfidence,
			OriginalText: original,
			Components:   components,
		}, true
	}
	return models.ParsedQuantity{}, false
}

// StripQuantity removes the quantity tokens the parser recognizes from text,
// leaving the bare food description that is sent to the analysis backend. The
// original text is returned unchanged when stripping would leave nothing.
func (p *Parser) StripQuantity(text string) string {
	stripped := weightPattern.ReplaceAllString(text, " ")

	lower := strings.ToLower(stripped)
	for _, f := range fractionTokens {
		if idx := strings.Index(lower, f.token); idx >= 0 {
			stripped = stripped[:idx] + " " + stripped[idx+len(f.token):]
			break
		}
	}

	stripped = numberPattern.ReplaceAllString(stripped, " ")

	words := splitWords(stripped)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, isNumber := wordNumbers[w]; isNumber {
			continue
		}
		switch w {
		case "de", "d", "of": // connectors left behind by stripping
			continue
		}
		kept = append(kept, w)
	}

	result := strings.Join(kept, " ")
	if result == "" {
		return text
	}
	return result
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
