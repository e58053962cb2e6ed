// internal/quantity/numbers.go
package quantity

// Lexical tables for the fraction and spelled-out-number strategies. The
// fraction list is ordered: longer or more specific tokens come before the
// tokens they contain ("1/2" before "1/", "quarter" before "quart").

type fractionToken struct {
	token string
	value float64
}

var fractionTokens = []fractionToken{
	{"1/2", 0.5},
	{"½", 0.5},
	{"demi", 0.5},
	{"half", 0.5},
	{"2/3", 2.0 / 3.0},
	{"⅔", 2.0 / 3.0},
	{"3/4", 0.75},
	{"¾", 0.75},
	{"1/3", 1.0 / 3.0},
	{"⅓", 1.0 / 3.0},
	{"tiers", 1.0 / 3.0},
	{"third", 1.0 / 3.0},
	{"1/4", 0.25},
	{"¼", 0.25},
	{"quarter", 0.25},
	{"quart", 0.25},
}

// wordNumbers maps French and English number words, plus vague quantifiers,
// to numeric values. Matching is done word by word on the lowercased input.
var wordNumbers = map[string]float64{
	// French
	"un": 1, "une": 1,
	"deux": 2, "trois": 3, "quatre": 4, "cinq": 5,
	"six": 6, "sept": 7, "huit": 8, "neuf": 9, "dix": 10,
	"onze": 11, "douze": 12, "treize": 13, "quatorze": 14, "quinze": 15,
	"seize": 16, "vingt": 20,
	// English
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "twenty": 20,
	// Vague quantifiers
	"quelques": 3, "plusieurs": 4, "beaucoup": 8,
	"some": 3, "several": 4, "many": 8, "few": 2,
}
