// internal/conversation/commands.go
package conversation

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "meal-assistant/internal/common/errors"
)

// Command is the tagged grammar of structured commands. Matching a command
// short-circuits all other input handling for the turn.
type Command interface {
	isCommand()
}

// HelpCommand is the literal "aide" / "help" token.
type HelpCommand struct{}

func (HelpCommand) isCommand() {}

// ManualEntryCommand is "entrée manuelle: <desc> [| protéines: Ng] [| calories: N]".
// A bare "entrée manuelle" (empty Description) switches the conversation into
// manual-entry mode instead of recording anything.
type ManualEntryCommand struct {
	Description  string
	ProteinGrams *float64
	Calories     *int64
}

func (ManualEntryCommand) isCommand() {}

// Accepted manual value ranges. Values outside are a ValidationError, not a
// retry prompt.
const (
	maxManualProteinGrams = 300
	maxManualCalories     = 10000
)

var manualEntryPrefixes = []string{"entrée manuelle", "entree manuelle"}

// ParseCommand recognizes a structured command in text. It returns (nil, nil)
// when the text is not a command at all, and a ValidationError when a command
// was recognized but its payload is malformed or out of range.
func ParseCommand(text string) (Command, error) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if lower == "aide" || lower == "help" {
		return HelpCommand{}, nil
	}

	for _, prefix := range manualEntryPrefixes {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		rest := strings.TrimSpace(trimmed[len(prefix):])
		if rest == "" {
			return ManualEntryCommand{}, nil
		}
		if !strings.HasPrefix(rest, ":") {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("manual entry must use 'entrée manuelle: <description>', got %q", trimmed))
		}
		cmd, err := ParseManualEntry(strings.TrimSpace(rest[1:]))
		if err != nil {
			return nil, err
		}
		return cmd, nil
	}

	return nil, nil
}

// ParseManualEntry parses the body of a manual entry, "<desc> [| protéines:
// Ng] [| calories: N]", without the command prefix. It is also used directly
// on raw input while the conversation is in manual-entry mode.
func ParseManualEntry(body string) (ManualEntryCommand, error) {
	parts := strings.Split(body, "|")
	description := strings.TrimSpace(parts[0])
	if description == "" {
		return ManualEntryCommand{}, apperrors.NewValidationError("manual entry requires a description")
	}

	cmd := ManualEntryCommand{Description: description}
	for _, part := range parts[1:] {
		name, value, found := strings.Cut(part, ":")
		if !found {
			return ManualEntryCommand{}, apperrors.NewValidationError(
				fmt.Sprintf("manual entry field %q must be 'name: value'", strings.TrimSpace(part)))
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)

		switch name {
		case "protéines", "proteines", "protein", "proteins":
			grams, err := parseGramsValue(value)
			if err != nil {
				return ManualEntryCommand{}, err
			}
			cmd.ProteinGrams = &grams
		case "calories":
			cal, err := parseCaloriesValue(value)
			if err != nil {
				return ManualEntryCommand{}, err
			}
			cmd.Calories = &cal
		default:
			return ManualEntryCommand{}, apperrors.NewValidationError(
				fmt.Sprintf("unknown manual entry field %q", name))
		}
	}
	return cmd, nil
}

func parseGramsValue(value string) (float64, error) {
	raw := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(value), "g"))
	raw = strings.ReplaceAll(raw, ",", ".")
	grams, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("protein value %q is not a number", value))
	}
	if grams < 0 || grams > maxManualProteinGrams {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("protein must be between 0 and %dg, got %s", maxManualProteinGrams, value))
	}
	return grams, nil
}

func parseCaloriesValue(value string) (int64, error) {
	cal, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("calorie value %q is not a whole number", value))
	}
	if cal < 0 || cal > maxManualCalories {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("calories must be between 0 and %d, got %s", maxManualCalories, value))
	}
	return cal, nil
}
