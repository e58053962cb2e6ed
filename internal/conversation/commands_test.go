// internal/conversation/commands_test.go
package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "meal-assistant/internal/common/errors"
)

// ==========================
// Command Recognition Tests
// ==========================

func TestParseCommand_NotACommand(t *testing.T) {
	texts := []string{
		"",
		"150g de pâtes",
		"j'ai mangé du poulet",
		"aide moi avec ce repas", // not the bare token
		"2 biscuits",
	}

	for _, text := range texts {
		cmd, err := ParseCommand(text)
		assert.NoError(t, err, "text %q", text)
		assert.Nil(t, cmd, "text %q", text)
	}
}

func TestParseCommand_Help(t *testing.T) {
	for _, text := range []string{"aide", "AIDE", "help", " aide "} {
		cmd, err := ParseCommand(text)
		require.NoError(t, err, "text %q", text)
		assert.IsType(t, HelpCommand{}, cmd, "text %q", text)
	}
}

func TestParseCommand_BareManualEntryEntersMode(t *testing.T) {
	for _, text := range []string{"entrée manuelle", "entree manuelle", "Entrée Manuelle"} {
		cmd, err := ParseCommand(text)
		require.NoError(t, err, "text %q", text)

		manual, ok := cmd.(ManualEntryCommand)
		require.True(t, ok, "text %q", text)
		assert.Empty(t, manual.Description)
		assert.Nil(t, manual.ProteinGrams)
		assert.Nil(t, manual.Calories)
	}
}

func TestParseCommand_FullManualEntry(t *testing.T) {
	cmd, err := ParseCommand("entrée manuelle: omelette au fromage | protéines: 18g | calories: 320")
	require.NoError(t, err)

	manual, ok := cmd.(ManualEntryCommand)
	require.True(t, ok)
	assert.Equal(t, "omelette au fromage", manual.Description)
	require.NotNil(t, manual.ProteinGrams)
	assert.Equal(t, 18.0, *manual.ProteinGrams)
	require.NotNil(t, manual.Calories)
	assert.Equal(t, int64(320), *manual.Calories)
}

func TestParseCommand_ManualEntryMissingColon(t *testing.T) {
	_, err := ParseCommand("entrée manuelle omelette")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

// ==========================
// Manual Entry Body Tests
// ==========================

func TestParseManualEntry(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		expectedDesc    string
		expectedProtein *float64
		expectedCal     *int64
	}{
		{
			name:         "description only",
			body:         "salade composée",
			expectedDesc: "salade composée",
		},
		{
			name:            "protein with g suffix",
			body:            "omelette | protéines: 18g",
			expectedDesc:    "omelette",
			expectedProtein: ptrFloat(18),
		},
		{
			name:            "protein without suffix and comma decimal",
			body:            "yaourt | proteines: 4,5",
			expectedDesc:    "yaourt",
			expectedProtein: ptrFloat(4.5),
		},
		{
			name:         "calories only",
			body:         "pizza | calories: 800",
			expectedDesc: "pizza",
			expectedCal:  ptrInt(800),
		},
		{
			name:            "english field names",
			body:            "steak | protein: 30g | calories: 400",
			expectedDesc:    "steak",
			expectedProtein: ptrFloat(30),
			expectedCal:     ptrInt(400),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseManualEntry(tt.body)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedDesc, cmd.Description)
			if tt.expectedProtein == nil {
				assert.Nil(t, cmd.ProteinGrams)
			} else {
				require.NotNil(t, cmd.ProteinGrams)
				assert.Equal(t, *tt.expectedProtein, *cmd.ProteinGrams)
			}
			if tt.expectedCal == nil {
				assert.Nil(t, cmd.Calories)
			} else {
				require.NotNil(t, cmd.Calories)
				assert.Equal(t, *tt.expectedCal, *cmd.Calories)
			}
		})
	}
}

func TestParseManualEntry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "empty description", body: " | protéines: 18g"},
		{name: "field without colon", body: "omelette | protéines 18g"},
		{name: "unknown field", body: "omelette | sucres: 10g"},
		{name: "protein not a number", body: "omelette | protéines: beaucoup"},
		{name: "protein out of range", body: "omelette | protéines: 500g"},
		{name: "negative protein", body: "omelette | protéines: -5g"},
		{name: "calories not a number", body: "omelette | calories: trois cents"},
		{name: "calories out of range", body: "omelette | calories: 50000"},
		{name: "negative calories", body: "omelette | calories: -100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManualEntry(tt.body)

			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
			assert.False(t, apperrors.IsRetryable(err))
		})
	}
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int64) *int64       { return &v }
