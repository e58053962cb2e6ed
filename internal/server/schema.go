// internal/server/schema.go
package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// turnRequestSchema guards the public boundary before any decoding into
// typed structs happens.
var turnRequestSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []interface{}{"kind"},
	"properties": map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":      "string",
			"maxLength": 128,
		},
		"kind": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"text", "voice", "photo", "scan", "quantity", "command"},
		},
		"input": map[string]interface{}{
			"type":      "string",
			"maxLength": 4096,
		},
		"attachments": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]interface{}{
				"photo": map[string]interface{}{
					"type": "string",
				},
				"transcript": map[string]interface{}{
					"type":      "string",
					"maxLength": 4096,
				},
				"barcode": map[string]interface{}{
					"type":      "string",
					"pattern":   "^[0-9]{4,14}$",
					"maxLength": 14,
				},
			},
		},
	},
}

func validateTurnRequest(data map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(turnRequestSchema)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("invalid turn request: %s", strings.Join(errs, "; "))
	}

	return nil
}
