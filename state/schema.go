package state

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema constrains the snapshot envelope only. Component payloads
// are intentionally unconstrained here.
const envelopeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["type", "version"],
	"properties": {
		"type": {"type": "string", "minLength": 1},
		"version": {"type": "string", "pattern": "^[0-9]+\\.[0-9]+\\.[0-9]+$"}
	}
}`

var envelopeLoader = gojsonschema.NewStringLoader(envelopeSchema)

// Validate checks that the snapshot is a JSON object carrying a well-formed
// envelope. It does not interpret the component payload.
func Validate(snapshot Snapshot) error {
	if len(snapshot) == 0 {
		return fmt.Errorf("%w: empty snapshot", ErrMalformedSnapshot)
	}

	result, err := gojsonschema.Validate(envelopeLoader, gojsonschema.NewBytesLoader([]byte(snapshot)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrMalformedSnapshot, strings.Join(issues, "; "))
	}

	return nil
}
