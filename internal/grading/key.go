package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedAnswerKey indicates a question's answer key cannot be parsed
// according to its declared type. It signals a data-authoring bug upstream and
// is never silently downgraded to an incorrect verdict.
var ErrMalformedAnswerKey = errors.New("malformed answer key")

// ComponentKind identifies the flavour of one mixed-question component.
type ComponentKind string

const (
	// ComponentChoice is a multiple-choice component graded by letter set.
	ComponentChoice ComponentKind = "choice"
	// ComponentText is a free-text component checked for completeness only.
	ComponentText ComponentKind = "text"
)

// KeyComponent describes one slot of a mixed question's answer key.
type KeyComponent struct {
	Kind     ComponentKind `json:"kind"`
	Letters  string        `json:"letters,omitempty"`
	Expected string        `json:"expected,omitempty"`
}

const mixedKeySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["kind"],
    "additionalProperties": false,
    "properties": {
      "kind": {"enum": ["choice", "text"]},
      "letters": {"type": "string", "minLength": 1},
      "expected": {"type": "string"}
    },
    "if": {"properties": {"kind": {"const": "choice"}}},
    "then": {"required": ["letters"]}
  }
}`

var (
	mixedSchemaOnce sync.Once
	mixedSchema     *jsonschema.Schema
	mixedSchemaErr  error
)

func compiledMixedSchema() (*jsonschema.Schema, error) {
	mixedSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("mixed_key.json", strings.NewReader(mixedKeySchema)); err != nil {
			mixedSchemaErr = err
			return
		}
		mixedSchema, mixedSchemaErr = compiler.Compile("mixed_key.json")
	})

	return mixedSchema, mixedSchemaErr
}

// ParseMixedKey decodes and validates the JSON component descriptors of a
// mixed question's answer key.
func ParseMixedKey(doc []byte) ([]KeyComponent, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, fmt.Errorf("%w: mixed key document is empty", ErrMalformedAnswerKey)
	}

	schema, err := compiledMixedSchema()
	if err != nil {
		return nil, fmt.Errorf("compile mixed key schema: %w", err)
	}

	var raw interface{}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswerKey, err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswerKey, err)
	}

	var components []KeyComponent
	if err := json.Unmarshal(doc, &components); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswerKey, err)
	}

	return components, nil
}
