// Package schema implements the optional, separate layer (§9) that
// enforces an LLM node's declared output schema against the provider's
// parsed response: a strict prompt instruction is the first line of
// defense, this package's post-parse validation is the second.
//
// Adapted from the teacher's pkg/schema: the CSV-row and transform-
// engine concerns (ValidateCSVRows, CSVSchema, the transformer/parser
// pipeline) are dropped — this runtime has no CSV ingestion node — and
// the JSON-Schema-shaped Property/Validator model is kept to validate an
// LLM node's structured output.
package schema

import (
	"encoding/json"
	"strings"

	"github.com/flowforge/flowrun/pkg/flow"
)

// Schema represents a complete schema definition
type Schema struct {
	Type        SchemaType           `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Description string               `json:"description,omitempty"`
}

// Property represents a field property in a schema
type Property struct {
	Type        SchemaType           `json:"type"`
	Required    bool                 `json:"required,omitempty"`
	Default     interface{}          `json:"default,omitempty"`
	Description string               `json:"description,omitempty"`
	Validation  *ValidationRules     `json:"validation,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"` // For OBJECT type
	Items       *Property            `json:"items,omitempty"`      // For ARRAY type
}

// SchemaType represents the data type of a field
type SchemaType string

// Supported schema types
const (
	TypeString   SchemaType = "STRING"
	TypeNumber   SchemaType = "NUMBER"
	TypeBoolean  SchemaType = "BOOLEAN"
	TypeObject   SchemaType = "OBJECT"
	TypeArray    SchemaType = "ARRAY"
	TypeDate     SchemaType = "DATE"
	TypeDateTime SchemaType = "DATETIME"
	TypeByte     SchemaType = "BYTE"
	TypeAny      SchemaType = "ANY"
)

// ValidationRules contains validation rules for a field
type ValidationRules struct {
	// String validations
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Format    string   `json:"format,omitempty"`
	Enum      []string `json:"enum,omitempty"`

	// Number validations
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Array validations
	MinItems    *int `json:"minItems,omitempty"`
	MaxItems    *int `json:"maxItems,omitempty"`
	UniqueItems bool `json:"uniqueItems,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// IsValidType checks if a schema type is valid
func IsValidType(t SchemaType) bool {
	validTypes := map[SchemaType]bool{
		TypeString: true, TypeNumber: true, TypeBoolean: true,
		TypeObject: true, TypeArray: true, TypeDate: true,
		TypeDateTime: true, TypeByte: true, TypeAny: true,
	}
	return validTypes[t]
}

// ToJSON converts a value to JSON bytes
func ToJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// FromJSON parses JSON bytes into a value
func FromJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// FromOutputFields converts an LLM node's declared output map (§6's
// `output` field → `{type, description, items?, structure?}`) into the
// Schema this package validates against.
func FromOutputFields(fields map[string]flow.OutputField) *Schema {
	props := make(map[string]*Property, len(fields))
	for name, f := range fields {
		field := f
		props[name] = propertyFromField(&field)
	}
	return &Schema{Type: TypeObject, Properties: props}
}

func propertyFromField(f *flow.OutputField) *Property {
	if f == nil {
		return &Property{Type: TypeAny}
	}
	p := &Property{Type: schemaTypeFromString(f.Type), Description: f.Description, Required: true}
	if f.Items != nil {
		p.Items = propertyFromField(f.Items)
	}
	if f.Structure != nil {
		p.Properties = make(map[string]*Property, len(f.Structure))
		for name, sf := range f.Structure {
			field := sf
			p.Properties[name] = propertyFromField(&field)
		}
	}
	return p
}

func schemaTypeFromString(t string) SchemaType {
	switch strings.ToLower(t) {
	case "string":
		return TypeString
	case "number", "integer":
		return TypeNumber
	case "boolean":
		return TypeBoolean
	case "array":
		return TypeArray
	case "object":
		return TypeObject
	case "date":
		return TypeDate
	case "datetime":
		return TypeDateTime
	default:
		return TypeAny
	}
}
