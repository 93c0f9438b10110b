package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowrun/pkg/flow"
)

func TestFromOutputFieldsBuildsObjectSchema(t *testing.T) {
	s := FromOutputFields(map[string]flow.OutputField{
		"summary": {Type: "string", Description: "a summary"},
		"tags":    {Type: "array", Items: &flow.OutputField{Type: "string"}},
	})
	require.Equal(t, TypeObject, s.Type)
	require.Contains(t, s.Properties, "summary")
	assert.Equal(t, TypeString, s.Properties["summary"].Type)
	assert.True(t, s.Properties["summary"].Required)
	require.NotNil(t, s.Properties["tags"].Items)
	assert.Equal(t, TypeString, s.Properties["tags"].Items.Type)
}

func TestValidateRequiredFieldMissing(t *testing.T) {
	v := NewValidator()
	s := FromOutputFields(map[string]flow.OutputField{"answer": {Type: "string"}})

	result := v.Validate(map[string]interface{}{}, s)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "REQUIRED", result.Errors[0].Code)
}

func TestValidateTypeMismatch(t *testing.T) {
	v := NewValidator()
	s := FromOutputFields(map[string]flow.OutputField{"count": {Type: "number"}})

	result := v.Validate(map[string]interface{}{"count": "not a number"}, s)
	assert.False(t, result.Valid)
	assert.Equal(t, "TYPE_MISMATCH", result.Errors[0].Code)
}

func TestValidateNestedObjectAndArray(t *testing.T) {
	v := NewValidator()
	s := FromOutputFields(map[string]flow.OutputField{
		"result": {Type: "object", Structure: map[string]flow.OutputField{
			"items": {Type: "array", Items: &flow.OutputField{Type: "number"}},
		}},
	})

	valid := map[string]interface{}{
		"result": map[string]interface{}{
			"items": []interface{}{float64(1), float64(2)},
		},
	}
	result := v.Validate(valid, s)
	assert.True(t, result.Valid, "%v", result.Errors)

	invalid := map[string]interface{}{
		"result": map[string]interface{}{
			"items": []interface{}{"not a number"},
		},
	}
	result = v.Validate(invalid, s)
	assert.False(t, result.Valid)
}

func TestValidationRulesMinMaxAndEnum(t *testing.T) {
	v := NewValidator()
	minLen, maxLen := 2, 5
	prop := &Property{Type: TypeString, Validation: &ValidationRules{
		MinLength: &minLen, MaxLength: &maxLen, Enum: []string{"a", "bb", "ccc"},
	}}
	schema := &Schema{Type: TypeObject, Properties: map[string]*Property{"x": prop}}

	result := v.Validate(map[string]interface{}{"x": "bb"}, schema)
	assert.True(t, result.Valid)

	result = v.Validate(map[string]interface{}{"x": "zz"}, schema)
	assert.False(t, result.Valid)
	assert.Equal(t, "ENUM_MISMATCH", result.Errors[0].Code)
}

func TestValidateNumberMinMax(t *testing.T) {
	v := NewValidator()
	min, max := 0.0, 10.0
	prop := &Property{Type: TypeNumber, Validation: &ValidationRules{Minimum: &min, Maximum: &max}}
	schema := &Schema{Type: TypeObject, Properties: map[string]*Property{"n": prop}}

	assert.True(t, v.Validate(map[string]interface{}{"n": float64(5)}, schema).Valid)
	assert.False(t, v.Validate(map[string]interface{}{"n": float64(11)}, schema).Valid)
}

func TestValidateFormatEmailAndUUID(t *testing.T) {
	v := NewValidator()
	schema := &Schema{Type: TypeObject, Properties: map[string]*Property{
		"email": {Type: TypeString, Validation: &ValidationRules{Format: "email"}},
	}}

	assert.True(t, v.Validate(map[string]interface{}{"email": "a@b.com"}, schema).Valid)
	assert.False(t, v.Validate(map[string]interface{}{"email": "not-an-email"}, schema).Valid)

	idSchema := &Schema{Type: TypeObject, Properties: map[string]*Property{
		"id": {Type: TypeString, Validation: &ValidationRules{Format: "uuid"}},
	}}
	assert.True(t, v.Validate(map[string]interface{}{"id": "123e4567-e89b-12d3-a456-426614174000"}, idSchema).Valid)
	assert.False(t, v.Validate(map[string]interface{}{"id": "not-a-uuid"}, idSchema).Valid)
}

func TestValidateArrayUniqueItems(t *testing.T) {
	v := NewValidator()
	prop := &Property{Type: TypeArray, Validation: &ValidationRules{UniqueItems: true}}
	schema := &Schema{Type: TypeObject, Properties: map[string]*Property{"a": prop}}

	result := v.Validate(map[string]interface{}{"a": []interface{}{"x", "x"}}, schema)
	assert.False(t, result.Valid)
	assert.Equal(t, "DUPLICATE_ITEM", result.Errors[0].Code)
}

func TestIsValidType(t *testing.T) {
	assert.True(t, IsValidType(TypeString))
	assert.False(t, IsValidType(SchemaType("nonsense")))
}
