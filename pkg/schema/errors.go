package schema

import "fmt"

// SchemaError is the schema package's error type: a human message plus a
// machine-checkable Code, wrapping the underlying cause when there is
// one. ValidationFailedError (an LLM node's post-parse schema check) and
// TransformError (an Update-Variable op's shape check) both build on it,
// so callers can recognize either failure with errors.As without caring
// which of the two produced it.
type SchemaError struct {
	Message string
	Code    string
	Err     error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NewSchemaError builds a SchemaError with an explicit code.
func NewSchemaError(message, code string, err error) *SchemaError {
	return &SchemaError{Message: message, Code: code, Err: err}
}

// ValidationFailedError reports an LLM node's parsed reply failing its
// declared output schema (§9's post-parse validation layer).
func ValidationFailedError(errors []ValidationError) *SchemaError {
	return &SchemaError{
		Message: fmt.Sprintf("output does not match declared schema (%d errors)", len(errors)),
		Code:    "VALIDATION_FAILED",
	}
}

// TransformError reports one of the eleven Update-Variable operations
// (§4.5 — update/join/append/extract/pick/omit/map/filter/slice/flatten/concat)
// failing against its target or payload shape.
func TransformError(operation string, err error) *SchemaError {
	return &SchemaError{
		Message: fmt.Sprintf("update-variable operation %q failed", operation),
		Code:    "TRANSFORM_ERROR",
		Err:     err,
	}
}
