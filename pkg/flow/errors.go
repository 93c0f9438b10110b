package flow

import "fmt"

// Code is the closed error taxonomy surfaced by the validator verbatim and
// by the executor wrapped with contextual path/message, per the error
// handling design: Shape, Uniqueness, Reference, Graph, Provider, Type and
// Runtime classes, expressed as the validator's stable string codes.
type Code string

const (
	CodeInvalidFormat        Code = "invalid-format"
	CodeInvalidType          Code = "invalid-type"
	CodeMissingRequiredField Code = "missing-required-field"
	CodeInvalidNodeType      Code = "invalid-node-type"
	CodeDuplicateNodeID      Code = "duplicate-node-id"
	CodeDuplicateVariableID  Code = "duplicate-variable-id"
	CodeInvalidVariableRef   Code = "invalid-variable-reference"
	CodeCircularDependency   Code = "circular-dependency"
	CodeMissingDependency    Code = "missing-dependency"
	CodeMissingProviderConfig Code = "missing-provider-config"
	CodeInvalidValue         Code = "invalid-value"
	CodeRuntime              Code = "runtime-error"
)

// Class groups codes into the taxonomy named in the error handling design.
type Class string

const (
	ClassShape      Class = "shape"
	ClassUniqueness Class = "uniqueness"
	ClassReference  Class = "reference"
	ClassGraph      Class = "graph"
	ClassProvider   Class = "provider"
	ClassType       Class = "type"
	ClassRuntime    Class = "runtime"
)

var classByCode = map[Code]Class{
	CodeInvalidFormat:        ClassShape,
	CodeInvalidType:          ClassShape,
	CodeMissingRequiredField: ClassShape,
	CodeInvalidNodeType:      ClassShape,
	CodeDuplicateNodeID:      ClassUniqueness,
	CodeDuplicateVariableID:  ClassUniqueness,
	CodeInvalidVariableRef:   ClassReference,
	CodeCircularDependency:   ClassGraph,
	CodeMissingDependency:    ClassGraph,
	CodeMissingProviderConfig: ClassProvider,
	CodeInvalidValue:         ClassType,
	CodeRuntime:              ClassRuntime,
}

// Error is the typed error surfaced across validation and execution. Path
// identifies the offending node or variable id; Cause wraps the underlying
// error when one exists.
type Error struct {
	Code    Code
	Class   Class
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Path != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a typed Error, deriving its Class from Code.
func NewError(code Code, path, message string, cause error) *Error {
	return &Error{Code: code, Class: classByCode[code], Path: path, Message: message, Cause: cause}
}

// RuntimeError wraps an execution-time failure (provider call, external
// collaborator, invariant violation) with the offending node id.
func RuntimeError(nodeID, message string, cause error) *Error {
	return NewError(CodeRuntime, nodeID, message, cause)
}
