package binderrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrSchema indicates a route contract schema could not be compiled.
	ErrSchema = errors.New("schema error")

	// ErrReference indicates a $ref could not be resolved against the definitions.
	ErrReference = errors.New("reference error")

	// ErrCircularReference indicates a $ref chain revisits a definition.
	ErrCircularReference = errors.New("circular reference")

	// ErrUnknownFormat indicates a schema names a string format with no validator.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// SchemaErrorKind classifies a SchemaError.
type SchemaErrorKind int

const (
	// InvalidSchema covers malformed keyword values (bad type names, invalid
	// patterns, negative bounds, unknown parameter sources).
	InvalidSchema SchemaErrorKind = iota
	// UnresolvedReference means a $ref names a definition that does not exist.
	UnresolvedReference
	// CyclicReference means a $ref chain loops back to a definition that is
	// still being resolved.
	CyclicReference
	// UnknownFormat means the format keyword names no registered validator.
	UnknownFormat
)

// String returns the string representation of the kind.
func (k SchemaErrorKind) String() string {
	switch k {
	case InvalidSchema:
		return "invalid schema"
	case UnresolvedReference:
		return "unresolved reference"
	case CyclicReference:
		return "cyclic reference"
	case UnknownFormat:
		return "unknown format"
	default:
		return "unknown"
	}
}

// SchemaError represents a compile-time failure of a route contract.
// A route whose contract fails to compile must never serve traffic.
type SchemaError struct {
	// Kind classifies the failure
	Kind SchemaErrorKind
	// Path is the dotted location of the offending node (e.g., "properties.seller.$ref")
	Path string
	// Ref is the reference string involved, for reference errors
	Ref string
	// Chain lists the definitions on the resolution stack when a cycle was found
	Chain []string
	// Message provides additional context
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *SchemaError) Error() string {
	msg := "schema error: " + e.Kind.String()
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Ref != "" {
		msg += fmt.Sprintf(" (%s)", e.Ref)
	}
	if len(e.Chain) > 0 {
		msg += fmt.Sprintf(" via %v", e.Chain)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrSchema always, and the kind-specific sentinel for reference and
// format failures.
func (e *SchemaError) Is(target error) bool {
	switch target {
	case ErrSchema:
		return true
	case ErrReference:
		return e.Kind == UnresolvedReference || e.Kind == CyclicReference
	case ErrCircularReference:
		return e.Kind == CyclicReference
	case ErrUnknownFormat:
		return e.Kind == UnknownFormat
	}
	return false
}

// ConfigError represents an invalid configuration or input.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
