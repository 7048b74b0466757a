package engine

import (
	"errors"
	"fmt"
)

// Kind identifies one of the closed set of failure kinds.
type Kind int

const (
	// KindParse indicates the source could not be parsed.
	KindParse Kind = iota + 1

	// KindEvaluation indicates the source parsed but failed to evaluate.
	// Examples: conflicting values, undefined references, type mismatches.
	KindEvaluation

	// KindSerialization indicates the evaluated value could not be rendered.
	KindSerialization

	// KindIO indicates a file could not be read.
	KindIO

	// KindInvalidInput indicates malformed command-line input.
	KindInvalidInput

	// KindInternal indicates a defect in bunsenite or one of its engines.
	KindInternal
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindEvaluation:
		return "evaluation"
	case KindSerialization:
		return "serialization"
	case KindIO:
		return "io"
	case KindInvalidInput:
		return "invalid_input"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Recoverable reports whether the user can resolve a failure of this kind by
// changing their input.
func (k Kind) Recoverable() bool {
	switch k {
	case KindParse, KindEvaluation, KindInvalidInput:
		return true
	default:
		return false
	}
}

// Suggestion returns the remediation hint shown to the operator for this kind.
func (k Kind) Suggestion() (string, bool) {
	switch k {
	case KindParse:
		return "Check your configuration syntax. Run 'bunsenite validate <FILE>' for detailed diagnostics.", true
	case KindEvaluation:
		return "Ensure all fields and variables are defined and types match.", true
	case KindSerialization:
		return "Ensure the configuration program produces valid JSON-serializable values.", true
	case KindIO:
		return "Check file permissions and path.", true
	case KindInvalidInput:
		return "Check the input format and try again.", true
	case KindInternal:
		return "This is a bug, not a problem with your input. Please report it at: " + IssueTrackerURL, true
	default:
		return "", false
	}
}

// IssueTrackerURL is where internal errors should be reported.
const IssueTrackerURL = "https://github.com/bunsenite/bunsenite/issues"

// Error is the closed set of failures produced by loaders, the formatter and
// the router. Only the types in this package implement it.
type Error interface {
	error
	Kind() Kind
	sealed()
}

// ParseError reports source that could not be parsed.
type ParseError struct {
	// File is the name of the file that failed to parse.
	File string

	// Message is the diagnostic from the parser.
	Message string
}

// EvaluationError reports a program that parsed but failed to evaluate.
type EvaluationError struct {
	// File is the name of the file that failed to evaluate.
	File string

	// Message is the diagnostic from the evaluator.
	Message string
}

// SerializationError reports an evaluated value that cannot be rendered.
type SerializationError struct {
	Message string
}

// IOError wraps a failed file operation.
type IOError struct {
	Err error
}

// InvalidInputError reports malformed command-line input.
type InvalidInputError struct {
	Message string
}

// InternalError reports a broken contract inside bunsenite or an engine.
type InternalError struct {
	Message string
}

// NewParseError creates a new parse error.
func NewParseError(file, message string) *ParseError {
	return &ParseError{File: file, Message: message}
}

// NewEvaluationError creates a new evaluation error.
func NewEvaluationError(file, message string) *EvaluationError {
	return &EvaluationError{File: file, Message: message}
}

// NewSerializationError creates a new serialization error.
func NewSerializationError(message string) *SerializationError {
	return &SerializationError{Message: message}
}

// NewIOError wraps err as an I/O error.
func NewIOError(err error) *IOError {
	return &IOError{Err: err}
}

// NewInvalidInputError creates a new invalid input error.
func NewInvalidInputError(message string) *InvalidInputError {
	return &InvalidInputError{Message: message}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string) *InternalError {
	return &InternalError{Message: message}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("Failed to parse configuration file '%s': %s", e.File, e.Message)
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("Failed to evaluate configuration program '%s': %s", e.File, e.Message)
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	return "Failed to serialize result: " + e.Message
}

// Error implements the error interface.
func (e *IOError) Error() string {
	msg := "<nil>"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return "File I/O error: " + msg
}

// Unwrap returns the underlying I/O error for errors.Is checks such as fs.ErrNotExist.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	return "Invalid input: " + e.Message
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return "Internal error: " + e.Message
}

func (*ParseError) Kind() Kind         { return KindParse }
func (*EvaluationError) Kind() Kind    { return KindEvaluation }
func (*SerializationError) Kind() Kind { return KindSerialization }
func (*IOError) Kind() Kind            { return KindIO }
func (*InvalidInputError) Kind() Kind  { return KindInvalidInput }
func (*InternalError) Kind() Kind      { return KindInternal }

func (*ParseError) sealed()         {}
func (*EvaluationError) sealed()    {}
func (*SerializationError) sealed() {}
func (*IOError) sealed()            {}
func (*InvalidInputError) sealed()  {}
func (*InternalError) sealed()      {}

// KindOf returns the kind of the first Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e Error
	if errors.As(err, &e) {
		return e.Kind(), true
	}
	return 0, false
}

// IsRecoverable returns true if err is a failure the user can fix by changing
// their input. Errors outside the taxonomy are treated as not recoverable.
func IsRecoverable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind.Recoverable()
}

// Suggestion returns the remediation hint for err, if any.
func Suggestion(err error) (string, bool) {
	kind, ok := KindOf(err)
	if !ok {
		return "", false
	}
	return kind.Suggestion()
}

// AsError returns err as a taxonomy Error. Foreign errors are classified as
// internal since every collaborator is expected to return one of the kinds.
func AsError(err error) Error {
	if err == nil {
		return nil
	}
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return NewInternalError(err.Error())
}
