// Package errors provides the error taxonomy for round-trip runs.
//
// Every failure that can abort a batch carries a Kind tag and its original
// cause, so callers classify errors with KindOf instead of type switches.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure.
type Kind int

const (
	// KindUnknown is any error not produced by this package.
	KindUnknown Kind = iota
	// KindPatternNotFound means an input pattern matched no files.
	KindPatternNotFound
	// KindBackConversion means converting a unit back to its native format failed.
	KindBackConversion
	// KindEvaluation means scoring a converted unit failed.
	KindEvaluation
	// KindIO is a read or write failure.
	KindIO
	// KindParse means native input could not be parsed.
	KindParse
	// KindValidation is invalid user input or an invalid structure.
	KindValidation
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindPatternNotFound: "pattern-not-found",
	KindBackConversion:  "back-conversion",
	KindEvaluation:      "evaluation",
	KindIO:              "io",
	KindParse:           "parse",
	KindValidation:      "validation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinel errors for common cases
var (
	// ErrNotFound indicates nothing matched
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
)

// kinded is implemented by every typed error in this package.
type kinded interface {
	Kind() Kind
}

// KindOf returns the Kind of the outermost typed error in err's chain.
func KindOf(err error) Kind {
	for err != nil {
		if k, ok := err.(kinded); ok {
			return k.Kind()
		}
		err = errors.Unwrap(err)
	}
	return KindUnknown
}

// PatternNotFoundError reports an input pattern that expanded to nothing.
type PatternNotFoundError struct {
	Pattern string // Raw pattern as supplied by the user
	Err     error  // Underlying error, if any (e.g. a malformed pattern)
}

func (e *PatternNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("not found: %s: %v", e.Pattern, e.Err)
	}
	return "not found: " + e.Pattern
}

func (e *PatternNotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// Kind returns KindPatternNotFound.
func (e *PatternNotFoundError) Kind() Kind { return KindPatternNotFound }

// BackConversionError wraps a failure of a backward converter.
type BackConversionError struct {
	File   string // Input file the unit came from
	Format string // Format identifier of the file
	Err    error  // Error raised by the converter
}

func (e *BackConversionError) Error() string {
	return fmt.Sprintf("error converting %s back from %s: %v", e.File, e.Format, e.Err)
}

func (e *BackConversionError) Unwrap() error { return e.Err }

// Kind returns KindBackConversion.
func (e *BackConversionError) Kind() Kind { return KindBackConversion }

// EvaluationError wraps a failure of an evaluator.
type EvaluationError struct {
	File string // Input file the unit came from
	Err  error  // Error raised by the evaluator
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("error evaluating conversion of %s: %v", e.File, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Kind returns KindEvaluation.
func (e *EvaluationError) Kind() Kind { return KindEvaluation }

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Kind returns KindIO.
func (e *IOError) Kind() Kind { return KindIO }

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "amr", "conllu", "xml")
	Path    string // File path or unit id, if applicable
	Line    int    // 1-based line number, 0 if unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if loc != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, loc, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Kind returns KindParse.
func (e *ParseError) Kind() Kind { return KindParse }

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Kind returns KindValidation.
func (e *ValidationError) Kind() Kind { return KindValidation }

// NewPatternNotFound creates a PatternNotFoundError
func NewPatternNotFound(pattern string) *PatternNotFoundError {
	return &PatternNotFoundError{Pattern: pattern}
}

// NewBackConversion creates a BackConversionError
func NewBackConversion(file, format string, err error) *BackConversionError {
	return &BackConversionError{File: file, Format: format, Err: err}
}

// NewEvaluation creates an EvaluationError
func NewEvaluation(file string, err error) *EvaluationError {
	return &EvaluationError{File: file, Err: err}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path string, line int, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Line:    line,
		Message: message,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
