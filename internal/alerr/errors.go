// Package alerr provides standardized error handling for eavforge.
// All errors have stable, machine-readable codes, structured context, and proper wrapping.
package alerr

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Code represents a stable, machine-readable error code.
// Format: E{category}{number} where category is 1-9 and number is 001-999.
type Code string

// Error codes organized by category.
const (
	// Definition errors (E1xxx) - problems with model/component payloads
	ErrDefinitionInvalid Code = "E1001" // Definition failed schema validation
	ErrDefinitionParse   Code = "E1002" // Stored definition payload is not valid JSON
	ErrDuplicateSlug     Code = "E1003" // Two definitions share the same slug

	// Validation errors (E2xxx) - individual rule violations
	ErrInvalidSlug    Code = "E2001" // Slug does not match the lowercase-hyphen pattern
	ErrInvalidKey     Code = "E2002" // Field key does not match the lowercase-slug pattern
	ErrReservedKey    Code = "E2003" // Field key collides with a system column
	ErrDuplicateKey   Code = "E2004" // Field key declared twice in the same owner
	ErrInvalidType    Code = "E2005" // Field type is not one of the supported kinds
	ErrInvalidConfig  Code = "E2006" // Type-specific config is missing or malformed
	ErrRequiredValue  Code = "E2007" // A required property is absent or empty
	ErrTypeMismatch   Code = "E2008" // Property has the wrong JSON type
	ErrInvalidSetting Code = "E2009" // Model settings are malformed

	// Configuration errors (E3xxx) - problems with generator configuration
	ErrMissingSource Code = "E3001" // No model source configured
	ErrConfigInvalid Code = "E3002" // Configuration value is invalid
	ErrConfigRead    Code = "E3003" // Configuration file could not be read

	// Source errors (E4xxx) - problems reading definitions
	ErrSQLExecution  Code = "E4001" // SQL statement failed to execute
	ErrSQLConnection Code = "E4002" // Database connection failed
	ErrSourceRead    Code = "E4003" // Definition source could not be read

	// Hook errors (E5xxx) - problems with JS loader/mapper hooks
	ErrJSExecution  Code = "E5001" // JavaScript execution failed
	ErrJSTimeout    Code = "E5002" // JavaScript execution timed out
	ErrMapperFailed Code = "E5003" // A mapper or loader hook failed

	// Compile errors (E6xxx) - problems translating definitions
	ErrUnsupportedType Code = "E6001" // Field type reached the translator unhandled
	ErrUnresolvedRef   Code = "E6002" // Reference to an unknown model or component
	ErrSchemaInvalid   Code = "E6003" // A generated table is malformed

	// Output errors (E7xxx) - problems writing the rendered schema
	ErrWriteOutput Code = "E7001" // Output file could not be written

	// External model errors (E8xxx) - problems loading external schema files
	ErrExternalLoad Code = "E8001" // External schema file could not be loaded

	// Internal errors (E9xxx) - unexpected internal errors
	EInternalError Code = "E9001" // Internal error
)

// Error is the standard error type for eavforge.
// It provides structured error information with codes, context, and wrapping support.
type Error struct {
	code    Code           // Machine-readable error code
	message string         // Human-readable error message
	context map[string]any // Structured context data
	cause   error          // Wrapped underlying error
	stack   string         // Stack trace for debugging
}

// Error returns the formatted error string.
// Format:
//
//	[E2002] field key must be a lowercase slug
//	  model: post
//	  path: fields[1].key
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.code, e.message))

	// Context in sorted order for deterministic output
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n  %s: %v", k, e.context[k]))
		}
	}

	if e.cause != nil {
		b.WriteString(fmt.Sprintf("\n  cause: %v", e.cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error for errors.Unwrap compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether the target error matches this error.
// It matches if target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.code == targetErr.code
	}

	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the error message.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the error context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// GetCause returns the underlying cause error.
func (e *Error) GetCause() error {
	return e.cause
}

// GetStack returns the stack trace.
func (e *Error) GetStack() string {
	return e.stack
}

// With adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithModel adds model slug context to the error.
func (e *Error) WithModel(slug string) *Error {
	return e.With("model", slug)
}

// WithComponent adds component slug context to the error.
func (e *Error) WithComponent(slug string) *Error {
	return e.With("component", slug)
}

// WithField adds field key context to the error.
func (e *Error) WithField(key string) *Error {
	return e.With("field", key)
}

// WithTable adds output table context to the error.
func (e *Error) WithTable(table string) *Error {
	return e.With("table", table)
}

// WithRow adds source row identity to the error.
// Either value may be empty when the row could not be decoded far enough to know it.
func (e *Error) WithRow(id, slug string) *Error {
	if id != "" {
		e.With("row", id)
	}
	if slug != "" {
		e.With("slug", slug)
	}
	return e
}

// WithFile adds file location context to the error.
func (e *Error) WithFile(path string, line int) *Error {
	e.With("file", path)
	if line > 0 {
		e.With("line", line)
	}
	return e
}

// WithLocation adds complete source location context (file, line, column).
func (e *Error) WithLocation(file string, line, col int) *Error {
	e.With("file", file)
	if line > 0 {
		e.With("line", line)
	}
	if col > 0 {
		e.With("column", col)
	}
	return e
}

// WithNote adds a note to the error (displayed as "note: ...").
func (e *Error) WithNote(note string) *Error {
	notes, _ := e.context["notes"].([]string)
	notes = append(notes, note)
	return e.With("notes", notes)
}

// WithHelp adds a help suggestion to the error (displayed as "help: ...").
func (e *Error) WithHelp(help string) *Error {
	helps, _ := e.context["helps"].([]string)
	helps = append(helps, help)
	return e.With("helps", helps)
}

// Location returns the file location if set.
func (e *Error) Location() (file string, line, col int, ok bool) {
	file, _ = e.context["file"].(string)
	line, _ = e.context["line"].(int)
	col, _ = e.context["column"].(int)
	ok = file != ""
	return
}

// Notes returns all notes attached to this error.
func (e *Error) Notes() []string {
	notes, _ := e.context["notes"].([]string)
	return notes
}

// Helps returns all help suggestions attached to this error.
func (e *Error) Helps() []string {
	helps, _ := e.context["helps"].([]string)
	return helps
}

// captureStack captures a stack trace for debugging.
func captureStack(skip int) string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") {
			if !more {
				break
			}
			continue
		}
		b.WriteString(fmt.Sprintf("%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return b.String()
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		stack:   captureStack(3),
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
		context: make(map[string]any),
		stack:   captureStack(3),
	}
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return New(code, msg)
	}
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		cause:   err,
		stack:   captureStack(3),
	}
}

// Wrapf creates a new Error that wraps an existing error with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

// GetErrorCode extracts the error code from an error chain.
// Returns empty string if no code is found.
func GetErrorCode(err error) Code {
	if err == nil {
		return ""
	}

	var alerr *Error
	if errors.As(err, &alerr) {
		return alerr.code
	}

	return ""
}

// Is checks if an error has the specified code.
func Is(err error, code Code) bool {
	return GetErrorCode(err) == code
}

// HasCode checks if an error has any error code.
func HasCode(err error) bool {
	return GetErrorCode(err) != ""
}

// WrapSQL creates an ErrSQLExecution error with table context.
// Example: WrapSQL(err, "read definitions", "cms_models")
func WrapSQL(err error, op string, table string) *Error {
	e := Wrap(ErrSQLExecution, err, "failed to "+op)
	if table != "" {
		e.WithTable(table)
	}
	return e
}
