// Package errs provides the unified error type used across the schema
// pipeline.
//
// Every stage (parsers, normalizer, validator, emitters, storage) wraps its
// failures into *errs.Error before returning them to callers. Callers use the
// Is* predicates to route errors without importing stage-specific packages.
//
// Usage:
//
//	// In a parser, fail with a located syntax error:
//	return errs.Parse("unterminated string literal", errs.At(line, col))
//
//	// In a handler, check error kind:
//	if errs.IsParse(err) {
//	    http.Error(w, err.Error(), http.StatusBadRequest)
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind categorises a pipeline error. Stages map their internal failures to
// one of these kinds, giving callers a single consistent API.
type Kind int

const (
	KindUnknown       Kind = iota
	KindParse              // malformed input the parser cannot structure
	KindSizeLimit          // input exceeds the configured size or row cap
	KindMergeConflict      // irreconcilable duplicate definitions
	KindValidation         // structural or dialect rule violation blocking export
	KindUnsupported        // recognized construct with no canonical or dialect representation
	KindInvalidInput       // bad arguments from the caller
	KindStorage            // artifact store operation failure
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse_error"
	case KindSizeLimit:
		return "size_limit_exceeded"
	case KindMergeConflict:
		return "merge_conflict"
	case KindValidation:
		return "validation_error"
	case KindUnsupported:
		return "unsupported_feature"
	case KindInvalidInput:
		return "invalid_input"
	case KindStorage:
		return "storage_failed"
	default:
		return "unknown"
	}
}

// Location pinpoints where in the raw input an error occurred.
// Line and Column are 1-based; a zero Location means "not determinable".
type Location struct {
	Line   int
	Column int
}

// At builds a Location.
func At(line, column int) Location {
	return Location{Line: line, Column: column}
}

func (l Location) known() bool { return l.Line > 0 }

// Error is the single error type returned by all pipeline stages.
type Error struct {
	Kind     Kind
	Message  string
	Location Location // zero value when the position is unknown
	Cause    error    // original underlying error, preserved for logging
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Location.known() {
		msg = fmt.Sprintf("%s at line %d, column %d", msg, e.Location.Line, e.Location.Column)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Parse creates a located parse error.
func Parse(msg string, loc Location) *Error {
	return &Error{Kind: KindParse, Message: msg, Location: loc}
}

// SizeLimit creates a size-cap error for the named limit.
func SizeLimit(limit string, max int) *Error {
	return Newf(KindSizeLimit, "input exceeds %s limit of %d", limit, max)
}

// --- Predicates ---

// IsParse reports whether err is a syntax or structure failure in raw input.
func IsParse(err error) bool { return kindOf(err) == KindParse }

// IsSizeLimit reports whether err was caused by an input exceeding its cap.
func IsSizeLimit(err error) bool { return kindOf(err) == KindSizeLimit }

// IsMergeConflict reports whether err signals irreconcilable duplicates.
func IsMergeConflict(err error) bool { return kindOf(err) == KindMergeConflict }

// IsValidation reports whether err is a blocking rule violation.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsUnsupported reports whether err signals an unrepresentable construct.
func IsUnsupported(err error) bool { return kindOf(err) == KindUnsupported }

// IsInvalidInput reports whether err was caused by bad caller arguments.
func IsInvalidInput(err error) bool { return kindOf(err) == KindInvalidInput }

// IsStorage reports whether err is an artifact store failure.
func IsStorage(err error) bool { return kindOf(err) == KindStorage }

// kindOf extracts the Kind from any error in the chain.
func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
