package model

import "fmt"

// Severity ranks a diagnostic. Consumers treat Error as blocking and the
// other two as advisory.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeveritySuggestion
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeveritySuggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}

// Diagnostic codes. Stable strings; clients key UI behaviour off them.
const (
	CodeDuplicateTable    = "duplicate-table"
	CodeDuplicateColumn   = "duplicate-column"
	CodeMergeConflict     = "merge-conflict"
	CodeAmbiguousMerge    = "ambiguous-merge"
	CodeUnknownStatement  = "unknown-statement"
	CodeUnknownType       = "unknown-type"
	CodeLowConfidence     = "low-confidence"
	CodeReviewRequired    = "review-required"
	CodeMissingPrimaryKey = "missing-primary-key"
	CodeFKTargetMissing   = "fk-target-missing"
	CodeFKColumnMissing   = "fk-column-missing"
	CodeFKArity           = "fk-arity"
	CodeFKTargetNotUnique = "fk-target-not-unique"
	CodeFKTypeMismatch    = "fk-type-mismatch"
	CodeFKSelfReference   = "fk-self-reference"
	CodeIdentifierLength  = "identifier-too-long"
	CodeIdentifierChars   = "identifier-invalid-chars"
	CodeReservedWord      = "reserved-word"
	CodeTypeUnmappable    = "type-unmappable"
	CodeInferredKey       = "inferred-key"
	CodeInferredRelation  = "inferred-relation"
	CodeUnsupported       = "unsupported-construct"
	CodeSourceFailed      = "source-failed"
)

// Location points a diagnostic at a table and optionally a column within it.
// Either field may be empty when the problem is schema-wide.
type Location struct {
	Table  string
	Column string
}

func (l Location) String() string {
	switch {
	case l.Table == "":
		return "schema"
	case l.Column == "":
		return l.Table
	default:
		return l.Table + "." + l.Column
	}
}

// Diagnostic is a single finding produced by a pipeline stage. Diagnostics
// accumulate across stages in order of discovery.
type Diagnostic struct {
	Severity Severity
	Location Location
	Code     string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Code, d.Location, d.Message)
}

// Errorf builds an Error-severity diagnostic.
func Errorf(loc Location, code, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Location: loc, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a Warning-severity diagnostic.
func Warnf(loc Location, code, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Location: loc, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Suggestf builds a Suggestion-severity diagnostic.
func Suggestf(loc Location, code, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeveritySuggestion, Location: loc, Code: code, Message: fmt.Sprintf(format, args...)}
}

// HasErrors reports whether any diagnostic in the list is Error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
