// Package parser turns raw schema descriptions, SQL DDL, ORM source code,
// tabular data, and natural-language text, into partial canonical models.
//
// Each parser implements the same contract and is selected by input type via
// ForInput. Parsers annotate every extracted fact with provenance and never
// panic on malformed input: unrecoverable syntax problems come back as a
// located *errs.Error, everything recoverable as diagnostics.
package parser

import (
	"context"
	"strings"

	"github.com/schemasmith/schemasmith/internal/errs"
	"github.com/schemasmith/schemasmith/internal/model"
)

// InputType tags the kind of raw input. The set is closed, adding an input
// kind means adding a variant here and a parser for it.
type InputType string

const (
	InputSQL             InputType = "sql"
	InputORMCode         InputType = "orm"
	InputCSV             InputType = "csv"
	InputJSON            InputType = "json"
	InputNaturalLanguage InputType = "text"
)

// ParseInputType maps user-supplied type names (including aliases accepted by
// the HTTP API) to an InputType.
func ParseInputType(s string) (InputType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sql", "ddl":
		return InputSQL, true
	case "orm", "ormcode", "python", "sqlalchemy":
		return InputORMCode, true
	case "csv":
		return InputCSV, true
	case "json":
		return InputJSON, true
	case "text", "nl", "natural", "naturallanguage":
		return InputNaturalLanguage, true
	default:
		return "", false
	}
}

// Default input bounds. Oversized inputs fail fast rather than hang.
const (
	DefaultSampleLimit   = 1000
	DefaultMaxInputBytes = 4 << 20
)

// Hints carries optional per-source parsing parameters.
type Hints struct {
	// SourceID identifies the input source in provenance records.
	SourceID string

	// SourceName seeds the table name for single-table inputs (CSV/JSON
	// rows), typically the uploaded file name.
	SourceName string

	// SampleLimit caps how many data rows the tabular parser examines for
	// type inference. 0 means DefaultSampleLimit.
	SampleLimit int

	// MaxInputBytes caps the raw input size. 0 means DefaultMaxInputBytes.
	MaxInputBytes int
}

func (h Hints) sampleLimit() int {
	if h.SampleLimit > 0 {
		return h.SampleLimit
	}
	return DefaultSampleLimit
}

func (h Hints) maxInputBytes() int {
	if h.MaxInputBytes > 0 {
		return h.MaxInputBytes
	}
	return DefaultMaxInputBytes
}

// Parser is the contract every source parser implements. The returned
// fragment is partial by design, normalization and enrichment complete it.
type Parser interface {
	Parse(ctx context.Context, input string, hints Hints) (*model.Fragment, []model.Diagnostic, error)
}

// ForInput returns the parser for the given input type.
func ForInput(t InputType) (Parser, error) {
	switch t {
	case InputSQL:
		return &SQLParser{}, nil
	case InputORMCode:
		return &ORMParser{}, nil
	case InputCSV:
		return &TabularParser{Format: FormatCSV}, nil
	case InputJSON:
		return &TabularParser{Format: FormatJSON}, nil
	case InputNaturalLanguage:
		return &TextParser{}, nil
	default:
		return nil, errs.Newf(errs.KindInvalidInput, "unknown input type %q", t)
	}
}

// checkSize enforces the raw-input byte cap shared by all parsers.
func checkSize(input string, hints Hints) error {
	if len(input) > hints.maxInputBytes() {
		return errs.SizeLimit("input size", hints.maxInputBytes())
	}
	return nil
}

// cleanIdentifier strips SQL-style quoting from an identifier.
func cleanIdentifier(s string) string {
	return strings.Trim(strings.TrimSpace(s), "`'\"[]")
}

// normalizeName turns an arbitrary header or label into a safe identifier:
// trimmed, quotes stripped, separators collapsed to underscores, and a
// leading underscore added when the name would start with a digit.
func normalizeName(raw string) string {
	name := strings.Trim(strings.TrimSpace(raw), "'\"`")
	if name == "" {
		return "unnamed_column"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '/':
			b.WriteByte('_')
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	name = b.String()

	// Collapse runs of underscores left by the replacements.
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' })
	name = strings.Join(parts, "_")

	if name == "" {
		return "unnamed_column"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
