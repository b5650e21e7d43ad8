package parser

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/schemasmith/schemasmith/internal/errs"
	"github.com/schemasmith/schemasmith/internal/model"
)

// TabularFormat selects the wire format the TabularParser reads.
type TabularFormat int

const (
	FormatCSV TabularFormat = iota
	FormatJSON
)

// TabularParser infers a single-table schema from row data. Types are chosen
// by sampling up to Hints.SampleLimit rows and selecting the most specific
// generic type that accommodates every non-null sample.
//
// JSON input may also be a whole canonical schema document, in which case it
// is imported structurally with no inference.
type TabularParser struct {
	Format TabularFormat
}

// Parse implements the Parser contract for CSV and JSON input.
func (p *TabularParser) Parse(ctx context.Context, input string, hints Hints) (*model.Fragment, []model.Diagnostic, error) {
	if err := checkSize(input, hints); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if p.Format == FormatJSON {
		return parseJSONInput(input, hints)
	}
	return parseCSVInput(input, hints)
}

func tableNameFromHints(hints Hints, fallback string) string {
	if hints.SourceName == "" {
		return fallback
	}
	name := hints.SourceName
	// Strip a file extension if the source name looks like a filename.
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return normalizeName(name)
}

// --- CSV ---

func parseCSVInput(input string, hints Hints) (*model.Fragment, []model.Diagnostic, error) {
	frag := &model.Fragment{SourceID: hints.SourceID}
	if strings.TrimSpace(input) == "" {
		return frag, nil, nil
	}

	reader := csv.NewReader(strings.NewReader(input))
	reader.FieldsPerRecord = -1 // rows may be ragged; extra cells are ignored
	if d := detectDelimiter(input); d != 0 {
		reader.Comma = d
	}

	var rows [][]string
	limit := hints.sampleLimit()
	for len(rows) <= limit { // header + up to limit data rows
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if pe, ok := err.(*csv.ParseError); ok {
				return nil, nil, errs.Parse(fmt.Sprintf("malformed CSV: %v", pe.Err), errs.At(pe.Line, pe.Column))
			}
			return nil, nil, errs.Wrap(errs.KindParse, "malformed CSV", err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return frag, nil, nil
	}

	header := rows[0]
	dataRows := rows[1:]
	hasHeader := looksLikeHeader(header)

	var colNames []string
	if hasHeader {
		colNames = dedupeNames(header)
	} else {
		// Headerless input: synthesize names and treat every row as data.
		dataRows = rows
		colNames = make([]string, len(header))
		for i := range header {
			colNames[i] = fmt.Sprintf("column_%d", i+1)
		}
	}

	var diags []model.Diagnostic
	tableName := tableNameFromHints(hints, "imported_table")
	table := model.Table{Name: tableName}

	for i, name := range colNames {
		var values []string
		for _, row := range dataRows {
			if i < len(row) {
				values = append(values, row[i])
			}
		}
		typ, confidence, nullable := inferColumnType(values)
		table.Columns = append(table.Columns, model.Column{
			Name:       name,
			Type:       typ,
			Nullable:   nullable,
			Provenance: model.Provenance{SourceID: hints.SourceID, Confidence: confidence},
		})
		if confidence < 50 {
			diags = append(diags, model.Suggestf(model.Location{Table: tableName, Column: name},
				model.CodeReviewRequired,
				"inferred type %s with low confidence (%d%%), review recommended",
				model.TypeString(typ), confidence))
		}
	}

	frag.Tables = append(frag.Tables, table)
	return frag, diags, nil
}

// detectDelimiter picks the most frequent candidate separator in the first
// line. Returns 0 to keep the reader default (comma).
func detectDelimiter(input string) rune {
	line := input
	if i := strings.IndexByte(input, '\n'); i >= 0 {
		line = input[:i]
	}
	best, bestCount := rune(0), 0
	for _, cand := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

// looksLikeHeader reports whether the first row reads as column labels
// rather than data: no cell may parse as a number, a date, or the literal
// words true/false. Short boolean spellings (y, n, t, f, on, off) still
// count as labels.
func looksLikeHeader(row []string) bool {
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if lower := strings.ToLower(cell); lower == "true" || lower == "false" {
			return false
		}
		if fitsKind(model.KindDecimal, cell) || fitsKind(model.KindDate, cell) ||
			fitsKind(model.KindDateTime, cell) {
			return false
		}
	}
	return true
}

// dedupeNames cleans header labels and suffixes duplicates (_2, _3, …).
func dedupeNames(header []string) []string {
	names := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		name := normalizeName(h)
		key := strings.ToLower(name)
		if n, dup := seen[key]; dup {
			seen[key] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[key] = 1
		}
		names[i] = name
	}
	return names
}

// typeOrder is the specificity ladder for sampled inference: the column gets
// the first kind that accommodates every non-null sample.
var typeOrder = []model.TypeKind{
	model.KindBoolean,
	model.KindInteger,
	model.KindBigInteger,
	model.KindDecimal,
	model.KindDate,
	model.KindDateTime,
	model.KindText,
}

// inferColumnType picks the most specific kind that fits all non-null
// samples and reports a 0–100 confidence: the share of samples whose own
// minimal kind equals the chosen one. Empty cells mark the column nullable.
func inferColumnType(values []string) (model.GenericType, int, bool) {
	var samples []string
	nullable := false
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			nullable = true
			continue
		}
		samples = append(samples, strings.TrimSpace(v))
	}
	if len(samples) == 0 {
		return model.Text(0), 0, true
	}

	chosen := model.KindText
	for _, kind := range typeOrder {
		all := true
		for _, s := range samples {
			if !fitsKind(kind, s) {
				all = false
				break
			}
		}
		if all {
			chosen = kind
			break
		}
	}

	consistent := 0
	for _, s := range samples {
		if minimalKind(s) == chosen {
			consistent++
		}
	}
	confidence := consistent * 100 / len(samples)

	switch chosen {
	case model.KindText:
		maxLen := 0
		for _, s := range samples {
			if len(s) > maxLen {
				maxLen = len(s)
			}
		}
		if maxLen <= 255 {
			return model.Text(255), confidence, nullable
		}
		return model.Text(0), confidence, nullable
	case model.KindDecimal:
		return model.Decimal(10, 2), confidence, nullable
	default:
		return model.GenericType{Kind: chosen}, confidence, nullable
	}
}

func minimalKind(s string) model.TypeKind {
	for _, kind := range typeOrder {
		if fitsKind(kind, s) {
			return kind
		}
	}
	return model.KindText
}

var boolWords = map[string]bool{
	"true": true, "false": true, "t": true, "f": true,
	"yes": true, "no": true, "y": true, "n": true,
	"0": true, "1": true, "on": true, "off": true,
}

func fitsKind(kind model.TypeKind, s string) bool {
	switch kind {
	case model.KindBoolean:
		return boolWords[strings.ToLower(s)]
	case model.KindInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		return err == nil && n >= math.MinInt32 && n <= math.MaxInt32
	case model.KindBigInteger:
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	case model.KindDecimal:
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	case model.KindDate:
		_, err := time.Parse("2006-01-02", s)
		return err == nil
	case model.KindDateTime:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if _, err := time.Parse(layout, s); err == nil {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// --- JSON ---

func parseJSONInput(input string, hints Hints) (*model.Fragment, []model.Diagnostic, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &model.Fragment{SourceID: hints.SourceID}, nil, nil
	}

	// A JSON object is treated as a canonical schema document; a JSON array
	// as row data subject to type inference.
	if strings.HasPrefix(trimmed, "{") {
		return parseCanonicalJSON(trimmed, hints)
	}
	if strings.HasPrefix(trimmed, "[") {
		return parseJSONRows(trimmed, hints)
	}
	return nil, nil, errs.Parse("JSON input must be an object (schema document) or an array (row data)", errs.At(1, 1))
}

func parseCanonicalJSON(input string, hints Hints) (*model.Fragment, []model.Diagnostic, error) {
	m, err := model.UnmarshalCanonicalJSON([]byte(input))
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindParse, "invalid schema document", err)
	}
	frag := &model.Fragment{
		SourceID:   hints.SourceID,
		SchemaName: m.Name,
		Tables:     m.Tables,
	}
	// Structural import is fully trusted.
	for ti := range frag.Tables {
		for ci := range frag.Tables[ti].Columns {
			frag.Tables[ti].Columns[ci].Provenance = model.Provenance{SourceID: hints.SourceID, Confidence: 100}
		}
	}
	return frag, nil, nil
}

func parseJSONRows(input string, hints Hints) (*model.Fragment, []model.Diagnostic, error) {
	var rows []map[string]json.RawMessage
	decoder := json.NewDecoder(strings.NewReader(input))
	if err := decoder.Decode(&rows); err != nil {
		return nil, nil, errs.Wrap(errs.KindParse, "invalid JSON array", err)
	}

	limit := hints.sampleLimit()
	if len(rows) > limit {
		rows = rows[:limit]
	}

	// Column order = first-seen key order across sampled rows. Go maps do not
	// preserve key order, so re-scan the raw text for the first row's keys.
	var order []string
	seen := map[string]bool{}
	appendKey := func(k string) {
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
	}
	for _, k := range firstObjectKeys(input) {
		appendKey(k)
	}
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				// Deterministic placement for keys absent from the first row.
				appendKey(k)
			}
		}
	}

	tableName := tableNameFromHints(hints, "imported_table")
	table := model.Table{Name: tableName}
	var diags []model.Diagnostic

	for _, key := range order {
		var values []string
		sawNull := false
		jsonish := false
		for _, row := range rows {
			raw, ok := row[key]
			if !ok || string(raw) == "null" {
				sawNull = true
				continue
			}
			s := string(raw)
			if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
				jsonish = true
				continue
			}
			if strings.HasPrefix(s, `"`) {
				var str string
				if err := json.Unmarshal(raw, &str); err == nil {
					s = str
				}
			}
			values = append(values, s)
		}

		name := normalizeName(key)
		col := model.Column{Name: name, Nullable: sawNull}
		if jsonish {
			col.Type = model.Json()
			col.Provenance = model.Provenance{SourceID: hints.SourceID, Confidence: 100}
		} else {
			typ, confidence, nullable := inferColumnType(values)
			col.Type = typ
			col.Nullable = col.Nullable || nullable
			col.Provenance = model.Provenance{SourceID: hints.SourceID, Confidence: confidence}
			if confidence < 50 {
				diags = append(diags, model.Suggestf(model.Location{Table: tableName, Column: name},
					model.CodeReviewRequired,
					"inferred type %s with low confidence (%d%%), review recommended",
					model.TypeString(typ), confidence))
			}
		}
		table.Columns = append(table.Columns, col)
	}

	frag := &model.Fragment{SourceID: hints.SourceID}
	frag.Tables = append(frag.Tables, table)
	return frag, diags, nil
}

// firstObjectKeys returns the keys of the first object in a JSON array, in
// document order.
func firstObjectKeys(input string) []string {
	decoder := json.NewDecoder(strings.NewReader(input))
	var keys []string
	depth := 0
	for {
		tok, err := decoder.Token()
		if err != nil {
			return keys
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				depth++
			case '}':
				if depth == 1 {
					return keys
				}
				depth--
			}
		case string:
			if depth == 1 {
				keys = append(keys, v)
				// Skip the value so nested object keys are not collected.
				var raw json.RawMessage
				if err := decoder.Decode(&raw); err != nil {
					return keys
				}
			}
		}
	}
}
