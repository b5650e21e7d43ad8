package parser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/schemasmith/schemasmith/internal/errs"
	"github.com/schemasmith/schemasmith/internal/model"
)

// SQLParser extracts tables, columns, constraints, and indexes from SQL DDL.
// It recognizes CREATE TABLE and CREATE INDEX; every other statement is
// skipped with a Suggestion diagnostic. Tokenization is case-insensitive and
// accepts backtick, double-quote, and bracket identifier quoting.
type SQLParser struct{}

// Parse implements the Parser contract for SQL DDL input.
func (p *SQLParser) Parse(ctx context.Context, input string, hints Hints) (*model.Fragment, []model.Diagnostic, error) {
	if err := checkSize(input, hints); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	tokens, err := tokenizeSQL(input)
	if err != nil {
		return nil, nil, err
	}

	frag := &model.Fragment{SourceID: hints.SourceID}
	var diags []model.Diagnostic

	for _, stmt := range splitStatements(tokens) {
		if len(stmt) == 0 {
			continue
		}
		switch {
		case matchKeywords(stmt, "CREATE", "TABLE"),
			matchKeywords(stmt, "CREATE", "TEMPORARY", "TABLE"):
			table, ds, err := parseCreateTable(stmt, hints.SourceID)
			if err != nil {
				return nil, nil, err
			}
			diags = append(diags, ds...)
			frag.Tables = append(frag.Tables, *table)
		case matchKeywords(stmt, "CREATE", "INDEX"),
			matchKeywords(stmt, "CREATE", "UNIQUE", "INDEX"):
			if d := parseCreateIndex(stmt, frag); d != nil {
				diags = append(diags, *d)
			}
		default:
			diags = append(diags, model.Suggestf(model.Location{}, model.CodeUnknownStatement,
				"skipped unrecognized statement starting with %q at line %d", stmt[0].text, stmt[0].line))
		}
	}

	return frag, diags, nil
}

// --- Tokenizer ---

type sqlTokenKind int

const (
	tokIdent sqlTokenKind = iota
	tokNumber
	tokString
	tokPunct
)

type sqlToken struct {
	kind sqlTokenKind
	text string
	line int
	col  int
}

// upper returns the uppercased text for keyword comparison.
func (t sqlToken) upper() string { return strings.ToUpper(t.text) }

func tokenizeSQL(input string) ([]sqlToken, error) {
	var tokens []sqlToken
	line, col := 1, 1
	i := 0

	advance := func(n int) {
		for ; n > 0; n-- {
			if input[i] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
			i++
		}
	}

	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			advance(1)

		case c == '-' && i+1 < len(input) && input[i+1] == '-':
			for i < len(input) && input[i] != '\n' {
				advance(1)
			}

		case c == '/' && i+1 < len(input) && input[i+1] == '*':
			startLine, startCol := line, col
			advance(2)
			for {
				if i+1 >= len(input) {
					return nil, errs.Parse("unterminated block comment", errs.At(startLine, startCol))
				}
				if input[i] == '*' && input[i+1] == '/' {
					advance(2)
					break
				}
				advance(1)
			}

		case c == '\'':
			startLine, startCol := line, col
			advance(1)
			var b strings.Builder
			for {
				if i >= len(input) {
					return nil, errs.Parse("unterminated string literal", errs.At(startLine, startCol))
				}
				if input[i] == '\'' {
					// Doubled quote is an escaped quote inside the literal.
					if i+1 < len(input) && input[i+1] == '\'' {
						b.WriteByte('\'')
						advance(2)
						continue
					}
					advance(1)
					break
				}
				b.WriteByte(input[i])
				advance(1)
			}
			tokens = append(tokens, sqlToken{tokString, b.String(), startLine, startCol})

		case c == '`' || c == '"' || c == '[':
			end := byte('`')
			switch c {
			case '"':
				end = '"'
			case '[':
				end = ']'
			}
			startLine, startCol := line, col
			advance(1)
			var b strings.Builder
			for {
				if i >= len(input) {
					return nil, errs.Parse("unterminated quoted identifier", errs.At(startLine, startCol))
				}
				if input[i] == end {
					advance(1)
					break
				}
				b.WriteByte(input[i])
				advance(1)
			}
			tokens = append(tokens, sqlToken{tokIdent, b.String(), startLine, startCol})

		case c >= '0' && c <= '9':
			startLine, startCol := line, col
			start := i
			for i < len(input) && (input[i] >= '0' && input[i] <= '9' || input[i] == '.') {
				advance(1)
			}
			tokens = append(tokens, sqlToken{tokNumber, input[start:i], startLine, startCol})

		case isIdentByte(c):
			startLine, startCol := line, col
			start := i
			for i < len(input) && isIdentByte(input[i]) {
				advance(1)
			}
			tokens = append(tokens, sqlToken{tokIdent, input[start:i], startLine, startCol})

		case strings.IndexByte("(),;.=<>+-*/", c) >= 0:
			tokens = append(tokens, sqlToken{tokPunct, string(c), line, col})
			advance(1)

		default:
			return nil, errs.Parse(fmt.Sprintf("unexpected character %q", c), errs.At(line, col))
		}
	}

	return tokens, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// splitStatements splits a token stream on top-level semicolons.
func splitStatements(tokens []sqlToken) [][]sqlToken {
	var stmts [][]sqlToken
	var cur []sqlToken
	depth := 0
	for _, t := range tokens {
		if t.kind == tokPunct {
			switch t.text {
			case "(":
				depth++
			case ")":
				depth--
			case ";":
				if depth == 0 {
					if len(cur) > 0 {
						stmts = append(stmts, cur)
						cur = nil
					}
					continue
				}
			}
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		stmts = append(stmts, cur)
	}
	return stmts
}

func matchKeywords(tokens []sqlToken, words ...string) bool {
	if len(tokens) < len(words) {
		return false
	}
	for i, w := range words {
		if tokens[i].kind != tokIdent || tokens[i].upper() != w {
			return false
		}
	}
	return true
}

// --- CREATE TABLE ---

func parseCreateTable(stmt []sqlToken, sourceID string) (*model.Table, []model.Diagnostic, error) {
	// Skip CREATE [TEMPORARY] TABLE [IF NOT EXISTS].
	idx := 2
	if stmt[1].upper() == "TEMPORARY" {
		idx = 3
	}
	if idx+2 < len(stmt) && stmt[idx].upper() == "IF" && stmt[idx+1].upper() == "NOT" && stmt[idx+2].upper() == "EXISTS" {
		idx += 3
	}
	if idx >= len(stmt) || stmt[idx].kind != tokIdent {
		loc := errs.At(stmt[0].line, stmt[0].col)
		return nil, nil, errs.Parse("CREATE TABLE is missing a table name", loc)
	}

	name := stmt[idx].text
	idx++
	// schema-qualified name: keep the last component.
	for idx+1 < len(stmt) && stmt[idx].text == "." && stmt[idx+1].kind == tokIdent {
		name = stmt[idx+1].text
		idx += 2
	}

	if idx >= len(stmt) || stmt[idx].text != "(" {
		return nil, nil, errs.Parse(fmt.Sprintf("table %q has no column definitions", name), errs.At(stmt[idx-1].line, stmt[idx-1].col))
	}

	body, err := parenBody(stmt[idx:])
	if err != nil {
		return nil, nil, err
	}

	table := &model.Table{Name: cleanIdentifier(name)}
	var diags []model.Diagnostic

	for _, element := range splitTopLevel(body, ",") {
		if len(element) == 0 {
			continue
		}
		ds, err := parseTableElement(element, table, sourceID)
		if err != nil {
			return nil, nil, err
		}
		diags = append(diags, ds...)
	}

	if len(table.Columns) == 0 {
		return nil, nil, errs.Parse(fmt.Sprintf("table %q defines no columns", name), errs.At(stmt[0].line, stmt[0].col))
	}

	return table, diags, nil
}

// parenBody returns the tokens inside the balanced parenthesis starting at
// tokens[0], excluding the outer pair.
func parenBody(tokens []sqlToken) ([]sqlToken, error) {
	depth := 0
	for i, t := range tokens {
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return tokens[1:i], nil
			}
		}
	}
	return nil, errs.Parse("unbalanced parenthesis", errs.At(tokens[0].line, tokens[0].col))
}

// splitTopLevel splits tokens on sep at parenthesis depth zero.
func splitTopLevel(tokens []sqlToken, sep string) [][]sqlToken {
	var parts [][]sqlToken
	var cur []sqlToken
	depth := 0
	for _, t := range tokens {
		if t.kind == tokPunct {
			switch t.text {
			case "(":
				depth++
			case ")":
				depth--
			case sep:
				if depth == 0 {
					parts = append(parts, cur)
					cur = nil
					continue
				}
			}
		}
		cur = append(cur, t)
	}
	parts = append(parts, cur)
	return parts
}

// parseTableElement handles one comma-separated element of a CREATE TABLE
// body: either a column definition or a table-level constraint.
func parseTableElement(toks []sqlToken, table *model.Table, sourceID string) ([]model.Diagnostic, error) {
	loc := model.Location{Table: table.Name}

	switch toks[0].upper() {
	case "PRIMARY":
		if len(toks) > 1 && toks[1].upper() == "KEY" {
			cols, err := identList(toks[2:])
			if err != nil {
				return nil, err
			}
			for _, cname := range cols {
				if c := table.Column(cname); c != nil {
					c.IsPrimaryKey = true
				}
			}
			return nil, nil
		}

	case "FOREIGN":
		if len(toks) > 1 && toks[1].upper() == "KEY" {
			return parseForeignKeyClause("", toks[2:], table, sourceID)
		}

	case "UNIQUE":
		// UNIQUE (col, ...) or UNIQUE KEY name (col, ...)
		rest := toks[1:]
		idxName := ""
		if len(rest) > 0 && (rest[0].upper() == "KEY" || rest[0].upper() == "INDEX") {
			rest = rest[1:]
			if len(rest) > 0 && rest[0].kind == tokIdent && rest[0].text != "(" {
				idxName = cleanIdentifier(rest[0].text)
				rest = rest[1:]
			}
		}
		cols, err := identList(rest)
		if err != nil {
			return nil, err
		}
		if len(cols) == 1 && idxName == "" {
			if c := table.Column(cols[0]); c != nil {
				c.IsUnique = true
				return nil, nil
			}
		}
		if idxName == "" {
			idxName = "uq_" + table.Name + "_" + strings.Join(cols, "_")
		}
		table.Indexes = append(table.Indexes, model.Index{Name: idxName, Columns: cols, Unique: true})
		return nil, nil

	case "KEY", "INDEX":
		rest := toks[1:]
		idxName := ""
		if len(rest) > 0 && rest[0].kind == tokIdent {
			idxName = cleanIdentifier(rest[0].text)
			rest = rest[1:]
		}
		cols, err := identList(rest)
		if err != nil {
			return nil, err
		}
		if idxName == "" {
			idxName = "ix_" + table.Name + "_" + strings.Join(cols, "_")
		}
		table.Indexes = append(table.Indexes, model.Index{Name: idxName, Columns: cols})
		return nil, nil

	case "CONSTRAINT":
		if len(toks) < 3 {
			return nil, errs.Parse("incomplete CONSTRAINT clause", errs.At(toks[0].line, toks[0].col))
		}
		name := cleanIdentifier(toks[1].text)
		body := toks[2:]
		switch body[0].upper() {
		case "PRIMARY":
			return parseTableElement(body, table, sourceID)
		case "FOREIGN":
			if len(body) > 1 && body[1].upper() == "KEY" {
				return parseForeignKeyClause(name, body[2:], table, sourceID)
			}
		case "UNIQUE":
			cols, err := identList(body[1:])
			if err != nil {
				return nil, err
			}
			table.Indexes = append(table.Indexes, model.Index{Name: name, Columns: cols, Unique: true})
			return nil, nil
		case "CHECK":
			return []model.Diagnostic{model.Suggestf(loc, model.CodeUnsupported,
				"CHECK constraint %q is not representable in the canonical model and was recorded as a note", name)}, nil
		}
		return []model.Diagnostic{model.Suggestf(loc, model.CodeUnsupported,
			"skipped unrecognized constraint %q", name)}, nil

	case "CHECK":
		return []model.Diagnostic{model.Suggestf(loc, model.CodeUnsupported,
			"CHECK constraint is not representable in the canonical model and was recorded as a note")}, nil
	}

	return parseColumnDef(toks, table, sourceID)
}

func parseForeignKeyClause(name string, toks []sqlToken, table *model.Table, sourceID string) ([]model.Diagnostic, error) {
	srcCols, err := identList(toks)
	if err != nil {
		return nil, err
	}

	// Find REFERENCES target (cols).
	refIdx := -1
	for i, t := range toks {
		if t.kind == tokIdent && t.upper() == "REFERENCES" {
			refIdx = i
			break
		}
	}
	if refIdx < 0 || refIdx+1 >= len(toks) {
		return nil, errs.Parse("FOREIGN KEY without REFERENCES clause", errs.At(toks[0].line, toks[0].col))
	}

	target := cleanIdentifier(toks[refIdx+1].text)
	// A REFERENCES clause without a column list targets the referenced
	// table's primary key; assume the conventional id column.
	tgtCols := []string{"id"}
	if refIdx+2 < len(toks) && toks[refIdx+2].text == "(" {
		if tgtCols, err = identList(toks[refIdx+2:]); err != nil {
			return nil, err
		}
	}

	fk := model.ForeignKey{
		Name:          name,
		SourceColumns: srcCols,
		TargetTable:   target,
		TargetColumns: tgtCols,
		OnDelete:      model.NoAction,
		OnUpdate:      model.NoAction,
		Confirmed:     true, // explicitly declared by the source
		Provenance:    model.Provenance{SourceID: sourceID, Confidence: 100},
	}

	// ON DELETE / ON UPDATE actions.
	for i := refIdx + 2; i+2 < len(toks); i++ {
		if toks[i].upper() != "ON" {
			continue
		}
		action, consumed := parseRefActionTokens(toks[i+2:])
		switch toks[i+1].upper() {
		case "DELETE":
			fk.OnDelete = action
		case "UPDATE":
			fk.OnUpdate = action
		}
		i += 1 + consumed
	}

	table.ForeignKeys = append(table.ForeignKeys, fk)
	return nil, nil
}

func parseRefActionTokens(toks []sqlToken) (model.RefAction, int) {
	if len(toks) == 0 {
		return model.NoAction, 0
	}
	switch toks[0].upper() {
	case "CASCADE":
		return model.Cascade, 1
	case "RESTRICT":
		return model.Restrict, 1
	case "SET":
		if len(toks) > 1 && toks[1].upper() == "NULL" {
			return model.SetNull, 2
		}
	case "NO":
		if len(toks) > 1 && toks[1].upper() == "ACTION" {
			return model.NoAction, 2
		}
	}
	return model.NoAction, 1
}

// identList extracts the identifiers inside the first parenthesized group.
func identList(toks []sqlToken) ([]string, error) {
	start := -1
	for i, t := range toks {
		if t.kind == tokPunct && t.text == "(" {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, errs.Parse("expected parenthesized column list", errs.At(toks[0].line, toks[0].col))
	}
	body, err := parenBody(toks[start:])
	if err != nil {
		return nil, err
	}
	var cols []string
	for _, part := range splitTopLevel(body, ",") {
		if len(part) > 0 && part[0].kind == tokIdent {
			cols = append(cols, cleanIdentifier(part[0].text))
		}
	}
	if len(cols) == 0 {
		return nil, errs.Parse("empty column list", errs.At(toks[start].line, toks[start].col))
	}
	return cols, nil
}

func parseColumnDef(toks []sqlToken, table *model.Table, sourceID string) ([]model.Diagnostic, error) {
	if toks[0].kind != tokIdent {
		return nil, errs.Parse("expected column name", errs.At(toks[0].line, toks[0].col))
	}

	col := model.Column{
		Name:       cleanIdentifier(toks[0].text),
		Nullable:   true,
		Provenance: model.Provenance{SourceID: sourceID, Confidence: 100},
	}
	loc := model.Location{Table: table.Name, Column: col.Name}
	var diags []model.Diagnostic

	if len(toks) < 2 {
		return nil, errs.Parse(fmt.Sprintf("column %q has no type", col.Name), errs.At(toks[0].line, toks[0].col))
	}

	// Type name, possibly multi-word (DOUBLE PRECISION, TIMESTAMP WITH TIME
	// ZONE) with an optional parameter list.
	typeName := toks[1].upper()
	idx := 2
	for idx < len(toks) && toks[idx].kind == tokIdent && isTypeContinuation(typeName, toks[idx].upper()) {
		typeName += " " + toks[idx].upper()
		idx++
	}

	var params []string
	if idx < len(toks) && toks[idx].text == "(" {
		body, err := parenBody(toks[idx:])
		if err != nil {
			return nil, err
		}
		for _, part := range splitTopLevel(body, ",") {
			if len(part) > 0 {
				params = append(params, part[0].text)
			}
		}
		// Skip past the parameter list.
		depth := 0
		for ; idx < len(toks); idx++ {
			if toks[idx].kind == tokPunct {
				if toks[idx].text == "(" {
					depth++
				} else if toks[idx].text == ")" {
					depth--
					if depth == 0 {
						idx++
						break
					}
				}
			}
		}
	}

	gtype, known, autoInc := sqlTypeToGeneric(typeName, params)
	col.Type = gtype
	col.AutoIncrement = autoInc
	if !known {
		diags = append(diags, model.Suggestf(loc, model.CodeUnknownType,
			"unmapped SQL type %q defaulted to text", typeName))
	}

	// Column flags.
	for idx < len(toks) {
		switch toks[idx].upper() {
		case "NOT":
			if idx+1 < len(toks) && toks[idx+1].upper() == "NULL" {
				col.Nullable = false
				idx += 2
				continue
			}
			idx++
		case "NULL":
			col.Nullable = true
			idx++
		case "PRIMARY":
			if idx+1 < len(toks) && toks[idx+1].upper() == "KEY" {
				col.IsPrimaryKey = true
				col.Nullable = false
				idx += 2
				continue
			}
			idx++
		case "UNIQUE":
			col.IsUnique = true
			idx++
		case "AUTO_INCREMENT", "AUTOINCREMENT":
			col.AutoIncrement = true
			idx++
		case "DEFAULT":
			if idx+1 < len(toks) {
				v := defaultValueText(toks[idx+1:])
				col.DefaultValue = &v
				idx += 2
				continue
			}
			idx++
		case "COMMENT":
			if idx+1 < len(toks) && toks[idx+1].kind == tokString {
				v := toks[idx+1].text
				col.Comment = &v
				idx += 2
				continue
			}
			idx++
		case "REFERENCES":
			// Inline foreign key: REFERENCES target (col) [ON DELETE|UPDATE action].
			if idx+1 >= len(toks) {
				return nil, errs.Parse("REFERENCES without a target table", errs.At(toks[idx].line, toks[idx].col))
			}
			target := cleanIdentifier(toks[idx+1].text)
			tgtCols := []string{"id"}
			if cols, err := identList(toks[idx+1:]); err == nil {
				tgtCols = cols
			}
			fk := model.ForeignKey{
				SourceColumns: []string{col.Name},
				TargetTable:   target,
				TargetColumns: tgtCols,
				OnDelete:      model.NoAction,
				OnUpdate:      model.NoAction,
				Confirmed:     true,
				Provenance:    model.Provenance{SourceID: sourceID, Confidence: 100},
			}
			for i := idx + 2; i+2 < len(toks); i++ {
				if toks[i].upper() != "ON" {
					continue
				}
				action, consumed := parseRefActionTokens(toks[i+2:])
				switch toks[i+1].upper() {
				case "DELETE":
					fk.OnDelete = action
				case "UPDATE":
					fk.OnUpdate = action
				}
				i += 1 + consumed
			}
			table.ForeignKeys = append(table.ForeignKeys, fk)
			idx = len(toks) // the FK clause ends the column definition
		case "CHECK":
			diags = append(diags, model.Suggestf(loc, model.CodeUnsupported,
				"CHECK constraint on column %q is not representable and was skipped", col.Name))
			idx = len(toks)
		default:
			idx++
		}
	}

	if table.Column(col.Name) != nil {
		diags = append(diags, model.Errorf(loc, model.CodeDuplicateColumn,
			"column %q declared more than once", col.Name))
		return diags, nil
	}
	table.Columns = append(table.Columns, col)
	return diags, nil
}

// isTypeContinuation reports whether word extends a multi-word type name.
func isTypeContinuation(soFar, word string) bool {
	switch word {
	case "PRECISION", "VARYING":
		return true
	case "WITH", "WITHOUT":
		return strings.HasPrefix(soFar, "TIME")
	case "TIME", "ZONE":
		return strings.Contains(soFar, "WITH")
	}
	return false
}

func defaultValueText(toks []sqlToken) string {
	t := toks[0]
	if t.kind == tokString {
		return t.text
	}
	// CURRENT_TIMESTAMP() and similar function defaults keep the call site.
	if len(toks) > 2 && toks[1].text == "(" && toks[2].text == ")" {
		return t.upper() + "()"
	}
	if t.kind == tokIdent {
		switch t.upper() {
		case "TRUE", "FALSE", "NULL", "CURRENT_TIMESTAMP", "CURRENT_DATE", "NOW":
			return t.upper()
		}
	}
	return t.text
}

// sqlTypeToGeneric maps an uppercased SQL type name and its parameters to a
// GenericType. The bool result reports whether the name was recognized; the
// last result reports implied auto-increment (SERIAL family).
func sqlTypeToGeneric(name string, params []string) (model.GenericType, bool, bool) {
	intParam := func(i, fallback int) int {
		if i < len(params) {
			if n, err := strconv.Atoi(params[i]); err == nil {
				return n
			}
		}
		return fallback
	}

	switch {
	case name == "BIGSERIAL":
		return model.BigInteger(), true, true
	case name == "SERIAL" || name == "SMALLSERIAL":
		return model.Integer(), true, true
	case strings.Contains(name, "BIGINT"):
		return model.BigInteger(), true, false
	case strings.Contains(name, "INT"): // INT, INTEGER, SMALLINT, TINYINT, MEDIUMINT
		return model.Integer(), true, false
	case name == "TEXT" || strings.HasSuffix(name, "TEXT") || name == "CLOB":
		return model.Text(0), true, false
	case strings.HasPrefix(name, "VARCHAR") || strings.HasPrefix(name, "NVARCHAR") ||
		strings.HasPrefix(name, "CHARACTER") || strings.HasPrefix(name, "CHAR") ||
		strings.HasPrefix(name, "NCHAR") || name == "STRING":
		return model.Text(intParam(0, 255)), true, false
	case strings.Contains(name, "DECIMAL") || strings.Contains(name, "NUMERIC"):
		return model.Decimal(intParam(0, 10), intParam(1, 2)), true, false
	case strings.Contains(name, "FLOAT") || strings.Contains(name, "REAL") || strings.Contains(name, "DOUBLE"):
		// Approximate floats are carried as decimals in the canonical model.
		return model.Decimal(intParam(0, 16), intParam(1, 4)), true, false
	case name == "DATETIME" || strings.HasPrefix(name, "TIMESTAMP"):
		return model.DateTime(), true, false
	case name == "DATE":
		return model.Date(), true, false
	case strings.Contains(name, "BOOL"):
		return model.Boolean(), true, false
	case strings.Contains(name, "BLOB") || strings.Contains(name, "BINARY") || name == "BYTEA":
		return model.Blob(), true, false
	case strings.Contains(name, "JSON"): // JSON, JSONB
		return model.Json(), true, false
	case strings.Contains(name, "UUID") || name == "UNIQUEIDENTIFIER":
		return model.Uuid(), true, false
	case name == "ENUM":
		return model.Enum(params...), true, false
	default:
		return model.Text(0), false, false
	}
}

// parseCreateIndex attaches a CREATE [UNIQUE] INDEX statement to its table
// inside frag. Indexes on tables outside the fragment produce a diagnostic.
func parseCreateIndex(stmt []sqlToken, frag *model.Fragment) *model.Diagnostic {
	unique := stmt[1].upper() == "UNIQUE"
	idx := 2
	if unique {
		idx = 3
	}
	if idx+2 < len(stmt) && stmt[idx].upper() == "IF" {
		idx += 3 // IF NOT EXISTS
	}
	if idx >= len(stmt) || stmt[idx].kind != tokIdent {
		d := model.Suggestf(model.Location{}, model.CodeUnknownStatement,
			"skipped CREATE INDEX without an index name at line %d", stmt[0].line)
		return &d
	}
	name := cleanIdentifier(stmt[idx].text)
	idx++

	if idx >= len(stmt) || stmt[idx].upper() != "ON" || idx+1 >= len(stmt) {
		d := model.Suggestf(model.Location{}, model.CodeUnknownStatement,
			"skipped CREATE INDEX %q without an ON clause", name)
		return &d
	}
	tableName := cleanIdentifier(stmt[idx+1].text)

	cols, err := identList(stmt[idx+1:])
	if err != nil {
		d := model.Suggestf(model.Location{Table: tableName}, model.CodeUnknownStatement,
			"skipped CREATE INDEX %q without a column list", name)
		return &d
	}

	for i := range frag.Tables {
		if strings.EqualFold(frag.Tables[i].Name, tableName) {
			frag.Tables[i].Indexes = append(frag.Tables[i].Indexes,
				model.Index{Name: name, Columns: cols, Unique: unique})
			return nil
		}
	}
	d := model.Warnf(model.Location{Table: tableName}, model.CodeUnknownStatement,
		"index %q references table %q not defined in this input", name, tableName)
	return &d
}
