package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/schemasmith/schemasmith/internal/model"
)

// ORMParser extracts entity definitions from declarative ORM source code
// (SQLAlchemy-style models). It walks the declared class/attribute structure
// line by line, no semantic execution of the source. Explicitly declared
// facts carry confidence 90; inferred relationship cardinality carries less.
type ORMParser struct{}

const (
	ormExplicitConfidence = 90
	ormInferredConfidence = 70
)

var (
	ormClassRe = regexp.MustCompile(`^class\s+(\w+)\s*\(([^)]*)\)\s*:`)
	ormTableRe = regexp.MustCompile(`^\s*__tablename__\s*=\s*['"]([^'"]+)['"]`)
	ormColRe   = regexp.MustCompile(`^\s*(\w+)\s*(?::[^=]+)?=\s*(?:\w+\.)?(?:Column|mapped_column)\s*\((.*)\)\s*(?:#.*)?$`)
	ormRelRe   = regexp.MustCompile(`^\s*(\w+)\s*(?::[^=]+)?=\s*(?:\w+\.)?relationship\s*\(\s*['"](\w+)['"](.*)\)\s*(?:#.*)?$`)
	ormFKRe    = regexp.MustCompile(`ForeignKey\s*\(\s*['"]([\w.]+)['"]`)
)

// entityBases are the class bases that mark a declarative model definition.
var entityBases = []string{"Base", "DeclarativeBase", "Model", "BaseModel"}

// Parse implements the Parser contract for ORM source input.
func (p *ORMParser) Parse(ctx context.Context, input string, hints Hints) (*model.Fragment, []model.Diagnostic, error) {
	if err := checkSize(input, hints); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	frag := &model.Fragment{SourceID: hints.SourceID}
	var diags []model.Diagnostic
	var current *model.Table

	flush := func() {
		if current != nil && len(current.Columns) > 0 {
			frag.Tables = append(frag.Tables, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(input, "\n") {
		if m := ormClassRe.FindStringSubmatch(line); m != nil {
			flush()
			if isEntityClass(m[2]) {
				current = &model.Table{Name: m[1]}
			}
			continue
		}
		if current == nil {
			continue
		}

		if m := ormTableRe.FindStringSubmatch(line); m != nil {
			current.Name = m[1]
			continue
		}

		if m := ormColRe.FindStringSubmatch(line); m != nil {
			col, fkTarget := parseORMColumn(m[1], m[2], hints.SourceID)
			if current.Column(col.Name) != nil {
				diags = append(diags, model.Errorf(
					model.Location{Table: current.Name, Column: col.Name},
					model.CodeDuplicateColumn, "attribute %q declared more than once", col.Name))
				continue
			}
			current.Columns = append(current.Columns, col)
			if fkTarget != "" {
				refTable, refCol := splitFKTarget(fkTarget)
				current.ForeignKeys = append(current.ForeignKeys, model.ForeignKey{
					SourceColumns: []string{col.Name},
					TargetTable:   refTable,
					TargetColumns: []string{refCol},
					OnDelete:      model.NoAction,
					OnUpdate:      model.NoAction,
					Confirmed:     true,
					Provenance:    model.Provenance{SourceID: hints.SourceID, Confidence: ormExplicitConfidence},
				})
			}
			continue
		}

		if m := ormRelRe.FindStringSubmatch(line); m != nil {
			rel := model.Relationship{
				SourceTable: current.Name,
				TargetTable: m[2],
				Provenance:  model.Provenance{SourceID: hints.SourceID, Confidence: ormInferredConfidence},
			}
			rest := m[3]
			switch {
			case strings.Contains(rest, "secondary"):
				rel.Cardinality = model.ManyToMany
				rel.Provenance.Confidence = ormExplicitConfidence
			case strings.Contains(rest, "uselist=False"):
				rel.Cardinality = model.OneToOne
			default:
				// Collection-valued by default; cardinality is inferred, not
				// declared, so it keeps the lower confidence.
				rel.Cardinality = model.OneToMany
			}
			frag.Relationships = append(frag.Relationships, rel)
			diags = append(diags, model.Suggestf(
				model.Location{Table: current.Name},
				model.CodeInferredRelation,
				"relationship %s -> %s (%s) inferred from attribute %q, confirm cardinality",
				current.Name, rel.TargetTable, rel.Cardinality, m[1]))
			continue
		}
	}
	flush()

	return frag, diags, nil
}

func isEntityClass(bases string) bool {
	for _, base := range strings.Split(bases, ",") {
		base = strings.TrimSpace(base)
		// db.Model style qualified bases.
		if i := strings.LastIndexByte(base, '.'); i >= 0 {
			base = base[i+1:]
		}
		for _, known := range entityBases {
			if base == known {
				return true
			}
		}
	}
	return false
}

// parseORMColumn interprets the argument list of a Column(...) call. It
// returns the column and, when a ForeignKey("table.col") argument is
// present, the reference target.
func parseORMColumn(name, args, sourceID string) (model.Column, string) {
	col := model.Column{
		Name:       name,
		Type:       model.Text(0),
		Nullable:   true,
		Provenance: model.Provenance{SourceID: sourceID, Confidence: ormExplicitConfidence},
	}

	fkTarget := ""
	if m := ormFKRe.FindStringSubmatch(args); m != nil {
		fkTarget = m[1]
		// FK columns default to integer keys unless a type argument says
		// otherwise below.
		col.Type = model.Integer()
	}

	for i, arg := range splitArgs(args) {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}

		if key, value, isKwarg := strings.Cut(arg, "="); isKwarg && !strings.Contains(key, "(") {
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			switch key {
			case "primary_key":
				if value == "True" {
					col.IsPrimaryKey = true
					col.Nullable = false
				}
			case "nullable":
				col.Nullable = value != "False"
			case "unique":
				if value == "True" {
					col.IsUnique = true
				}
			case "autoincrement":
				if value == "True" {
					col.AutoIncrement = true
				}
			case "default", "server_default":
				v := strings.Trim(value, `'"`)
				col.DefaultValue = &v
			case "comment":
				v := strings.Trim(value, `'"`)
				col.Comment = &v
			}
			continue
		}

		// Positional argument: a type expression or a ForeignKey call.
		if i == 0 || !strings.HasPrefix(arg, "ForeignKey") {
			if typ, ok := ormTypeToGeneric(arg); ok {
				col.Type = typ
			}
		}
	}

	return col, fkTarget
}

// splitArgs splits a Python argument list on top-level commas, respecting
// nested parentheses and quoted strings.
func splitArgs(args string) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	var quote byte
	for i := 0; i < len(args); i++ {
		c := args[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			cur.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case c == '(' || c == '[':
			depth++
			cur.WriteByte(c)
		case c == ')' || c == ']':
			depth--
			cur.WriteByte(c)
		case c == ',' && depth == 0:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// ormTypeToGeneric maps an ORM type expression ("Integer", "sa.String(50)",
// "Enum('a', 'b')") to a GenericType.
func ormTypeToGeneric(expr string) (model.GenericType, bool) {
	name := expr
	var args []string
	if i := strings.IndexByte(expr, '('); i >= 0 && strings.HasSuffix(expr, ")") {
		name = expr[:i]
		for _, a := range splitArgs(expr[i+1 : len(expr)-1]) {
			args = append(args, strings.TrimSpace(a))
		}
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	intArg := func(i, fallback int) int {
		if i < len(args) {
			if n, err := strconv.Atoi(args[i]); err == nil {
				return n
			}
		}
		return fallback
	}

	switch strings.ToUpper(name) {
	case "INTEGER", "INT", "SMALLINTEGER":
		return model.Integer(), true
	case "BIGINTEGER", "BIGINT":
		return model.BigInteger(), true
	case "STRING", "VARCHAR", "UNICODE", "NVARCHAR", "CHAR":
		return model.Text(intArg(0, 255)), true
	case "TEXT", "UNICODETEXT", "CLOB":
		return model.Text(0), true
	case "NUMERIC", "DECIMAL":
		return model.Decimal(intArg(0, 10), intArg(1, 2)), true
	case "FLOAT", "REAL", "DOUBLE", "DOUBLE_PRECISION":
		return model.Decimal(16, 4), true
	case "BOOLEAN", "BOOL":
		return model.Boolean(), true
	case "DATE":
		return model.Date(), true
	case "DATETIME", "TIMESTAMP":
		return model.DateTime(), true
	case "LARGEBINARY", "BLOB", "BINARY", "VARBINARY":
		return model.Blob(), true
	case "JSON", "JSONB":
		return model.Json(), true
	case "UUID":
		return model.Uuid(), true
	case "ENUM":
		var values []string
		for _, a := range args {
			if strings.HasPrefix(a, "'") || strings.HasPrefix(a, `"`) {
				values = append(values, strings.Trim(a, `'"`))
			}
		}
		return model.Enum(values...), true
	default:
		return model.GenericType{}, false
	}
}

func splitFKTarget(target string) (table, column string) {
	if t, c, ok := strings.Cut(target, "."); ok {
		return t, c
	}
	return target, "id"
}
