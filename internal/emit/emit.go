// Package emit renders a validated schema model as target-dialect output.
// Emitters are pure: same model and options in, same text out.
package emit

import (
	"strings"
	"unicode"

	"github.com/schemasmith/schemasmith/internal/dialect"
	"github.com/schemasmith/schemasmith/internal/errs"
	"github.com/schemasmith/schemasmith/internal/model"
)

// NamingConvention rewrites identifiers on the way out.
type NamingConvention string

const (
	AsDefined  NamingConvention = "as_defined"
	SnakeCase  NamingConvention = "snake_case"
	CamelCase  NamingConvention = "camel_case"
	PascalCase NamingConvention = "pascal_case"
)

// Options controls emission details shared by every emitter.
type Options struct {
	IncludeDropStatements bool
	IncludeComments       bool
	Naming                NamingConvention
}

// Emitter renders a schema model to text.
type Emitter interface {
	Emit(m *model.SchemaModel, opts Options) (string, error)
}

// For returns the emitter for a dialect.
func For(id dialect.ID) (Emitter, error) {
	switch id {
	case dialect.MySQL:
		return &MySQLEmitter{}, nil
	case dialect.PostgreSQL:
		return &PostgresEmitter{}, nil
	case dialect.GenericDocument:
		return &DocumentEmitter{}, nil
	default:
		return nil, errs.Newf(errs.KindUnsupported, "no emitter for dialect %q", id)
	}
}

// rename applies the naming convention to an identifier.
func rename(name string, naming NamingConvention) string {
	switch naming {
	case SnakeCase:
		return toSnake(name)
	case CamelCase:
		return toCamel(name, false)
	case PascalCase:
		return toCamel(name, true)
	default:
		return name
	}
}

func toSnake(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		switch {
		case r == ' ' || r == '-':
			b.WriteByte('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}

func toCamel(name string, upperFirst bool) string {
	parts := strings.FieldsFunc(toSnake(name), func(r rune) bool { return r == '_' })
	var b strings.Builder
	for i, p := range parts {
		if i == 0 && !upperFirst {
			b.WriteString(p)
			continue
		}
		r := []rune(p)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// orderTables sorts tables so referenced tables come before referencing ones.
// Ties keep model order. Cycles are broken by cutting an edge; that is safe
// because foreign keys are emitted as ALTER TABLE statements after every
// table exists.
func orderTables(m *model.SchemaModel) []*model.Table {
	index := map[string]int{}
	for i := range m.Tables {
		index[strings.ToLower(m.Tables[i].Name)] = i
	}

	// deps[i] holds indexes of tables m.Tables[i] references (FKs to unknown
	// tables contribute nothing; validation already reported them).
	deps := make(map[int]map[int]bool, len(m.Tables))
	for i := range m.Tables {
		deps[i] = map[int]bool{}
		for _, fk := range m.Tables[i].ForeignKeys {
			if j, ok := index[strings.ToLower(fk.TargetTable)]; ok && j != i {
				deps[i][j] = true
			}
		}
	}

	emitted := make([]bool, len(m.Tables))
	cut := make(map[int]map[int]bool, len(m.Tables))
	var order []int

	for len(order) < len(m.Tables) {
		progressed := false
		for i := range m.Tables {
			if emitted[i] {
				continue
			}
			ready := true
			for j := range deps[i] {
				if !emitted[j] && !cutHas(cut, i, j) {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, i)
				emitted[i] = true
				progressed = true
			}
		}
		if progressed {
			continue
		}
		// Cycle: cut the first unemitted table's first blocking edge.
		for i := range m.Tables {
			if emitted[i] {
				continue
			}
			blocking := -1
			for j := range deps[i] {
				if !emitted[j] && !cutHas(cut, i, j) && (blocking == -1 || j < blocking) {
					blocking = j
				}
			}
			if cut[i] == nil {
				cut[i] = map[int]bool{}
			}
			cut[i][blocking] = true
			break
		}
	}

	out := make([]*model.Table, 0, len(order))
	for _, i := range order {
		out = append(out, &m.Tables[i])
	}
	return out
}

func cutHas(cut map[int]map[int]bool, i, j int) bool {
	return cut[i] != nil && cut[i][j]
}

// enumColumns lists enum columns of a table in declaration order.
func enumColumns(t *model.Table) []*model.Column {
	var cols []*model.Column
	for i := range t.Columns {
		if t.Columns[i].Type.Kind == model.KindEnum {
			cols = append(cols, &t.Columns[i])
		}
	}
	return cols
}
