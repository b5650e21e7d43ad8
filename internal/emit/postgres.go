package emit

import (
	"fmt"
	"strings"

	"github.com/schemasmith/schemasmith/internal/dialect"
	"github.com/schemasmith/schemasmith/internal/model"
)

// PostgresEmitter renders PostgreSQL DDL. Enum columns get a named type
// created in a pass before the tables; auto-increment primary keys become
// SERIAL or BIGSERIAL; comments come out as COMMENT ON statements.
type PostgresEmitter struct{}

func (e *PostgresEmitter) Emit(m *model.SchemaModel, opts Options) (string, error) {
	caps := dialect.Capabilities[dialect.PostgreSQL]
	ordered := orderTables(m)
	var b strings.Builder

	if opts.IncludeDropStatements {
		for i := len(ordered) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "DROP TABLE IF EXISTS %s CASCADE;\n", caps.QuoteIdent(rename(ordered[i].Name, opts.Naming)))
		}
		b.WriteByte('\n')
	}

	wroteEnum := false
	for _, t := range ordered {
		for _, c := range enumColumns(t) {
			fmt.Fprintf(&b, "CREATE TYPE %s AS ENUM (%s);\n",
				caps.QuoteIdent(enumTypeName(t.Name, c.Name, opts.Naming)),
				quoteValueList(c.Type.Values))
			wroteEnum = true
		}
	}
	if wroteEnum {
		b.WriteByte('\n')
	}

	for _, t := range ordered {
		e.writeCreateTable(&b, t, caps, opts)
		b.WriteByte('\n')
	}

	for _, t := range ordered {
		e.writeForeignKeys(&b, t, caps, opts)
	}

	if opts.IncludeComments {
		e.writeComments(&b, ordered, caps, opts)
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func (e *PostgresEmitter) writeCreateTable(b *strings.Builder, t *model.Table, caps dialect.Capability, opts Options) {
	fmt.Fprintf(b, "CREATE TABLE %s (\n", caps.QuoteIdent(rename(t.Name, opts.Naming)))

	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "  "+e.columnDef(t, c, caps, opts))
	}
	if pk := t.PrimaryKey(); len(pk) > 0 {
		lines = append(lines, "  PRIMARY KEY ("+quoteList(pk, caps, opts.Naming)+")")
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);\n")

	for _, idx := range t.Indexes {
		kw := "CREATE INDEX"
		if idx.Unique {
			kw = "CREATE UNIQUE INDEX"
		}
		name := idx.Name
		if name == "" {
			name = "idx_" + strings.ToLower(rename(t.Name, opts.Naming)) + "_" + strings.ToLower(strings.Join(idx.Columns, "_"))
		}
		fmt.Fprintf(b, "%s %s ON %s (%s);\n",
			kw, caps.QuoteIdent(name),
			caps.QuoteIdent(rename(t.Name, opts.Naming)),
			quoteList(idx.Columns, caps, opts.Naming))
	}
}

func (e *PostgresEmitter) columnDef(t *model.Table, c model.Column, caps dialect.Capability, opts Options) string {
	var sqlType string
	switch {
	case c.AutoIncrement && c.Type.Kind == model.KindBigInteger:
		sqlType = "BIGSERIAL"
	case c.AutoIncrement && c.Type.Kind == model.KindInteger:
		sqlType = "SERIAL"
	case c.Type.Kind == model.KindEnum:
		sqlType = caps.QuoteIdent(enumTypeName(t.Name, c.Name, opts.Naming))
	default:
		sqlType, _ = dialect.MapType(dialect.PostgreSQL, c.Type)
	}

	parts := []string{caps.QuoteIdent(rename(c.Name, opts.Naming)), sqlType}
	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if c.IsUnique && !c.IsPrimaryKey {
		parts = append(parts, "UNIQUE")
	}
	if c.DefaultValue != nil {
		parts = append(parts, "DEFAULT "+renderDefault(*c.DefaultValue, c.Type))
	}
	return strings.Join(parts, " ")
}

func (e *PostgresEmitter) writeForeignKeys(b *strings.Builder, t *model.Table, caps dialect.Capability, opts Options) {
	tableName := rename(t.Name, opts.Naming)
	for _, fk := range t.ForeignKeys {
		name := fk.Name
		if name == "" {
			name = "fk_" + strings.ToLower(tableName) + "_" + strings.ToLower(strings.Join(fk.SourceColumns, "_"))
		}
		fmt.Fprintf(b,
			"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s ON UPDATE %s;\n",
			caps.QuoteIdent(tableName),
			caps.QuoteIdent(name),
			quoteList(fk.SourceColumns, caps, opts.Naming),
			caps.QuoteIdent(rename(fk.TargetTable, opts.Naming)),
			quoteList(fk.TargetColumns, caps, opts.Naming),
			refAction(fk.OnDelete),
			refAction(fk.OnUpdate))
	}
}

func (e *PostgresEmitter) writeComments(b *strings.Builder, ordered []*model.Table, caps dialect.Capability, opts Options) {
	for _, t := range ordered {
		tableName := caps.QuoteIdent(rename(t.Name, opts.Naming))
		if t.Comment != nil {
			fmt.Fprintf(b, "COMMENT ON TABLE %s IS '%s';\n", tableName, escapeSQLString(*t.Comment))
		}
		for _, c := range t.Columns {
			if c.Comment != nil {
				fmt.Fprintf(b, "COMMENT ON COLUMN %s.%s IS '%s';\n",
					tableName, caps.QuoteIdent(rename(c.Name, opts.Naming)), escapeSQLString(*c.Comment))
			}
		}
	}
}

// enumTypeName builds the named enum type for a table column pair.
func enumTypeName(table, column string, naming NamingConvention) string {
	return "enum_" + strings.ToLower(rename(table, naming)) + "_" + strings.ToLower(rename(column, naming))
}

func quoteValueList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + escapeSQLString(v) + "'"
	}
	return strings.Join(quoted, ", ")
}
