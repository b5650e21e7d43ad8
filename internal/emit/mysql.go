package emit

import (
	"fmt"
	"strings"

	"github.com/schemasmith/schemasmith/internal/dialect"
	"github.com/schemasmith/schemasmith/internal/model"
)

// MySQLEmitter renders InnoDB DDL. Foreign keys are always emitted as
// ALTER TABLE ADD CONSTRAINT statements after all tables exist, so creation
// order can never break a reference.
type MySQLEmitter struct{}

const mysqlTableSuffix = " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci"

func (e *MySQLEmitter) Emit(m *model.SchemaModel, opts Options) (string, error) {
	caps := dialect.Capabilities[dialect.MySQL]
	ordered := orderTables(m)
	var b strings.Builder

	if opts.IncludeDropStatements {
		// Drop in reverse creation order so children go before parents.
		for i := len(ordered) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "DROP TABLE IF EXISTS %s;\n", caps.QuoteIdent(rename(ordered[i].Name, opts.Naming)))
		}
		b.WriteByte('\n')
	}

	for _, t := range ordered {
		e.writeCreateTable(&b, t, caps, opts)
		b.WriteByte('\n')
	}

	for _, t := range ordered {
		e.writeForeignKeys(&b, t, caps, opts)
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func (e *MySQLEmitter) writeCreateTable(b *strings.Builder, t *model.Table, caps dialect.Capability, opts Options) {
	tableName := rename(t.Name, opts.Naming)
	fmt.Fprintf(b, "CREATE TABLE %s (\n", caps.QuoteIdent(tableName))

	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "  "+e.columnDef(c, caps, opts))
	}
	if pk := t.PrimaryKey(); len(pk) > 0 {
		lines = append(lines, "  PRIMARY KEY ("+quoteList(pk, caps, opts.Naming)+")")
	}
	for _, idx := range t.Indexes {
		kw := "KEY"
		if idx.Unique {
			kw = "UNIQUE KEY"
		}
		name := idx.Name
		if name == "" {
			name = "idx_" + strings.ToLower(tableName) + "_" + strings.ToLower(strings.Join(idx.Columns, "_"))
		}
		lines = append(lines, fmt.Sprintf("  %s %s (%s)", kw, caps.QuoteIdent(name), quoteList(idx.Columns, caps, opts.Naming)))
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	b.WriteString(mysqlTableSuffix)
	if opts.IncludeComments && t.Comment != nil {
		fmt.Fprintf(b, " COMMENT='%s'", escapeSQLString(*t.Comment))
	}
	b.WriteString(";\n")
}

func (e *MySQLEmitter) columnDef(c model.Column, caps dialect.Capability, opts Options) string {
	sqlType, _ := dialect.MapType(dialect.MySQL, c.Type)
	parts := []string{caps.QuoteIdent(rename(c.Name, opts.Naming)), sqlType}
	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if c.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if c.IsUnique && !c.IsPrimaryKey {
		parts = append(parts, "UNIQUE")
	}
	if c.DefaultValue != nil {
		parts = append(parts, "DEFAULT "+renderDefault(*c.DefaultValue, c.Type))
	}
	if opts.IncludeComments && c.Comment != nil {
		parts = append(parts, "COMMENT '"+escapeSQLString(*c.Comment)+"'")
	}
	return strings.Join(parts, " ")
}

func (e *MySQLEmitter) writeForeignKeys(b *strings.Builder, t *model.Table, caps dialect.Capability, opts Options) {
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

func quoteList(names []string, caps dialect.Capability, naming NamingConvention) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = caps.QuoteIdent(rename(n, naming))
	}
	return strings.Join(quoted, ", ")
}

func refAction(a model.RefAction) string {
	if a == "" {
		return string(model.NoAction)
	}
	return string(a)
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// renderDefault quotes string-ish defaults and passes through numerics,
// booleans, and function-call defaults like CURRENT_TIMESTAMP.
func renderDefault(value string, t model.GenericType) string {
	upper := strings.ToUpper(value)
	switch {
	case upper == "NULL" || upper == "TRUE" || upper == "FALSE":
		return upper
	case strings.HasSuffix(value, ")") || upper == "CURRENT_TIMESTAMP" || upper == "CURRENT_DATE" || upper == "NOW":
		return value
	}
	switch t.Kind {
	case model.KindInteger, model.KindBigInteger, model.KindDecimal, model.KindBoolean:
		return value
	default:
		return "'" + escapeSQLString(value) + "'"
	}
}
