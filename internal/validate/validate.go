// Package validate runs every structural, naming, and dialect rule check over
// an enriched schema model. Checks are independent and all of them always run,
// so one broken table does not hide problems in the next.
package validate

import (
	"strings"

	"github.com/schemasmith/schemasmith/internal/dialect"
	"github.com/schemasmith/schemasmith/internal/model"
)

// Config relaxes individual checks. The zero value is the strict default.
type Config struct {
	// AllowMissingPK suppresses the missing-primary-key warning.
	AllowMissingPK bool
}

// Validate inspects m against the target dialect's capability table and
// returns every finding. The model is never mutated.
func Validate(m *model.SchemaModel, target dialect.ID, cfg Config) []model.Diagnostic {
	caps := dialect.Capabilities[target]
	var diags []model.Diagnostic

	diags = append(diags, checkTableNames(m)...)
	for i := range m.Tables {
		t := &m.Tables[i]
		diags = append(diags, checkColumnNames(t)...)
		diags = append(diags, checkIdentifiers(t, caps)...)
		diags = append(diags, checkTypes(t, target, caps)...)
		diags = append(diags, checkForeignKeys(m, t)...)
		if !cfg.AllowMissingPK && len(t.PrimaryKey()) == 0 {
			diags = append(diags, model.Warnf(model.Location{Table: t.Name},
				model.CodeMissingPrimaryKey,
				"table %q has no primary key", t.Name))
		}
	}
	return diags
}

func checkTableNames(m *model.SchemaModel) []model.Diagnostic {
	var diags []model.Diagnostic
	seen := map[string]string{}
	for _, t := range m.Tables {
		key := strings.ToLower(t.Name)
		if first, ok := seen[key]; ok {
			diags = append(diags, model.Errorf(model.Location{Table: t.Name},
				model.CodeDuplicateTable,
				"table name %q duplicates %q (names compare case-insensitively)", t.Name, first))
			continue
		}
		seen[key] = t.Name
	}
	return diags
}

func checkColumnNames(t *model.Table) []model.Diagnostic {
	var diags []model.Diagnostic
	seen := map[string]string{}
	for _, c := range t.Columns {
		key := strings.ToLower(c.Name)
		if first, ok := seen[key]; ok {
			diags = append(diags, model.Errorf(model.Location{Table: t.Name, Column: c.Name},
				model.CodeDuplicateColumn,
				"column name %q duplicates %q in table %q", c.Name, first, t.Name))
			continue
		}
		seen[key] = c.Name
	}
	return diags
}

// checkIdentifiers validates every table and column name against the
// dialect's character rules, length limit, and reserved words.
func checkIdentifiers(t *model.Table, caps dialect.Capability) []model.Diagnostic {
	var diags []model.Diagnostic

	check := func(loc model.Location, name string) {
		if ok, bad := dialect.ValidIdentifier(name); !ok {
			diags = append(diags, model.Errorf(loc, model.CodeIdentifierChars,
				"identifier %q contains invalid character %q for %s", name, string(bad), caps.Name))
		}
		if caps.MaxIdentifierLen > 0 && len(name) > caps.MaxIdentifierLen {
			diags = append(diags, model.Errorf(loc, model.CodeIdentifierLength,
				"identifier %q exceeds the %s limit of %d characters", name, caps.Name, caps.MaxIdentifierLen))
		}
		if caps.IsReserved(name) {
			diags = append(diags, model.Warnf(loc, model.CodeReservedWord,
				"identifier %q is a reserved word in %s; it will be quoted in DDL", name, caps.Name))
		}
	}

	check(model.Location{Table: t.Name}, t.Name)
	for _, c := range t.Columns {
		check(model.Location{Table: t.Name, Column: c.Name}, c.Name)
	}
	// Index and constraint names land in the DDL too. Unnamed foreign keys
	// are skipped; the emitter names those itself.
	for _, idx := range t.Indexes {
		check(model.Location{Table: t.Name}, idx.Name)
	}
	for _, fk := range t.ForeignKeys {
		if fk.Name != "" {
			check(model.Location{Table: t.Name}, fk.Name)
		}
	}
	return diags
}

func checkTypes(t *model.Table, target dialect.ID, caps dialect.Capability) []model.Diagnostic {
	var diags []model.Diagnostic
	for _, c := range t.Columns {
		if _, ok := dialect.MapType(target, c.Type); !ok {
			diags = append(diags, model.Errorf(model.Location{Table: t.Name, Column: c.Name},
				model.CodeTypeUnmappable,
				"type %s has no mapping for %s", model.TypeString(c.Type), caps.Name))
		}
	}
	return diags
}

func checkForeignKeys(m *model.SchemaModel, t *model.Table) []model.Diagnostic {
	var diags []model.Diagnostic
	for _, fk := range t.ForeignKeys {
		loc := model.Location{Table: t.Name}
		if len(fk.SourceColumns) > 0 {
			loc.Column = fk.SourceColumns[0]
		}

		for _, col := range fk.SourceColumns {
			if t.Column(col) == nil {
				diags = append(diags, model.Errorf(loc, model.CodeFKColumnMissing,
					"foreign key %q names source column %q which does not exist in %q", fk.Name, col, t.Name))
			}
		}

		target := m.Table(fk.TargetTable)
		if target == nil {
			diags = append(diags, model.Errorf(loc, model.CodeFKTargetMissing,
				"foreign key %q references unknown table %q", fk.Name, fk.TargetTable))
			continue
		}

		if len(fk.SourceColumns) == 0 || len(fk.SourceColumns) != len(fk.TargetColumns) {
			diags = append(diags, model.Errorf(loc, model.CodeFKArity,
				"foreign key %q has %d source columns but %d target columns",
				fk.Name, len(fk.SourceColumns), len(fk.TargetColumns)))
			continue
		}

		for _, col := range fk.TargetColumns {
			if target.Column(col) == nil {
				diags = append(diags, model.Errorf(loc, model.CodeFKColumnMissing,
					"foreign key %q names target column %q which does not exist in %q", fk.Name, col, target.Name))
			}
		}

		if !targetIsKey(target, fk.TargetColumns) {
			diags = append(diags, model.Errorf(loc, model.CodeFKTargetNotUnique,
				"foreign key %q target columns %s do not form a primary or unique key of %q",
				fk.Name, strings.Join(fk.TargetColumns, ", "), target.Name))
		}

		for i := range fk.SourceColumns {
			src := t.Column(fk.SourceColumns[i])
			tgt := target.Column(fk.TargetColumns[i])
			if src == nil || tgt == nil {
				continue
			}
			if !src.Type.Compatible(tgt.Type) {
				diags = append(diags, model.Errorf(
					model.Location{Table: t.Name, Column: src.Name},
					model.CodeFKTypeMismatch,
					"foreign key %q column %s is %s but target %s.%s is %s",
					fk.Name, src.Name, model.TypeString(src.Type),
					target.Name, tgt.Name, model.TypeString(tgt.Type)))
			}
		}

		if strings.EqualFold(fk.TargetTable, t.Name) && !fk.Confirmed {
			diags = append(diags, model.Errorf(loc, model.CodeFKSelfReference,
				"foreign key %q makes %q reference itself; set the confirmation flag to allow it", fk.Name, t.Name))
		}
	}
	return diags
}

// targetIsKey reports whether cols exactly cover the target's primary key or
// match a unique index or single unique column.
func targetIsKey(target *model.Table, cols []string) bool {
	if equalFoldSets(target.PrimaryKey(), cols) {
		return true
	}
	if len(cols) == 1 {
		if c := target.Column(cols[0]); c != nil && (c.IsUnique || c.IsPrimaryKey) {
			return true
		}
	}
	for _, idx := range target.Indexes {
		if idx.Unique && equalFoldSets(idx.Columns, cols) {
			return true
		}
	}
	return false
}

func equalFoldSets(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, x := range a {
		for i, y := range b {
			if !used[i] && strings.EqualFold(x, y) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}
