// Package enrich fills the gaps a merged schema model still has after
// normalization: untyped columns get types inferred from naming conventions,
// keyless tables get surrogate primary keys, and relationship hints become
// concrete foreign keys or junction tables. Enrichment is a pure function of
// its input; everything it adds carries inferred-level confidence so callers
// can tell generated structure from parsed structure.
package enrich

import (
	"strings"

	"github.com/schemasmith/schemasmith/internal/inflect"
	"github.com/schemasmith/schemasmith/internal/model"
)

// Confidence assigned to structure enrichment invents rather than reads.
const inferredConfidence = 60

// Config toggles the individual enrichment passes. DefaultConfig enables all
// of them.
type Config struct {
	GeneratePrimaryKeys bool
	InferTypes          bool
	InferForeignKeys    bool
	ResolveHints        bool
}

func DefaultConfig() Config {
	return Config{
		GeneratePrimaryKeys: true,
		InferTypes:          true,
		InferForeignKeys:    true,
		ResolveHints:        true,
	}
}

// Enrich returns an enriched deep copy of m. The input is never mutated.
func Enrich(m *model.SchemaModel, cfg Config) (*model.SchemaModel, []model.Diagnostic) {
	out := m.Clone()
	var diags []model.Diagnostic

	if cfg.InferTypes {
		diags = append(diags, inferTypes(out)...)
	}
	if cfg.GeneratePrimaryKeys {
		diags = append(diags, generatePrimaryKeys(out)...)
	}
	if cfg.ResolveHints {
		diags = append(diags, resolveHints(out)...)
	}
	if cfg.InferForeignKeys {
		diags = append(diags, inferForeignKeys(out)...)
	}
	return out, diags
}

// --- Type inference ---

// inferTypes assigns a concrete type to every column that still has the
// untyped placeholder (text with no length), based on its name.
func inferTypes(m *model.SchemaModel) []model.Diagnostic {
	var diags []model.Diagnostic
	for ti := range m.Tables {
		t := &m.Tables[ti]
		for ci := range t.Columns {
			c := &t.Columns[ci]
			// Declared types stay as parsed; only low-confidence
			// placeholder text is eligible for inference.
			if !isUntyped(c.Type) || c.Provenance.Confidence >= 90 {
				continue
			}
			inferred, matched := typeFromName(c.Name)
			c.Type = inferred
			if matched {
				diags = append(diags, model.Suggestf(
					model.Location{Table: t.Name, Column: c.Name},
					model.CodeLowConfidence,
					"column type %s inferred from name %q", model.TypeString(inferred), c.Name))
				if c.Provenance.Confidence == 0 || c.Provenance.Confidence > inferredConfidence {
					c.Provenance.Confidence = inferredConfidence
				}
			}
		}
	}
	return diags
}

func isUntyped(t model.GenericType) bool {
	return t.Kind == model.KindText && t.MaxLength == 0
}

// typeFromName maps naming conventions to types. The bool reports whether a
// convention matched; unmatched names fall back to unbounded text.
func typeFromName(name string) (model.GenericType, bool) {
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(n, "is_") || strings.HasPrefix(n, "has_"):
		return model.Boolean(), true
	case strings.HasSuffix(n, "_at"):
		return model.DateTime(), true
	case strings.HasSuffix(n, "_date") || strings.HasSuffix(n, "_on") || n == "date":
		return model.Date(), true
	case strings.HasSuffix(n, "_id") || n == "id":
		return model.Integer(), true
	case strings.Contains(n, "price") || strings.Contains(n, "amount") || strings.Contains(n, "cost"):
		return model.Decimal(10, 2), true
	case strings.Contains(n, "email") || strings.Contains(n, "name") || strings.Contains(n, "title"):
		return model.Text(255), true
	}
	return model.Text(0), false
}

// --- Primary key generation ---

// generatePrimaryKeys inserts a surrogate `id` column at position zero for
// every table that declares no primary key. An existing `id` column is
// promoted instead of shadowed.
func generatePrimaryKeys(m *model.SchemaModel) []model.Diagnostic {
	var diags []model.Diagnostic
	for ti := range m.Tables {
		t := &m.Tables[ti]
		if len(t.PrimaryKey()) > 0 {
			continue
		}
		if existing := t.Column("id"); existing != nil {
			existing.IsPrimaryKey = true
			existing.Nullable = false
			diags = append(diags, model.Suggestf(model.Location{Table: t.Name, Column: existing.Name},
				model.CodeInferredKey,
				"promoted existing column %q to primary key", existing.Name))
			continue
		}
		id := model.Column{
			Name:          "id",
			Type:          model.BigInteger(),
			Nullable:      false,
			IsPrimaryKey:  true,
			AutoIncrement: true,
			Provenance:    model.Provenance{Confidence: inferredConfidence},
		}
		t.Columns = append([]model.Column{id}, t.Columns...)
		diags = append(diags, model.Suggestf(model.Location{Table: t.Name, Column: "id"},
			model.CodeInferredKey,
			"table %q has no primary key; generated surrogate auto-increment id", t.Name))
	}
	return diags
}

// --- Relationship hints ---

// resolveHints turns pending relationship hints into foreign keys (one-to-one
// and one-to-many) or junction tables (many-to-many). Hints naming unknown
// tables stay pending.
func resolveHints(m *model.SchemaModel) []model.Diagnostic {
	var diags []model.Diagnostic
	var unresolved []model.Relationship

	for _, rel := range m.PendingRelationships {
		src := findTable(m, rel.SourceTable)
		tgt := findTable(m, rel.TargetTable)
		if src == nil || tgt == nil {
			unresolved = append(unresolved, rel)
			continue
		}
		switch rel.Cardinality {
		case model.ManyToMany:
			name, created := addJunctionTable(m, src.Name, tgt.Name, rel.Provenance)
			if created {
				diags = append(diags, model.Suggestf(model.Location{Table: name},
					model.CodeInferredRelation,
					"created junction table %q for many-to-many between %q and %q", name, src.Name, tgt.Name))
			}
		case model.OneToOne:
			diags = append(diags, addHintFK(m, tgt.Name, src.Name, rel.Provenance, true)...)
		default:
			// One-to-many: the FK column lives on the many side.
			diags = append(diags, addHintFK(m, tgt.Name, src.Name, rel.Provenance, false)...)
		}
	}

	m.PendingRelationships = unresolved
	return diags
}

// addHintFK adds a `<one>_id` column and FK on the many-side table pointing
// at the one-side table's primary key.
func addHintFK(m *model.SchemaModel, manyTable, oneTable string, prov model.Provenance, unique bool) []model.Diagnostic {
	many := m.Table(manyTable)
	one := m.Table(oneTable)
	pk := one.PrimaryKey()
	if len(pk) != 1 {
		return []model.Diagnostic{model.Warnf(model.Location{Table: manyTable},
			model.CodeInferredRelation,
			"cannot attach relationship to %q: table %q lacks a single-column primary key", manyTable, oneTable)}
	}
	colName := inflect.Singular(oneTable) + "_" + pk[0]
	if many.Column(colName) == nil {
		refType := one.Column(pk[0]).Type
		many.Columns = append(many.Columns, model.Column{
			Name:       colName,
			Type:       refType,
			Nullable:   false,
			IsUnique:   unique,
			Provenance: prov,
		})
	}
	if hasFKTo(many, oneTable, colName) {
		return nil
	}
	many.ForeignKeys = append(many.ForeignKeys, model.ForeignKey{
		Name:          fkName(manyTable, colName),
		SourceColumns: []string{colName},
		TargetTable:   one.Name,
		TargetColumns: pk,
		OnDelete:      model.Restrict,
		OnUpdate:      model.NoAction,
		Provenance:    prov,
	})
	return []model.Diagnostic{model.Suggestf(model.Location{Table: manyTable, Column: colName},
		model.CodeInferredRelation,
		"added foreign key %s.%s -> %s.%s from relationship hint", manyTable, colName, one.Name, pk[0])}
}

// addJunctionTable creates (or finds) the junction table for a many-to-many
// pair. The name joins the two table names in alphabetical order so the
// result does not depend on hint order.
func addJunctionTable(m *model.SchemaModel, a, b string, prov model.Provenance) (string, bool) {
	first, second := a, b
	if strings.ToLower(second) < strings.ToLower(first) {
		first, second = second, first
	}
	name := strings.ToLower(first) + "_" + strings.ToLower(second)
	if m.Table(name) != nil {
		return name, false
	}

	junction := model.Table{Name: name}
	for _, side := range []string{first, second} {
		t := m.Table(side)
		pk := t.PrimaryKey()
		if len(pk) != 1 {
			continue
		}
		colName := inflect.Singular(side) + "_" + pk[0]
		junction.Columns = append(junction.Columns, model.Column{
			Name:         colName,
			Type:         t.Column(pk[0]).Type,
			Nullable:     false,
			IsPrimaryKey: true,
			Provenance:   prov,
		})
		junction.ForeignKeys = append(junction.ForeignKeys, model.ForeignKey{
			Name:          fkName(name, colName),
			SourceColumns: []string{colName},
			TargetTable:   t.Name,
			TargetColumns: pk,
			OnDelete:      model.Cascade,
			OnUpdate:      model.NoAction,
			Provenance:    prov,
		})
	}
	m.Tables = append(m.Tables, junction)
	return name, true
}

// --- Foreign key inference from column names ---

// inferForeignKeys scans for `<noun>_id` columns whose noun matches another
// table (singular or plural) with a usable primary key, and adds the missing
// foreign key.
func inferForeignKeys(m *model.SchemaModel) []model.Diagnostic {
	var diags []model.Diagnostic
	for ti := range m.Tables {
		t := &m.Tables[ti]
		for ci := range t.Columns {
			c := &t.Columns[ci]
			n := strings.ToLower(c.Name)
			if !strings.HasSuffix(n, "_id") || len(n) <= 3 {
				continue
			}
			noun := n[:len(n)-3]
			target := matchTable(m, noun)
			if target == nil || strings.EqualFold(target.Name, t.Name) {
				continue
			}
			pk := target.PrimaryKey()
			if len(pk) != 1 && target.Column("id") != nil {
				pk = []string{target.Column("id").Name}
			}
			if len(pk) != 1 {
				continue
			}
			if hasFKTo(t, target.Name, c.Name) {
				continue
			}
			t.ForeignKeys = append(t.ForeignKeys, model.ForeignKey{
				Name:          fkName(t.Name, c.Name),
				SourceColumns: []string{c.Name},
				TargetTable:   target.Name,
				TargetColumns: pk,
				OnDelete:      model.Restrict,
				OnUpdate:      model.NoAction,
				Provenance:    model.Provenance{Confidence: inferredConfidence},
			})
			diags = append(diags, model.Suggestf(model.Location{Table: t.Name, Column: c.Name},
				model.CodeInferredRelation,
				"inferred foreign key %s.%s -> %s.%s from column name", t.Name, c.Name, target.Name, pk[0]))
		}
	}
	return diags
}

// matchTable looks a noun up as a table name, trying the noun itself, its
// plural, and its singular.
func matchTable(m *model.SchemaModel, noun string) *model.Table {
	for _, candidate := range []string{noun, inflect.Plural(noun), inflect.Singular(noun)} {
		if t := m.Table(candidate); t != nil {
			return t
		}
	}
	return nil
}

func findTable(m *model.SchemaModel, name string) *model.Table {
	if t := m.Table(name); t != nil {
		return t
	}
	return matchTable(m, strings.ToLower(name))
}

func hasFKTo(t *model.Table, target, sourceCol string) bool {
	for _, fk := range t.ForeignKeys {
		if strings.EqualFold(fk.TargetTable, target) &&
			len(fk.SourceColumns) == 1 && strings.EqualFold(fk.SourceColumns[0], sourceCol) {
			return true
		}
	}
	return false
}

func fkName(table, column string) string {
	return "fk_" + strings.ToLower(table) + "_" + strings.ToLower(column)
}
