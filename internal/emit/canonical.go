package emit

import (
	"github.com/schemasmith/schemasmith/internal/model"
)

// CanonicalJSONEmitter writes the canonical JSON interchange form. Output is
// importable back through the JSON parse path.
type CanonicalJSONEmitter struct{}

func (e *CanonicalJSONEmitter) Emit(m *model.SchemaModel, opts Options) (string, error) {
	out := m
	if opts.Naming != "" && opts.Naming != AsDefined {
		out = renameModel(m, opts.Naming)
	}
	data, err := model.MarshalCanonicalJSON(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CanonicalXMLEmitter writes the equivalent XML form.
type CanonicalXMLEmitter struct{}

func (e *CanonicalXMLEmitter) Emit(m *model.SchemaModel, opts Options) (string, error) {
	out := m
	if opts.Naming != "" && opts.Naming != AsDefined {
		out = renameModel(m, opts.Naming)
	}
	data, err := model.MarshalCanonicalXML(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// renameModel returns a copy with the naming convention applied to every
// table, column, index, and foreign-key reference.
func renameModel(m *model.SchemaModel, naming NamingConvention) *model.SchemaModel {
	out := m.Clone()
	for ti := range out.Tables {
		t := &out.Tables[ti]
		t.Name = rename(t.Name, naming)
		for ci := range t.Columns {
			t.Columns[ci].Name = rename(t.Columns[ci].Name, naming)
		}
		for ii := range t.Indexes {
			for k, col := range t.Indexes[ii].Columns {
				t.Indexes[ii].Columns[k] = rename(col, naming)
			}
		}
		for fi := range t.ForeignKeys {
			fk := &t.ForeignKeys[fi]
			fk.TargetTable = rename(fk.TargetTable, naming)
			for k, col := range fk.SourceColumns {
				fk.SourceColumns[k] = rename(col, naming)
			}
			for k, col := range fk.TargetColumns {
				fk.TargetColumns[k] = rename(col, naming)
			}
		}
	}
	return out
}
