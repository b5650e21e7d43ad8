package emit

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/schemasmith/schemasmith/internal/dialect"
	"github.com/schemasmith/schemasmith/internal/errs"
	"github.com/schemasmith/schemasmith/internal/model"
)

// DocumentEmitter renders a dialect-neutral document-schema descriptor: one
// JSON object per table with type/properties/required plus x-primary-key and
// x-references annotations. Property order follows column declaration order.
type DocumentEmitter struct{}

type docProperty struct {
	Type      string   `json:"type"`
	Format    string   `json:"format,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Enum      []string `json:"enum,omitempty"`
	Comment   string   `json:"description,omitempty"`
}

type docReference struct {
	Property   string `json:"property"`
	Collection string `json:"collection"`
	Field      string `json:"field"`
}

func (e *DocumentEmitter) Emit(m *model.SchemaModel, opts Options) (string, error) {
	ordered := orderTables(m)

	var buf bytes.Buffer
	buf.WriteString("{\n")
	buf.WriteString("  \"collections\": {\n")

	for i, t := range ordered {
		body, err := e.collection(t, opts)
		if err != nil {
			return "", errs.Wrap(errs.KindUnknown, "encoding document schema", err)
		}
		buf.WriteString("    " + jsonString(rename(t.Name, opts.Naming)) + ": " + indentLines(body, "    "))
		if i < len(ordered)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}

	buf.WriteString("  }\n}\n")
	return buf.String(), nil
}

// collection renders one table as an indented JSON object, keeping property
// order stable by writing keys explicitly instead of through a map.
func (e *DocumentEmitter) collection(t *model.Table, opts Options) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	buf.WriteString("  \"type\": \"object\",\n")

	buf.WriteString("  \"properties\": {\n")
	for i, c := range t.Columns {
		prop := e.property(c, opts)
		raw, err := json.Marshal(prop)
		if err != nil {
			return "", err
		}
		buf.WriteString("    " + jsonString(rename(c.Name, opts.Naming)) + ": " + string(raw))
		if i < len(t.Columns)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("  }")

	var required []string
	for _, c := range t.Columns {
		if !c.Nullable {
			required = append(required, rename(c.Name, opts.Naming))
		}
	}
	if len(required) > 0 {
		raw, _ := json.Marshal(required)
		buf.WriteString(",\n  \"required\": " + string(raw))
	}

	if pk := t.PrimaryKey(); len(pk) > 0 {
		renamed := make([]string, len(pk))
		for i, p := range pk {
			renamed[i] = rename(p, opts.Naming)
		}
		raw, _ := json.Marshal(renamed)
		buf.WriteString(",\n  \"x-primary-key\": " + string(raw))
	}

	if len(t.ForeignKeys) > 0 {
		var refs []docReference
		for _, fk := range t.ForeignKeys {
			for i := range fk.SourceColumns {
				if i >= len(fk.TargetColumns) {
					break
				}
				refs = append(refs, docReference{
					Property:   rename(fk.SourceColumns[i], opts.Naming),
					Collection: rename(fk.TargetTable, opts.Naming),
					Field:      rename(fk.TargetColumns[i], opts.Naming),
				})
			}
		}
		raw, _ := json.Marshal(refs)
		buf.WriteString(",\n  \"x-references\": " + string(raw))
	}

	buf.WriteString("\n}")
	return buf.String(), nil
}

func (e *DocumentEmitter) property(c model.Column, opts Options) docProperty {
	mapped, _ := dialect.MapType(dialect.GenericDocument, c.Type)
	prop := docProperty{Type: mapped}
	if base, format, ok := strings.Cut(mapped, ":"); ok {
		prop.Type, prop.Format = base, format
	}
	if c.Type.Kind == model.KindText && c.Type.MaxLength > 0 {
		prop.MaxLength = c.Type.MaxLength
	}
	if c.Type.Kind == model.KindEnum {
		prop.Enum = c.Type.Values
	}
	if opts.IncludeComments && c.Comment != nil {
		prop.Comment = *c.Comment
	}
	return prop
}

func jsonString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

// indentLines indents every line after the first by prefix, for nesting a
// pre-rendered block inside another object.
func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
