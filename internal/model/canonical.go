package model

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Canonical interchange form. Supported both as an emission target and as an
// import path: exporting a model and re-importing it yields an equal model,
// modulo provenance (which is import-time metadata only).

type canonicalSchema struct {
	XMLName    xml.Name         `json:"-" xml:"schema"`
	SchemaName string           `json:"schemaName" xml:"name,attr"`
	Tables     []canonicalTable `json:"tables" xml:"table"`
}

type canonicalTable struct {
	Name        string         `json:"name" xml:"name,attr"`
	Comment     string         `json:"comment,omitempty" xml:"comment,omitempty"`
	Columns     []canonicalCol `json:"columns" xml:"column"`
	PrimaryKey  *canonicalPK   `json:"primaryKey,omitempty" xml:"primaryKey,omitempty"`
	ForeignKeys []canonicalFK  `json:"foreignKeys,omitempty" xml:"foreignKey,omitempty"`
	Indexes     []canonicalIdx `json:"indexes,omitempty" xml:"index,omitempty"`
}

type canonicalCol struct {
	Name          string  `json:"name" xml:"name,attr"`
	Type          string  `json:"type" xml:"type,attr"`
	Nullable      bool    `json:"nullable" xml:"nullable,attr"`
	IsPrimaryKey  bool    `json:"isPrimaryKey" xml:"primaryKey,attr"`
	IsUnique      bool    `json:"isUnique" xml:"unique,attr"`
	AutoIncrement bool    `json:"autoIncrement" xml:"autoIncrement,attr"`
	DefaultValue  *string `json:"defaultValue,omitempty" xml:"default,omitempty"`
	Comment       string  `json:"comment,omitempty" xml:"comment,omitempty"`
}

type canonicalPK struct {
	Columns []string `json:"columns" xml:"column"`
}

type canonicalFK struct {
	Name              string   `json:"name,omitempty" xml:"name,attr,omitempty"`
	Columns           []string `json:"columns" xml:"column"`
	ReferencesTable   string   `json:"referencesTable" xml:"referencesTable,attr"`
	ReferencesColumns []string `json:"referencesColumns" xml:"referencesColumn"`
	OnDelete          string   `json:"onDelete,omitempty" xml:"onDelete,attr,omitempty"`
	OnUpdate          string   `json:"onUpdate,omitempty" xml:"onUpdate,attr,omitempty"`
}

type canonicalIdx struct {
	Name    string   `json:"name" xml:"name,attr"`
	Columns []string `json:"columns" xml:"column"`
	Unique  bool     `json:"unique" xml:"unique,attr"`
}

// TypeString renders a GenericType in the canonical textual form used by the
// interchange format, e.g. "text(255)", "decimal(10,2)", "enum(a,b,c)".
func TypeString(t GenericType) string {
	switch t.Kind {
	case KindText:
		if t.MaxLength > 0 {
			return fmt.Sprintf("text(%d)", t.MaxLength)
		}
		return "text"
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case KindEnum:
		return "enum(" + strings.Join(t.Values, ",") + ")"
	default:
		return t.Kind.String()
	}
}

// ParseTypeString is the inverse of TypeString. Unknown names degrade to
// unbounded text rather than failing; the validator reports them later.
func ParseTypeString(s string) (GenericType, error) {
	s = strings.TrimSpace(s)
	base, args := s, ""
	if i := strings.IndexByte(s, '('); i >= 0 && strings.HasSuffix(s, ")") {
		base = s[:i]
		args = s[i+1 : len(s)-1]
	}

	switch strings.ToLower(base) {
	case "text", "string":
		if args == "" {
			return Text(0), nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			return GenericType{}, fmt.Errorf("bad text length %q", args)
		}
		return Text(n), nil
	case "integer", "int":
		return Integer(), nil
	case "biginteger", "bigint":
		return BigInteger(), nil
	case "decimal", "numeric":
		if args == "" {
			return Decimal(10, 2), nil
		}
		parts := strings.SplitN(args, ",", 2)
		p, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return GenericType{}, fmt.Errorf("bad decimal precision %q", args)
		}
		sc := 0
		if len(parts) == 2 {
			sc, err = strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return GenericType{}, fmt.Errorf("bad decimal scale %q", args)
			}
		}
		return Decimal(p, sc), nil
	case "boolean", "bool":
		return Boolean(), nil
	case "date":
		return Date(), nil
	case "datetime", "timestamp":
		return DateTime(), nil
	case "blob", "binary":
		return Blob(), nil
	case "uuid":
		return Uuid(), nil
	case "json":
		return Json(), nil
	case "enum":
		var vals []string
		for _, v := range strings.Split(args, ",") {
			if v = strings.TrimSpace(v); v != "" {
				vals = append(vals, v)
			}
		}
		return Enum(vals...), nil
	default:
		return Text(0), nil
	}
}

func toCanonical(m *SchemaModel) canonicalSchema {
	out := canonicalSchema{SchemaName: m.Name}
	for _, t := range m.Tables {
		ct := canonicalTable{Name: t.Name}
		if t.Comment != nil {
			ct.Comment = *t.Comment
		}
		for _, c := range t.Columns {
			cc := canonicalCol{
				Name:          c.Name,
				Type:          TypeString(c.Type),
				Nullable:      c.Nullable,
				IsPrimaryKey:  c.IsPrimaryKey,
				IsUnique:      c.IsUnique,
				AutoIncrement: c.AutoIncrement,
				DefaultValue:  c.DefaultValue,
			}
			if c.Comment != nil {
				cc.Comment = *c.Comment
			}
			ct.Columns = append(ct.Columns, cc)
		}
		if pk := t.PrimaryKey(); len(pk) > 0 {
			ct.PrimaryKey = &canonicalPK{Columns: pk}
		}
		for _, fk := range t.ForeignKeys {
			ct.ForeignKeys = append(ct.ForeignKeys, canonicalFK{
				Name:              fk.Name,
				Columns:           fk.SourceColumns,
				ReferencesTable:   fk.TargetTable,
				ReferencesColumns: fk.TargetColumns,
				OnDelete:          string(fk.OnDelete),
				OnUpdate:          string(fk.OnUpdate),
			})
		}
		for _, ix := range t.Indexes {
			ct.Indexes = append(ct.Indexes, canonicalIdx{Name: ix.Name, Columns: ix.Columns, Unique: ix.Unique})
		}
		out.Tables = append(out.Tables, ct)
	}
	return out
}

func fromCanonical(cs canonicalSchema) (*SchemaModel, error) {
	m := &SchemaModel{Name: cs.SchemaName}
	for _, ct := range cs.Tables {
		t := Table{Name: ct.Name}
		if ct.Comment != "" {
			v := ct.Comment
			t.Comment = &v
		}
		for _, cc := range ct.Columns {
			typ, err := ParseTypeString(cc.Type)
			if err != nil {
				return nil, fmt.Errorf("table %q column %q: %w", ct.Name, cc.Name, err)
			}
			col := Column{
				Name:          cc.Name,
				Type:          typ,
				Nullable:      cc.Nullable,
				IsPrimaryKey:  cc.IsPrimaryKey,
				IsUnique:      cc.IsUnique,
				AutoIncrement: cc.AutoIncrement,
				DefaultValue:  cc.DefaultValue,
			}
			if cc.Comment != "" {
				v := cc.Comment
				col.Comment = &v
			}
			t.Columns = append(t.Columns, col)
		}
		// A table-level primaryKey block overrides per-column flags.
		if ct.PrimaryKey != nil {
			for i := range t.Columns {
				t.Columns[i].IsPrimaryKey = false
			}
			for _, name := range ct.PrimaryKey.Columns {
				if c := t.Column(name); c != nil {
					c.IsPrimaryKey = true
				}
			}
		}
		for _, cfk := range ct.ForeignKeys {
			fk := ForeignKey{
				Name:          cfk.Name,
				SourceColumns: cfk.Columns,
				TargetTable:   cfk.ReferencesTable,
				TargetColumns: cfk.ReferencesColumns,
				OnDelete:      parseRefAction(cfk.OnDelete),
				OnUpdate:      parseRefAction(cfk.OnUpdate),
			}
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
		for _, cix := range ct.Indexes {
			t.Indexes = append(t.Indexes, Index{Name: cix.Name, Columns: cix.Columns, Unique: cix.Unique})
		}
		m.Tables = append(m.Tables, t)
	}
	return m, nil
}

func parseRefAction(s string) RefAction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CASCADE":
		return Cascade
	case "SET NULL", "SET_NULL", "SETNULL":
		return SetNull
	case "RESTRICT":
		return Restrict
	default:
		return NoAction
	}
}

// MarshalCanonicalJSON renders the model in the canonical JSON interchange
// form, indented for readability.
func MarshalCanonicalJSON(m *SchemaModel) ([]byte, error) {
	return json.MarshalIndent(toCanonical(m), "", "  ")
}

// UnmarshalCanonicalJSON parses the canonical JSON form back into a model.
func UnmarshalCanonicalJSON(data []byte) (*SchemaModel, error) {
	var cs canonicalSchema
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, err
	}
	return fromCanonical(cs)
}

// MarshalCanonicalXML renders the model in the equivalent XML form.
func MarshalCanonicalXML(m *SchemaModel) ([]byte, error) {
	out, err := xml.MarshalIndent(toCanonical(m), "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// UnmarshalCanonicalXML parses the XML form back into a model.
func UnmarshalCanonicalXML(data []byte) (*SchemaModel, error) {
	var cs canonicalSchema
	if err := xml.Unmarshal(data, &cs); err != nil {
		return nil, err
	}
	return fromCanonical(cs)
}

// Equal compares two models structurally: tables, columns, keys, and indexes,
// ignoring provenance and pending relationship hints.
func Equal(a, b *SchemaModel) bool {
	ja, errA := json.Marshal(toCanonical(a))
	jb, errB := json.Marshal(toCanonical(b))
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}
