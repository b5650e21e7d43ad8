// Package model defines the canonical schema representation shared by every
// pipeline stage.
//
// Parsers produce Fragment values, the normalizer merges them into a
// SchemaModel, enrichment and validation read and extend that model, and the
// emitters consume it read-only. Nothing in this package touches I/O; it is
// plain data plus the invariant-preserving helpers the stages rely on.
package model

import "strings"

// TypeKind discriminates the closed set of generic column types.
type TypeKind int

const (
	KindText TypeKind = iota
	KindInteger
	KindBigInteger
	KindDecimal
	KindBoolean
	KindDate
	KindDateTime
	KindBlob
	KindUuid
	KindEnum
	KindJson
)

func (k TypeKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindBigInteger:
		return "biginteger"
	case KindDecimal:
		return "decimal"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	case KindBlob:
		return "blob"
	case KindUuid:
		return "uuid"
	case KindEnum:
		return "enum"
	case KindJson:
		return "json"
	default:
		return "text"
	}
}

// GenericType is a dialect-agnostic column type. It is a value type with no
// identity: copy it freely, never mutate Values in place.
type GenericType struct {
	Kind TypeKind

	// MaxLength applies to Text. 0 means unbounded.
	MaxLength int

	// Precision and Scale apply to Decimal.
	Precision int
	Scale     int

	// Values applies to Enum, in declaration order.
	Values []string
}

// --- Constructors ---

// Text returns a bounded or, with maxLength 0, unbounded text type.
func Text(maxLength int) GenericType {
	return GenericType{Kind: KindText, MaxLength: maxLength}
}

func Integer() GenericType    { return GenericType{Kind: KindInteger} }
func BigInteger() GenericType { return GenericType{Kind: KindBigInteger} }

// Decimal returns a fixed-point numeric type with the given precision and scale.
func Decimal(precision, scale int) GenericType {
	return GenericType{Kind: KindDecimal, Precision: precision, Scale: scale}
}

func Boolean() GenericType  { return GenericType{Kind: KindBoolean} }
func Date() GenericType     { return GenericType{Kind: KindDate} }
func DateTime() GenericType { return GenericType{Kind: KindDateTime} }
func Blob() GenericType     { return GenericType{Kind: KindBlob} }
func Uuid() GenericType     { return GenericType{Kind: KindUuid} }
func Json() GenericType     { return GenericType{Kind: KindJson} }

// Enum returns an enumerated type over the given values. The slice is copied
// so the caller cannot alias into the type.
func Enum(values ...string) GenericType {
	vs := make([]string, len(values))
	copy(vs, values)
	return GenericType{Kind: KindEnum, Values: vs}
}

// Equal reports whether two types are identical including parameters.
func (t GenericType) Equal(o GenericType) bool {
	if t.Kind != o.Kind || t.MaxLength != o.MaxLength ||
		t.Precision != o.Precision || t.Scale != o.Scale {
		return false
	}
	if len(t.Values) != len(o.Values) {
		return false
	}
	for i := range t.Values {
		if t.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

// Compatible reports whether a foreign key column of type t may reference a
// key column of type o. Integer types are interchangeable with each other;
// everything else must match by kind.
func (t GenericType) Compatible(o GenericType) bool {
	if t.Kind == o.Kind {
		return true
	}
	isInt := func(k TypeKind) bool { return k == KindInteger || k == KindBigInteger }
	return isInt(t.Kind) && isInt(o.Kind)
}

func (t GenericType) clone() GenericType {
	if t.Values == nil {
		return t
	}
	vs := make([]string, len(t.Values))
	copy(vs, t.Values)
	t.Values = vs
	return t
}

// Provenance records which input source a fact came from and how much the
// extractor trusted it. Confidence 100 means explicitly declared; inferred
// facts carry lower values so downstream merge logic can rank candidates.
type Provenance struct {
	SourceID   string
	Confidence int // 0–100
}

// Column is a single table column. Columns are owned exclusively by their
// Table and are never shared between tables or models.
type Column struct {
	Name          string
	Type          GenericType
	Nullable      bool
	IsPrimaryKey  bool
	IsUnique      bool
	AutoIncrement bool
	DefaultValue  *string
	Comment       *string
	Provenance    Provenance
}

func (c Column) clone() Column {
	c.Type = c.Type.clone()
	if c.DefaultValue != nil {
		v := *c.DefaultValue
		c.DefaultValue = &v
	}
	if c.Comment != nil {
		v := *c.Comment
		c.Comment = &v
	}
	return c
}

// RefAction is a referential action on delete or update.
type RefAction string

const (
	Cascade  RefAction = "CASCADE"
	SetNull  RefAction = "SET NULL"
	Restrict RefAction = "RESTRICT"
	NoAction RefAction = "NO ACTION"
)

// ForeignKey links ordered source columns to same-arity target columns that
// must form a primary or unique key on the target table.
type ForeignKey struct {
	Name          string
	SourceColumns []string
	TargetTable   string
	TargetColumns []string
	OnDelete      RefAction
	OnUpdate      RefAction

	// Confirmed must be set by the caller before a length-1 self-reference
	// cycle is accepted by validation.
	Confirmed  bool
	Provenance Provenance
}

func (fk ForeignKey) clone() ForeignKey {
	fk.SourceColumns = append([]string(nil), fk.SourceColumns...)
	fk.TargetColumns = append([]string(nil), fk.TargetColumns...)
	return fk
}

// Index is a named index over an ordered column list.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

func (ix Index) clone() Index {
	ix.Columns = append([]string(nil), ix.Columns...)
	return ix
}

// Table holds columns in declaration order; the order is significant for
// emitted DDL. Column names are unique within a table, case-insensitive.
type Table struct {
	Name        string
	Columns     []Column
	Indexes     []Index
	ForeignKeys []ForeignKey
	Comment     *string
}

// Column returns the column with the given name (case-insensitive), or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// PrimaryKey returns the names of the primary key columns in declaration order.
func (t *Table) PrimaryKey() []string {
	var cols []string
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

func (t Table) clone() Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.clone()
	}
	t.Columns = cols

	idxs := make([]Index, len(t.Indexes))
	for i, ix := range t.Indexes {
		idxs[i] = ix.clone()
	}
	t.Indexes = idxs

	fks := make([]ForeignKey, len(t.ForeignKeys))
	for i, fk := range t.ForeignKeys {
		fks[i] = fk.clone()
	}
	t.ForeignKeys = fks

	if t.Comment != nil {
		v := *t.Comment
		t.Comment = &v
	}
	return t
}

// SchemaModel is the full canonical schema. Table order is preserved for
// deterministic output but carries no semantic meaning.
type SchemaModel struct {
	Name   string
	Tables []Table

	// TargetHint is an optional dialect name carried from the request.
	TargetHint string

	// PendingRelationships holds relationship hints (from NL or ORM input)
	// that enrichment has not yet resolved into foreign keys or junction
	// tables. They are never silently dropped.
	PendingRelationships []Relationship
}

// Table returns the table with the given name (case-insensitive), or nil.
func (m *SchemaModel) Table(name string) *Table {
	for i := range m.Tables {
		if strings.EqualFold(m.Tables[i].Name, name) {
			return &m.Tables[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Pipeline stages clone their input so that every
// stage remains a pure transformation.
func (m *SchemaModel) Clone() *SchemaModel {
	out := &SchemaModel{Name: m.Name, TargetHint: m.TargetHint}
	out.Tables = make([]Table, len(m.Tables))
	for i, t := range m.Tables {
		out.Tables[i] = t.clone()
	}
	out.PendingRelationships = append([]Relationship(nil), m.PendingRelationships...)
	return out
}

// Cardinality classifies a relationship hint.
type Cardinality string

const (
	OneToOne   Cardinality = "one_to_one"
	OneToMany  Cardinality = "one_to_many"
	ManyToMany Cardinality = "many_to_many"
)

// Relationship is a parser-extracted hint that two tables are related. The
// enrichment stage turns hints into foreign keys or junction tables.
type Relationship struct {
	SourceTable string
	TargetTable string
	Cardinality Cardinality
	Provenance  Provenance
}

// Fragment is the partial model a single parser produces for one input
// source. Fragments never carry generated keys or inferred foreign keys;
// only what the source actually declared or implied.
type Fragment struct {
	SourceID      string
	SchemaName    string
	Tables        []Table
	Relationships []Relationship
}
