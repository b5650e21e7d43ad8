package dialect

import (
	"fmt"
	"strings"

	"github.com/schemasmith/schemasmith/internal/model"
)

// TypeMapper renders a GenericType in a dialect's syntax. Mappers are total:
// every kind produces output. MapType separately reports kinds a dialect has
// no real representation for, so the validator can flag them before emission.
type TypeMapper func(t model.GenericType) string

// TypeMaps is the registry of type mappers keyed by dialect ID.
// Read-only after init; safe for concurrent use.
var TypeMaps = map[ID]TypeMapper{
	MySQL:           mapMySQL,
	PostgreSQL:      mapPostgres,
	GenericDocument: mapDocument,
}

// MapType renders t for the given dialect, reporting false when the dialect
// has no defined mapping for the kind.
func MapType(id ID, t model.GenericType) (string, bool) {
	mapper, ok := TypeMaps[id]
	if !ok {
		return "", false
	}
	return mapper(t), true
}

func mapMySQL(t model.GenericType) string {
	switch t.Kind {
	case model.KindText:
		if t.MaxLength > 0 && t.MaxLength <= 16383 {
			return fmt.Sprintf("VARCHAR(%d)", t.MaxLength)
		}
		if t.MaxLength == 0 {
			return "VARCHAR(255)"
		}
		return "TEXT"
	case model.KindInteger:
		return "INT"
	case model.KindBigInteger:
		return "BIGINT"
	case model.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d, %d)", t.Precision, t.Scale)
	case model.KindBoolean:
		return "BOOLEAN"
	case model.KindDate:
		return "DATE"
	case model.KindDateTime:
		return "DATETIME"
	case model.KindBlob:
		return "BLOB"
	case model.KindUuid:
		return "CHAR(36)"
	case model.KindEnum:
		if len(t.Values) == 0 {
			return "VARCHAR(255)"
		}
		quoted := make([]string, len(t.Values))
		for i, v := range t.Values {
			quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		return "ENUM(" + strings.Join(quoted, ", ") + ")"
	case model.KindJson:
		return "JSON"
	default:
		return "VARCHAR(255)"
	}
}

func mapPostgres(t model.GenericType) string {
	switch t.Kind {
	case model.KindText:
		if t.MaxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", t.MaxLength)
		}
		return "TEXT"
	case model.KindInteger:
		return "INTEGER"
	case model.KindBigInteger:
		return "BIGINT"
	case model.KindDecimal:
		return fmt.Sprintf("NUMERIC(%d, %d)", t.Precision, t.Scale)
	case model.KindBoolean:
		return "BOOLEAN"
	case model.KindDate:
		return "DATE"
	case model.KindDateTime:
		return "TIMESTAMP WITHOUT TIME ZONE"
	case model.KindBlob:
		return "BYTEA"
	case model.KindUuid:
		return "UUID"
	case model.KindEnum:
		// Enum columns use a named CREATE TYPE; the emitter substitutes the
		// generated type name. TEXT is the fallback rendering only.
		return "TEXT"
	case model.KindJson:
		return "JSONB"
	default:
		return "TEXT"
	}
}

func mapDocument(t model.GenericType) string {
	switch t.Kind {
	case model.KindText, model.KindUuid:
		return "string"
	case model.KindInteger, model.KindBigInteger:
		return "integer"
	case model.KindDecimal:
		return "number"
	case model.KindBoolean:
		return "boolean"
	case model.KindDate:
		return "string:date"
	case model.KindDateTime:
		return "string:date-time"
	case model.KindBlob:
		return "string:binary"
	case model.KindEnum:
		return "string"
	case model.KindJson:
		return "object"
	default:
		return "string"
	}
}
