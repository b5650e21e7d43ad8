// Package dialect holds the per-target capability and type-mapping tables.
//
// Everything here is static read-only data consulted by the validator and the
// emitters. Adding a dialect means adding a Capability entry and a type map,
// not new conditional branches.
package dialect

import (
	"strings"
	"unicode"
)

// ID is the canonical identifier for a target dialect.
type ID string

const (
	MySQL           ID = "mysql"
	PostgreSQL      ID = "postgres"
	GenericDocument ID = "document"
)

// Parse maps user-supplied dialect names (including common aliases) to an ID.
func Parse(s string) (ID, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return MySQL, true
	case "postgres", "postgresql", "pgsql":
		return PostgreSQL, true
	case "document", "generic", "jsonschema":
		return GenericDocument, true
	default:
		return "", false
	}
}

// Capability describes what a dialect supports, consumed uniformly by the
// validator and emitters.
type Capability struct {
	// Human-friendly name, e.g. "PostgreSQL".
	Name string

	// MaxIdentifierLen is the longest legal table/column name. 0 = unlimited.
	MaxIdentifierLen int

	// QuoteStart/QuoteEnd wrap identifiers in emitted DDL.
	QuoteStart, QuoteEnd string

	// Whether the dialect has a native enum construct.
	SupportsEnum bool

	// Whether the dialect has a native JSON type.
	SupportsJSON bool

	// Whether the dialect supports comments on tables and columns.
	SupportsComments bool

	// ReservedWords are identifiers that collide with dialect keywords.
	// Collisions are reported as warnings since quoting makes them legal.
	ReservedWords map[string]bool
}

// QuoteIdent wraps an identifier in the dialect's quote characters, doubling
// any embedded end-quote.
func (c Capability) QuoteIdent(name string) string {
	if c.QuoteEnd != "" {
		name = strings.ReplaceAll(name, c.QuoteEnd, c.QuoteEnd+c.QuoteEnd)
	}
	return c.QuoteStart + name + c.QuoteEnd
}

// IsReserved reports whether name collides with a dialect keyword.
func (c Capability) IsReserved(name string) bool {
	return c.ReservedWords[strings.ToUpper(name)]
}

// ValidIdentifier reports whether name contains only characters legal in an
// unquoted identifier (letters, digits, underscore, not digit-leading), plus
// the first offending rune when it does not.
func ValidIdentifier(name string) (bool, rune) {
	if name == "" {
		return false, 0
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if unicode.IsDigit(r) {
			if i == 0 {
				return false, r
			}
			continue
		}
		return false, r
	}
	return true, 0
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Capabilities is the registry of dialect capabilities keyed by ID.
// Read-only after init; safe for concurrent use.
var Capabilities = map[ID]Capability{
	MySQL: {
		Name:             "MySQL",
		MaxIdentifierLen: 64,
		QuoteStart:       "`",
		QuoteEnd:         "`",
		SupportsEnum:     true,
		SupportsJSON:     true,
		SupportsComments: true,
		ReservedWords: wordSet(
			"ADD", "ALL", "ALTER", "AND", "AS", "ASC", "BETWEEN", "BIGINT",
			"BINARY", "BLOB", "BY", "CASE", "CHANGE", "CHAR", "CHECK",
			"COLUMN", "CONDITION", "CONSTRAINT", "CREATE", "CROSS", "DATABASE",
			"DECIMAL", "DEFAULT", "DELETE", "DESC", "DISTINCT", "DROP",
			"ELSE", "EXISTS", "FALSE", "FOREIGN", "FROM", "GROUP", "HAVING",
			"IF", "IN", "INDEX", "INNER", "INSERT", "INT", "INTEGER", "INTO",
			"IS", "JOIN", "KEY", "KEYS", "LEFT", "LIKE", "LIMIT", "LOCK",
			"MATCH", "NOT", "NULL", "ON", "OPTION", "OR", "ORDER", "OUTER",
			"PRIMARY", "RANGE", "READ", "REFERENCES", "RENAME", "REPLACE",
			"RIGHT", "SCHEMA", "SELECT", "SET", "SHOW", "TABLE", "THEN",
			"TO", "TRUE", "UNION", "UNIQUE", "UPDATE", "USE", "USING",
			"VALUES", "VARCHAR", "WHEN", "WHERE", "WITH",
		),
	},
	PostgreSQL: {
		Name:             "PostgreSQL",
		MaxIdentifierLen: 63,
		QuoteStart:       `"`,
		QuoteEnd:         `"`,
		SupportsEnum:     true,
		SupportsJSON:     true,
		SupportsComments: true,
		ReservedWords: wordSet(
			"ALL", "ANALYSE", "ANALYZE", "AND", "ANY", "ARRAY", "AS", "ASC",
			"ASYMMETRIC", "BOTH", "CASE", "CAST", "CHECK", "COLLATE",
			"COLUMN", "CONSTRAINT", "CREATE", "CURRENT_DATE", "CURRENT_TIME",
			"CURRENT_TIMESTAMP", "CURRENT_USER", "DEFAULT", "DEFERRABLE",
			"DESC", "DISTINCT", "DO", "ELSE", "END", "EXCEPT", "FALSE",
			"FETCH", "FOR", "FOREIGN", "FROM", "GRANT", "GROUP", "HAVING",
			"IN", "INITIALLY", "INTERSECT", "INTO", "LATERAL", "LEADING",
			"LIMIT", "LOCALTIME", "LOCALTIMESTAMP", "NOT", "NULL", "OFFSET",
			"ON", "ONLY", "OR", "ORDER", "PLACING", "PRIMARY", "REFERENCES",
			"RETURNING", "SELECT", "SESSION_USER", "SOME", "SYMMETRIC",
			"TABLE", "THEN", "TO", "TRAILING", "TRUE", "UNION", "UNIQUE",
			"USER", "USING", "VARIADIC", "WHEN", "WHERE", "WINDOW", "WITH",
		),
	},
	GenericDocument: {
		Name:             "Generic Document Schema",
		MaxIdentifierLen: 0,
		SupportsEnum:     true,
		SupportsJSON:     true,
		SupportsComments: true,
		ReservedWords:    wordSet(),
	},
}
