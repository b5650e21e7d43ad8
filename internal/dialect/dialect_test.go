package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemasmith/schemasmith/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   ID
		wantOK bool
	}{
		{"mysql", MySQL, true},
		{"MySQL", MySQL, true},
		{"postgres", PostgreSQL, true},
		{"postgresql", PostgreSQL, true},
		{"document", GenericDocument, true},
		{"oracle", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCapability_QuoteIdent(t *testing.T) {
	assert.Equal(t, "`order`", Capabilities[MySQL].QuoteIdent("order"))
	assert.Equal(t, `"order"`, Capabilities[PostgreSQL].QuoteIdent("order"))

	// Embedded end quote is doubled.
	assert.Equal(t, "`a``b`", Capabilities[MySQL].QuoteIdent("a`b"))
}

func TestCapability_IsReserved(t *testing.T) {
	caps := Capabilities[MySQL]
	assert.True(t, caps.IsReserved("select"))
	assert.True(t, caps.IsReserved("ORDER"))
	assert.False(t, caps.IsReserved("customers"))
}

func TestCapability_IdentifierLimits(t *testing.T) {
	assert.Equal(t, 64, Capabilities[MySQL].MaxIdentifierLen)
	assert.Equal(t, 63, Capabilities[PostgreSQL].MaxIdentifierLen)
	assert.Equal(t, 0, Capabilities[GenericDocument].MaxIdentifierLen)
}

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		ok      bool
		badRune rune
	}{
		{"users", true, 0},
		{"user_accounts", true, 0},
		{"_hidden", true, 0},
		{"col2", true, 0},
		{"order details", false, ' '},
		{"naïve", true, 0},
		{"price$", false, '$'},
		{"2fast", false, '2'},
		{"", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, bad := ValidIdentifier(tt.name)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, tt.badRune, bad)
			}
		})
	}
}

func TestMapType_MySQL(t *testing.T) {
	tests := []struct {
		typ  model.GenericType
		want string
	}{
		{model.Text(255), "VARCHAR(255)"},
		{model.Text(0), "VARCHAR(255)"},
		{model.Text(100000), "TEXT"},
		{model.Integer(), "INT"},
		{model.BigInteger(), "BIGINT"},
		{model.Decimal(10, 2), "DECIMAL(10, 2)"},
		{model.Boolean(), "BOOLEAN"},
		{model.DateTime(), "DATETIME"},
		{model.Uuid(), "CHAR(36)"},
		{model.Enum("a", "b"), "ENUM('a', 'b')"},
		{model.Json(), "JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, ok := MapType(MySQL, tt.typ)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapType_Postgres(t *testing.T) {
	tests := []struct {
		typ  model.GenericType
		want string
	}{
		{model.Text(0), "TEXT"},
		{model.Text(80), "VARCHAR(80)"},
		{model.Integer(), "INTEGER"},
		{model.Decimal(12, 4), "NUMERIC(12, 4)"},
		{model.DateTime(), "TIMESTAMP WITHOUT TIME ZONE"},
		{model.Blob(), "BYTEA"},
		{model.Uuid(), "UUID"},
		{model.Json(), "JSONB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, ok := MapType(PostgreSQL, tt.typ)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapType_Document(t *testing.T) {
	got, ok := MapType(GenericDocument, model.DateTime())
	require.True(t, ok)
	assert.Equal(t, "string:date-time", got)

	got, ok = MapType(GenericDocument, model.Json())
	require.True(t, ok)
	assert.Equal(t, "object", got)
}

func TestMapType_UnknownDialect(t *testing.T) {
	_, ok := MapType(ID("oracle"), model.Integer())
	assert.False(t, ok)
}
