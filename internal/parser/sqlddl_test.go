package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemasmith/schemasmith/internal/errs"
	"github.com/schemasmith/schemasmith/internal/model"
)

func parseSQL(t *testing.T, input string) (*model.Fragment, []model.Diagnostic) {
	t.Helper()
	frag, diags, err := (&SQLParser{}).Parse(context.Background(), input, Hints{SourceID: "test"})
	require.NoError(t, err)
	require.NotNil(t, frag)
	return frag, diags
}

func TestSQLParser_BasicCreateTable(t *testing.T) {
	frag, diags := parseSQL(t, `
		CREATE TABLE users (
			id INT PRIMARY KEY AUTO_INCREMENT,
			email VARCHAR(255) NOT NULL UNIQUE,
			created_at DATETIME
		);`)

	require.Len(t, frag.Tables, 1)
	assert.Empty(t, diags)

	users := frag.Tables[0]
	assert.Equal(t, "users", users.Name)
	require.Len(t, users.Columns, 3)

	id := users.Columns[0]
	assert.True(t, id.Type.Equal(model.Integer()))
	assert.True(t, id.IsPrimaryKey)
	assert.True(t, id.AutoIncrement)
	assert.False(t, id.Nullable)
	assert.Equal(t, 100, id.Provenance.Confidence)

	email := users.Columns[1]
	assert.True(t, email.Type.Equal(model.Text(255)))
	assert.False(t, email.Nullable)
	assert.True(t, email.IsUnique)

	created := users.Columns[2]
	assert.True(t, created.Type.Equal(model.DateTime()))
	assert.True(t, created.Nullable)
}

func TestSQLParser_TableLevelConstraints(t *testing.T) {
	frag, _ := parseSQL(t, `
		CREATE TABLE memberships (
			user_id INT NOT NULL,
			group_id INT NOT NULL,
			role VARCHAR(50),
			PRIMARY KEY (user_id, group_id),
			UNIQUE KEY uq_role (user_id, role),
			FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE ON UPDATE NO ACTION
		);`)

	require.Len(t, frag.Tables, 1)
	m := frag.Tables[0]

	assert.Equal(t, []string{"user_id", "group_id"}, m.PrimaryKey())

	require.Len(t, m.Indexes, 1)
	assert.True(t, m.Indexes[0].Unique)
	assert.Equal(t, []string{"user_id", "role"}, m.Indexes[0].Columns)

	require.Len(t, m.ForeignKeys, 1)
	fk := m.ForeignKeys[0]
	assert.Equal(t, []string{"user_id"}, fk.SourceColumns)
	assert.Equal(t, "users", fk.TargetTable)
	assert.Equal(t, []string{"id"}, fk.TargetColumns)
	assert.Equal(t, model.Cascade, fk.OnDelete)
	assert.Equal(t, model.NoAction, fk.OnUpdate)
}

func TestSQLParser_QuotedIdentifiers(t *testing.T) {
	frag, _ := parseSQL(t, "CREATE TABLE `order items` (\"total price\" DECIMAL(8,2));")

	require.Len(t, frag.Tables, 1)
	assert.Equal(t, "order items", frag.Tables[0].Name)
	require.Len(t, frag.Tables[0].Columns, 1)
	assert.Equal(t, "total price", frag.Tables[0].Columns[0].Name)
	assert.True(t, frag.Tables[0].Columns[0].Type.Equal(model.Decimal(8, 2)))
}

func TestSQLParser_TypeMapping(t *testing.T) {
	tests := []struct {
		sqlType string
		want    model.GenericType
	}{
		{"VARCHAR(100)", model.Text(100)},
		{"TEXT", model.Text(0)},
		{"INT", model.Integer()},
		{"BIGINT", model.BigInteger()},
		{"DECIMAL(12,4)", model.Decimal(12, 4)},
		{"NUMERIC(5,1)", model.Decimal(5, 1)},
		{"BOOLEAN", model.Boolean()},
		{"DATE", model.Date()},
		{"TIMESTAMP", model.DateTime()},
		{"UUID", model.Uuid()},
		{"JSON", model.Json()},
		{"BLOB", model.Blob()},
		{"ENUM('a','b')", model.Enum("a", "b")},
		{"DOUBLE PRECISION", model.Decimal(16, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.sqlType, func(t *testing.T) {
			frag, _ := parseSQL(t, "CREATE TABLE t (c "+tt.sqlType+");")
			require.Len(t, frag.Tables, 1)
			require.Len(t, frag.Tables[0].Columns, 1)
			got := frag.Tables[0].Columns[0].Type
			assert.True(t, got.Equal(tt.want), "got %+v want %+v", got, tt.want)
		})
	}
}

func TestSQLParser_UnknownTypeDegradesWithDiagnostic(t *testing.T) {
	frag, diags := parseSQL(t, "CREATE TABLE t (loc GEOGRAPHY);")

	require.Len(t, frag.Tables, 1)
	assert.True(t, frag.Tables[0].Columns[0].Type.Equal(model.Text(0)))

	require.NotEmpty(t, diags)
	assert.Equal(t, model.CodeUnknownType, diags[0].Code)
}

func TestSQLParser_SerialBecomesAutoIncrement(t *testing.T) {
	frag, _ := parseSQL(t, `CREATE TABLE events (id BIGSERIAL PRIMARY KEY, seq SERIAL);`)

	cols := frag.Tables[0].Columns
	require.Len(t, cols, 2)
	assert.True(t, cols[0].Type.Equal(model.BigInteger()))
	assert.True(t, cols[0].AutoIncrement)
	assert.True(t, cols[1].Type.Equal(model.Integer()))
	assert.True(t, cols[1].AutoIncrement)
}

func TestSQLParser_InlineReferences(t *testing.T) {
	frag, _ := parseSQL(t, `
		CREATE TABLE posts (
			id INT PRIMARY KEY,
			user_id INT REFERENCES users (id)
		);`)

	require.Len(t, frag.Tables, 1)
	require.Len(t, frag.Tables[0].ForeignKeys, 1)
	fk := frag.Tables[0].ForeignKeys[0]
	assert.Equal(t, []string{"user_id"}, fk.SourceColumns)
	assert.Equal(t, "users", fk.TargetTable)
}

// REFERENCES with no column list is legal SQL and falls back to the
// conventional id primary key.
func TestSQLParser_ForeignKeyWithoutTargetColumns(t *testing.T) {
	frag, _ := parseSQL(t, `
		CREATE TABLE orders (
			id INT PRIMARY KEY,
			user_id INT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users ON DELETE SET NULL
		);`)

	require.Len(t, frag.Tables, 1)
	require.Len(t, frag.Tables[0].ForeignKeys, 1)
	fk := frag.Tables[0].ForeignKeys[0]
	assert.Equal(t, []string{"user_id"}, fk.SourceColumns)
	assert.Equal(t, "users", fk.TargetTable)
	assert.Equal(t, []string{"id"}, fk.TargetColumns)
	assert.Equal(t, model.SetNull, fk.OnDelete)
}

func TestSQLParser_InlineReferentialActions(t *testing.T) {
	frag, _ := parseSQL(t, `
		CREATE TABLE posts (
			id INT PRIMARY KEY,
			user_id INT REFERENCES users (id) ON DELETE CASCADE ON UPDATE SET NULL
		);`)

	require.Len(t, frag.Tables, 1)
	require.Len(t, frag.Tables[0].ForeignKeys, 1)
	fk := frag.Tables[0].ForeignKeys[0]
	assert.Equal(t, model.Cascade, fk.OnDelete)
	assert.Equal(t, model.SetNull, fk.OnUpdate)
}

func TestSQLParser_MultipleStatementsAndComments(t *testing.T) {
	frag, _ := parseSQL(t, `
		-- user accounts
		CREATE TABLE users (id INT PRIMARY KEY);
		/* orders placed by users */
		CREATE TABLE orders (id INT PRIMARY KEY, user_id INT);
		CREATE INDEX idx_orders_user ON orders (user_id);`)

	require.Len(t, frag.Tables, 2)
	require.Len(t, frag.Tables[1].Indexes, 1)
	assert.Equal(t, "idx_orders_user", frag.Tables[1].Indexes[0].Name)
}

func TestSQLParser_SkipsUnknownStatements(t *testing.T) {
	frag, diags := parseSQL(t, `
		INSERT INTO users VALUES (1);
		CREATE TABLE users (id INT PRIMARY KEY);`)

	require.Len(t, frag.Tables, 1)
	require.NotEmpty(t, diags)
	assert.Equal(t, model.CodeUnknownStatement, diags[0].Code)
	assert.Equal(t, model.SeveritySuggestion, diags[0].Severity)
}

func TestSQLParser_UnterminatedStringFails(t *testing.T) {
	_, _, err := (&SQLParser{}).Parse(context.Background(),
		"CREATE TABLE t (c VARCHAR(10) DEFAULT 'oops);", Hints{})

	require.Error(t, err)
	assert.True(t, errs.IsParse(err))
}

func TestSQLParser_SizeLimit(t *testing.T) {
	big := "CREATE TABLE t (c INT);" + strings.Repeat(" ", 100)
	_, _, err := (&SQLParser{}).Parse(context.Background(), big, Hints{MaxInputBytes: 50})

	require.Error(t, err)
	assert.True(t, errs.IsSizeLimit(err))
}

func TestSQLParser_DefaultAndComment(t *testing.T) {
	frag, _ := parseSQL(t, `
		CREATE TABLE settings (
			retries INT DEFAULT 3,
			mode VARCHAR(20) DEFAULT 'auto' COMMENT 'operating mode'
		);`)

	cols := frag.Tables[0].Columns
	require.Len(t, cols, 2)
	require.NotNil(t, cols[0].DefaultValue)
	assert.Equal(t, "3", *cols[0].DefaultValue)
	require.NotNil(t, cols[1].DefaultValue)
	assert.Equal(t, "auto", *cols[1].DefaultValue)
	require.NotNil(t, cols[1].Comment)
	assert.Equal(t, "operating mode", *cols[1].Comment)
}
