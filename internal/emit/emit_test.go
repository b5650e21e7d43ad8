package emit

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemasmith/schemasmith/internal/dialect"
	"github.com/schemasmith/schemasmith/internal/errs"
	"github.com/schemasmith/schemasmith/internal/model"
)

// blogModel declares posts before users on purpose: the emitters must still
// create users first because posts references it.
func blogModel() *model.SchemaModel {
	comment := "author reference"
	active := "TRUE"
	return &model.SchemaModel{
		Name: "blog",
		Tables: []model.Table{
			{
				Name: "posts",
				Columns: []model.Column{
					{Name: "id", Type: model.BigInteger(), IsPrimaryKey: true, AutoIncrement: true},
					{Name: "user_id", Type: model.BigInteger(), Comment: &comment},
					{Name: "title", Type: model.Text(255)},
					{Name: "published", Type: model.Boolean(), DefaultValue: &active},
				},
				ForeignKeys: []model.ForeignKey{{
					Name:          "fk_posts_user_id",
					SourceColumns: []string{"user_id"},
					TargetTable:   "users",
					TargetColumns: []string{"id"},
					OnDelete:      model.Cascade,
					OnUpdate:      model.NoAction,
				}},
				Indexes: []model.Index{{Name: "idx_posts_title", Columns: []string{"title"}}},
			},
			{
				Name: "users",
				Columns: []model.Column{
					{Name: "id", Type: model.BigInteger(), IsPrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: model.Text(120), IsUnique: true},
					{Name: "status", Type: model.Enum("active", "banned"), Nullable: true},
				},
			},
		},
	}
}

func TestForKnownDialects(t *testing.T) {
	tests := []struct {
		id   dialect.ID
		want Emitter
	}{
		{dialect.MySQL, &MySQLEmitter{}},
		{dialect.PostgreSQL, &PostgresEmitter{}},
		{dialect.GenericDocument, &DocumentEmitter{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			e, err := For(tt.id)
			require.NoError(t, err)
			assert.IsType(t, tt.want, e)
		})
	}
}

func TestForUnknownDialect(t *testing.T) {
	_, err := For(dialect.ID("oracle"))
	require.Error(t, err)
	assert.True(t, errs.IsUnsupported(err))
}

func TestMySQLEmitOrdering(t *testing.T) {
	out, err := (&MySQLEmitter{}).Emit(blogModel(), Options{})
	require.NoError(t, err)

	usersAt := strings.Index(out, "CREATE TABLE `users`")
	postsAt := strings.Index(out, "CREATE TABLE `posts`")
	require.GreaterOrEqual(t, usersAt, 0)
	require.GreaterOrEqual(t, postsAt, 0)
	assert.Less(t, usersAt, postsAt, "referenced table must be created first")
}

func TestMySQLEmitDDL(t *testing.T) {
	out, err := (&MySQLEmitter{}).Emit(blogModel(), Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "`id` BIGINT NOT NULL AUTO_INCREMENT")
	assert.Contains(t, out, "`email` VARCHAR(120) NOT NULL UNIQUE")
	assert.Contains(t, out, "`status` ENUM('active', 'banned')")
	assert.Contains(t, out, "`published` BOOLEAN NOT NULL DEFAULT TRUE")
	assert.Contains(t, out, "PRIMARY KEY (`id`)")
	assert.Contains(t, out, "KEY `idx_posts_title` (`title`)")
	assert.Contains(t, out, "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")
	assert.Contains(t, out,
		"ALTER TABLE `posts` ADD CONSTRAINT `fk_posts_user_id` FOREIGN KEY (`user_id`) REFERENCES `users` (`id`) ON DELETE CASCADE ON UPDATE NO ACTION;")
	// Constraints come after every CREATE TABLE.
	assert.Greater(t, strings.Index(out, "ALTER TABLE"), strings.LastIndex(out, "CREATE TABLE"))
}

func TestMySQLDropStatements(t *testing.T) {
	out, err := (&MySQLEmitter{}).Emit(blogModel(), Options{IncludeDropStatements: true})
	require.NoError(t, err)

	dropPosts := strings.Index(out, "DROP TABLE IF EXISTS `posts`;")
	dropUsers := strings.Index(out, "DROP TABLE IF EXISTS `users`;")
	require.GreaterOrEqual(t, dropPosts, 0)
	require.GreaterOrEqual(t, dropUsers, 0)
	// Children drop before parents.
	assert.Less(t, dropPosts, dropUsers)
	assert.Less(t, dropUsers, strings.Index(out, "CREATE TABLE"))
}

func TestMySQLComments(t *testing.T) {
	out, err := (&MySQLEmitter{}).Emit(blogModel(), Options{IncludeComments: true})
	require.NoError(t, err)
	assert.Contains(t, out, "COMMENT 'author reference'")

	plain, err := (&MySQLEmitter{}).Emit(blogModel(), Options{})
	require.NoError(t, err)
	assert.NotContains(t, plain, "COMMENT")
}

func TestPostgresEmitDDL(t *testing.T) {
	out, err := (&PostgresEmitter{}).Emit(blogModel(), Options{})
	require.NoError(t, err)

	assert.Contains(t, out, `CREATE TYPE "enum_users_status" AS ENUM ('active', 'banned');`)
	assert.Contains(t, out, `"id" BIGSERIAL NOT NULL`)
	assert.Contains(t, out, `"email" VARCHAR(120) NOT NULL UNIQUE`)
	assert.Contains(t, out, `"status" "enum_users_status"`)
	assert.Contains(t, out, `CREATE INDEX "idx_posts_title" ON "posts" ("title");`)
	assert.Contains(t, out,
		`ALTER TABLE "posts" ADD CONSTRAINT "fk_posts_user_id" FOREIGN KEY ("user_id") REFERENCES "users" ("id") ON DELETE CASCADE ON UPDATE NO ACTION;`)

	// The enum type must exist before any table uses it.
	assert.Less(t, strings.Index(out, "CREATE TYPE"), strings.Index(out, "CREATE TABLE"))
}

func TestPostgresSerialForIntegerKeys(t *testing.T) {
	m := &model.SchemaModel{Tables: []model.Table{{
		Name: "tags",
		Columns: []model.Column{
			{Name: "id", Type: model.Integer(), IsPrimaryKey: true, AutoIncrement: true},
		},
	}}}
	out, err := (&PostgresEmitter{}).Emit(m, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `"id" SERIAL NOT NULL`)
}

func TestPostgresDropAndComments(t *testing.T) {
	out, err := (&PostgresEmitter{}).Emit(blogModel(), Options{IncludeDropStatements: true, IncludeComments: true})
	require.NoError(t, err)

	assert.Contains(t, out, `DROP TABLE IF EXISTS "posts" CASCADE;`)
	assert.Contains(t, out, `COMMENT ON COLUMN "posts"."user_id" IS 'author reference';`)
}

func TestDocumentEmit(t *testing.T) {
	out, err := (&DocumentEmitter{}).Emit(blogModel(), Options{})
	require.NoError(t, err)

	var doc struct {
		Collections map[string]struct {
			Type       string                     `json:"type"`
			Properties map[string]json.RawMessage `json:"properties"`
			Required   []string                   `json:"required"`
			PrimaryKey []string                   `json:"x-primary-key"`
			References []struct {
				Property   string `json:"property"`
				Collection string `json:"collection"`
				Field      string `json:"field"`
			} `json:"x-references"`
		} `json:"collections"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Collections, 2)

	users := doc.Collections["users"]
	assert.Equal(t, "object", users.Type)
	assert.Len(t, users.Properties, 3)
	assert.Equal(t, []string{"id", "email"}, users.Required)
	assert.Equal(t, []string{"id"}, users.PrimaryKey)

	posts := doc.Collections["posts"]
	require.Len(t, posts.References, 1)
	assert.Equal(t, "user_id", posts.References[0].Property)
	assert.Equal(t, "users", posts.References[0].Collection)
	assert.Equal(t, "id", posts.References[0].Field)

	// Properties keep declaration order in the rendered text.
	assert.Less(t, strings.Index(out, `"id":`), strings.Index(out, `"email":`))

	var status struct {
		Type string   `json:"type"`
		Enum []string `json:"enum"`
	}
	require.NoError(t, json.Unmarshal(users.Properties["status"], &status))
	assert.Equal(t, "string", status.Type)
	assert.Equal(t, []string{"active", "banned"}, status.Enum)
}

func TestCanonicalJSONRoundTrip(t *testing.T) {
	m := blogModel()
	out, err := (&CanonicalJSONEmitter{}).Emit(m, Options{})
	require.NoError(t, err)

	back, err := model.UnmarshalCanonicalJSON([]byte(out))
	require.NoError(t, err)
	assert.True(t, model.Equal(m, back))
}

func TestCanonicalXMLRoundTrip(t *testing.T) {
	m := blogModel()
	out, err := (&CanonicalXMLEmitter{}).Emit(m, Options{})
	require.NoError(t, err)

	back, err := model.UnmarshalCanonicalXML([]byte(out))
	require.NoError(t, err)
	assert.True(t, model.Equal(m, back))
}

func TestNamingConventions(t *testing.T) {
	tests := []struct {
		name   string
		naming NamingConvention
		in     string
		want   string
	}{
		{"snake from pascal", SnakeCase, "UserAccounts", "user_accounts"},
		{"snake from space", SnakeCase, "order details", "order_details"},
		{"camel", CamelCase, "user_accounts", "userAccounts"},
		{"pascal", PascalCase, "user_accounts", "UserAccounts"},
		{"as defined", AsDefined, "UserAccounts", "UserAccounts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rename(tt.in, tt.naming))
		})
	}
}

func TestMySQLNamingApplied(t *testing.T) {
	m := &model.SchemaModel{Tables: []model.Table{{
		Name: "UserAccounts",
		Columns: []model.Column{
			{Name: "AccountID", Type: model.Integer(), IsPrimaryKey: true},
		},
	}}}
	out, err := (&MySQLEmitter{}).Emit(m, Options{Naming: SnakeCase})
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE `user_accounts`")
	assert.Contains(t, out, "`account_id` INT NOT NULL")
}

// Mutually referencing tables must still all be emitted exactly once.
func TestOrderTablesBreaksCycles(t *testing.T) {
	fkTo := func(table string) model.ForeignKey {
		return model.ForeignKey{
			SourceColumns: []string{"peer_id"},
			TargetTable:   table,
			TargetColumns: []string{"id"},
		}
	}
	cols := []model.Column{
		{Name: "id", Type: model.Integer(), IsPrimaryKey: true},
		{Name: "peer_id", Type: model.Integer(), Nullable: true},
	}
	m := &model.SchemaModel{Tables: []model.Table{
		{Name: "a", Columns: cols, ForeignKeys: []model.ForeignKey{fkTo("b")}},
		{Name: "b", Columns: cols, ForeignKeys: []model.ForeignKey{fkTo("a")}},
	}}

	ordered := orderTables(m)
	require.Len(t, ordered, 2)
	assert.NotEqual(t, ordered[0].Name, ordered[1].Name)

	out, err := (&MySQLEmitter{}).Emit(m, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "CREATE TABLE"))
	assert.Equal(t, 2, strings.Count(out, "ALTER TABLE"))
}
