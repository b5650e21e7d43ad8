package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemasmith/schemasmith/internal/model"
)

func parseORM(t *testing.T, input string) (*model.Fragment, []model.Diagnostic) {
	t.Helper()
	p := &ORMParser{}
	frag, diags, err := p.Parse(context.Background(), input, Hints{SourceID: "orm1"})
	require.NoError(t, err)
	require.NotNil(t, frag)
	return frag, diags
}

func TestORMBasicModel(t *testing.T) {
	input := `
class User(Base):
    __tablename__ = 'users'
    id = Column(Integer, primary_key=True, autoincrement=True)
    email = Column(String(120), nullable=False, unique=True)
    bio = Column(Text)
    balance = Column(Numeric(12, 4), default=0)
`
	frag, _ := parseORM(t, input)

	require.Len(t, frag.Tables, 1)
	table := frag.Tables[0]
	assert.Equal(t, "users", table.Name)
	require.Len(t, table.Columns, 4)

	id := table.Column("id")
	require.NotNil(t, id)
	assert.Equal(t, model.KindInteger, id.Type.Kind)
	assert.True(t, id.IsPrimaryKey)
	assert.True(t, id.AutoIncrement)
	assert.False(t, id.Nullable)
	assert.Equal(t, 90, id.Provenance.Confidence)
	assert.Equal(t, "orm1", id.Provenance.SourceID)

	email := table.Column("email")
	require.NotNil(t, email)
	assert.True(t, model.Text(120).Equal(email.Type))
	assert.False(t, email.Nullable)
	assert.True(t, email.IsUnique)

	bio := table.Column("bio")
	require.NotNil(t, bio)
	assert.True(t, model.Text(0).Equal(bio.Type))
	assert.True(t, bio.Nullable)

	balance := table.Column("balance")
	require.NotNil(t, balance)
	assert.True(t, model.Decimal(12, 4).Equal(balance.Type))
	require.NotNil(t, balance.DefaultValue)
	assert.Equal(t, "0", *balance.DefaultValue)
}

func TestORMForeignKeyColumn(t *testing.T) {
	input := `
class Post(Base):
    __tablename__ = 'posts'
    id = Column(Integer, primary_key=True)
    user_id = Column(ForeignKey('users.id'), nullable=False)
`
	frag, _ := parseORM(t, input)

	table := frag.Tables[0]
	userID := table.Column("user_id")
	require.NotNil(t, userID)
	assert.Equal(t, model.KindInteger, userID.Type.Kind)

	require.Len(t, table.ForeignKeys, 1)
	fk := table.ForeignKeys[0]
	assert.Equal(t, []string{"user_id"}, fk.SourceColumns)
	assert.Equal(t, "users", fk.TargetTable)
	assert.Equal(t, []string{"id"}, fk.TargetColumns)
	assert.True(t, fk.Confirmed)
	assert.Equal(t, 90, fk.Provenance.Confidence)
}

func TestORMRelationshipCardinality(t *testing.T) {
	tests := []struct {
		name string
		line string
		want model.Cardinality
		conf int
	}{
		{"collection default", `    posts = relationship('Post', back_populates='user')`, model.OneToMany, 70},
		{"uselist false", `    profile = relationship('Profile', uselist=False)`, model.OneToOne, 70},
		{"secondary table", `    tags = relationship('Tag', secondary=post_tags)`, model.ManyToMany, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "class User(Base):\n    __tablename__ = 'users'\n    id = Column(Integer, primary_key=True)\n" + tt.line + "\n"
			frag, diags := parseORM(t, input)

			require.Len(t, frag.Relationships, 1)
			rel := frag.Relationships[0]
			assert.Equal(t, "users", rel.SourceTable)
			assert.Equal(t, tt.want, rel.Cardinality)
			assert.Equal(t, tt.conf, rel.Provenance.Confidence)

			require.Len(t, diags, 1)
			assert.Equal(t, model.CodeInferredRelation, diags[0].Code)
			assert.Equal(t, model.SeveritySuggestion, diags[0].Severity)
		})
	}
}

func TestORMQualifiedNamesAndAnnotations(t *testing.T) {
	input := `
class Order(db.Model):
    __tablename__ = 'orders'
    id: Mapped[int] = mapped_column(sa.BigInteger, primary_key=True)
    status = db.Column(sa.Enum('draft', 'paid', 'shipped'), nullable=False)
    placed_at = db.Column(sa.DateTime, server_default='now()')
`
	frag, _ := parseORM(t, input)

	require.Len(t, frag.Tables, 1)
	table := frag.Tables[0]
	assert.Equal(t, "orders", table.Name)

	id := table.Column("id")
	require.NotNil(t, id)
	assert.Equal(t, model.KindBigInteger, id.Type.Kind)
	assert.True(t, id.IsPrimaryKey)

	status := table.Column("status")
	require.NotNil(t, status)
	assert.Equal(t, model.KindEnum, status.Type.Kind)
	assert.Equal(t, []string{"draft", "paid", "shipped"}, status.Type.Values)

	placed := table.Column("placed_at")
	require.NotNil(t, placed)
	assert.Equal(t, model.KindDateTime, placed.Type.Kind)
	require.NotNil(t, placed.DefaultValue)
	assert.Equal(t, "now()", *placed.DefaultValue)
}

func TestORMIgnoresNonEntityClasses(t *testing.T) {
	input := `
class Helper(object):
    name = Column(String(10))

class Config:
    debug = True

class Tag(Base):
    __tablename__ = 'tags'
    id = Column(Integer, primary_key=True)
`
	frag, _ := parseORM(t, input)

	require.Len(t, frag.Tables, 1)
	assert.Equal(t, "tags", frag.Tables[0].Name)
}

func TestORMDuplicateAttribute(t *testing.T) {
	input := `
class User(Base):
    __tablename__ = 'users'
    id = Column(Integer, primary_key=True)
    id = Column(BigInteger)
`
	frag, diags := parseORM(t, input)

	require.Len(t, frag.Tables, 1)
	require.Len(t, frag.Tables[0].Columns, 1)
	assert.Equal(t, model.KindInteger, frag.Tables[0].Columns[0].Type.Kind)

	require.Len(t, diags, 1)
	assert.Equal(t, model.CodeDuplicateColumn, diags[0].Code)
	assert.Equal(t, model.SeverityError, diags[0].Severity)
}

func TestORMClassNameWhenNoTablename(t *testing.T) {
	input := `
class Invoice(Base):
    id = Column(Integer, primary_key=True)
`
	frag, _ := parseORM(t, input)
	require.Len(t, frag.Tables, 1)
	assert.Equal(t, "Invoice", frag.Tables[0].Name)
}
