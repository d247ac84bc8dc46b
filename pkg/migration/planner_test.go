package migration

import (
	"testing"

	"github.com/marshallshelly/pebble-shop/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func usersTable() *schema.TableMetadata {
	return &schema.TableMetadata{
		Name: "users",
		Columns: []schema.ColumnMetadata{
			{Name: "id", SQLType: "bigserial"},
			{Name: "username", SQLType: "varchar(150)", Unique: true},
			{Name: "bio", SQLType: "text", Nullable: true},
		},
		PrimaryKey: &schema.PrimaryKeyMetadata{Name: "users_pkey", Columns: []string{"id"}},
	}
}

func postsTable() *schema.TableMetadata {
	return &schema.TableMetadata{
		Name: "posts",
		Columns: []schema.ColumnMetadata{
			{Name: "id", SQLType: "bigserial"},
			{Name: "status", SQLType: "varchar(10)", Default: strPtr("'draft'")},
		},
		PrimaryKey: &schema.PrimaryKeyMetadata{Name: "posts_pkey", Columns: []string{"id"}},
		Indexes:    []schema.IndexMetadata{{Name: "idx_posts_status", Columns: []string{"status"}}},
	}
}

func commentsTable() *schema.TableMetadata {
	return &schema.TableMetadata{
		Name: "comments",
		Columns: []schema.ColumnMetadata{
			{Name: "id", SQLType: "bigserial"},
			{Name: "post_id", SQLType: "bigint"},
		},
		PrimaryKey: &schema.PrimaryKeyMetadata{Name: "comments_pkey", Columns: []string{"id"}},
		ForeignKeys: []schema.ForeignKeyMetadata{{
			Name:              "fk_comments_post_id_posts",
			Columns:           []string{"post_id"},
			ReferencedTable:   "posts",
			ReferencedColumns: []string{"id"},
			OnDelete:          schema.Cascade,
		}},
	}
}

func purchasesTable() *schema.TableMetadata {
	return &schema.TableMetadata{
		Name: "user_store",
		Columns: []schema.ColumnMetadata{
			{Name: "user_id", SQLType: "bigint"},
			{Name: "product_id", SQLType: "bigint"},
		},
		PrimaryKey: &schema.PrimaryKeyMetadata{Name: "user_store_pkey", Columns: []string{"user_id", "product_id"}},
		ForeignKeys: []schema.ForeignKeyMetadata{
			{Name: "fk_user_store_user_id_users", Columns: []string{"user_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}, OnDelete: schema.Cascade},
			{Name: "fk_user_store_product_id_store", Columns: []string{"product_id"}, ReferencedTable: "store", ReferencedColumns: []string{"id"}},
		},
		Constraints: []schema.ConstraintMetadata{
			{Name: "user_store_user_id_check", Type: schema.CheckConstraint, Columns: []string{"user_id"}, Expression: "user_id > 0"},
		},
	}
}

func TestGenerateCreateTable(t *testing.T) {
	sql := NewPlanner().generateCreateTable(usersTable())

	assert.Equal(t, "CREATE TABLE IF NOT EXISTS users (\n"+
		"    id bigserial NOT NULL PRIMARY KEY,\n"+
		"    username varchar(150) NOT NULL UNIQUE,\n"+
		"    bio text\n"+
		")", sql)
}

func TestGenerateCreateTable_CompositeKeyAndConstraints(t *testing.T) {
	sql := NewPlanner().generateCreateTable(purchasesTable())

	assert.Contains(t, sql, "CONSTRAINT user_store_pkey PRIMARY KEY (user_id, product_id)")
	assert.Contains(t, sql, "CONSTRAINT fk_user_store_user_id_users FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE")
	assert.Contains(t, sql, "CONSTRAINT fk_user_store_product_id_store FOREIGN KEY (product_id) REFERENCES store (id)")
	assert.NotContains(t, sql, "product_id) REFERENCES store (id) ON")
	assert.Contains(t, sql, "CONSTRAINT user_store_user_id_check CHECK (user_id > 0)")
	assert.NotContains(t, sql, "user_id bigint NOT NULL PRIMARY KEY")
}

func TestGenerateColumnDefinition_Default(t *testing.T) {
	def := NewPlanner().generateColumnDefinition(postsTable().Columns[1])
	assert.Equal(t, "status varchar(10) NOT NULL DEFAULT 'draft'", def)
}

func TestPlanner_PlanOrdersByForeignKeys(t *testing.T) {
	plan, err := NewPlanner().Plan([]*schema.TableMetadata{commentsTable(), usersTable(), postsTable()})
	require.NoError(t, err)

	assert.Equal(t, []string{"posts", "comments", "users"}, plan.TableNames())
	require.Len(t, plan.Up, 4)
	assert.Contains(t, plan.Up[0], "CREATE TABLE IF NOT EXISTS posts")
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS idx_posts_status ON posts (status)", plan.Up[1])
	assert.Contains(t, plan.Up[2], "CREATE TABLE IF NOT EXISTS comments")
	assert.Equal(t, []string{
		"DROP TABLE IF EXISTS users CASCADE",
		"DROP TABLE IF EXISTS comments CASCADE",
		"DROP TABLE IF EXISTS posts CASCADE",
	}, plan.Down)
	assert.True(t, plan.HasChanges())
	assert.Equal(t, "comments", tableOf(plan, plan.Up[2]))
	assert.Equal(t, "posts", tableOf(plan, plan.Up[1]))
}

func TestPlanner_ExternalReferencesAreIgnored(t *testing.T) {
	plan, err := NewPlanner().Plan([]*schema.TableMetadata{purchasesTable()})
	require.NoError(t, err)
	assert.Equal(t, []string{"user_store"}, plan.TableNames())
}

func TestPlanner_Errors(t *testing.T) {
	a := &schema.TableMetadata{Name: "a", ForeignKeys: []schema.ForeignKeyMetadata{{ReferencedTable: "b"}}}
	b := &schema.TableMetadata{Name: "b", ForeignKeys: []schema.ForeignKeyMetadata{{ReferencedTable: "a"}}}

	_, err := NewPlanner().Plan([]*schema.TableMetadata{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign key cycle")

	_, err = NewPlanner().Plan([]*schema.TableMetadata{usersTable(), usersTable()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listed twice")
}

func TestPlanner_SelfReferenceIsNotACycle(t *testing.T) {
	tree := &schema.TableMetadata{
		Name:        "categories",
		Columns:     []schema.ColumnMetadata{{Name: "id", SQLType: "serial"}},
		ForeignKeys: []schema.ForeignKeyMetadata{{ReferencedTable: "categories"}},
	}
	plan, err := NewPlanner().Plan([]*schema.TableMetadata{tree})
	require.NoError(t, err)
	assert.Equal(t, []string{"categories"}, plan.TableNames())
}

func TestPlannerWithoutIfNotExists(t *testing.T) {
	p := NewPlannerWithOptions(PlannerOptions{IfNotExists: false})
	plan, err := p.Plan([]*schema.TableMetadata{postsTable()})
	require.NoError(t, err)

	assert.Contains(t, plan.Up[0], "CREATE TABLE posts (")
	assert.Equal(t, "CREATE INDEX idx_posts_status ON posts (status)", plan.Up[1])
	assert.Equal(t, []string{"DROP TABLE posts CASCADE"}, plan.Down)
}
