package models

import (
	"testing"
	"time"

	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAll(t *testing.T) {
	require.NoError(t, RegisterAll())

	var names []string
	for _, table := range registry.All() {
		names = append(names, table.Name)
	}
	assert.Subset(t, names, []string{"comments", "posts", "store", "user_store", "users"})
}

func TestTableMetadata(t *testing.T) {
	purchases, err := registry.GetOrRegister(UserStore{})
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id", "store_id"}, purchases.PrimaryKey.Columns)
	assert.ElementsMatch(t, []string{"users", "store"}, purchases.References())
	for _, fk := range purchases.ForeignKeys {
		assert.Equal(t, schema.Cascade, fk.OnDelete)
	}

	product, err := registry.GetOrRegister(Product{})
	require.NoError(t, err)
	assert.Equal(t, "double precision", product.Column("size").SQLType)
	require.Len(t, product.Constraints, 1)
	assert.Equal(t, "cost >= 0", product.Constraints[0].Expression)

	comment, err := registry.GetOrRegister(Comment{})
	require.NoError(t, err)
	assert.Nil(t, comment.Column("active").Default)
	assert.Equal(t, "varchar(80)", comment.Column("name").SQLType)
}

func TestPost_Helpers(t *testing.T) {
	p := Post{
		Slug:    "hello-world",
		Publish: time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC),
		Tags:    "go,,sql",
	}
	assert.Equal(t, "/posts/2024/3/7/hello-world", p.PublishedPath())
	assert.Equal(t, []string{"go", "sql"}, p.TagList())
	assert.Empty(t, Post{}.TagList())
}
