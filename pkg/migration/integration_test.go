//go:build integration

package migration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marshallshelly/pebble-shop/pkg/migration"
	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

func init() {
	schema.RegisterTableName("author", "authors")
	schema.RegisterTableName("article", "articles")
}

type author struct {
	ID   int64  `po:"id,primaryKey,bigserial"`
	Name string `po:"name,varchar(100),notNull,unique"`
}

type article struct {
	ID       int64  `po:"id,primaryKey,bigserial"`
	AuthorID int64  `po:"author_id,bigint,notNull,fk(authors.id),onDelete(cascade),index"`
	Title    string `po:"title,varchar(250),notNull"`
}

func TestIntegration_Executor(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	url, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := runtime.ConnectWithURL(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(article{}))
	require.NoError(t, reg.Register(author{}))
	plan, err := migration.NewPlanner().Plan(reg.All())
	require.NoError(t, err)
	require.Equal(t, []string{"authors", "articles"}, plan.TableNames())

	exec := migration.NewExecutor(db)
	existing := func() map[string]bool {
		status, err := exec.Status(ctx, plan)
		require.NoError(t, err)
		out := make(map[string]bool)
		for _, s := range status {
			out[s.Table] = s.Exists
		}
		return out
	}

	assert.Equal(t, map[string]bool{"authors": false, "articles": false}, existing())

	require.NoError(t, exec.Up(ctx, plan))
	require.NoError(t, exec.Up(ctx, plan), "up is idempotent")
	assert.Equal(t, map[string]bool{"authors": true, "articles": true}, existing())

	_, err = db.Exec(ctx, "INSERT INTO authors (name) VALUES ('ann')")
	require.NoError(t, err)
	_, err = db.Exec(ctx, "INSERT INTO authors (name) VALUES ('ann')")
	assert.ErrorIs(t, err, runtime.ErrDuplicateKey)
	_, err = db.Exec(ctx, "INSERT INTO articles (author_id, title) VALUES (999, 'x')")
	assert.ErrorIs(t, err, runtime.ErrForeignKeyViolation)

	require.NoError(t, exec.Reset(ctx, plan))
	var n int
	require.NoError(t, db.QueryRow(ctx, "SELECT count(*) FROM authors").Scan(&n))
	assert.Zero(t, n, "reset empties the tables")

	require.NoError(t, exec.Down(ctx, plan))
	assert.Equal(t, map[string]bool{"authors": false, "articles": false}, existing())
}
