package builder

import (
	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

func tableFor[T any]() (*schema.TableMetadata, error) {
	var model T
	return registry.GetOrRegister(model)
}

// Select creates a new type-safe SELECT query.
// Usage: builder.Select[models.Post](q).Where(builder.Eq("slug", s)).First(ctx)
func Select[T any](db Querier) *SelectQuery[T] {
	table, err := tableFor[T]()
	return &SelectQuery[T]{
		db:      db,
		table:   table,
		err:     err,
		columns: []string{"*"},
	}
}

// Insert creates a new type-safe INSERT query.
// Usage: builder.Insert[models.User](q).Values(user).ExecReturning(ctx)
func Insert[T any](db Querier) *InsertQuery[T] {
	table, err := tableFor[T]()
	return &InsertQuery[T]{
		db:    db,
		table: table,
		err:   err,
	}
}

// Update creates a new type-safe UPDATE query.
// Usage: builder.Update[models.User](q).Set("email", e).Where(builder.Eq("id", id)).Exec(ctx)
func Update[T any](db Querier) *UpdateQuery[T] {
	table, err := tableFor[T]()
	return &UpdateQuery[T]{
		db:    db,
		table: table,
		err:   err,
	}
}

// Delete creates a new type-safe DELETE query.
// Usage: builder.Delete[models.Comment](q).Where(builder.Eq("id", id)).Exec(ctx)
func Delete[T any](db Querier) *DeleteQuery[T] {
	table, err := tableFor[T]()
	return &DeleteQuery[T]{
		db:    db,
		table: table,
		err:   err,
	}
}
