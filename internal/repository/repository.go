// Package repository implements the service repositories on the query builder.
// Every repository is bound to a Querier, normally the request's database session.
package repository

import (
	"errors"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/service"
	"github.com/marshallshelly/pebble-shop/pkg/builder"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
)

// New returns the repositories bound to q.
func New(q builder.Querier) service.Repositories {
	return service.Repositories{
		Users:     &Users{q: q},
		Posts:     &Posts{q: q},
		Comments:  &Comments{q: q},
		Products:  &Products{q: q},
		Purchases: &Purchases{q: q},
	}
}

// entity names one table's client-facing messages.
type entity struct {
	notFound string
	conflict string
}

var (
	userEntity     = entity{"User not found", "User already exists"}
	postEntity     = entity{"Post not found", "Post already exists"}
	commentEntity  = entity{"Comment not found", "Comment already exists"}
	productEntity  = entity{"Product not found", "Product already exists"}
	purchaseEntity = entity{"Purchase not found", "Purchase already exists"}
)

// translate maps ORM errors onto the application taxonomy.
func (e entity) translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, runtime.ErrNotFound):
		return &apperr.Error{Kind: apperr.ErrNotFound, Detail: e.notFound, Err: err}
	case errors.Is(err, runtime.ErrDuplicateKey):
		return &apperr.Error{Kind: apperr.ErrConflict, Detail: e.conflict, Err: err}
	case errors.Is(err, runtime.ErrForeignKeyViolation):
		return &apperr.Error{Kind: apperr.ErrNotFound, Detail: "Referenced record not found", Err: err}
	default:
		return apperr.Internal(err)
	}
}

// one returns the single row of a RETURNING statement, or runtime.ErrNotFound.
func one[T any](rows []T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, runtime.ErrNotFound
	}
	return &rows[0], nil
}

// affected turns a zero row count into runtime.ErrNotFound.
func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return runtime.ErrNotFound
	}
	return nil
}

func count(n int64, err error) (int, error) {
	return int(n), err
}
