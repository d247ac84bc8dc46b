package repository

import (
	"context"

	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/pkg/builder"
)

// Purchases is the user_store association table.
type Purchases struct {
	q builder.Querier
}

func (r *Purchases) pair(userID, productID int64) []builder.Condition {
	return []builder.Condition{builder.Eq("user_id", userID), builder.Eq("store_id", productID)}
}

// Create associates userID with productID.
func (r *Purchases) Create(ctx context.Context, userID, productID int64) (*models.UserStore, error) {
	row, err := one(builder.Insert[models.UserStore](r.q).
		Values(models.UserStore{UserID: userID, StoreID: productID}).
		ExecReturning(ctx))
	return row, purchaseEntity.translate(err)
}

// Exists reports whether the association exists.
func (r *Purchases) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	q := builder.Select[models.UserStore](r.q)
	for _, c := range r.pair(userID, productID) {
		q = q.Where(c)
	}
	ok, err := q.Exists(ctx)
	return ok, purchaseEntity.translate(err)
}

// Delete removes the association.
func (r *Purchases) Delete(ctx context.Context, userID, productID int64) error {
	q := builder.Delete[models.UserStore](r.q)
	for _, c := range r.pair(userID, productID) {
		q = q.Where(c)
	}
	return purchaseEntity.translate(affected(q.Exec(ctx)))
}

// ProductsForUser returns the products bought by userID, by product id.
func (r *Purchases) ProductsForUser(ctx context.Context, userID int64) ([]models.Product, error) {
	links, err := builder.Select[models.UserStore](r.q).Where(builder.Eq("user_id", userID)).All(ctx)
	if err != nil {
		return nil, purchaseEntity.translate(err)
	}
	if len(links) == 0 {
		return []models.Product{}, nil
	}
	ids := make([]int64, len(links))
	for i, l := range links {
		ids[i] = l.StoreID
	}
	return (&Products{q: r.q}).ListByIDs(ctx, ids)
}

// Count returns the number of associations.
func (r *Purchases) Count(ctx context.Context) (int, error) {
	n, err := count(builder.Select[models.UserStore](r.q).Count(ctx))
	return n, purchaseEntity.translate(err)
}
