package repository

import (
	"context"

	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/pkg/builder"
)

// Products is the store table.
type Products struct {
	q builder.Querier
}

// Create inserts p.
func (r *Products) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	row, err := one(builder.Insert[models.Product](r.q).Values(*p).ExecReturning(ctx))
	return row, productEntity.translate(err)
}

// Get returns product id.
func (r *Products) Get(ctx context.Context, id int64) (*models.Product, error) {
	row, err := builder.Select[models.Product](r.q).Where(builder.Eq("id", id)).First(ctx)
	return row, productEntity.translate(err)
}

// TitleTaken reports whether a product other than excludeID has title.
func (r *Products) TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error) {
	ok, err := builder.Select[models.Product](r.q).
		Where(builder.Eq("title", title)).
		And(builder.NotEq("id", excludeID)).
		Exists(ctx)
	return ok, productEntity.translate(err)
}

// List returns every product by id.
func (r *Products) List(ctx context.Context) ([]models.Product, error) {
	rows, err := builder.Select[models.Product](r.q).OrderByAsc("id").All(ctx)
	return rows, productEntity.translate(err)
}

// ListByIDs returns the existing products among ids.
func (r *Products) ListByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	rows, err := builder.Select[models.Product](r.q).Where(builder.Any("id", ids)).OrderByAsc("id").All(ctx)
	return rows, productEntity.translate(err)
}

// Window returns limit products by id starting at offset.
func (r *Products) Window(ctx context.Context, offset, limit int) ([]models.Product, error) {
	rows, err := builder.Select[models.Product](r.q).OrderByAsc("id").Offset(offset).Limit(limit).All(ctx)
	return rows, productEntity.translate(err)
}

// Replace overwrites every column of p.ID.
func (r *Products) Replace(ctx context.Context, p *models.Product) (*models.Product, error) {
	row, err := one(builder.Update[models.Product](r.q).
		Set("title", p.Title).
		Set("size", p.Size).
		Set("description", p.Description).
		Set("cost", p.Cost).
		Set("photo", p.Photo).
		Set("uploaded_at", p.UploadedAt).
		Where(builder.Eq("id", p.ID)).
		ExecReturning(ctx))
	return row, productEntity.translate(err)
}

// Delete removes product id.
func (r *Products) Delete(ctx context.Context, id int64) error {
	return productEntity.translate(affected(builder.Delete[models.Product](r.q).Where(builder.Eq("id", id)).Exec(ctx)))
}

// Count returns the number of products.
func (r *Products) Count(ctx context.Context) (int, error) {
	n, err := count(builder.Select[models.Product](r.q).Count(ctx))
	return n, productEntity.translate(err)
}
