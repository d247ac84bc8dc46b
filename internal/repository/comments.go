package repository

import (
	"context"

	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/internal/service"
	"github.com/marshallshelly/pebble-shop/pkg/builder"
)

// Comments is the comments table.
type Comments struct {
	q builder.Querier
}

// Create inserts c. An unknown post is reported as not found.
func (r *Comments) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	row, err := one(builder.Insert[models.Comment](r.q).Values(*c).ExecReturning(ctx))
	return row, commentEntity.translate(err)
}

// Get returns comment id.
func (r *Comments) Get(ctx context.Context, id int64) (*models.Comment, error) {
	row, err := builder.Select[models.Comment](r.q).Where(builder.Eq("id", id)).First(ctx)
	return row, commentEntity.translate(err)
}

// BodyTaken reports whether another comment on postID has the same body.
func (r *Comments) BodyTaken(ctx context.Context, postID int64, body string, excludeID int64) (bool, error) {
	ok, err := builder.Select[models.Comment](r.q).
		Where(builder.Eq("post_id", postID)).
		And(builder.Eq("body", body)).
		And(builder.NotEq("id", excludeID)).
		Exists(ctx)
	return ok, commentEntity.translate(err)
}

// List returns the comments matching filter by id.
func (r *Comments) List(ctx context.Context, filter service.CommentFilter) ([]models.Comment, error) {
	q := builder.Select[models.Comment](r.q)
	if filter.PostID != nil {
		q = q.Where(builder.Eq("post_id", *filter.PostID))
	}
	if filter.Active != nil {
		q = q.Where(builder.Eq("active", *filter.Active))
	}
	rows, err := q.OrderByAsc("id").All(ctx)
	return rows, commentEntity.translate(err)
}

// ListActiveForPost returns the active comments of postID, oldest first.
func (r *Comments) ListActiveForPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	rows, err := builder.Select[models.Comment](r.q).
		Where(builder.Eq("post_id", postID)).
		And(builder.Eq("active", true)).
		OrderByAsc("created").
		OrderByAsc("id").
		All(ctx)
	return rows, commentEntity.translate(err)
}

// Replace overwrites every column of c.ID.
func (r *Comments) Replace(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	row, err := one(builder.Update[models.Comment](r.q).
		Set("post_id", c.PostID).
		Set("name", c.Name).
		Set("email", c.Email).
		Set("body", c.Body).
		Set("created", c.Created).
		Set("updated", c.Updated).
		Set("active", c.Active).
		Where(builder.Eq("id", c.ID)).
		ExecReturning(ctx))
	return row, commentEntity.translate(err)
}

// Delete removes comment id.
func (r *Comments) Delete(ctx context.Context, id int64) error {
	return commentEntity.translate(affected(builder.Delete[models.Comment](r.q).Where(builder.Eq("id", id)).Exec(ctx)))
}

// Count returns the number of comments.
func (r *Comments) Count(ctx context.Context) (int, error) {
	n, err := count(builder.Select[models.Comment](r.q).Count(ctx))
	return n, commentEntity.translate(err)
}
