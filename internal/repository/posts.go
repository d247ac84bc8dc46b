package repository

import (
	"context"
	"time"

	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/pkg/builder"
)

// tagArray is the stored tag list as a text array.
const tagArray = "string_to_array(tags, ',')"

// Posts is the posts table.
type Posts struct {
	q builder.Querier
}

func (r *Posts) published() *builder.SelectQuery[models.Post] {
	return builder.Select[models.Post](r.q).Where(builder.Eq("published", true))
}

// Create inserts p.
func (r *Posts) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	row, err := one(builder.Insert[models.Post](r.q).Values(*p).ExecReturning(ctx))
	return row, postEntity.translate(err)
}

// Get returns post id.
func (r *Posts) Get(ctx context.Context, id int64) (*models.Post, error) {
	row, err := builder.Select[models.Post](r.q).Where(builder.Eq("id", id)).First(ctx)
	return row, postEntity.translate(err)
}

// TitleOrSlugTaken reports whether a post other than excludeID has title or slug.
func (r *Posts) TitleOrSlugTaken(ctx context.Context, title, slug string, excludeID int64) (bool, error) {
	ok, err := builder.Select[models.Post](r.q).
		Where(builder.Group(builder.Eq("title", title), builder.Or(builder.Eq("slug", slug)))).
		And(builder.NotEq("id", excludeID)).
		Exists(ctx)
	return ok, postEntity.translate(err)
}

// List returns every post by id.
func (r *Posts) List(ctx context.Context) ([]models.Post, error) {
	rows, err := builder.Select[models.Post](r.q).OrderByAsc("id").All(ctx)
	return rows, postEntity.translate(err)
}

// ListPublished returns published posts, newest first.
func (r *Posts) ListPublished(ctx context.Context) ([]models.Post, error) {
	rows, err := r.published().OrderByDesc("publish").OrderByDesc("id").All(ctx)
	return rows, postEntity.translate(err)
}

// GetPublishedBySlug returns the published post with slug.
func (r *Posts) GetPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	row, err := r.published().And(builder.Eq("slug", slug)).First(ctx)
	return row, postEntity.translate(err)
}

// GetPublishedOn returns the published post with slug published in [from, to).
func (r *Posts) GetPublishedOn(ctx context.Context, slug string, from, to time.Time) (*models.Post, error) {
	row, err := r.published().
		And(builder.Eq("slug", slug)).
		And(builder.Gte("publish", from)).
		And(builder.Lt("publish", to)).
		First(ctx)
	return row, postEntity.translate(err)
}

// Similar returns up to limit published posts sharing a tag with post.
func (r *Posts) Similar(ctx context.Context, post *models.Post, limit int) ([]models.Post, error) {
	rows, err := r.published().
		And(builder.NotEq("id", post.ID)).
		And(builder.ArrayOverlap(tagArray, post.TagList())).
		OrderByDesc("publish").
		OrderByDesc("id").
		Limit(limit).
		All(ctx)
	return rows, postEntity.translate(err)
}

// Replace overwrites every column of p.ID.
func (r *Posts) Replace(ctx context.Context, p *models.Post) (*models.Post, error) {
	row, err := one(builder.Update[models.Post](r.q).
		Set("title", p.Title).
		Set("slug", p.Slug).
		Set("body", p.Body).
		Set("publish", p.Publish).
		Set("updated", p.Updated).
		Set("status", p.Status).
		Set("image", p.Image).
		Set("published", p.Published).
		Set("tags", p.Tags).
		Where(builder.Eq("id", p.ID)).
		ExecReturning(ctx))
	return row, postEntity.translate(err)
}

// Delete removes post id. Its comments go with it.
func (r *Posts) Delete(ctx context.Context, id int64) error {
	return postEntity.translate(affected(builder.Delete[models.Post](r.q).Where(builder.Eq("id", id)).Exec(ctx)))
}

// Count returns the number of posts.
func (r *Posts) Count(ctx context.Context) (int, error) {
	n, err := count(builder.Select[models.Post](r.q).Count(ctx))
	return n, postEntity.translate(err)
}
