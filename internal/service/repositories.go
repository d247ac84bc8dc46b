// Package service implements the shop's use cases over repository interfaces.
package service

import (
	"context"
	"time"

	"github.com/marshallshelly/pebble-shop/internal/models"
)

// Repository errors are expected to be apperr kinds: apperr.ErrNotFound for a
// missing row, apperr.ErrConflict for a unique violation, apperr.ErrInternal otherwise.

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	Replace(ctx context.Context, u *models.User) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// PostRepository persists posts.
type PostRepository interface {
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	// TitleOrSlugTaken reports whether another post uses title or slug.
	TitleOrSlugTaken(ctx context.Context, title, slug string, excludeID int64) (bool, error)
	List(ctx context.Context) ([]models.Post, error)
	// ListPublished returns published posts, newest first.
	ListPublished(ctx context.Context) ([]models.Post, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Post, error)
	// GetPublishedOn finds a published post by slug whose publish time falls in [from, to).
	GetPublishedOn(ctx context.Context, slug string, from, to time.Time) (*models.Post, error)
	// Similar returns published posts sharing a tag with post, newest first.
	Similar(ctx context.Context, post *models.Post, limit int) ([]models.Post, error)
	Replace(ctx context.Context, p *models.Post) (*models.Post, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// CommentFilter narrows a comment listing. Nil fields do not filter.
type CommentFilter struct {
	PostID *int64
	Active *bool
}

// CommentRepository persists comments.
type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
	Get(ctx context.Context, id int64) (*models.Comment, error)
	BodyTaken(ctx context.Context, postID int64, body string, excludeID int64) (bool, error)
	List(ctx context.Context, filter CommentFilter) ([]models.Comment, error)
	// ListActiveForPost returns the active comments of a post, oldest first.
	ListActiveForPost(ctx context.Context, postID int64) ([]models.Comment, error)
	Replace(ctx context.Context, c *models.Comment) (*models.Comment, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// ProductRepository persists store products.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error)
	List(ctx context.Context) ([]models.Product, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	// Window returns products ordered by id.
	Window(ctx context.Context, offset, limit int) ([]models.Product, error)
	Replace(ctx context.Context, p *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// PurchaseRepository persists the user to product association.
type PurchaseRepository interface {
	Create(ctx context.Context, userID, productID int64) (*models.UserStore, error)
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	// Delete returns apperr.ErrNotFound when no association exists.
	Delete(ctx context.Context, userID, productID int64) error
	ProductsForUser(ctx context.Context, userID int64) ([]models.Product, error)
	Count(ctx context.Context) (int, error)
}

// Repositories bundles the repositories bound to one database session.
type Repositories struct {
	Users     UserRepository
	Posts     PostRepository
	Comments  CommentRepository
	Products  ProductRepository
	Purchases PurchaseRepository
}
