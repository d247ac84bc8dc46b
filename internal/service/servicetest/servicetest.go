// Package servicetest provides in-memory repositories for tests.
package servicetest

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/internal/service"
)

// DB is an in-memory database shared by the repositories it hands out.
// Set Fail to make every call return it.
type DB struct {
	mu        sync.Mutex
	nextID    int64
	users     []models.User
	posts     []models.Post
	comments  []models.Comment
	products  []models.Product
	purchases []models.UserStore
	Fail      error
}

// New returns an empty DB.
func New() *DB {
	return &DB{}
}

// Repositories returns repositories over db.
func (db *DB) Repositories() service.Repositories {
	return service.Repositories{
		Users:     users{db},
		Posts:     posts{db},
		Comments:  comments{db},
		Products:  products{db},
		Purchases: purchases{db},
	}
}

func (db *DB) lock() (func(), error) {
	db.mu.Lock()
	if db.Fail != nil {
		db.mu.Unlock()
		return nil, apperr.Internal(db.Fail)
	}
	return db.mu.Unlock, nil
}

func (db *DB) id() int64 {
	db.nextID++
	return db.nextID
}

// SeedUser inserts u as is, assigning an id when it has none.
func (db *DB) SeedUser(u models.User) models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.ID == 0 {
		u.ID = db.id()
	}
	db.users = append(db.users, u)
	return u
}

// SeedPost inserts p as is.
func (db *DB) SeedPost(p models.Post) models.Post {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.ID == 0 {
		p.ID = db.id()
	}
	db.posts = append(db.posts, p)
	return p
}

// SeedComment inserts c as is.
func (db *DB) SeedComment(c models.Comment) models.Comment {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == 0 {
		c.ID = db.id()
	}
	db.comments = append(db.comments, c)
	return c
}

// SeedProduct inserts p as is.
func (db *DB) SeedProduct(p models.Product) models.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.ID == 0 {
		p.ID = db.id()
	}
	db.products = append(db.products, p)
	return p
}

// UserCount returns the number of stored users.
func (db *DB) UserCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users)
}

// PostCount returns the number of stored posts.
func (db *DB) PostCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.posts)
}

// CommentCount returns the number of stored comments.
func (db *DB) CommentCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.comments)
}

func find[T any](items []T, match func(T) bool) int {
	return slices.IndexFunc(items, match)
}

type users struct{ db *DB }

func (r users) Create(_ context.Context, u *models.User) (*models.User, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	if find(r.db.users, func(x models.User) bool { return x.Username == u.Username }) >= 0 {
		return nil, apperr.Conflict("User already exists")
	}
	out := *u
	out.ID = r.db.id()
	r.db.users = append(r.db.users, out)
	return &out, nil
}

func (r users) Get(_ context.Context, id int64) (*models.User, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	i := find(r.db.users, func(x models.User) bool { return x.ID == id })
	if i < 0 {
		return nil, apperr.NotFound("User not found")
	}
	out := r.db.users[i]
	return &out, nil
}

func (r users) UsernameTaken(_ context.Context, username string, excludeID int64) (bool, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	return find(r.db.users, func(x models.User) bool {
		return x.Username == username && x.ID != excludeID
	}) >= 0, nil
}

func (r users) List(context.Context) ([]models.User, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return slices.Clone(r.db.users), nil
}

func (r users) Replace(_ context.Context, u *models.User) (*models.User, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	i := find(r.db.users, func(x models.User) bool { return x.ID == u.ID })
	if i < 0 {
		return nil, apperr.NotFound("User not found")
	}
	r.db.users[i] = *u
	out := *u
	return &out, nil
}

func (r users) Delete(_ context.Context, id int64) error {
	unlock, err := r.db.lock()
	if err != nil {
		return err
	}
	defer unlock()
	r.db.users = slices.DeleteFunc(r.db.users, func(x models.User) bool { return x.ID == id })
	r.db.purchases = slices.DeleteFunc(r.db.purchases, func(x models.UserStore) bool { return x.UserID == id })
	return nil
}

func (r users) Count(context.Context) (int, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return len(r.db.users), nil
}

type posts struct{ db *DB }

func newestFirst(a, b models.Post) int {
	if c := b.Publish.Compare(a.Publish); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func (r posts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	if find(r.db.posts, func(x models.Post) bool { return x.Slug == p.Slug }) >= 0 {
		return nil, apperr.Conflict("Post already exists")
	}
	out := *p
	out.ID = r.db.id()
	r.db.posts = append(r.db.posts, out)
	return &out, nil
}

func (r posts) Get(_ context.Context, id int64) (*models.Post, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	i := find(r.db.posts, func(x models.Post) bool { return x.ID == id })
	if i < 0 {
		return nil, apperr.NotFound("Post not found")
	}
	out := r.db.posts[i]
	return &out, nil
}

func (r posts) TitleOrSlugTaken(_ context.Context, title, slug string, excludeID int64) (bool, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	return find(r.db.posts, func(x models.Post) bool {
		return x.ID != excludeID && (x.Title == title || x.Slug == slug)
	}) >= 0, nil
}

func (r posts) List(context.Context) ([]models.Post, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return slices.Clone(r.db.posts), nil
}

func (r posts) published() []models.Post {
	out := make([]models.Post, 0, len(r.db.posts))
	for _, p := range r.db.posts {
		if p.Published {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, newestFirst)
	return out
}

func (r posts) ListPublished(context.Context) ([]models.Post, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.published(), nil
}

func (r posts) GetPublishedBySlug(_ context.Context, slug string) (*models.Post, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, p := range r.published() {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, apperr.NotFound("Post not found")
}

func (r posts) GetPublishedOn(_ context.Context, slug string, from, to time.Time) (*models.Post, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, p := range r.published() {
		if p.Slug == slug && !p.Publish.Before(from) && p.Publish.Before(to) {
			return &p, nil
		}
	}
	return nil, apperr.NotFound("Post not found")
}

func (r posts) Similar(_ context.Context, post *models.Post, limit int) ([]models.Post, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	tags := post.TagList()
	out := []models.Post{}
	for _, p := range r.published() {
		if p.ID == post.ID || !slices.ContainsFunc(p.TagList(), func(t string) bool { return slices.Contains(tags, t) }) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r posts) Replace(_ context.Context, p *models.Post) (*models.Post, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	i := find(r.db.posts, func(x models.Post) bool { return x.ID == p.ID })
	if i < 0 {
		return nil, apperr.NotFound("Post not found")
	}
	r.db.posts[i] = *p
	out := *p
	return &out, nil
}

func (r posts) Delete(_ context.Context, id int64) error {
	unlock, err := r.db.lock()
	if err != nil {
		return err
	}
	defer unlock()
	r.db.posts = slices.DeleteFunc(r.db.posts, func(x models.Post) bool { return x.ID == id })
	r.db.comments = slices.DeleteFunc(r.db.comments, func(x models.Comment) bool { return x.PostID == id })
	return nil
}

func (r posts) Count(context.Context) (int, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return len(r.db.posts), nil
}

type comments struct{ db *DB }

func (r comments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	if find(r.db.posts, func(x models.Post) bool { return x.ID == c.PostID }) < 0 {
		return nil, apperr.NotFound("Post not found")
	}
	out := *c
	out.ID = r.db.id()
	r.db.comments = append(r.db.comments, out)
	return &out, nil
}

func (r comments) Get(_ context.Context, id int64) (*models.Comment, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	i := find(r.db.comments, func(x models.Comment) bool { return x.ID == id })
	if i < 0 {
		return nil, apperr.NotFound("Comment not found")
	}
	out := r.db.comments[i]
	return &out, nil
}

func (r comments) BodyTaken(_ context.Context, postID int64, body string, excludeID int64) (bool, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	return find(r.db.comments, func(x models.Comment) bool {
		return x.PostID == postID && x.Body == body && x.ID != excludeID
	}) >= 0, nil
}

func (r comments) List(_ context.Context, filter service.CommentFilter) ([]models.Comment, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []models.Comment{}
	for _, c := range r.db.comments {
		if filter.PostID != nil && c.PostID != *filter.PostID {
			continue
		}
		if filter.Active != nil && c.Active != *filter.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r comments) ListActiveForPost(_ context.Context, postID int64) ([]models.Comment, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []models.Comment{}
	for _, c := range r.db.comments {
		if c.PostID == postID && c.Active {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Comment) int { return a.Created.Compare(b.Created) })
	return out, nil
}

func (r comments) Replace(_ context.Context, c *models.Comment) (*models.Comment, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	i := find(r.db.comments, func(x models.Comment) bool { return x.ID == c.ID })
	if i < 0 {
		return nil, apperr.NotFound("Comment not found")
	}
	r.db.comments[i] = *c
	out := *c
	return &out, nil
}

func (r comments) Delete(_ context.Context, id int64) error {
	unlock, err := r.db.lock()
	if err != nil {
		return err
	}
	defer unlock()
	r.db.comments = slices.DeleteFunc(r.db.comments, func(x models.Comment) bool { return x.ID == id })
	return nil
}

func (r comments) Count(context.Context) (int, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return len(r.db.comments), nil
}

type products struct{ db *DB }

func (r products) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	if find(r.db.products, func(x models.Product) bool { return x.Title == p.Title }) >= 0 {
		return nil, apperr.Conflict("Product already exists")
	}
	out := *p
	out.ID = r.db.id()
	r.db.products = append(r.db.products, out)
	return &out, nil
}

func (r products) Get(_ context.Context, id int64) (*models.Product, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	i := find(r.db.products, func(x models.Product) bool { return x.ID == id })
	if i < 0 {
		return nil, apperr.NotFound("Product not found")
	}
	out := r.db.products[i]
	return &out, nil
}

func (r products) TitleTaken(_ context.Context, title string, excludeID int64) (bool, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	return find(r.db.products, func(x models.Product) bool {
		return x.Title == title && x.ID != excludeID
	}) >= 0, nil
}

func (r products) sorted() []models.Product {
	out := slices.Clone(r.db.products)
	slices.SortFunc(out, func(a, b models.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r products) List(context.Context) ([]models.Product, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.sorted(), nil
}

func (r products) ListByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []models.Product{}
	for _, p := range r.sorted() {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r products) Window(_ context.Context, offset, limit int) ([]models.Product, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	all := r.sorted()
	start := min(offset, len(all))
	end := min(start+limit, len(all))
	return all[start:end], nil
}

func (r products) Replace(_ context.Context, p *models.Product) (*models.Product, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	i := find(r.db.products, func(x models.Product) bool { return x.ID == p.ID })
	if i < 0 {
		return nil, apperr.NotFound("Product not found")
	}
	r.db.products[i] = *p
	out := *p
	return &out, nil
}

func (r products) Delete(_ context.Context, id int64) error {
	unlock, err := r.db.lock()
	if err != nil {
		return err
	}
	defer unlock()
	r.db.products = slices.DeleteFunc(r.db.products, func(x models.Product) bool { return x.ID == id })
	r.db.purchases = slices.DeleteFunc(r.db.purchases, func(x models.UserStore) bool { return x.StoreID == id })
	return nil
}

func (r products) Count(context.Context) (int, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return len(r.db.products), nil
}

type purchases struct{ db *DB }

func (r purchases) index(userID, productID int64) int {
	return find(r.db.purchases, func(x models.UserStore) bool {
		return x.UserID == userID && x.StoreID == productID
	})
}

func (r purchases) Create(_ context.Context, userID, productID int64) (*models.UserStore, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	if r.index(userID, productID) >= 0 {
		return nil, apperr.Conflict("Purchase already exists")
	}
	us := models.UserStore{UserID: userID, StoreID: productID, CreatedAt: time.Now()}
	r.db.purchases = append(r.db.purchases, us)
	return &us, nil
}

func (r purchases) Exists(_ context.Context, userID, productID int64) (bool, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	return r.index(userID, productID) >= 0, nil
}

func (r purchases) Delete(_ context.Context, userID, productID int64) error {
	unlock, err := r.db.lock()
	if err != nil {
		return err
	}
	defer unlock()
	i := r.index(userID, productID)
	if i < 0 {
		return apperr.NotFound("Purchase not found")
	}
	r.db.purchases = slices.Delete(r.db.purchases, i, i+1)
	return nil
}

func (r purchases) ProductsForUser(_ context.Context, userID int64) ([]models.Product, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []models.Product{}
	for _, p := range products(r).sorted() {
		if r.index(userID, p.ID) >= 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r purchases) Count(context.Context) (int, error) {
	unlock, err := r.db.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return len(r.db.purchases), nil
}
