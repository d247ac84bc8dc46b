// Package models holds the persisted entities of the shop.
package models

import (
	"strings"
	"time"

	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

func init() {
	schema.RegisterTableName("User", "users")
	schema.RegisterTableName("Post", "posts")
	schema.RegisterTableName("Comment", "comments")
	schema.RegisterTableName("Product", "store")
	schema.RegisterTableName("UserStore", "user_store")
}

// User is a registered account. Password holds a bcrypt hash.
type User struct {
	ID        int64     `po:"id,primaryKey,bigserial" json:"id"`
	Username  string    `po:"username,varchar(150),notNull,unique" json:"username"`
	Email     string    `po:"email,varchar(254),notNull" json:"email"`
	Birthdate time.Time `po:"birthdate,date,notNull" json:"birthdate"`
	Password  string    `po:"password,varchar(255),notNull" json:"-"`
}

// Post statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is a blog entry. Tags are stored comma-separated.
type Post struct {
	ID        int64     `po:"id,primaryKey,bigserial" json:"id"`
	Title     string    `po:"title,varchar(250),notNull" json:"title"`
	Slug      string    `po:"slug,varchar(250),notNull,unique" json:"slug"`
	Body      string    `po:"body,text,notNull" json:"body"`
	Publish   time.Time `po:"publish,timestamptz,notNull,default(now()),index" json:"publish"`
	Updated   time.Time `po:"updated,timestamptz,notNull,default(now())" json:"updated"`
	Status    string    `po:"status,varchar(10),notNull,default('draft')" json:"status"`
	Image     string    `po:"image,varchar(255),notNull,default('')" json:"image"`
	Published bool      `po:"published,boolean,notNull,default(false)" json:"published"`
	Tags      string    `po:"tags,text,notNull,default('')" json:"tags"`
}

// Comment belongs to a post; only active comments are shown publicly.
// Active has no column default so an explicit false is never replaced.
type Comment struct {
	ID      int64     `po:"id,primaryKey,bigserial" json:"id"`
	PostID  int64     `po:"post_id,bigint,notNull,fk(posts.id),onDelete(cascade),index" json:"post_id"`
	Name    string    `po:"name,varchar(80),notNull" json:"name"`
	Email   string    `po:"email,varchar(254),notNull" json:"email"`
	Body    string    `po:"body,text,notNull" json:"body"`
	Created time.Time `po:"created,timestamptz,notNull,default(now())" json:"created"`
	Updated time.Time `po:"updated,timestamptz,notNull,default(now())" json:"updated"`
	Active  bool      `po:"active,boolean,notNull" json:"active"`
}

// Product is an item of the store. Cost is in whole currency units.
type Product struct {
	ID          int64   `po:"id,primaryKey,bigserial" json:"id"`
	Title       string  `po:"title,varchar(250),notNull,unique" json:"title"`
	Size        float64 `po:"size,double precision,notNull,default(0)" json:"size"`
	Description string  `po:"description,text,notNull,default('')" json:"description"`
	Cost        int64   `po:"cost,bigint,notNull,check(cost >= 0)" json:"cost"`
	Photo       string  `po:"photo,varchar(255),notNull,default('')" json:"photo"`
	UploadedAt  bool    `po:"uploaded_at,boolean,notNull,default(false)" json:"uploaded_at"`
}

// UserStore records that a user purchased a product.
type UserStore struct {
	UserID    int64     `po:"user_id,bigint,primaryKey,fk(users.id),onDelete(cascade)" json:"user_id"`
	StoreID   int64     `po:"store_id,bigint,primaryKey,fk(store.id),onDelete(cascade),index" json:"store_id"`
	CreatedAt time.Time `po:"created_at,timestamptz,notNull,default(now())" json:"created_at"`
}

// PublishedPath returns the date-based detail path of the post.
func (p Post) PublishedPath() string {
	d := p.Publish.UTC()
	return "/posts/" + d.Format("2006/1/2") + "/" + p.Slug
}

// TagList splits the stored tags.
func (p Post) TagList() []string {
	return strings.FieldsFunc(p.Tags, func(r rune) bool { return r == ',' })
}
