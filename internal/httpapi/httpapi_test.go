package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-shop/internal/database"
	"github.com/marshallshelly/pebble-shop/internal/httpapi"
	"github.com/marshallshelly/pebble-shop/internal/messages"
	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/internal/service"
	"github.com/marshallshelly/pebble-shop/internal/service/servicetest"
	"github.com/marshallshelly/pebble-shop/internal/session"
	"github.com/marshallshelly/pebble-shop/pkg/builder"
)

// noDB fails every transaction; the in-memory repositories never start one.
type noDB struct{}

func (noDB) Begin(context.Context) (pgx.Tx, error) { return nil, errors.New("no database") }

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Compare(h, p string) error {
	if h != "hashed:"+p {
		return errors.New("mismatch")
	}
	return nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	db      *servicetest.DB
	cookies []*http.Cookie
}

func newTestServer(t *testing.T, mutate ...func(*httpapi.Deps)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := servicetest.New()
	deps := httpapi.Deps{
		Provider: database.NewProvider(noDB{}, nil),
		Sessions: session.NewManager(session.NewMemoryStore(time.Hour), session.CookieOptions{Name: "session"}, nil),
		Messages: messages.NewStore(),
		Repositories: func(builder.Querier) service.Repositories {
			return db.Repositories()
		},
		Service: []service.Option{service.WithHasher(plainHasher{})},
	}
	for _, m := range mutate {
		m(&deps)
	}
	r, err := httpapi.NewRouter(deps)
	require.NoError(t, err)
	return &testServer{t: t, router: r, db: db}
}

// do sends a request carrying the cookies collected so far.
func (s *testServer) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if got := w.Result().Cookies(); len(got) > 0 {
		s.cookies = got
	}
	return w
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(http.MethodGet, path, nil, "")
}

func (s *testServer) form(method, path string, values url.Values) *httptest.ResponseRecorder {
	return s.do(method, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (s *testServer) json(method, path string, body any) *httptest.ResponseRecorder {
	b, err := json.Marshal(body)
	require.NoError(s.t, err)
	return s.do(method, path, strings.NewReader(string(b)), "application/json")
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Detail
}

func seedPosts(db *servicetest.DB, titles ...string) []models.Post {
	base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	out := make([]models.Post, 0, len(titles))
	for i, title := range titles {
		out = append(out, db.SeedPost(models.Post{
			Title:     title,
			Slug:      strings.ReplaceAll(strings.ToLower(title), " ", "-"),
			Body:      "Body of " + title,
			Publish:   base.AddDate(0, 0, -i),
			Status:    models.StatusPublished,
			Published: true,
		}))
	}
	return out
}

func TestIndexAndSignInForm(t *testing.T) {
	s := newTestServer(t)

	w := s.get("/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pebble Shop")

	w = s.get("/sign_in/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="password2"`)
}

func TestListPosts(t *testing.T) {
	s := newTestServer(t)
	seedPosts(s.db, "Post A", "Post B", "Post C", "Post D", "Post E")

	w := s.get("/posts/?items_per_page=2&page=2")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Post C")
	assert.Contains(t, body, "Post D")
	assert.NotContains(t, body, "Post A")
	assert.NotContains(t, body, "Post E")
	assert.Contains(t, body, "Page 2 of 3")
	assert.Contains(t, body, "?page=3&items_per_page=2")

	w = s.get("/posts/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Post A")
	assert.Contains(t, w.Body.String(), "Post B")
	assert.NotContains(t, w.Body.String(), "Post C")

	w = s.get("/posts/?page=9")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No posts yet.")
}

func TestListPostsInvalidParams(t *testing.T) {
	s := newTestServer(t)
	for _, q := range []string{"items_per_page=0", "page=-1", "page=abc"} {
		w := s.get("/posts/?" + q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, detail(t, w), "must be a positive integer", q)
	}
}

func TestPostBySlugQuery(t *testing.T) {
	s := newTestServer(t)
	seedPosts(s.db, "Post A")

	w := s.get("/posts/?post_slug=post-a")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Body of Post A")

	w = s.get("/posts/?post_slug=nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", detail(t, w))
}

func TestPostDetailAndComment(t *testing.T) {
	s := newTestServer(t)
	post := seedPosts(s.db, "Post A")[0]
	path := post.PublishedPath()
	assert.Equal(t, "/posts/2024/1/10/post-a", path)

	w := s.get(path)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "There are no comments yet.")

	assert.Equal(t, http.StatusNotFound, s.get("/posts/2024/1/11/post-a").Code)
	assert.Equal(t, http.StatusNotFound, s.get("/posts/2024/x/10/post-a").Code)

	w = s.form(http.MethodPost, path, url.Values{"name": {"Reader"}, "email": {"r@example.com"}, "body": {"Great read"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Your comment has been added.")
	assert.Contains(t, w.Body.String(), "Great read")
	assert.Equal(t, 1, s.db.CommentCount())

	w = s.form(http.MethodPost, path, url.Values{"email": {"r@example.com"}, "body": {"Second"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Name is required")
	assert.Contains(t, w.Body.String(), "Second")
	assert.Equal(t, 1, s.db.CommentCount())
}

func addToCart(t *testing.T, s *testServer, id int64) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(http.MethodPost, "/store/cart/"+strconv.FormatInt(id, 10), nil, "")
}

func TestCart(t *testing.T) {
	s := newTestServer(t)
	lamp := s.db.SeedProduct(models.Product{Title: "Lamp", Cost: 150})
	desk := s.db.SeedProduct(models.Product{Title: "Desk", Cost: 200})

	w := addToCart(t, s, desk.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, s.cookies)

	addToCart(t, s, lamp.ID)
	w = addToCart(t, s, desk.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var added struct {
		Message string  `json:"message"`
		Cart    []int64 `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	assert.Equal(t, "Product added to cart", added.Message)
	assert.Equal(t, []int64{desk.ID, lamp.ID}, added.Cart)

	w = addToCart(t, s, 999)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", detail(t, w))

	w = s.get("/store/cart")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Total: 350")

	w = s.do(http.MethodPost, "/store/cart", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cart cleared successfully.")
	assert.Contains(t, w.Body.String(), "Total: 0")

	w = s.get("/store/cart")
	assert.Contains(t, w.Body.String(), "Your cart is empty.")
}

func TestStoreListing(t *testing.T) {
	s := newTestServer(t)
	for i := range 12 {
		s.db.SeedProduct(models.Product{Title: "Item " + strconv.Itoa(i+1), Cost: 1})
	}

	w := s.get("/store/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Item 10<")
	assert.NotContains(t, w.Body.String(), "Item 11")
	assert.Contains(t, w.Body.String(), "Page 1 of 2")

	w = s.get("/store/?page=2&size=10")
	assert.Contains(t, w.Body.String(), "Item 12")

	assert.Equal(t, http.StatusBadRequest, s.get("/store/?size=0").Code)

	w = s.get("/store/database")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Item 1<")
	assert.Contains(t, w.Body.String(), "Item 12")
}

func TestSignIn(t *testing.T) {
	s := newTestServer(t)
	valid := url.Values{
		"username":  {"marshall"},
		"email":     {"m@example.com"},
		"birthdate": {"1990-05-17"},
		"password1": {"secret123"},
		"password2": {"secret123"},
	}

	mismatch := url.Values{}
	for k, v := range valid {
		mismatch[k] = v
	}
	mismatch.Set("password2", "other1234")
	w := s.form(http.MethodPost, "/sign_in/", mismatch)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords do not match")
	assert.Zero(t, s.db.UserCount())

	w = s.form(http.MethodPost, "/sign_in/", valid)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Registration successful")
	assert.Equal(t, 1, s.db.UserCount())

	w = s.form(http.MethodPost, "/sign_in/", valid)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "User already exists")
	assert.Equal(t, 1, s.db.UserCount())
}

func TestAdminUsers(t *testing.T) {
	s := newTestServer(t)
	user := map[string]string{
		"username":  "alice",
		"email":     "alice@example.com",
		"birthdate": "1985-01-02",
		"password":  "password1",
	}

	w := s.json(http.MethodPost, "/admin/users", user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "alice", created.Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.json(http.MethodPost, "/admin/users", user)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", detail(t, w))
	assert.Equal(t, 1, s.db.UserCount())

	w = s.json(http.MethodPost, "/admin/users", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is required", detail(t, w))

	id := strconv.FormatInt(created.ID, 10)
	assert.Equal(t, http.StatusOK, s.get("/admin/users/"+id).Code)
	assert.Equal(t, http.StatusNotFound, s.get("/admin/users/999").Code)
	assert.Equal(t, http.StatusBadRequest, s.get("/admin/users/abc").Code)

	user["username"] = "alice2"
	w = s.json(http.MethodPut, "/admin/users/"+id, user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice2")

	w = s.do(http.MethodDelete, "/admin/users/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodDelete, "/admin/users/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminPostsAndComments(t *testing.T) {
	s := newTestServer(t)

	w := s.form(http.MethodPost, "/admin/posts", url.Values{
		"title": {"Go Tips"}, "body": {"text"}, "tags": {"Go,web"}, "published": {"true"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, "go-tips", post.Slug)
	assert.Equal(t, "go,web", post.Tags)
	assert.True(t, post.Published)

	w = s.json(http.MethodPost, "/admin/posts", map[string]any{"title": "Go Tips", "body": "again"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Post already exists", detail(t, w))

	w = s.do(http.MethodDelete, "/admin/posts/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, s.db.PostCount())

	w = s.json(http.MethodPost, "/admin/comments", map[string]any{
		"post_id": post.ID, "name": "n", "email": "n@x", "body": "hi", "active": false,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.get("/admin/comments?post_id=" + strconv.FormatInt(post.ID, 10) + "&active=false")
	require.Equal(t, http.StatusOK, w.Code)
	var comments []models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	require.Len(t, comments, 1)
	assert.False(t, comments[0].Active)

	assert.Equal(t, http.StatusBadRequest, s.get("/admin/comments?active=maybe").Code)

	w = s.get("/admin/")
	require.Equal(t, http.StatusOK, w.Code)
	var counts map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.Equal(t, 1, counts["posts"])
	assert.Equal(t, 1, counts["comments"])

	w = s.do(http.MethodDelete, "/admin/posts/"+strconv.FormatInt(post.ID, 10), nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, s.db.CommentCount())
}

func TestAdminStoreAndPurchases(t *testing.T) {
	s := newTestServer(t)
	user := s.db.SeedUser(models.User{Username: "buyer1", Email: "b@x"})

	w := s.json(http.MethodPost, "/admin/store", map[string]any{"title": "Lamp", "cost": 30})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))

	w = s.json(http.MethodPost, "/admin/store", map[string]any{"title": "Bad", "cost": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cost must be at least 0", detail(t, w))

	base := "/admin/users/" + strconv.FormatInt(user.ID, 10) + "/purchases"
	productPath := base + "/" + strconv.FormatInt(product.ID, 10)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/admin/users/999/purchases/"+strconv.FormatInt(product.ID, 10), nil, "").Code)
	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, productPath, nil, "").Code)
	w = s.do(http.MethodPost, productPath, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Purchase already exists", detail(t, w))

	w = s.get(base)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Lamp")

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, productPath, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, productPath, nil, "").Code)
}

func TestMessages(t *testing.T) {
	s := newTestServer(t)

	w := s.json(http.MethodPost, "/messages", map[string]string{"text": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"text":"hello"}`, w.Body.String())

	s.form(http.MethodPost, "/messages", url.Values{"text": {"world"}})
	w = s.get("/messages")
	assert.JSONEq(t, `[{"id":1,"text":"hello"},{"id":2,"text":"world"}]`, w.Body.String())

	w = s.json(http.MethodPut, "/messages/1", map[string]string{"text": "hi"})
	assert.JSONEq(t, `{"id":1,"text":"hi"}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, s.json(http.MethodPost, "/messages", map[string]string{}).Code)
	assert.Equal(t, http.StatusNotFound, s.get("/messages/9").Code)
	assert.Equal(t, http.StatusNotFound, s.json(http.MethodPut, "/messages/9", map[string]string{"text": "x"}).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/messages/2", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/messages/2", nil, "").Code)

	w = s.do(http.MethodDelete, "/messages", nil, "")
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())
	assert.JSONEq(t, `[]`, s.get("/messages").Body.String())
}

func TestHealthz(t *testing.T) {
	healthy := true
	s := newTestServer(t, func(d *httpapi.Deps) {
		d.Pinger = pingFunc(func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("down")
		})
	})

	assert.Equal(t, http.StatusOK, s.get("/healthz").Code)
	healthy = false
	assert.Equal(t, http.StatusServiceUnavailable, s.get("/healthz").Code)
	assert.Equal(t, http.StatusOK, s.get("/metrics").Code)
}

func TestInternalFailureAndRecovery(t *testing.T) {
	s := newTestServer(t)
	s.db.Fail = errors.New("connection reset")

	w := s.get("/admin/users")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", detail(t, w))

	s.router.GET("/boom", func(*gin.Context) { panic("kaboom") })
	w = s.get("/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", detail(t, w))

	w = s.get("/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitedRoutes(t *testing.T) {
	s := newTestServer(t, func(d *httpapi.Deps) {
		d.Limiter = httpapi.NewRateLimiter(0.001, 1, nil)
	})
	product := s.db.SeedProduct(models.Product{Title: "Lamp", Cost: 1})

	assert.Equal(t, http.StatusOK, addToCart(t, s, product.ID).Code)
	w := addToCart(t, s, product.ID)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", detail(t, w))

	// Reads are never limited.
	assert.Equal(t, http.StatusOK, s.get("/store/cart").Code)
}
