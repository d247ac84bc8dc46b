package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/cart"
	"github.com/marshallshelly/pebble-shop/internal/metrics"
	"github.com/marshallshelly/pebble-shop/internal/pagination"
	"github.com/marshallshelly/pebble-shop/internal/service"
	"github.com/marshallshelly/pebble-shop/internal/session"
)

// Defaults of the listing query parameters.
const (
	defaultPostsPerPage = 2
	cartCleared         = "Cart cleared successfully."
	cartAdded           = "Product added to cart"
)

func (s *server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "Home"})
}

func (s *server) listPosts(c *gin.Context) {
	size, err := queryInt(c, "items_per_page", defaultPostsPerPage)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		s.fail(c, err)
		return
	}
	svc, _ := s.service(c)
	if svc == nil {
		return
	}

	if slug := c.Query("post_slug"); slug != "" {
		detail, err := svc.PublishedDetail(c.Request.Context(), slug)
		if err != nil {
			s.fail(c, err)
			return
		}
		s.renderDetail(c, http.StatusOK, detail, service.CommentForm{}, nil, false)
		return
	}

	posts, err := svc.PublishedPosts(c.Request.Context(), pagination.Params{Page: page, Size: size})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "posts/list.html", gin.H{
		"Title": "Blog",
		"Page":  posts,
		"Pager": newPager(posts, "items_per_page"),
	})
}

type postRef struct {
	year, month, day int
	slug             string
}

func parsePostRef(c *gin.Context) (postRef, error) {
	var ref postRef
	var err error
	for _, p := range []struct {
		name string
		dst  *int
	}{{"year", &ref.year}, {"month", &ref.month}, {"day", &ref.day}} {
		if *p.dst, err = strconv.Atoi(c.Param(p.name)); err != nil {
			return postRef{}, apperr.NotFound(service.MsgPostNotFound)
		}
	}
	ref.slug = c.Param("post")
	return ref, nil
}

func (s *server) renderDetail(c *gin.Context, status int, detail *service.PostDetail, form service.CommentForm, errs []string, added bool) {
	c.HTML(status, "posts/detail.html", gin.H{
		"Title":      detail.Post.Title,
		"Detail":     detail,
		"Form":       form,
		"Errors":     errs,
		"NewComment": added,
	})
}

func (s *server) postDetail(c *gin.Context) {
	ref, err := parsePostRef(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	svc, _ := s.service(c)
	if svc == nil {
		return
	}
	detail, err := svc.Detail(c.Request.Context(), ref.year, ref.month, ref.day, ref.slug)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderDetail(c, http.StatusOK, detail, service.CommentForm{}, nil, false)
}

func (s *server) addComment(c *gin.Context) {
	ref, err := parsePostRef(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var form service.CommentForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, apperr.ValidationErrors{"Invalid comment form"})
		return
	}
	svc, sess := s.service(c)
	if svc == nil {
		return
	}
	ctx := c.Request.Context()

	detail, _, err := svc.AddComment(ctx, ref.year, ref.month, ref.day, ref.slug, form)
	var verr apperr.ValidationErrors
	switch {
	case errors.As(err, &verr), errors.Is(err, apperr.ErrConflict):
		// Re-render the form with what the client sent.
		if rbErr := sess.Rollback(ctx); rbErr != nil {
			s.fail(c, apperr.Internal(rbErr))
			return
		}
		current, derr := svc.Detail(ctx, ref.year, ref.month, ref.day, ref.slug)
		if derr != nil {
			s.fail(c, derr)
			return
		}
		msgs := []string(verr)
		if msgs == nil {
			msgs = []string{apperr.Detail(err)}
		}
		s.renderDetail(c, http.StatusBadRequest, current, form, msgs, false)
		return
	case err != nil:
		s.fail(c, err)
		return
	}
	if !s.commit(c, sess) {
		return
	}
	s.renderDetail(c, http.StatusOK, detail, service.CommentForm{}, nil, true)
}

func (s *server) listProducts(c *gin.Context) {
	size, err := queryInt(c, "size", service.DefaultStorePageSize)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		s.fail(c, err)
		return
	}
	svc, _ := s.service(c)
	if svc == nil {
		return
	}
	products, err := svc.ProductPage(c.Request.Context(), pagination.Params{Page: page, Size: size})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "store/list.html", gin.H{
		"Title": "Store",
		"Page":  products,
		"Pager": newPager(products, "size"),
	})
}

func (s *server) allProducts(c *gin.Context) {
	svc, _ := s.service(c)
	if svc == nil {
		return
	}
	products, err := svc.Products(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "store/database.html", gin.H{"Title": "All products", "Products": products})
}

func (s *server) cart(c *gin.Context) *cart.Cart {
	svc, _ := s.service(c)
	if svc == nil {
		return nil
	}
	return cart.New(session.FromContext(c), svc)
}

func (s *server) renderCart(c *gin.Context, crt *cart.Cart, message string) {
	view, err := crt.View(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "store/cart.html", gin.H{"Title": "Cart", "Cart": view, "Message": message})
}

func (s *server) viewCart(c *gin.Context) {
	crt := s.cart(c)
	if crt == nil {
		return
	}
	s.Metrics.CartOp(metrics.CartView, nil)
	s.renderCart(c, crt, "")
}

func (s *server) addToCart(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		s.fail(c, apperr.NotFound(service.MsgProductNotFound))
		return
	}
	crt := s.cart(c)
	if crt == nil {
		return
	}
	ids, err := crt.Add(c.Request.Context(), id)
	s.Metrics.CartOp(metrics.CartAdd, err)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.Sessions.Save(c); err != nil {
		s.fail(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": cartAdded, "cart": ids})
}

func (s *server) clearCart(c *gin.Context) {
	crt := s.cart(c)
	if crt == nil {
		return
	}
	err := crt.Clear()
	s.Metrics.CartOp(metrics.CartClear, err)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.Sessions.Save(c); err != nil {
		s.fail(c, apperr.Internal(err))
		return
	}
	s.renderCart(c, crt, cartCleared)
}

func (s *server) signInForm(c *gin.Context) {
	c.HTML(http.StatusOK, "sign_in.html", gin.H{"Title": "Sign in", "Form": service.RegistrationForm{}})
}

func (s *server) signIn(c *gin.Context) {
	var form service.RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, apperr.ValidationErrors{"Invalid registration form"})
		return
	}
	svc, sess := s.service(c)
	if svc == nil {
		return
	}

	_, err := svc.Register(c.Request.Context(), form)
	s.Metrics.Registration(err)
	var verr apperr.ValidationErrors
	switch {
	case errors.As(err, &verr), errors.Is(err, apperr.ErrConflict):
		msgs := []string(verr)
		if msgs == nil {
			msgs = []string{apperr.Detail(err)}
		}
		form.Password1, form.Password2 = "", ""
		c.HTML(http.StatusBadRequest, "sign_in.html", gin.H{"Title": "Sign in", "Form": form, "Errors": msgs})
		return
	case err != nil:
		s.fail(c, err)
		return
	}
	if !s.commit(c, sess) {
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "Home", "Message": service.MsgRegistered})
}
