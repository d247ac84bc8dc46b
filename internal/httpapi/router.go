// Package httpapi is the HTTP surface of the shop: server-rendered pages, the
// cart, registration, the admin JSON API, messages and ops endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/database"
	"github.com/marshallshelly/pebble-shop/internal/logging"
	"github.com/marshallshelly/pebble-shop/internal/messages"
	"github.com/marshallshelly/pebble-shop/internal/metrics"
	"github.com/marshallshelly/pebble-shop/internal/pagination"
	"github.com/marshallshelly/pebble-shop/internal/service"
	"github.com/marshallshelly/pebble-shop/internal/session"
	"github.com/marshallshelly/pebble-shop/pkg/builder"
)

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the router.
type Deps struct {
	Log      *zap.Logger
	Provider *database.Provider
	Pinger   Pinger
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Messages *messages.Store
	Limiter  *RateLimiter

	// Repositories binds the repositories to the request's database session.
	Repositories func(q builder.Querier) service.Repositories
	Service      []service.Option
}

type server struct {
	Deps
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Messages == nil {
		d.Messages = messages.NewStore()
	}
	if d.Limiter == nil {
		d.Limiter = NewRateLimiter(0, 0, d.Log)
	}
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	s := &server{Deps: d}
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.CustomRecovery(s.recovered), logging.Middleware(d.Log), d.Metrics.Middleware())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
	})

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	pages := r.Group("/", d.Sessions.Middleware(), d.Provider.Middleware())
	limited := d.Limiter.Middleware()
	pages.GET("/", s.index)
	pages.GET("/posts/", s.listPosts)
	pages.GET("/posts/:year/:month/:day/:post", s.postDetail)
	pages.POST("/posts/:year/:month/:day/:post", limited, s.addComment)
	pages.GET("/store/", s.listProducts)
	pages.GET("/store/database", s.allProducts)
	pages.GET("/store/cart", s.viewCart)
	pages.POST("/store/cart", limited, s.clearCart)
	pages.POST("/store/cart/:product_id", limited, s.addToCart)
	pages.GET("/sign_in/", s.signInForm)
	pages.POST("/sign_in/", limited, s.signIn)

	admin := r.Group("/admin", d.Provider.Middleware())
	s.registerAdmin(admin)

	msgs := r.Group("/messages")
	msgs.GET("", s.listMessages)
	msgs.POST("", s.createMessage)
	msgs.DELETE("", s.deleteAllMessages)
	msgs.GET("/:id", s.getMessage)
	msgs.PUT("/:id", s.updateMessage)
	msgs.DELETE("/:id", s.deleteMessage)

	return r, nil
}

func (s *server) recovered(c *gin.Context, recovered any) {
	s.Log.Error("panic recovered",
		zap.Any("panic", recovered),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

func (s *server) healthz(c *gin.Context) {
	if s.Pinger == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	if err := s.Pinger.Ping(c.Request.Context()); err != nil {
		s.Log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// service builds the request's Service over its database session. It returns
// nil after aborting the request when no session is installed.
func (s *server) service(c *gin.Context) (*service.Service, *database.Session) {
	sess := database.FromContext(c)
	if sess == nil {
		s.fail(c, apperr.Internal(errors.New("no database session on request")))
		return nil, nil
	}
	return service.New(s.Repositories(sess), s.Service...), sess
}

// fail writes err as {"detail": ...} with its mapped status.
func (s *server) fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	detail := apperr.Detail(err)
	if errors.Is(err, pagination.ErrInvalidParams) {
		status, detail = http.StatusBadRequest, "page and size must be positive integers"
	}
	if status >= http.StatusInternalServerError {
		s.Log.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// commit commits the request's session and reports a failure as 500.
func (s *server) commit(c *gin.Context, sess *database.Session) bool {
	if err := sess.Commit(c.Request.Context()); err != nil {
		s.fail(c, apperr.Internal(err))
		return false
	}
	return true
}

// queryInt reads a positive integer query parameter, or def when absent.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.ValidationErrors{name + " must be a positive integer"}
	}
	return n, nil
}

// paramID reads an integer path parameter.
func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, apperr.ValidationErrors{"Invalid " + name}
	}
	return id, nil
}
