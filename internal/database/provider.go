package database

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionKey = "db.session"

// Provider hands out one Session per unit of work.
type Provider struct {
	db  Beginner
	log *zap.Logger
}

// NewProvider creates a Provider over db.
func NewProvider(db Beginner, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{db: db, log: log}
}

// Open returns a fresh session. The caller must Close it.
func (p *Provider) Open() *Session {
	return newSession(p.db)
}

// Run executes fn in its own session: committed when fn succeeds, rolled back
// when fn returns an error or panics. Panics are re-raised after rollback.
func (p *Provider) Run(ctx context.Context, fn func(s *Session) error) (err error) {
	s := p.Open()
	defer func() {
		if r := recover(); r != nil {
			_ = s.Close(ctx)
			panic(r)
		}
		if cerr := s.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := fn(s); err != nil {
		return err
	}
	if err := s.Commit(ctx); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// Middleware opens one session per request and closes it after the handler
// chain on every path, including panics. Handlers commit explicitly.
func (p *Provider) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := p.Open()
		c.Set(sessionKey, s)
		defer func() {
			// The request context may already be cancelled; rollback must still reach the server.
			if err := s.Close(context.WithoutCancel(c.Request.Context())); err != nil {
				p.log.Error("session close failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			}
		}()
		c.Next()
	}
}

// FromContext returns the request session installed by Middleware.
// It aborts with 500 and returns nil when none is present.
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(sessionKey)
	if ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	return nil
}
