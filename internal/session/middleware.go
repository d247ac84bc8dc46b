package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const contextKey = "session"

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Manager binds a Store to requests.
type Manager struct {
	store  Store
	cookie CookieOptions
	log    *zap.Logger
}

// NewManager creates a Manager.
func NewManager(store Store, cookie CookieOptions, log *zap.Logger) *Manager {
	if cookie.Name == "" {
		cookie.Name = "session"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, cookie: cookie, log: log}
}

// Store returns the underlying store.
func (m *Manager) Store() Store { return m.store }

// Middleware loads the client's session, or starts a new one, and saves it
// after the handler chain if it was modified and not saved already.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := m.load(c)
		c.Set(contextKey, s)

		// Set the cookie before the handler writes the response.
		if s.IsNew() {
			m.setCookie(c, s.ID())
		}

		c.Next()

		if err := s.Save(context.WithoutCancel(c.Request.Context()), m.store); err != nil {
			m.log.Error("session save failed", zap.Error(err))
		}
	}
}

func (m *Manager) load(c *gin.Context) *Session {
	id, err := c.Cookie(m.cookie.Name)
	if err == nil && uuid.Validate(id) == nil {
		values, err := m.store.Load(c.Request.Context(), id)
		switch {
		case err == nil:
			return loaded(id, values)
		case !errors.Is(err, ErrNotFound):
			m.log.Warn("session load failed, starting a new one", zap.Error(err))
		}
	}
	return New(uuid.NewString())
}

func (m *Manager) setCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, id, int(m.cookie.MaxAge.Seconds()), "/", "", m.cookie.Secure, true)
}

// Save persists the request session now, so a handler can report a failure
// before it responds.
func (m *Manager) Save(c *gin.Context) error {
	return FromContext(c).Save(c.Request.Context(), m.store)
}

// FromContext returns the request session. Without Middleware it returns a
// detached session that is never persisted.
func FromContext(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	s := New(uuid.NewString())
	c.Set(contextKey, s)
	return s
}
