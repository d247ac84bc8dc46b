package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/posts/1", "/posts/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/posts/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "pebble_shop_http_requests_total"))
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.CartOp(CartAdd, nil)
	m.CartOp(CartAdd, errors.New("missing"))
	m.Registration(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cartOps.WithLabelValues(CartAdd, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cartOps.WithLabelValues(CartAdd, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("ok")))
}
