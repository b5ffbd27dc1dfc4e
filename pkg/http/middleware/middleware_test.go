package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(e *echo.Echo, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	m := newHTTPMetrics(prometheus.NewRegistry())
	e := echo.New()
	e.Use(metricsWith(m, nil, 0, "/metrics"))
	e.GET("/items/:id", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })
	e.GET("/metrics", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	serve(e, http.MethodGet, "/items/1", nil)
	serve(e, http.MethodGet, "/items/2", nil)
	rec := serve(e, http.MethodGet, "/boom", nil)
	serve(e, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/items/:id", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/boom", "GET", "500")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues("/metrics", "GET", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("/items/:id")))
}

func TestCORS(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{
		AllowOrigins: []string{"https://app.example"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType},
		MaxAge:       60,
	}))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.OPTIONS("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, http.MethodOptions, "/x", map[string]string{echo.HeaderOrigin: "https://app.example"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "GET, POST", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	assert.Equal(t, "60", rec.Header().Get(echo.HeaderAccessControlMaxAge))

	rec = serve(e, http.MethodGet, "/x", map[string]string{echo.HeaderOrigin: "https://evil.example"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestCORSWildcard(t *testing.T) {
	cfg := CORSConfig{AllowOrigins: []string{"*"}}
	v, ok := cfg.allowOrigin("https://any.example")
	require.True(t, ok)
	assert.Equal(t, "https://any.example", v)

	v, ok = cfg.allowOrigin("")
	require.True(t, ok)
	assert.Equal(t, "*", v)
}

func TestSecureHeadersAndRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID(), SecureHeaders())
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, http.MethodGet, "/x", nil)
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = serve(e, http.MethodGet, "/x", map[string]string{echo.HeaderXRequestID: "abc"})
	assert.Equal(t, "abc", rec.Header().Get(echo.HeaderXRequestID))
}

type countLimiter struct{ left int }

func (l *countLimiter) Allow(string) bool {
	l.left--
	return l.left >= 0
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(&countLimiter{left: 1}))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodGet, "/x", nil).Code)
}

func TestRecover(t *testing.T) {
	e := echo.New()
	e.Use(Recover(nil))
	e.GET("/x", func(c echo.Context) error { panic("boom") })

	assert.Equal(t, http.StatusInternalServerError, serve(e, http.MethodGet, "/x", nil).Code)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(429))
	assert.Equal(t, "5xx", statusClass(503))
}
