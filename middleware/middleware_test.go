package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/boom", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })
	return r
}

func TestCORS(t *testing.T) {
	req := require.New(t)
	r := newRouter(CORS("https://quiz.example"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	req.Equal(http.StatusOK, w.Code)
	req.Equal("https://quiz.example", w.Header().Get("Access-Control-Allow-Origin"))

	r = gin.New()
	r.Use(CORS(""))
	r.OPTIONS("/ok", func(c *gin.Context) { c.String(http.StatusOK, "unreachable") })
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ok", nil))
	req.Equal(http.StatusNoContent, w.Code)
	req.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminToken(t *testing.T) {
	cases := map[string]struct {
		token  string
		header string
		want   int
	}{
		"valid":    {"s3cret", "Bearer s3cret", http.StatusOK},
		"wrong":    {"s3cret", "Bearer nope", http.StatusUnauthorized},
		"missing":  {"s3cret", "", http.StatusUnauthorized},
		"no token": {"", "Bearer ", http.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newRouter(AdminToken(tc.token))
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	r := newRouter(RequestLogger(log))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Empty(t, buf.String())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Contains(t, buf.String(), "status=500")
	require.Contains(t, buf.String(), "path=/boom")
}
