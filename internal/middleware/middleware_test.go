package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nggaadaotak/kintari-be/pkg/log"
	"github.com/nggaadaotak/kintari-be/pkg/token"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func adminEngine(m *token.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger())
	r.DELETE("/x", AdminAuth(m), func(c *gin.Context) {
		claims := c.MustGet(ClaimsKey).(*token.CustomClaims)
		c.String(http.StatusOK, claims.Username)
	})
	return r
}

func TestAdminAuth(t *testing.T) {
	m := token.NewJWTManager("secret", 1)
	r := adminEngine(m)

	cases := []struct {
		name   string
		header func() string
		status int
	}{
		{"missing header", func() string { return "" }, http.StatusUnauthorized},
		{"wrong scheme", func() string { return "Token abc" }, http.StatusUnauthorized},
		{"bad token", func() string { return "Bearer abc" }, http.StatusUnauthorized},
		{"non admin", func() string {
			s, _, _ := m.GenerateToken("user", "USER")
			return "Bearer " + s
		}, http.StatusForbidden},
		{"admin", func() string {
			s, _, _ := m.GenerateToken("admin", token.RoleAdmin)
			return "Bearer " + s
		}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/x", nil)
			if h := tc.header(); h != "" {
				req.Header.Set("Authorization", h)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)
			require.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "abc-123", w.Body.String())
	require.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerScopesHandlerLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log.Use(zap.New(core))
	t.Cleanup(func() { log.Use(zap.NewNop()) })

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		log.FromContext(c.Request.Context()).Warnf("处理中")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "处理中", entries[0].Message)
	require.Equal(t, "HTTP Request Log", entries[1].Message)
	for _, e := range entries {
		require.Equal(t, "abc-123", e.ContextMap()["requestID"])
	}
}
