package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// serve runs one request through an engine with the given middleware and a
// trivial sync-status endpoint
func serve(mw gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.Use(mw)
	engine.GET("/sync/freshness/course", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"entity": "course"})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id when none is sent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sync/freshness/course", nil)
		w := serve(RequestID(), req)

		id := w.Header().Get("X-Request-ID")
		assert.Len(t, id, 32)
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sync/freshness/course", nil)
		req.Header.Set("X-Request-ID", "scheduler-run-42")
		w := serve(RequestID(), req)

		assert.Equal(t, "scheduler-run-42", w.Header().Get("X-Request-ID"))
	})

	t.Run("ids differ between requests", func(t *testing.T) {
		first := serve(RequestID(), httptest.NewRequest(http.MethodGet, "/sync/freshness/course", nil))
		second := serve(RequestID(), httptest.NewRequest(http.MethodGet, "/sync/freshness/course", nil))

		assert.NotEqual(t, first.Header().Get("X-Request-ID"), second.Header().Get("X-Request-ID"))
	})
}

func TestCORSWithConfig(t *testing.T) {
	cfg := CORSConfig{
		AllowOrigins:     []string{"https://admin.edusync.example"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	t.Run("whitelisted origin gets CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sync/freshness/course", nil)
		req.Header.Set("Origin", "https://admin.edusync.example")
		w := serve(CORSWithConfig(cfg), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://admin.edusync.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sync/freshness/course", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := serve(CORSWithConfig(cfg), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight answers 204", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/sync/freshness/course", nil)
		req.Header.Set("Origin", "https://admin.edusync.example")
		w := serve(CORSWithConfig(cfg), req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://admin.edusync.example", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight from unknown origin still answers 204", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/sync/freshness/course", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := serve(CORSWithConfig(cfg), req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard allows any origin without credentials", func(t *testing.T) {
		wild := cfg
		wild.AllowOrigins = []string{"*"}

		req := httptest.NewRequest(http.MethodGet, "/sync/freshness/course", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		w := serve(CORSWithConfig(wild), req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("empty whitelist rejects every origin", func(t *testing.T) {
		closed := cfg
		closed.AllowOrigins = nil

		req := httptest.NewRequest(http.MethodGet, "/sync/freshness/course", nil)
		req.Header.Set("Origin", "https://admin.edusync.example")
		w := serve(CORSWithConfig(closed), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSecure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/sync/freshness/course", nil)
	w := serve(Secure(), req)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
}
