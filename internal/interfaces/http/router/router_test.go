package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	syncGroup := NewDomainGroup("sync", "/sync")
	syncGroup.POST("/:entity", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("entity"))
	}).GET("/audit", func(c *gin.Context) {
		c.String(http.StatusOK, "audit entries")
	})

	recordsGroup := NewDomainGroup("records", "")
	recordsGroup.GET("/courses", func(c *gin.Context) {
		c.String(http.StatusOK, "courses")
	})

	r.Register(syncGroup).Register(recordsGroup)
	r.Setup()

	w := perform(engine, http.MethodPost, "/api/v1/sync/course")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "course", w.Body.String())

	w = perform(engine, http.MethodGet, "/api/v1/sync/audit")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audit entries", w.Body.String())

	w = perform(engine, http.MethodGet, "/api/v1/courses")
	assert.Equal(t, http.StatusOK, w.Code, "empty prefix mounts under the version root")

	w = perform(engine, http.MethodGet, "/api/v1/sync/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("carries its name", func(t *testing.T) {
		g := NewDomainGroup("records", "/records")
		assert.Equal(t, "records", g.Name())
	})

	t.Run("group middleware wraps every route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("sync", "/sync")
		g.Use(func(c *gin.Context) {
			c.Header("X-Sync-Guard", "checked")
			c.Next()
		})
		g.GET("/freshness/:entity", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := perform(engine, http.MethodGet, "/api/v1/sync/freshness/course")
		assert.Equal(t, "checked", w.Header().Get("X-Sync-Guard"))
	})

	t.Run("declarations chain", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine)

		g := NewDomainGroup("sync", "/sync")
		g.POST("", func(c *gin.Context) { c.String(http.StatusOK, "all") }).
			POST("/:entity", func(c *gin.Context) { c.String(http.StatusOK, "one") }).
			GET("/audit", func(c *gin.Context) { c.String(http.StatusOK, "audit") })

		r.Register(g).Setup()

		assert.Equal(t, http.StatusOK, perform(engine, http.MethodPost, "/api/v1/sync").Code)
		assert.Equal(t, http.StatusOK, perform(engine, http.MethodPost, "/api/v1/sync/course").Code)
		assert.Equal(t, http.StatusOK, perform(engine, http.MethodGet, "/api/v1/sync/audit").Code)
	})
}
