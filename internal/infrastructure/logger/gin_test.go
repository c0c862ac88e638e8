package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveWith(t *testing.T, handler gin.HandlerFunc, middleware ...gin.HandlerFunc) (*httptest.ResponseRecorder, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	router := gin.New()
	for _, m := range middleware {
		router.Use(m)
	}
	router.Use(GinMiddleware(log))
	router.GET("/sync/audit", handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sync/audit?entity=course", nil)
	router.ServeHTTP(w, req)
	return w, recorded
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs a completed request with method, path and query", func(t *testing.T) {
		w, recorded := serveWith(t, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		assert.Equal(t, http.StatusOK, w.Code)

		entries := recorded.FilterMessage("request completed").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, http.MethodGet, fields["method"])
		assert.Equal(t, "/sync/audit", fields["path"])
		assert.Equal(t, "entity=course", fields["query"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
	})

	t.Run("4xx logs as a warning, 5xx as an error", func(t *testing.T) {
		_, recorded := serveWith(t, func(c *gin.Context) {
			c.Status(http.StatusUnprocessableEntity)
		})
		entries := recorded.FilterMessage("request completed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)

		_, recorded = serveWith(t, func(c *gin.Context) {
			c.Status(http.StatusBadGateway)
		})
		entries = recorded.FilterMessage("request completed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	})

	t.Run("handlers see the request-scoped logger", func(t *testing.T) {
		_, recorded := serveWith(t, func(c *gin.Context) {
			GetGinLogger(c).Info("freshness checked")
			c.Status(http.StatusOK)
		})

		assert.Len(t, recorded.FilterMessage("freshness checked").All(), 1)
	})

	t.Run("request id set upstream is carried into the log line", func(t *testing.T) {
		_, recorded := serveWith(t,
			func(c *gin.Context) { c.Status(http.StatusOK) },
			func(c *gin.Context) { c.Set("request_id", "req-42"); c.Next() },
		)

		entries := recorded.FilterMessage("request completed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) {
		panic("lost the database")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	entries := recorded.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "lost the database", entries[0].ContextMap()["error"])
}

func TestGetGinLogger_OutsideRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	log := GetGinLogger(c)
	require.NotNil(t, log)
	log.Info("must not panic")
}
