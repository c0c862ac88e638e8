package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans installs an in-memory span recorder as the global provider
// for the duration of the test
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
	})
	return sr
}

func tracedEngine(status int) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID())
	engine.Use(TracingWithConfig(TracingConfig{ServiceName: "edusync-backend", Enabled: true}))
	engine.Use(SpanErrorMarker())
	engine.POST("/sync/:entity", func(c *gin.Context) {
		c.Status(status)
	})
	return engine
}

func TestTracingWithConfig(t *testing.T) {
	t.Run("records a server span with the request id", func(t *testing.T) {
		sr := recordSpans(t)
		engine := tracedEngine(http.StatusOK)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sync/course", nil)
		req.Header.Set("X-Request-ID", "run-77")
		engine.ServeHTTP(w, req)

		ended := sr.Ended()
		require.Len(t, ended, 1)

		var requestID string
		for _, kv := range ended[0].Attributes() {
			if string(kv.Key) == "request_id" {
				requestID = kv.Value.AsString()
			}
		}
		assert.Equal(t, "run-77", requestID)
	})

	t.Run("disabled tracing records nothing", func(t *testing.T) {
		sr := recordSpans(t)

		engine := gin.New()
		engine.Use(TracingWithConfig(TracingConfig{Enabled: false}))
		engine.POST("/sync/:entity", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sync/course", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, sr.Ended())
	})
}

func TestRequestIDFrom(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("oversized header id is truncated", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/sync/audit", nil)

		long := make([]byte, 4096)
		for i := range long {
			long[i] = 'a'
		}
		c.Request.Header.Set("X-Request-ID", string(long))

		assert.Len(t, requestIDFrom(c), maxRequestIDLength)
	})

	t.Run("context id wins over the header", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/sync/audit", nil)
		c.Request.Header.Set("X-Request-ID", "from-header")
		c.Set("request_id", "from-context")

		assert.Equal(t, "from-context", requestIDFrom(c))
	})
}

func TestSpanErrorMarker(t *testing.T) {
	t.Run("flags 4xx responses", func(t *testing.T) {
		sr := recordSpans(t)
		engine := tracedEngine(http.StatusBadRequest)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sync/invoices", nil))

		ended := sr.Ended()
		require.Len(t, ended, 1)
		assert.Equal(t, codes.Error, ended[0].Status().Code)
		assert.Equal(t, "client error", ended[0].Status().Description)
	})

	t.Run("flags 5xx responses", func(t *testing.T) {
		sr := recordSpans(t)
		engine := tracedEngine(http.StatusBadGateway)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sync/course", nil))

		ended := sr.Ended()
		require.Len(t, ended, 1)
		assert.Equal(t, codes.Error, ended[0].Status().Code)
		assert.Equal(t, "server error", ended[0].Status().Description)
	})

	t.Run("leaves successful responses alone", func(t *testing.T) {
		sr := recordSpans(t)
		engine := tracedEngine(http.StatusOK)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sync/course", nil))

		ended := sr.Ended()
		require.Len(t, ended, 1)
		assert.NotEqual(t, codes.Error, ended[0].Status().Code)
	})
}
