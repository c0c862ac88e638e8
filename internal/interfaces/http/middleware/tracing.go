// Package middleware provides the HTTP middleware chain for the EduSync API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxRequestIDLength caps what we copy out of the X-Request-ID header
const maxRequestIDLength = 128

// TracingConfig configures the otelgin server spans
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig opens one server span per request via otelgin. Span
// enrichment lives in SpanErrorMarker, which must run after this so it
// executes inside the span.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// requestIDFrom prefers the id set by the RequestID middleware, falling
// back to the raw header with a length cap
func requestIDFrom(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > maxRequestIDLength {
		return headerID[:maxRequestIDLength]
	}
	return headerID
}

// SpanErrorMarker enriches the server span with the request id, so an
// HTTP-triggered sync run can be joined with the sync.* spans the
// orchestrator opens below it, and flags the span on 4xx/5xx responses.
// otelgin only marks 5xx, but a rejected sync request is worth surfacing
// in traces too.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if requestID := requestIDFrom(c); requestID != "" {
				span.SetAttributes(attribute.String("request_id", requestID))
			}
		}

		c.Next()

		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}

		message := "client error"
		if status >= http.StatusInternalServerError {
			message = "server error"
		}
		span.SetStatus(codes.Error, message)
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
