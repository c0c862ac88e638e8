package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusync/backend/internal/interfaces/http/dto"
)

// BodyLimit caps the request body. Every write endpoint here takes at most
// a small query payload, so anything large is a mistake or abuse.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "request body too large"))
			return
		}

		// chunked uploads have no ContentLength, cap the stream too
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
