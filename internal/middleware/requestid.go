package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the context key holding the per-request ID.
const RequestIDKey = "request_id"

// RequestID assigns every request a UUID, honoring an X-Request-ID header
// from the caller so IDs survive proxies. The ID is echoed back in the
// response and ends up in logs and the job log.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
