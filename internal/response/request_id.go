package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key holding the request ID echoed in
// every response envelope's metadata.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware tags each request with an ID so a failed exam start or
// submit can be traced from the client's error report back to the server
// logs. A caller-supplied X-Request-ID is honored; otherwise one is minted.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}
