package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the gin context key the envelope metadata and
// log fields read the request id from.
const ContextKeyRequestID = "request_id"

// RequestID tags every request with an id for envelope and log
// correlation. A client-supplied X-Request-ID is honoured only when it
// parses as a UUID, so callers cannot inject arbitrary strings into
// the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
