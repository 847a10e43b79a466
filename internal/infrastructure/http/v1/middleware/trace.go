package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "einvoice/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"
)

// Trace middleware adds request tracing context. The request ID is taken
// from the inbound header when present so callers can correlate retries.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		trace := &appctx.TraceContext{
			RequestID: requestID,
			SessionID: c.GetHeader(HeaderSessionID),
		}

		ctx := appctx.WithTrace(c.Request.Context(), trace)
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
