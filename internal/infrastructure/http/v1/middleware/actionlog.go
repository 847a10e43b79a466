package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	appctx "einvoice/internal/core/context"
	"einvoice/internal/infrastructure/storage/postgres"
	"einvoice/pkg/logger"
)

// maxCapturedBody bounds how much of a request or response body gets persisted.
const maxCapturedBody = 256 * 1024

// bodyCapturer tees the response body while it is written to the client.
type bodyCapturer struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapturer) Write(p []byte) (int, error) {
	if w.buf.Len() < maxCapturedBody {
		w.buf.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

// ActionLog middleware records each mutating API call with its request body
// into the action log store. Failures to record are logged, never surfaced
// to the client.
func ActionLog(store *postgres.ActionLogStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxCapturedBody))
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		capturer := &bodyCapturer{ResponseWriter: c.Writer}
		c.Writer = capturer

		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		entry := postgres.ActionLogEntry{
			RequestID:      appctx.GetRequestID(ctx),
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			TenantCode:     appctx.GetTenantCode(ctx),
			Payload:        json.RawMessage(body),
			Response:       json.RawMessage(capturer.buf.Bytes()),
			DurationMillis: time.Since(start).Milliseconds(),
		}
		if !json.Valid(body) {
			entry.Payload = nil
		}
		if !json.Valid(entry.Response) {
			entry.Response = nil
		}

		if err := store.Log(ctx, entry); err != nil {
			logger.Warn(ctx, "action log write failed", "error", err)
		}
	}
}
