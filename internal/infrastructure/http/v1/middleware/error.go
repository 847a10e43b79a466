package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"einvoice/internal/core/apperror"
	"einvoice/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			c.JSON(appErr.HTTPStatus, gin.H{
				"success": false,
				"msg":     appErr.Message,
				"code":    appErr.Code,
				"details": appErr.Details,
			})
			return
		}

		// Unknown error
		logger.Error(c.Request.Context(), "unhandled error",
			"error", err,
		)

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"msg":     "Internal server error",
			"code":    apperror.CodeInternal,
			"details": map[string]any{
				"request_id": c.GetString("request_id"),
			},
		})
	}
}
