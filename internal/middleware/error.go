// File: internal/middleware/error.go
package middleware

import (
	"net/http"

	"identity_sync_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler creates a Gin middleware for centralized error handling.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			ginErr := c.Errors.Last()
			if _, isAPIErr := common.IsAPIError(ginErr.Err); !isAPIErr {
				logger.Error("Unhandled application error",
					zap.Error(ginErr.Err),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(RequestIDContextKey)),
				)
			}
			// Handlers that already answered keep their response.
			if c.Writer.Written() {
				return
			}
			apiErr, ok := common.IsAPIError(ginErr.Err)
			if !ok {
				apiErr = common.ErrInternalServer.WithDetails("An unexpected error occurred.")
			}
			c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
			return
		}

		if c.Writer.Written() {
			return
		}
		switch c.Writer.Status() {
		case http.StatusNotFound:
			c.AbortWithStatusJSON(http.StatusNotFound, common.ErrNotFound.WithDetails("The requested endpoint does not exist."))
		case http.StatusMethodNotAllowed:
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, common.ErrMethodNotAllowed)
		}
	}
}
