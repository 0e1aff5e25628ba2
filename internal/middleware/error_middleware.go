package middleware

import (
	"net/http"

	"coaching-messenger/internal/services"
	"coaching-messenger/internal/transport/httpdto"
	"coaching-messenger/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const idempotentKey = "idempotent"

// Idempotent marks a route as safe to retry; transient failures on it carry
// Retry-After.
func Idempotent() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(idempotentKey, true)
		c.Next()
	}
}

// ErrorHandler writes the JSON error envelope for the last error recorded
// with c.Error, unless the handler already responded.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	if l == nil {
		l = logger.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := services.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			l.WithContext(c.Request.Context()).Error("request failed",
				zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
		}
		if status == http.StatusServiceUnavailable && c.GetBool(idempotentKey) {
			c.Header("Retry-After", "1")
		}
		c.JSON(status, httpdto.NewErrorResponse(httpdto.ErrorMessage(err), httpdto.ErrorCode(err)))
	}
}
