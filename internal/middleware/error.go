package middleware

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
)

// ErrorHandler returns a Gin middleware that turns panics and errors attached
// with c.Error into the JSON error envelope. AppErrors keep their code and
// status; anything else becomes INTERNAL_ERROR so storage details never reach
// the client. Responses a handler already wrote are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Named("http").Errorw("panic recovered",
					"panic", fmt.Sprint(r),
					"path", c.Request.URL.Path,
					"request_id", RequestID(c),
				)
				if !c.Writer.Written() {
					writeError(c, apperrors.ErrInternalServer)
				}
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			logger.Named("http").Errorw("unexpected error",
				"error", err.Error(),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			appErr = apperrors.ErrInternalServer
		} else if appErr.Internal != nil {
			logger.Named("http").Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		writeError(c, appErr)
	}
}

func writeError(c *gin.Context, e *apperrors.AppError) {
	c.JSON(e.StatusCode, gin.H{
		"error": gin.H{
			"code":    e.Code,
			"message": e.Message,
		},
	})
}
