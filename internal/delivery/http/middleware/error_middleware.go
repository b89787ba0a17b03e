package middleware

import (
	"errors"
	"net/http"

	"exec-marketplace-backend/internal/delivery/http/response"
	"exec-marketplace-backend/pkg/apperror"
	"exec-marketplace-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				response.Error(c, appErr.Code, appErr.Message, nil)
				return
			}

			// Never echo internal errors to the client; repository and
			// payment-processor failures are logged with full context here
			// and reported generically.
			reqID, _ := c.Get("RequestID")
			logger.Log.Error("unhandled request error",
				"error", err,
				"path", c.FullPath(),
				"request_id", reqID,
			)
			response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
		}
	}
}
