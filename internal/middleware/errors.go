package middleware

import (
	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondWithAppError writes err using the status of its kind. Unexpected
// errors are logged and answered with fallback so internals never leak.
func RespondWithAppError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	kind := apperror.KindOf(err)
	if kind == apperror.Unexpected {
		logger.Error("request failed",
			zap.String("requestId", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	RespondWithError(c, kind.HTTPStatus(), apperror.MessageOf(err, fallback))
}
