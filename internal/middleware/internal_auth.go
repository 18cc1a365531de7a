package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
)

const apiKeyHeader = "X-API-Key"

var (
	errInternalNotConfigured = &apperrors.AppError{Code: "INTERNAL_NOT_CONFIGURED", Message: "Internal endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
	errInvalidAPIKey         = &apperrors.AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)

// InternalAuthMiddleware guards operator endpoints with a shared key sent in
// the X-API-Key header. An empty key disables the endpoints.
func InternalAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, errInternalNotConfigured)
			return
		}
		key := c.GetHeader(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, errInvalidAPIKey)
			return
		}
		c.Next()
	}
}
