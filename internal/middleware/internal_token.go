package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"lessonhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InternalTokenAuth protects service-to-service endpoints, such as the
// payment callback, with a static bearer token.
func InternalTokenAuth(expected string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			logAuthFailure(logger, c, http.StatusServiceUnavailable, "token_not_configured")
			response.Error(c, http.StatusServiceUnavailable, "INTERNAL_AUTH_DISABLED", "Internal token is not configured")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logAuthFailure(logger, c, http.StatusUnauthorized, "missing_auth")
			response.Error(c, http.StatusUnauthorized, "AUTH_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			logAuthFailure(logger, c, http.StatusUnauthorized, "invalid_auth_format")
			response.Error(c, http.StatusUnauthorized, "AUTH_INVALID", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(expected)) != 1 {
			logAuthFailure(logger, c, http.StatusForbidden, "invalid_token")
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "Invalid internal token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func logAuthFailure(logger *zap.Logger, c *gin.Context, status int, reason string) {
	logger.Warn("internal auth rejected",
		zap.Int("status", status),
		zap.String("request_id", requestID(c)),
		zap.String("reason", reason),
	)
}
