// internal/middleware/auth_middleware.go
package middleware

import (
	"strings"

	"carlog-service/internal/pkg/auth"
	"carlog-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const subjectKey = "auth_subject"

type AuthMiddleware struct {
	manager *auth.Manager
	logger  *zap.Logger
}

func NewAuthMiddleware(manager *auth.Manager, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{manager: manager, logger: logger}
}

// Auth requires a valid bearer token on the route. When no secret is
// configured the check is skipped entirely.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.manager.Enabled() {
			c.Next()
			return
		}

		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		subject, err := m.manager.Verify(token)
		if err != nil {
			m.logger.Warn("token rejected", zap.String("ip", c.ClientIP()), zap.Error(err))
			response.Unauthorized(c, "invalid token")
			return
		}

		c.Set(subjectKey, subject)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// Subject returns the authenticated subject, empty when auth is disabled.
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}
