package middleware

import (
	"net/http"
	"strings"

	"github.com/creatorjobs/creatorjobs-api/pkg/jwt"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenAuth guards endpoints behind a shared bearer token. Comparison is
// timing-safe.
func TokenAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := bearerToken(c)
		if provided == "" || !jwt.TimingSafeCompare(provided, token) {
			logger.Warn("Rejected request with invalid API token",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.GetHeader("X-Api-Token")
}
