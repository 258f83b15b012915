package middleware

import (
	"net/http"

	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/creatorjobs/creatorjobs-api/pkg/jwt"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionContextKey is where the authenticated member session lives in the
// gin context.
const SessionContextKey = "member_session"

// SessionCookieName is the session cookie the site sets after login.
const SessionCookieName = "cj_session"

// MemberSession authenticates the member's session JWT, taken from the
// session cookie or an Authorization bearer header, and attaches the session
// to the request context.
func MemberSession(tm *jwt.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing session",
			})
			return
		}

		claims, err := tm.ValidateToken(token)
		if err != nil {
			logger.Warn("Rejected invalid member session",
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired session",
			})
			return
		}

		session := &models.MemberSession{
			MemberRef: claims.MemberRef,
			Email:     claims.Email,
			Name:      claims.Name,
			Plan:      claims.Plan,
			ExpiresAt: claims.ExpiresAt.Unix(),
			IssuedAt:  claims.IssuedAt.Unix(),
		}
		c.Set(SessionContextKey, session)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	return bearerToken(c)
}

// SessionFromContext returns the authenticated session, or nil when the
// route is not behind MemberSession.
func SessionFromContext(c *gin.Context) *models.MemberSession {
	if v, ok := c.Get(SessionContextKey); ok {
		if session, ok := v.(*models.MemberSession); ok {
			return session
		}
	}
	return nil
}
