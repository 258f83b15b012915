package handlers

import (
	"net/http"

	"github.com/creatorjobs/creatorjobs-api/internal/middleware"
	"github.com/creatorjobs/creatorjobs-api/internal/saga"
	"github.com/creatorjobs/creatorjobs-api/pkg/jwt"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler mints member session tokens. The endpoint sits behind the
// internal API token: the site's login worker verifies the member's
// credentials with the membership backend and then exchanges the member ID
// for a session here.
type SessionHandler struct {
	tokens       *jwt.TokenManager
	membership   saga.MembershipBackend
	cookieDomain string
	cookieSecure bool
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(tokens *jwt.TokenManager, membership saga.MembershipBackend, cookieDomain string, cookieSecure bool) *SessionHandler {
	return &SessionHandler{
		tokens:       tokens,
		membership:   membership,
		cookieDomain: cookieDomain,
		cookieSecure: cookieSecure,
	}
}

type sessionRequest struct {
	MemberID string `json:"memberId" binding:"required"`
}

// Create answers POST /auth/session. The member is resolved against the
// membership backend so a token can only be minted for an account that
// actually exists.
func (h *SessionHandler) Create(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fieldErrors := ParseBindingErrors(err); fieldErrors != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldErrors})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	member, err := h.membership.ResolveMember(c.Request.Context(), req.MemberID)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.tokens.GenerateToken(member.ID, member.Email, member.Name, member.Plan)
	if err != nil {
		logger.Error("Failed to mint session token",
			zap.String("member_ref", member.ID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	maxAge := int(h.tokens.GetExpirationTime().Seconds())
	c.SetCookie(middleware.SessionCookieName, token, maxAge, "/", h.cookieDomain, h.cookieSecure, true)
	c.JSON(http.StatusCreated, gin.H{
		"token":     token,
		"expiresIn": maxAge,
	})
}
