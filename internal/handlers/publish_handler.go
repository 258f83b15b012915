package handlers

import (
	"context"
	"net/http"

	"github.com/creatorjobs/creatorjobs-api/internal/middleware"
	"github.com/creatorjobs/creatorjobs-api/internal/models"
	apperrors "github.com/creatorjobs/creatorjobs-api/pkg/errors"
	"github.com/gin-gonic/gin"
)

// PublishRunner runs one submit attempt for an authenticated member.
type PublishRunner interface {
	Publish(ctx context.Context, req *models.PublishRequest, session *models.MemberSession) (*models.PublishResponse, error)
}

// PublishHandler serves the publish endpoint.
type PublishHandler struct {
	service PublishRunner
}

// NewPublishHandler creates a publish handler.
func NewPublishHandler(service PublishRunner) *PublishHandler {
	return &PublishHandler{service: service}
}

// Publish runs one submit attempt. Status mapping: full success 201, replay
// and partial success 200 (the job is live either way), validation 400,
// credit shortfall 409, collaborator failure 502. The response body always
// carries the transaction state and the presenter's event stream.
func (h *PublishHandler) Publish(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	var req models.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := h.service.Publish(c.Request.Context(), &req, session)
	if err == nil {
		if resp.Replayed {
			c.JSON(http.StatusOK, resp)
			return
		}
		c.JSON(http.StatusCreated, resp)
		return
	}

	if apperrors.Is(err, apperrors.ErrPartialSuccess) {
		c.JSON(http.StatusOK, resp)
		return
	}

	status := statusFor(err)
	if resp != nil {
		c.JSON(status, resp)
		return
	}
	respondError(c, err)
}
