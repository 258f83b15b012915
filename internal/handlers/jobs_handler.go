package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/creatorjobs/creatorjobs-api/internal/middleware"
	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/gin-gonic/gin"
)

// maxBatchIDs caps how many items one batch request may fetch.
const maxBatchIDs = 25

// JobsReader is the read-side service surface the handler needs.
type JobsReader interface {
	List(ctx context.Context, filter *models.JobFilter, limit, offset int) (*models.JobList, error)
	GetJob(ctx context.Context, itemID string) (*models.Job, error)
	GetJobsByIDs(ctx context.Context, itemIDs []string) ([]*models.Job, error)
	MemberJobs(ctx context.Context, memberRef string) ([]*models.MemberJob, error)
}

// JobsHandler serves the read side.
type JobsHandler struct {
	service JobsReader
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(service JobsReader) *JobsHandler {
	return &JobsHandler{service: service}
}

// List answers GET /jobs. Filter groups come as repeated query params
// (?category=a&category=b), matching the site's checkbox groups.
func (h *JobsHandler) List(c *gin.Context) {
	var filter models.JobFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter: " + err.Error()})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.List(c.Request.Context(), &filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get answers GET /jobs/:id.
func (h *JobsHandler) Get(c *gin.Context) {
	job, err := h.service.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Batch answers GET /jobs/batch?ids=a,b,c with a concurrent fan-out.
func (h *JobsHandler) Batch(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("ids"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids query parameter is required"})
		return
	}

	ids := make([]string, 0)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 || len(ids) > maxBatchIDs {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids must contain between 1 and 25 entries"})
		return
	}

	jobs, err := h.service.GetJobsByIDs(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// MemberJobs answers GET /members/me/jobs for the authenticated member.
func (h *JobsHandler) MemberJobs(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	jobs, err := h.service.MemberJobs(c.Request.Context(), session.MemberRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}
