package handlers

import (
	"net/http"

	apperrors "github.com/creatorjobs/creatorjobs-api/pkg/errors"
	"github.com/gin-gonic/gin"
)

// statusFor maps the error taxonomy onto HTTP statuses. Partial success is
// deliberately not here: the publish handler answers 200 with the partial
// flags set, because the job did go live.
func statusFor(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrLocalValidation):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case apperrors.Is(err, apperrors.ErrUpstreamRejection),
		apperrors.Is(err, apperrors.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message})
}
