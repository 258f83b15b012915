package services

import (
	"context"

	"github.com/creatorjobs/creatorjobs-api/internal/cache"
	"github.com/creatorjobs/creatorjobs-api/internal/forms"
	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/creatorjobs/creatorjobs-api/internal/saga"
	"github.com/creatorjobs/creatorjobs-api/internal/status"
	apperrors "github.com/creatorjobs/creatorjobs-api/pkg/errors"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"go.uber.org/zap"
)

// PublishService runs one submission end to end: collect the raw form
// record, validate the schema's required fields, then hand off to the
// coordinator. The presenter events collected along the way ride back in the
// response for the site's notification surface.
type PublishService struct {
	collector    *forms.Collector
	schema       []models.FieldSpec
	coordinator  *saga.Coordinator
	jobCache     *cache.JobCache
	supportEmail string
}

// NewPublishService wires the publish flow.
func NewPublishService(
	collector *forms.Collector,
	schema []models.FieldSpec,
	coordinator *saga.Coordinator,
	jobCache *cache.JobCache,
	supportEmail string,
) *PublishService {
	return &PublishService{
		collector:    collector,
		schema:       schema,
		coordinator:  coordinator,
		jobCache:     jobCache,
		supportEmail: supportEmail,
	}
}

// Publish processes one submit attempt for the given authenticated member.
// The member reference always comes from the session, never from the form;
// a submission cannot publish on someone else's account.
func (s *PublishService) Publish(ctx context.Context, req *models.PublishRequest, session *models.MemberSession) (*models.PublishResponse, error) {
	submission := req.Fields
	if submission == nil {
		submission = map[string]interface{}{}
	}
	submission[models.KeyMemberRef] = session.MemberRef

	record := s.collector.Collect(submission)

	recorder := status.NewRecorder(s.supportEmail)

	if err := s.validateRequired(record); err != nil {
		recorder.Error("Submission incomplete", "Please fill in the required fields and try again.", err.Error())
		resp := &models.PublishResponse{
			Success:        false,
			Stage:          models.StageFailed,
			IdempotencyKey: req.IdempotencyKey,
			Message:        err.Error(),
			Events:         recorder.Events(),
		}
		return resp, err
	}

	logger.Info("Publish submission accepted",
		zap.String("member_ref", session.MemberRef),
		zap.Int("field_count", len(record)))

	resp, err := s.coordinator.Publish(ctx, record, req.IdempotencyKey, recorder)
	if resp != nil {
		resp.Events = recorder.Events()
		if resp.Success && !resp.Replayed {
			// New job exists; the next listing read should see it
			s.jobCache.Flush()
		}
	}
	return resp, err
}

// validateRequired enforces the schema's required flags after collection.
func (s *PublishService) validateRequired(record models.RawFormRecord) error {
	for _, field := range s.schema {
		if field.Required && !record.Has(field.Key) {
			return apperrors.LocalValidationError(field.Key, "required field is missing")
		}
	}
	return nil
}
