package saga

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creatorjobs/creatorjobs-api/internal/mapping"
	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/creatorjobs/creatorjobs-api/internal/status"
	apperrors "github.com/creatorjobs/creatorjobs-api/pkg/errors"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/creatorjobs/creatorjobs-api/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Field names used for the bidirectional link between the sheet record and
// the CMS item.
const (
	sheetLinkField   = "CMS Item Id"
	cmsSheetRefField = "sheet-record-id"
)

// SheetBackend is the spreadsheet-style datastore holding the operational
// copy of every job.
type SheetBackend interface {
	CreateRecord(ctx context.Context, idempotencyKey string, fields models.ServicePayload) (string, error)
	UpdateRecord(ctx context.Context, recordID string, fields models.ServicePayload) error
	DeleteRecord(ctx context.Context, recordID string) error
}

// CMSBackend is the site CMS where the public job item lives.
type CMSBackend interface {
	CreateItem(ctx context.Context, idempotencyKey string, fields models.ServicePayload) (string, error)
}

// MembershipBackend resolves the submitting member and settles their credits.
type MembershipBackend interface {
	ResolveMember(ctx context.Context, memberRef string) (*models.Member, error)
	AdjustCredits(ctx context.Context, memberRef string, delta int) error
}

// PublishLog durably records every stage transition of a transaction, so a
// crash mid-publish leaves an auditable trail instead of a mystery.
type PublishLog interface {
	Save(ctx context.Context, state *models.TransactionState) error
}

// CreditPolicy is what one publish costs, by job tier.
type CreditPolicy struct {
	Standard int
	Premium  int
}

// Coordinator runs the publish transaction across the three collaborators:
// sheet record first, then CMS item carrying the sheet reference, then the
// link back, then the credit settlement. A CMS failure compensates the sheet
// record; failures after the CMS item exists are partial successes, because
// deleting a live job is worse than finishing its bookkeeping by hand.
type Coordinator struct {
	sheet      SheetBackend
	cms        CMSBackend
	membership MembershipBackend
	mapper     *mapping.Mapper
	log        PublishLog
	outbox     OutboxStore
	idem       IdempotencyStore
	locks      *KeyLocks
	credits    CreditPolicy
}

// NewCoordinator wires a coordinator from its collaborators.
func NewCoordinator(
	sheet SheetBackend,
	cms CMSBackend,
	membership MembershipBackend,
	mapper *mapping.Mapper,
	log PublishLog,
	outbox OutboxStore,
	idem IdempotencyStore,
	credits CreditPolicy,
) *Coordinator {
	return &Coordinator{
		sheet:      sheet,
		cms:        cms,
		membership: membership,
		mapper:     mapper,
		log:        log,
		outbox:     outbox,
		idem:       idem,
		locks:      NewKeyLocks(),
		credits:    credits,
	}
}

// Publish runs the full transaction for one collected record. The record
// must already be collected and defaulted; Publish validates the required
// keys, shapes the per-service payloads, and only then touches the network.
func (c *Coordinator) Publish(ctx context.Context, record models.RawFormRecord, idempotencyKey string, pres status.Presenter) (*models.PublishResponse, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	release := c.locks.Acquire(idempotencyKey)
	defer release()

	if stored, found := c.idem.Get(idempotencyKey); found {
		metrics.IdempotencyReplays.Inc()
		logger.Info("Replaying stored publish outcome",
			zap.String("idempotency_key", idempotencyKey))
		replay := *stored
		replay.Replayed = true
		return &replay, nil
	}

	state := &models.TransactionState{
		IdempotencyKey: idempotencyKey,
		Stage:          models.StageCollecting,
		StartedAt:      time.Now().UTC(),
	}

	// Everything that can fail locally fails here, before any network call
	if err := validateRecord(record); err != nil {
		pres.Error("Submission incomplete", "Please fill in the required fields and try again.", err.Error())
		return c.respondFailure(state, err), err
	}

	sheetPayload, err := c.mapper.Map(ctx, record, mapping.DestinationSheet)
	if err != nil {
		pres.Error("Submission could not be processed", "The submitted data did not match the expected form fields.", err.Error())
		return c.respondFailure(state, err), err
	}
	cmsPayload, err := c.mapper.Map(ctx, record, mapping.DestinationCMS)
	if err != nil {
		pres.Error("Submission could not be processed", "The submitted data did not match the expected form fields.", err.Error())
		return c.respondFailure(state, err), err
	}

	state.MemberRef = record.String(models.KeyMemberRef)
	c.saveState(ctx, state)

	pres.Loading("Publishing your job", "Hang tight, this takes a few seconds.")

	cost := c.credits.Standard
	if record.Bool(models.KeyPremium) {
		cost = c.credits.Premium
	}

	// Stage: resolve the member and check their balance
	if err := c.runStage(ctx, state, models.StageResolvingMember, func() error {
		member, err := c.membership.ResolveMember(ctx, state.MemberRef)
		if err != nil {
			return err
		}
		if member.Credits < cost {
			return fmt.Errorf("%w: %d credits available, %d required", apperrors.ErrConflict, member.Credits, cost)
		}
		return nil
	}); err != nil {
		return c.fail(ctx, state, models.StageResolvingMember, pres,
			"Job could not be published",
			"We could not verify your account or your credit balance.", err)
	}

	// Stage: create the operational sheet record
	if err := c.runStage(ctx, state, models.StageCreatingSheet, func() error {
		recordID, err := c.sheet.CreateRecord(ctx, idempotencyKey, sheetPayload)
		if err != nil {
			return err
		}
		state.SheetRecordID = recordID
		return nil
	}); err != nil {
		// Nothing durable exists yet, no compensation needed
		return c.fail(ctx, state, models.StageCreatingSheet, pres,
			"Job could not be published",
			"Saving your job failed. Nothing was published; please try again.", err)
	}

	// Stage: create the public CMS item, carrying the sheet reference
	cmsPayload[cmsSheetRefField] = state.SheetRecordID
	if err := c.runStage(ctx, state, models.StageCreatingCMS, func() error {
		itemID, err := c.cms.CreateItem(ctx, idempotencyKey, cmsPayload)
		if err != nil {
			return err
		}
		state.CMSItemID = itemID
		return nil
	}); err != nil {
		c.compensateSheet(ctx, state)
		return c.fail(ctx, state, models.StageCreatingCMS, pres,
			"Job could not be published",
			"Publishing to the site failed. Your submission was rolled back; please try again.", err)
	}

	// From here the job is live. Later failures degrade to partial success.
	if err := c.runStage(ctx, state, models.StageLinking, func() error {
		return c.sheet.UpdateRecord(ctx, state.SheetRecordID, models.ServicePayload{
			sheetLinkField: state.CMSItemID,
		})
	}); err != nil {
		return c.partial(ctx, state, models.StageLinking, pres, err)
	}

	if err := c.runStage(ctx, state, models.StageUpdatingCredits, func() error {
		return c.membership.AdjustCredits(ctx, state.MemberRef, -cost)
	}); err != nil {
		return c.partial(ctx, state, models.StageUpdatingCredits, pres, err)
	}

	state.Stage = models.StageDone
	state.CompletedAt = time.Now().UTC()
	c.saveState(ctx, state)

	pres.Success("Job published", "Your job is now live.")
	metrics.JobPublishTotal.WithLabelValues("success").Inc()
	logger.Info("Publish transaction completed",
		zap.String("idempotency_key", idempotencyKey),
		zap.String("sheet_record_id", state.SheetRecordID),
		zap.String("cms_item_id", state.CMSItemID))

	resp := &models.PublishResponse{
		Success:        true,
		Stage:          models.StageDone,
		SheetRecordID:  state.SheetRecordID,
		CMSItemID:      state.CMSItemID,
		IdempotencyKey: idempotencyKey,
		Message:        "Job published",
	}
	c.idem.Put(idempotencyKey, resp)
	return resp, nil
}

// runStage executes one stage, records its duration, and persists the
// transition.
func (c *Coordinator) runStage(ctx context.Context, state *models.TransactionState, stage models.Stage, fn func() error) error {
	state.Stage = stage
	c.saveState(ctx, state)

	start := time.Now()
	err := fn()

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.PublishStageDuration.WithLabelValues(string(stage), outcome).Observe(metrics.MeasureDuration(start))

	if err == nil {
		c.saveState(ctx, state)
	}
	return err
}

// compensateSheet removes the sheet record after a CMS failure. The task is
// enqueued before the delete attempt so a crash in between cannot leak the
// record; the immediate attempt clears it in the common case.
func (c *Coordinator) compensateSheet(ctx context.Context, state *models.TransactionState) {
	task := NewCompensationTask(state.IdempotencyKey, state.SheetRecordID)
	if err := c.outbox.Enqueue(ctx, task); err != nil {
		logger.Error("Failed to enqueue compensation task",
			zap.String("sheet_record_id", state.SheetRecordID),
			zap.Error(err))
	}

	if err := c.sheet.DeleteRecord(ctx, state.SheetRecordID); err != nil {
		logger.Warn("Immediate compensating delete failed, outbox will retry",
			zap.String("sheet_record_id", state.SheetRecordID),
			zap.Error(err))
		metrics.CompensationTotal.WithLabelValues("deferred").Inc()
		if markErr := c.outbox.MarkFailed(ctx, task.ID, err.Error()); markErr != nil {
			logger.Error("Failed to record compensation attempt", zap.Error(markErr))
		}
		return
	}

	metrics.CompensationTotal.WithLabelValues("success").Inc()
	if err := c.outbox.MarkDone(ctx, task.ID); err != nil {
		logger.Error("Failed to mark compensation task done", zap.Error(err))
	}
	state.SheetRecordID = ""
}

// fail finalizes a transaction that produced nothing the user can see.
func (c *Coordinator) fail(ctx context.Context, state *models.TransactionState, stage models.Stage, pres status.Presenter, title, message string, cause error) (*models.PublishResponse, error) {
	state.Stage = models.StageFailed
	state.FailedStage = stage
	state.CompletedAt = time.Now().UTC()
	c.saveState(ctx, state)

	detail := fmt.Sprintf("%s (stage %s: %v)", state.SupportRef(), stage, cause)
	pres.Error(title, message, detail)

	metrics.JobPublishTotal.WithLabelValues("failed").Inc()
	logger.Error("Publish transaction failed",
		zap.String("idempotency_key", state.IdempotencyKey),
		zap.String("stage", string(stage)),
		zap.Error(cause))

	resp := &models.PublishResponse{
		Success:        false,
		Stage:          models.StageFailed,
		FailedStage:    stage,
		IdempotencyKey: state.IdempotencyKey,
		Message:        message,
		SupportDetail:  detail,
	}
	c.idem.Put(state.IdempotencyKey, resp)
	return resp, cause
}

// partial finalizes a transaction whose job is live but whose bookkeeping is
// not. The live item is never deleted; support reconciles from the detail.
func (c *Coordinator) partial(ctx context.Context, state *models.TransactionState, stage models.Stage, pres status.Presenter, cause error) (*models.PublishResponse, error) {
	state.Stage = models.StageDone
	state.FailedStage = stage
	state.CompletedAt = time.Now().UTC()
	c.saveState(ctx, state)

	detail := fmt.Sprintf("%s (stage %s: %v)", state.SupportRef(), stage, cause)
	pres.Success("Job published", "Your job is now live.")
	pres.Error("One step needs attention",
		"Your job was published, but a follow-up step failed. Support has the details.", detail)

	metrics.JobPublishTotal.WithLabelValues("partial").Inc()
	logger.Warn("Publish transaction partially succeeded",
		zap.String("idempotency_key", state.IdempotencyKey),
		zap.String("failed_stage", string(stage)),
		zap.String("support_ref", state.SupportRef()),
		zap.Error(cause))

	resp := &models.PublishResponse{
		Success:        true,
		Partial:        true,
		Stage:          models.StageDone,
		FailedStage:    stage,
		SheetRecordID:  state.SheetRecordID,
		CMSItemID:      state.CMSItemID,
		IdempotencyKey: state.IdempotencyKey,
		Message:        "Job published, one follow-up step pending",
		SupportDetail:  detail,
	}
	c.idem.Put(state.IdempotencyKey, resp)
	return resp, apperrors.PartialSuccessError(string(stage), state.SupportRef(), cause)
}

// respondFailure builds the response for a transaction rejected before any
// network call. These outcomes are not stored for replay: the client fixes
// the input and submits a fresh attempt.
func (c *Coordinator) respondFailure(state *models.TransactionState, cause error) *models.PublishResponse {
	return &models.PublishResponse{
		Success:        false,
		Stage:          models.StageFailed,
		IdempotencyKey: state.IdempotencyKey,
		Message:        cause.Error(),
	}
}

func (c *Coordinator) saveState(ctx context.Context, state *models.TransactionState) {
	if err := c.log.Save(ctx, state); err != nil {
		logger.Warn("Failed to persist transaction state",
			zap.String("idempotency_key", state.IdempotencyKey),
			zap.String("stage", string(state.Stage)),
			zap.Error(err))
	}
}

func validateRecord(record models.RawFormRecord) error {
	if record.String(models.KeyJobTitle) == "" {
		return apperrors.LocalValidationError(models.KeyProjectName, "a job title is required")
	}
	if record.String(models.KeyMemberRef) == "" {
		return apperrors.LocalValidationError(models.KeyMemberRef, "the submitting member is unknown")
	}
	return nil
}

// MemoryPublishLog keeps transaction states in memory, for offline mode and
// tests.
type MemoryPublishLog struct {
	mu     sync.Mutex
	states map[string]*models.TransactionState
}

// NewMemoryPublishLog creates an empty in-memory publish log.
func NewMemoryPublishLog() *MemoryPublishLog {
	return &MemoryPublishLog{states: make(map[string]*models.TransactionState)}
}

func (l *MemoryPublishLog) Save(_ context.Context, state *models.TransactionState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := *state
	l.states[state.IdempotencyKey] = &copied
	return nil
}

// Get returns the stored state for key, for tests and diagnostics.
func (l *MemoryPublishLog) Get(key string) (*models.TransactionState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.states[key]
	if !ok {
		return nil, false
	}
	copied := *s
	return &copied, true
}
