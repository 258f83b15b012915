package models

import "time"

// Stage identifies where a publish transaction currently is. Transitions are
// strictly forward; `failed` is absorbing and only a fresh submission leaves it.
type Stage string

const (
	StageCollecting      Stage = "collecting"
	StageResolvingMember Stage = "resolving_member"
	StageCreatingSheet   Stage = "creating_sheet_record"
	StageCreatingCMS     Stage = "creating_cms_item"
	StageLinking         Stage = "linking"
	StageUpdatingCredits Stage = "updating_credits"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// TransactionState tracks what has durably happened across the three
// collaborators, so the coordinator knows what to compensate on failure.
type TransactionState struct {
	IdempotencyKey string    `json:"idempotencyKey"`
	MemberRef      string    `json:"memberRef,omitempty"`
	SheetRecordID  string    `json:"sheetRecordId,omitempty"`
	CMSItemID      string    `json:"cmsItemId,omitempty"`
	Stage          Stage     `json:"stage"`
	FailedStage    Stage     `json:"failedStage,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	CompletedAt    time.Time `json:"completedAt,omitempty"`
}

// SupportRef builds the reference string support needs to reconcile a
// partially-published job by hand.
func (s *TransactionState) SupportRef() string {
	ref := "tx=" + s.IdempotencyKey
	if s.SheetRecordID != "" {
		ref += " sheet=" + s.SheetRecordID
	}
	if s.CMSItemID != "" {
		ref += " cms=" + s.CMSItemID
	}
	return ref
}

// PublishRequest is the submission body posted by the site. Fields is the
// raw form snapshot keyed by logical field key; the idempotency key is
// client-generated per submit attempt so double-clicks and retries collapse
// into one transaction.
type PublishRequest struct {
	Fields         map[string]interface{} `json:"fields" binding:"required"`
	IdempotencyKey string                 `json:"idempotencyKey" binding:"omitempty,max=64"`
}

// PublishResponse reports the transaction outcome plus the presenter's
// event stream, which the site renders as its notification surface.
type PublishResponse struct {
	Success        bool           `json:"success"`
	Partial        bool           `json:"partial,omitempty"`
	Replayed       bool           `json:"replayed,omitempty"`
	Stage          Stage          `json:"stage"`
	FailedStage    Stage          `json:"failedStage,omitempty"`
	SheetRecordID  string         `json:"sheetRecordId,omitempty"`
	CMSItemID      string         `json:"cmsItemId,omitempty"`
	IdempotencyKey string         `json:"idempotencyKey"`
	Message        string         `json:"message"`
	SupportDetail  string         `json:"supportDetail,omitempty"`
	Events         []Notification `json:"events,omitempty"`
}
