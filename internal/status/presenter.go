package status

import (
	"sync"

	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"go.uber.org/zap"
)

// Presenter receives user-facing progress events during a publish. The
// coordinator reports through this interface; what happens to the events is
// the caller's business (the API returns them in the response body).
type Presenter interface {
	Loading(title, message string)
	Success(title, message string)
	Error(title, message, detail string)
}

// Recorder is the Presenter used per request. It collects events in order and
// tracks whether the submission should stay locked (a terminal error keeps
// the lock so the client does not resubmit a half-finished saga blindly).
type Recorder struct {
	mu          sync.Mutex
	supportAddr string
	events      []models.Notification
	locked      bool
}

// NewRecorder creates a recorder; supportAddr is embedded into error events
// as a prefilled support mailto link.
func NewRecorder(supportAddr string) *Recorder {
	return &Recorder{supportAddr: supportAddr}
}

func (r *Recorder) Loading(title, message string) {
	r.append(models.Notification{
		Title:    title,
		Message:  message,
		Severity: models.SeverityLoading,
	})
}

func (r *Recorder) Success(title, message string) {
	r.append(models.Notification{
		Title:              title,
		Message:            message,
		Severity:           models.SeveritySuccess,
		AutoDismissSeconds: models.SuccessAutoDismissSeconds,
	})
}

// Error records a sticky failure event. Detail carries the support reference
// (idempotency key plus failed stage) so a support request identifies the
// exact transaction.
func (r *Recorder) Error(title, message, detail string) {
	n := models.Notification{
		Title:    title,
		Message:  message,
		Severity: models.SeverityError,
		Detail:   detail,
	}
	if r.supportAddr != "" {
		n.SupportMailto = models.SupportMailto(r.supportAddr, title, detail)
	}

	r.mu.Lock()
	r.events = append(r.events, n)
	r.locked = true
	r.mu.Unlock()

	logger.Warn("Publish status error presented",
		zap.String("title", title),
		zap.String("detail", detail))
}

// Events returns the collected notifications in arrival order.
func (r *Recorder) Events() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.events))
	copy(out, r.events)
	return out
}

// Locked reports whether a terminal error event was recorded.
func (r *Recorder) Locked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked
}

func (r *Recorder) append(n models.Notification) {
	r.mu.Lock()
	r.events = append(r.events, n)
	r.mu.Unlock()
}

// Discard is a Presenter that drops all events, for the outbox worker and
// other non-interactive callers.
type Discard struct{}

func (Discard) Loading(string, string)       {}
func (Discard) Success(string, string)       {}
func (Discard) Error(string, string, string) {}
