package saga

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/creatorjobs/creatorjobs-api/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompensationTask is one pending compensating deletion: a sheet record that
// must go away because the CMS item it belongs to was never created. Tasks
// are durable so a crash between the failed create and the delete does not
// leak the record.
type CompensationTask struct {
	ID             string    `json:"id"`
	IdempotencyKey string    `json:"idempotencyKey"`
	SheetRecordID  string    `json:"sheetRecordId"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"lastError,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewCompensationTask creates a task for the given orphaned sheet record.
func NewCompensationTask(idempotencyKey, sheetRecordID string) *CompensationTask {
	return &CompensationTask{
		ID:             uuid.NewString(),
		IdempotencyKey: idempotencyKey,
		SheetRecordID:  sheetRecordID,
		CreatedAt:      time.Now().UTC(),
	}
}

// OutboxStore persists compensation tasks until they succeed or are
// abandoned.
type OutboxStore interface {
	Enqueue(ctx context.Context, task *CompensationTask) error
	Pending(ctx context.Context, limit int) ([]*CompensationTask, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
	PendingCount(ctx context.Context) (int, error)
}

// MemoryOutbox is the in-process store used when the service runs without a
// database. Tasks do not survive a restart.
type MemoryOutbox struct {
	mu    sync.Mutex
	tasks map[string]*CompensationTask
}

// NewMemoryOutbox creates an empty in-memory outbox.
func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{tasks: make(map[string]*CompensationTask)}
}

func (o *MemoryOutbox) Enqueue(_ context.Context, task *CompensationTask) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasks[task.ID] = task
	return nil
}

func (o *MemoryOutbox) Pending(_ context.Context, limit int) ([]*CompensationTask, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]*CompensationTask, 0, len(o.tasks))
	for _, t := range o.tasks {
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (o *MemoryOutbox) MarkDone(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.tasks, id)
	return nil
}

func (o *MemoryOutbox) MarkFailed(_ context.Context, id string, lastError string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if t, ok := o.tasks[id]; ok {
		t.Attempts++
		t.LastError = lastError
	}
	return nil
}

func (o *MemoryOutbox) PendingCount(_ context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tasks), nil
}

// SheetDeleter is the slice of the sheet backend the outbox worker needs.
type SheetDeleter interface {
	DeleteRecord(ctx context.Context, recordID string) error
}

// OutboxWorker drains the compensation outbox on an interval. Tasks that
// keep failing past maxAttempts are dropped with an error log carrying the
// support reference; at that point reconciliation is manual.
type OutboxWorker struct {
	store       OutboxStore
	sheet       SheetDeleter
	interval    time.Duration
	maxAttempts int
}

// NewOutboxWorker creates a worker over the given store and sheet backend.
func NewOutboxWorker(store OutboxStore, sheet SheetDeleter, interval time.Duration) *OutboxWorker {
	return &OutboxWorker{
		store:       store,
		sheet:       sheet,
		interval:    interval,
		maxAttempts: 10,
	}
}

// Start runs the drain loop until ctx is cancelled.
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Drain(ctx)
			}
		}
	}()
}

// Drain processes everything currently pending. Exported so the publish path
// can trigger an immediate attempt after enqueueing.
func (w *OutboxWorker) Drain(ctx context.Context) {
	tasks, err := w.store.Pending(ctx, 50)
	if err != nil {
		logger.Error("Failed to load pending compensation tasks", zap.Error(err))
		return
	}

	for _, task := range tasks {
		if err := w.sheet.DeleteRecord(ctx, task.SheetRecordID); err != nil {
			if task.Attempts+1 >= w.maxAttempts {
				logger.Error("Abandoning compensation task, manual cleanup required",
					zap.String("task_id", task.ID),
					zap.String("idempotency_key", task.IdempotencyKey),
					zap.String("sheet_record_id", task.SheetRecordID),
					zap.Error(err))
				metrics.CompensationTotal.WithLabelValues("abandoned").Inc()
				if markErr := w.store.MarkDone(ctx, task.ID); markErr != nil {
					logger.Error("Failed to remove abandoned compensation task", zap.Error(markErr))
				}
				continue
			}

			logger.Warn("Compensation delete failed, will retry",
				zap.String("task_id", task.ID),
				zap.String("sheet_record_id", task.SheetRecordID),
				zap.Int("attempts", task.Attempts+1),
				zap.Error(err))
			metrics.CompensationTotal.WithLabelValues("retry").Inc()
			if markErr := w.store.MarkFailed(ctx, task.ID, err.Error()); markErr != nil {
				logger.Error("Failed to record compensation attempt", zap.Error(markErr))
			}
			continue
		}

		logger.Info("Compensating deletion completed",
			zap.String("task_id", task.ID),
			zap.String("sheet_record_id", task.SheetRecordID))
		metrics.CompensationTotal.WithLabelValues("success").Inc()
		if err := w.store.MarkDone(ctx, task.ID); err != nil {
			logger.Error("Failed to mark compensation task done", zap.Error(err))
		}
	}

	if count, err := w.store.PendingCount(ctx); err == nil {
		metrics.OutboxPendingTasks.Set(float64(count))
	}
}
