package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bakeops/bakeops/internal/jobs"
)

// TaskIdempotencyCleanup purges old idempotency keys.
const TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"

// DefaultIdempotencyRetention bounds how long order keys are remembered.
const DefaultIdempotencyRetention = 72 * time.Hour

// IdempotencyCleanupPayload configures a cleanup run.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask builds the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// KeyCleaner is implemented by shared.IdempotencyStore.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob deletes expired keys.
type IdempotencyCleanupJob struct {
	Store   KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()

	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	retention := time.Duration(payload.RetentionHours) * time.Hour
	if retention <= 0 {
		retention = DefaultIdempotencyRetention
	}
	removed, err := j.Store.Cleanup(ctx, retention)
	if err != nil {
		return err
	}
	metrics.AddAffected(TaskIdempotencyCleanup, removed)
	if j.Logger != nil {
		j.Logger.Info("idempotency keys purged", slog.Int64("removed", removed), slog.Duration("retention", retention))
	}
	return nil
}
