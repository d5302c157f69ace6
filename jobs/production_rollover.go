package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bakeops/bakeops/internal/jobs"
)

// TaskProductionRollover completes published schedules of past days.
const TaskProductionRollover = "production:rollover"

// NewProductionRolloverTask builds the rollover task.
func NewProductionRolloverTask() *asynq.Task {
	return asynq.NewTask(TaskProductionRollover, nil, asynq.Queue(QueueDefault))
}

// Rollover is implemented by production.Service.
type Rollover interface {
	RolloverPast(ctx context.Context) (int64, error)
}

// ProductionRolloverJob runs the daily rollover.
type ProductionRolloverJob struct {
	Production Rollover
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// Handle processes TaskProductionRollover tasks.
func (j *ProductionRolloverJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskProductionRollover)
	defer func() { err = tracker.End(err) }()

	completed, err := j.Production.RolloverPast(ctx)
	if err != nil {
		return err
	}
	metrics.AddAffected(TaskProductionRollover, completed)
	if j.Logger != nil {
		j.Logger.Info("production rollover finished", slog.Int64("schedules", completed))
	}
	return nil
}
