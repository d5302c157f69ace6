package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/bakeops/bakeops/internal/jobs"
	"github.com/bakeops/bakeops/internal/shared"
)

type captureSender struct {
	sent []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func mailTask(t *testing.T, m shared.Mail) *asynq.Task {
	t.Helper()
	task, err := NewSendEmailTask(m)
	require.NoError(t, err)
	return task
}

func TestNewSendEmailTaskRequiresRecipient(t *testing.T) {
	_, err := NewSendEmailTask(shared.Mail{Template: shared.MailTemplateWelcome})
	require.Error(t, err)

	task := mailTask(t, shared.Mail{To: "a@b.co", Template: shared.MailTemplateWelcome})
	assert.Equal(t, TaskTypeSendEmail, task.Type())
}

func TestMailJobRendersOrderConfirmation(t *testing.T) {
	sender := &captureSender{}
	job := &MailJob{Sender: sender, From: "noreply@bakeops.test", Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())}

	task := mailTask(t, shared.Mail{
		To:       "ana@example.com",
		Template: shared.MailTemplateOrderConfirmation,
		Data: map[string]any{
			"Name":       "Ana",
			"Shop":       "Crumb & Co",
			"Reference":  "01J9ZQ",
			"PickupDate": "2026-10-18",
			"Location":   "Ponsonby",
			"Total":      "$12.50",
			"Lines": []map[string]any{
				{"Name": "Sourdough", "Quantity": 2, "Total": "$12.50"},
			},
		},
	})
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "noreply@bakeops.test", msg.From)
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "Crumb & Co order 01J9ZQ", msg.Subject)
	assert.Contains(t, msg.Body, "2 x Sourdough  $12.50")
	assert.Contains(t, msg.Body, "Ponsonby on 2026-10-18")
}

func TestMailJobWelcomeVariants(t *testing.T) {
	msg, err := Render(shared.Mail{To: "x@y.z", Template: shared.MailTemplateWelcome, Data: map[string]any{"Name": "Kim", "Role": "baker", "NewAccount": true}})
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "password you were given")

	msg, err = Render(shared.Mail{To: "x@y.z", Template: shared.MailTemplateWelcome, Data: map[string]any{"Name": "Kim", "Role": "baker", "NewAccount": false}})
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "existing account")
}

func TestMailJobSkipsRetryForUnknownTemplate(t *testing.T) {
	job := &MailJob{Sender: &captureSender{}, Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())}
	err := job.Handle(context.Background(), mailTask(t, shared.Mail{To: "a@b.co", Template: "nope"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestMailJobRetriesSenderFailure(t *testing.T) {
	boom := errors.New("relay down")
	job := &MailJob{Sender: &captureSender{err: boom}, Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())}
	err := job.Handle(context.Background(), mailTask(t, shared.Mail{To: "a@b.co", Template: shared.MailTemplateTenantCreated}))
	require.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

type rolloverStub struct {
	completed int64
	err       error
	calls     int
}

func (r *rolloverStub) RolloverPast(context.Context) (int64, error) {
	r.calls++
	return r.completed, r.err
}

func affectedRows(t *testing.T, reg *prometheus.Registry, job string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "bakeops_job_affected_rows_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "job" && lp.GetValue() == job {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestProductionRolloverJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	stub := &rolloverStub{completed: 7}
	job := &ProductionRolloverJob{Production: stub, Metrics: jobmetrics.NewMetrics(reg)}
	require.NoError(t, job.Handle(context.Background(), NewProductionRolloverTask()))
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 7.0, affectedRows(t, reg, TaskProductionRollover))

	stub.err = errors.New("db gone")
	require.Error(t, job.Handle(context.Background(), NewProductionRolloverTask()))
}

type cleanerStub struct {
	retention time.Duration
}

func (c *cleanerStub) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	c.retention = olderThan
	return 7, nil
}

func TestIdempotencyCleanupRetention(t *testing.T) {
	stub := &cleanerStub{}
	job := &IdempotencyCleanupJob{Store: stub, Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())}

	task, err := NewIdempotencyCleanupTask(24 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 24*time.Hour, stub.retention)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	assert.Equal(t, DefaultIdempotencyRetention, stub.retention)
}

func TestNewTaskByName(t *testing.T) {
	assert.Equal(t, []string{TaskIdempotencyCleanup, TaskProductionRollover}, TriggerableTasks())

	task, err := NewTaskByName(TaskProductionRollover)
	require.NoError(t, err)
	assert.Equal(t, TaskProductionRollover, task.Type())

	_, err = NewTaskByName("finance:close")
	require.Error(t, err)
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats QueueStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, QueueDefault, stats.Queue)
}

func TestNewWorkerRejectsIncompleteEntries(t *testing.T) {
	_, err := NewWorker(WorkerConfig{Handlers: []TaskHandler{{Type: TaskProductionRollover}}})
	require.Error(t, err)

	_, err = NewWorker(WorkerConfig{Cron: []CronRegistration{{Spec: "15 0 * * *"}}})
	require.Error(t, err)
}
