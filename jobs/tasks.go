package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bakeops/bakeops/internal/jobs"
	"github.com/bakeops/bakeops/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(m shared.Mail) (*asynq.Task, error) {
	if m.To == "" || m.Template == "" {
		return nil, errors.New("mail: recipient and template required")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// Message is a rendered email ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of an SMTP relay.
type LogSender struct {
	Logger *slog.Logger
}

// Send implements Sender.
func (s LogSender) Send(_ context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail delivered",
		slog.String("from", msg.From),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("body_bytes", len(msg.Body)))
	return nil
}

// MailJob renders and delivers mail:send tasks.
type MailJob struct {
	Sender  Sender
	From    string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskTypeSendEmail tasks. Malformed payloads and unknown
// templates are not retried.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	tracker := j.metrics().Track(TaskTypeSendEmail)
	defer func() { err = tracker.End(err) }()

	var m shared.Mail
	if err := json.Unmarshal(t.Payload(), &m); err != nil {
		return fmt.Errorf("decode mail: %v: %w", err, asynq.SkipRetry)
	}
	msg, err := Render(m)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	msg.From = j.From
	if err := j.Sender.Send(ctx, msg); err != nil {
		j.logger().Warn("send mail", slog.String("template", m.Template), slog.Any("error", err))
		return err
	}
	return nil
}

func (j *MailJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *MailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
