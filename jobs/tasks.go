package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/inkwell-blog/inkwell/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskWelcomeMail greets a freshly registered user.
	TaskWelcomeMail = "mail:welcome"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// WelcomeMailPayload identifies the registered user.
type WelcomeMailPayload struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// NewWelcomeMailTask constructs an Asynq task.
func NewWelcomeMailTask(payload WelcomeMailPayload) (*asynq.Task, error) {
	if payload.Email == "" {
		return nil, fmt.Errorf("welcome mail: email required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWelcomeMail, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// WelcomeMailJob renders the welcome message. Delivery is handed to the
// logger; an SMTP relay can replace it without touching the producer.
type WelcomeMailJob struct {
	From    string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskWelcomeMail tasks.
func (j *WelcomeMailJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics().Track(TaskWelcomeMail)
	var payload WelcomeMailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Email == "" {
		return tracker.End(fmt.Errorf("welcome mail: bad payload: %w", asynq.SkipRetry))
	}
	j.log().Info("send welcome mail",
		slog.Int64("user_id", payload.UserID),
		slog.String("to", payload.Email),
		slog.String("from", j.From),
		slog.String("subject", WelcomeSubject(payload.Username)))
	return tracker.End(nil)
}

// WelcomeSubject is the subject line of the welcome mail.
func WelcomeSubject(username string) string {
	if username == "" {
		return "Welcome to Inkwell"
	}
	return "Welcome to Inkwell, " + username
}

func (j *WelcomeMailJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *WelcomeMailJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskWelcomeMail))
	}
	return slog.Default().With(slog.String("job", TaskWelcomeMail))
}
