package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/inkwell-blog/inkwell/internal/jobs"
)

// TaskTokensPurge deletes auth tokens older than the configured maximum age.
const TaskTokensPurge = "auth:tokens:purge"

// TokenPurgePayload optionally overrides the job's maximum age.
type TokenPurgePayload struct {
	MaxAgeSeconds int64 `json:"max_age_seconds,omitempty"`
}

// TokenPurger removes expired tokens and reports how many were deleted.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, maxAge time.Duration) (int, error)
}

// TokenPurgeJob coordinates the purge workflow.
type TokenPurgeJob struct {
	Purger  TokenPurger
	MaxAge  time.Duration
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewTokenPurgeTask creates the purge task. A zero maxAge defers to the worker's setting.
func NewTokenPurgeTask(maxAge time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(TokenPurgePayload{MaxAgeSeconds: int64(maxAge / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTokensPurge, body, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}

// Handle executes the purge.
func (j *TokenPurgeJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Purger == nil {
		return errors.New("token purge: dependencies not configured")
	}
	var payload TokenPurgePayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("token purge: bad payload: %w", asynq.SkipRetry)
		}
	}
	maxAge := j.MaxAge
	if payload.MaxAgeSeconds > 0 {
		maxAge = time.Duration(payload.MaxAgeSeconds) * time.Second
	}
	if maxAge <= 0 {
		j.log().Info("token expiry disabled, nothing to purge")
		return nil
	}

	tracker := j.metrics().Track(TaskTokensPurge)
	purged, err := j.Purger.PurgeExpired(ctx, maxAge)
	if err != nil {
		j.log().Error("purge tokens", slog.Duration("max_age", maxAge), slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics().AddPurgedTokens(purged)
	j.log().Info("purged expired tokens", slog.Int("count", purged), slog.Duration("max_age", maxAge))
	return tracker.End(nil)
}

func (j *TokenPurgeJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *TokenPurgeJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTokensPurge))
	}
	return slog.Default().With(slog.String("job", TaskTokensPurge))
}
