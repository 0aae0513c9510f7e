package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/adminpanel/adminpanel/internal/jobs"
)

// DefaultPostRetention applies when a purge payload carries no window.
const DefaultPostRetention = 30 * 24 * time.Hour

// PostPurger removes posts soft-deleted longer than retention ago.
type PostPurger interface {
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// PostsPurgeJob hard-deletes expired soft-deleted posts.
type PostsPurgeJob struct {
	Purger  PostPurger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPostsPurgeJob initialises the purge handler.
func NewPostsPurgeJob(purger PostPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *PostsPurgeJob {
	return &PostsPurgeJob{Purger: purger, Logger: logger, Metrics: metrics}
}

// Handle executes one purge run.
func (j *PostsPurgeJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Purger == nil {
		return errors.New("posts purge: handler not configured")
	}
	var payload PostsPurgePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("posts purge: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	retention := payload.Retention()
	if retention <= 0 {
		retention = DefaultPostRetention
	}

	tracker := j.Metrics.Track(TaskPostsPurge)
	defer func() {
		err = tracker.End(err)
	}()

	logger := loggerOrDefault(j.Logger).With(slog.Duration("retention", retention))
	start := time.Now()
	n, err := j.Purger.Purge(ctx, retention)
	if err != nil {
		logger.Error("posts purge failed", slog.Any("error", err))
		return err
	}
	j.Metrics.AddPurged("post", n)
	logger.Info("posts purge completed", slog.Int64("purged", n), slog.Duration("duration", time.Since(start)))
	return nil
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
