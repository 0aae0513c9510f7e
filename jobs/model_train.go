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

// Trainer triggers a training run on the inference service.
type Trainer interface {
	Train(ctx context.Context) error
}

// ModelTrainJob forwards training requests to the inference service.
type ModelTrainJob struct {
	Trainer Trainer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewModelTrainJob initialises the training handler.
func NewModelTrainJob(trainer Trainer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ModelTrainJob {
	return &ModelTrainJob{Trainer: trainer, Logger: logger, Metrics: metrics}
}

// Handle executes one training trigger.
func (j *ModelTrainJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Trainer == nil {
		return errors.New("model train: handler not configured")
	}
	var payload ModelTrainPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("model train: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskModelTrain)
	defer func() {
		err = tracker.End(err)
	}()

	logger := loggerOrDefault(j.Logger).With(slog.String("request_id", payload.RequestID))
	start := time.Now()
	if err := j.Trainer.Train(ctx); err != nil {
		logger.Error("model training failed", slog.Any("error", err))
		return err
	}
	logger.Info("model training triggered", slog.Duration("duration", time.Since(start)))
	return nil
}
