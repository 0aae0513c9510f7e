package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPostsPurge hard-deletes posts soft-deleted past the retention window.
	TaskPostsPurge = "posts:purge"
	// TaskModelTrain asks the inference service to retrain.
	TaskModelTrain = "model:train"
)

// PostsPurgePayload carries the retention window for a purge run.
type PostsPurgePayload struct {
	RetentionSeconds int64 `json:"retention_seconds"`
}

// Retention returns the window as a duration.
func (p PostsPurgePayload) Retention() time.Duration {
	return time.Duration(p.RetentionSeconds) * time.Second
}

// ModelTrainPayload identifies one training request.
type ModelTrainPayload struct {
	RequestID   string    `json:"request_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewPostsPurgeTask constructs a purge task. The window is kept to the second.
func NewPostsPurgeTask(retention time.Duration) (*asynq.Task, error) {
	if retention < time.Second {
		return nil, fmt.Errorf("jobs: purge retention %s is below one second", retention)
	}
	data, err := json.Marshal(PostsPurgePayload{RetentionSeconds: int64(retention / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPostsPurge, data), nil
}

// NewModelTrainTask constructs a training task with a fresh request id.
func NewModelTrainTask(now time.Time) (*asynq.Task, ModelTrainPayload, error) {
	payload := ModelTrainPayload{RequestID: uuid.NewString(), RequestedAt: now.UTC()}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, ModelTrainPayload{}, err
	}
	return asynq.NewTask(TaskModelTrain, data), payload, nil
}
