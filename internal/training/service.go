package training

import (
	"context"
	"fmt"
	"strings"
)

// Service handles training material and retraining requests.
type Service struct {
	repo  RepositoryPort
	queue Enqueuer
}

// NewService builds Service instance. queue may be nil when training runs
// are not available.
func NewService(repo RepositoryPort, queue Enqueuer) *Service {
	return &Service{repo: repo, queue: queue}
}

// AddSample stores a labelled sample.
func (s *Service) AddSample(ctx context.Context, text, label string) (*Sample, error) {
	text, label = strings.TrimSpace(text), strings.TrimSpace(label)
	if text == "" || label == "" {
		return nil, ErrEmptyField
	}
	return s.repo.InsertSample(ctx, text, label)
}

// AddResponses merges responses into the label's set.
func (s *Service) AddResponses(ctx context.Context, label string, responses []string) (*ResponseSet, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyField
	}
	if len(MergeResponses(nil, responses)) == 0 {
		return nil, ErrNoResponses
	}
	set, err := s.repo.MutateResponses(ctx, label, func(current []string) []string {
		return MergeResponses(current, responses)
	})
	if err != nil {
		return nil, fmt.Errorf("training: merge responses for %q: %w", label, err)
	}
	return set, nil
}

// Labels lists the distinct sample labels.
func (s *Service) Labels(ctx context.Context) ([]string, error) {
	labels, err := s.repo.Labels(ctx)
	if err != nil {
		return nil, fmt.Errorf("training: labels: %w", err)
	}
	if labels == nil {
		labels = []string{}
	}
	return labels, nil
}

// RequestTraining schedules a retraining run and returns its job id.
func (s *Service) RequestTraining(ctx context.Context) (string, error) {
	if s.queue == nil {
		return "", fmt.Errorf("training: no job queue configured")
	}
	return s.queue.EnqueueModelTrain(ctx)
}
