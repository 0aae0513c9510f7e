// Package training stores labelled samples and canned responses used to
// train the chat model, and triggers retraining.
package training

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoResponses indicates a response submission without any usable entry.
	ErrNoResponses = errors.New("training: responses must be a non-empty array")
	// ErrEmptyField indicates a missing text or label.
	ErrEmptyField = errors.New("training: text and label required")
)

// Sample is one labelled utterance.
type Sample struct {
	ID    int64
	Text  string
	Label string
}

// ResponseSet holds the answers the model may give for a label.
type ResponseSet struct {
	ID        int64
	Label     string
	Responses []string
}

// RepositoryPort defines data access for training material.
type RepositoryPort interface {
	InsertSample(ctx context.Context, text, label string) (*Sample, error)
	Labels(ctx context.Context) ([]string, error)
	// MutateResponses applies fn to the stored responses of label (empty for a
	// new label) and stores the result atomically. Concurrent calls for one
	// label are serialized, including the first ones.
	MutateResponses(ctx context.Context, label string, fn func([]string) []string) (*ResponseSet, error)
}

// Enqueuer schedules a model training run.
type Enqueuer interface {
	EnqueueModelTrain(ctx context.Context) (string, error)
}

// MergeResponses appends incoming to existing, dropping blanks and
// duplicates while keeping first-seen order.
func MergeResponses(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, list := range [][]string{existing, incoming} {
		for _, r := range list {
			r = strings.TrimSpace(r)
			if r == "" {
				continue
			}
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
