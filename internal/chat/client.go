// Package chat proxies admin chat messages to the inference service and
// triggers model training on it.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxReplyBytes = 1 << 20

var (
	// ErrUnavailable indicates the inference service could not be reached or failed.
	ErrUnavailable = errors.New("chat: inference unavailable")
	// ErrEmptyMessage indicates a chat message without text.
	ErrEmptyMessage = errors.New("chat: text required")
)

// Client wraps interactions with the inference API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client. A non-positive timeout falls back to 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type replyRequest struct {
	Text string `json:"text"`
}

type replyResponse struct {
	Response string `json:"response"`
}

// Reply sends a message to the model and returns its answer.
func (c *Client) Reply(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	payload, err := json.Marshal(replyRequest{Text: text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var out replyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReplyBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode reply: %w", ErrUnavailable, err)
	}
	return out.Response, nil
}

// Train asks the inference service to retrain on the stored data.
func (c *Client) Train(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/train", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReplyBytes))
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: train returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
