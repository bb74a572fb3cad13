// Package feedback defines the client for the feedback-generation
// collaborator — the service that turns a finished interview transcript into
// written feedback for the candidate.
//
// The handoff is fire-and-forget from the session's perspective: it happens
// exactly once at session end, and a failure is logged but never blocks or
// fails the session teardown.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vocaprep/vocaprep/pkg/types"
)

// Result is the collaborator's acknowledgement of a transcript handoff.
type Result struct {
	// Success reports whether feedback generation was accepted.
	Success bool `json:"success"`

	// FeedbackID identifies the generated feedback document, when available.
	FeedbackID string `json:"feedbackId,omitempty"`
}

// Generator is the abstraction over the feedback-generation collaborator.
type Generator interface {
	// Generate submits the finished transcript. Called exactly once per
	// session, only when the transcript is non-empty and the session has a
	// valid identifier.
	Generate(ctx context.Context, sessionID, userID string, transcript []types.Turn) (Result, error)
}

// Compile-time assertion that Client implements Generator.
var _ Generator = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// Client implements [Generator] against an HTTP collaborator speaking JSON.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Client for the collaborator at endpoint. endpoint must
// be non-empty.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("feedback: endpoint must not be empty")
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Generate posts the transcript and decodes the acknowledgement.
func (c *Client) Generate(ctx context.Context, sessionID, userID string, transcript []types.Turn) (Result, error) {
	body, err := json.Marshal(struct {
		SessionID  string       `json:"sessionId"`
		UserID     string       `json:"userId"`
		Transcript []types.Turn `json:"transcript"`
	}{SessionID: sessionID, UserID: userID, Transcript: transcript})
	if err != nil {
		return Result{}, fmt.Errorf("feedback: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("feedback: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("feedback: post transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("feedback: collaborator returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("feedback: read response body: %w", err)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("feedback: invalid JSON: %w", err)
	}
	return res, nil
}
