package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/vocaprep/vocaprep/internal/resilience"
)

// Compile-time assertion that Client implements Transcriber.
var _ Transcriber = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Useful for tests and
// for callers that need custom transport settings.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Client) { t.httpClient = c }
}

// WithRetry overrides the retry configuration. The default is 3 attempts
// with a 2 s backoff base, matching the boundary's documented contract.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(t *Client) { t.retry = cfg }
}

// Client implements [Transcriber] against an HTTP speech-to-text boundary
// that accepts a multipart WAV upload and responds with JSON.
type Client struct {
	endpoint   string
	httpClient *http.Client
	retry      resilience.RetryConfig
}

// NewClient creates a Client for the boundary at endpoint (e.g.,
// "https://api.example.com/v1/transcribe"). endpoint must be non-empty.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("stt: endpoint must not be empty")
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry: resilience.RetryConfig{
			Name:        "transcribe",
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Transcribe uploads wav as multipart/form-data and returns the transcript.
//
// Transport failures (network errors, non-2xx statuses) are retried up to the
// configured attempt budget; the terminal error wraps [ErrTranscription].
// A 2xx response without a "text" key fails immediately with
// [ErrMalformedResponse] — retrying a contract violation cannot fix it.
func (c *Client) Transcribe(ctx context.Context, wav []byte) (Transcript, error) {
	var out Transcript
	err := resilience.Retry(ctx, c.retry, func(ctx context.Context) error {
		t, err := c.doUpload(ctx, wav)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return Transcript{}, err
	}
	return out, nil
}

// doUpload performs a single upload attempt.
func (c *Client) doUpload(ctx context.Context, wav []byte) (Transcript, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return Transcript{}, resilience.Permanent(fmt.Errorf("stt: create form file: %w", err))
	}
	if _, err := fw.Write(wav); err != nil {
		return Transcript{}, resilience.Permanent(fmt.Errorf("stt: write wav data: %w", err))
	}
	if err := mw.Close(); err != nil {
		return Transcript{}, resilience.Permanent(fmt.Errorf("stt: close multipart writer: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return Transcript{}, resilience.Permanent(fmt.Errorf("stt: create request: %w", err))
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Transcript{}, fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Transcript{}, fmt.Errorf("%w: boundary returned HTTP %d", ErrTranscription, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transcript{}, fmt.Errorf("%w: read response body: %v", ErrTranscription, err)
	}

	// Text is a pointer so that a missing key is distinguishable from an
	// empty transcript — the two have opposite semantics.
	var result struct {
		Text       *string `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return Transcript{}, resilience.Permanent(fmt.Errorf("%w: invalid JSON: %v", ErrMalformedResponse, err))
	}
	if result.Text == nil {
		return Transcript{}, resilience.Permanent(ErrMalformedResponse)
	}

	return Transcript{Text: *result.Text, Confidence: result.Confidence}, nil
}
