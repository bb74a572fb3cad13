package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Compile-time assertion that Client implements Provider.
var _ Provider = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithVoice sets the voice identifier forwarded with every synthesis
// request. Empty means the boundary's default voice.
func WithVoice(voice string) Option {
	return func(cl *Client) { cl.voice = voice }
}

// Client implements [Provider] against an HTTP speech-synthesis boundary.
type Client struct {
	endpoint   string
	voice      string
	httpClient *http.Client
}

// NewClient creates a Client for the boundary at endpoint. endpoint must be
// non-empty.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("tts: endpoint must not be empty")
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Synthesize posts text to the boundary and returns the response body as the
// audio stream. The caller must close the returned stream.
func (c *Client) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	body, err := json.Marshal(struct {
		Text  string `json:"text"`
		Voice string `json:"voice,omitempty"`
	}{Text: text, Voice: c.voice})
	if err != nil {
		return nil, fmt.Errorf("tts: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tts: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: boundary returned HTTP %d", ErrSynthesis, resp.StatusCode)
	}

	return resp.Body, nil
}
