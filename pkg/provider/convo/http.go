package convo

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

// Compile-time assertion that Client implements Provider.
var _ Provider = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// Client implements [Provider] against an HTTP turn-generation boundary
// speaking JSON.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Client for the boundary at endpoint. endpoint must be
// non-empty.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("convo: endpoint must not be empty")
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

// turnRequest is the boundary's request body.
type turnRequest struct {
	ConversationHistory []types.Turn         `json:"conversationHistory"`
	SessionContext      types.SessionContext `json:"sessionContext"`
}

// turnResponse is the boundary's response body.
type turnResponse struct {
	Content             string   `json:"content"`
	IsComplete          bool     `json:"isComplete"`
	FollowUpSuggestions []string `json:"followUpSuggestions,omitempty"`
}

// NextTurn posts the history and session context and decodes the reply.
func (c *Client) NextTurn(ctx context.Context, history []types.Turn, sc types.SessionContext) (Reply, error) {
	body, err := json.Marshal(turnRequest{
		ConversationHistory: history,
		SessionContext:      sc,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("convo: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("convo: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrTurnGeneration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, fmt.Errorf("%w: boundary returned HTTP %d", ErrTurnGeneration, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: read response body: %v", ErrTurnGeneration, err)
	}

	var tr turnResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return Reply{}, fmt.Errorf("%w: invalid JSON: %v", ErrTurnGeneration, err)
	}
	if tr.Content == "" && !tr.IsComplete {
		return Reply{}, fmt.Errorf("%w: empty content", ErrTurnGeneration)
	}

	return Reply{
		Content:             tr.Content,
		IsComplete:          tr.IsComplete,
		FollowUpSuggestions: tr.FollowUpSuggestions,
	}, nil
}
