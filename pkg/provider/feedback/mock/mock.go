// Package mock provides a test double for the feedback.Generator interface.
package mock

import (
	"context"
	"sync"

	"github.com/vocaprep/vocaprep/pkg/provider/feedback"
	"github.com/vocaprep/vocaprep/pkg/types"
)

// GenerateCall records a single invocation of Generate.
type GenerateCall struct {
	// Ctx is the context passed to Generate.
	Ctx context.Context

	// SessionID and UserID identify the session being handed off.
	SessionID string
	UserID    string

	// Transcript is a copy of the transcript passed to Generate.
	Transcript []types.Turn
}

// Generator is a mock implementation of feedback.Generator.
type Generator struct {
	mu sync.Mutex

	// Result is returned by every Generate call.
	Result feedback.Result

	// Err, if non-nil, is returned by every Generate call.
	Err error

	// Calls records every call to Generate in order.
	Calls []GenerateCall
}

// Compile-time assertion that Generator implements feedback.Generator.
var _ feedback.Generator = (*Generator)(nil)

// Generate records the call and returns Result or Err.
func (m *Generator) Generate(ctx context.Context, sessionID, userID string, transcript []types.Turn) (feedback.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]types.Turn, len(transcript))
	copy(cp, transcript)
	m.Calls = append(m.Calls, GenerateCall{Ctx: ctx, SessionID: sessionID, UserID: userID, Transcript: cp})

	if m.Err != nil {
		return feedback.Result{}, m.Err
	}
	return m.Result, nil
}

// CallCount returns the number of recorded Generate calls.
func (m *Generator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
