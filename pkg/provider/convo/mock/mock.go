// Package mock provides a test double for the convo.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/vocaprep/vocaprep/pkg/provider/convo"
	"github.com/vocaprep/vocaprep/pkg/types"
)

// NextTurnCall records a single invocation of NextTurn.
type NextTurnCall struct {
	// Ctx is the context passed to NextTurn.
	Ctx context.Context

	// History is a copy of the conversation history passed to NextTurn.
	History []types.Turn

	// SessionContext is the session context passed to NextTurn.
	SessionContext types.SessionContext
}

// Provider is a mock implementation of convo.Provider. Replies are consumed
// in order; when the script runs out the zero Reply is returned.
type Provider struct {
	mu sync.Mutex

	// Replies is the sequence of replies returned by successive calls.
	Replies []convo.Reply

	// Err, if non-nil, is returned by every NextTurn call.
	Err error

	// Calls records every call to NextTurn in order.
	Calls []NextTurnCall
}

// Compile-time assertion that Provider implements convo.Provider.
var _ convo.Provider = (*Provider)(nil)

// NextTurn records the call and returns the next scripted reply or Err.
func (m *Provider) NextTurn(ctx context.Context, history []types.Turn, sc types.SessionContext) (convo.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]types.Turn, len(history))
	copy(cp, history)
	m.Calls = append(m.Calls, NextTurnCall{Ctx: ctx, History: cp, SessionContext: sc})

	if m.Err != nil {
		return convo.Reply{}, m.Err
	}
	if idx := len(m.Calls) - 1; idx < len(m.Replies) {
		return m.Replies[idx], nil
	}
	return convo.Reply{}, nil
}
