// Package convo defines the Provider interface for the turn-generation
// boundary — the service that produces the interviewer's next utterance from
// the conversation so far.
//
// History ownership stays with the session: the boundary receives a snapshot
// of the transcript and the session context, and returns a single reply. The
// session appends turns; providers never mutate history.
//
// Implementations must be safe for concurrent use.
package convo

import (
	"context"
	"errors"

	"github.com/vocaprep/vocaprep/pkg/types"
)

// ErrTurnGeneration marks a turn-generation boundary failure. Non-fatal to
// the session: history is left untouched and the session returns to
// listening.
var ErrTurnGeneration = errors.New("turn-generation boundary unavailable")

// Reply is the boundary's answer to a [Provider.NextTurn] call.
type Reply struct {
	// Content is the interviewer's next utterance.
	Content string

	// IsComplete reports that the interview has reached its natural end; the
	// session plays Content one last time and then finishes.
	IsComplete bool

	// FollowUpSuggestions are optional prompts the UI may surface to the
	// candidate. May be nil.
	FollowUpSuggestions []string
}

// Provider is the abstraction over the turn-generation boundary.
type Provider interface {
	// NextTurn submits the conversation history and session context and
	// returns the interviewer's next utterance. history must already contain
	// the candidate's latest turn. Returns an error wrapping
	// [ErrTurnGeneration] on boundary failure.
	NextTurn(ctx context.Context, history []types.Turn, sc types.SessionContext) (Reply, error)
}
