// Package types defines the shared types used across all vocaprep packages.
//
// These types form the lingua franca between the capture engine, the boundary
// clients, and the session state machine. They are intentionally minimal —
// each package defines its own domain types, but cross-cutting data structures
// live here to avoid circular imports.
package types

import "time"

// Role identifies the speaker of a conversation turn.
type Role string

const (
	// RoleUser marks a turn spoken by the interview candidate.
	RoleUser Role = "user"

	// RoleAssistant marks a turn spoken by the interviewer.
	RoleAssistant Role = "assistant"

	// RoleSystem marks an out-of-band instruction turn. System turns are part
	// of the transcript handed to feedback generation but are never spoken.
	RoleSystem Role = "system"
)

// IsValid reports whether r is a recognised role.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Turn is one utterance in the interview conversation. Turns are appended to
// the session transcript in strict chronological order and are never mutated
// after append.
type Turn struct {
	// Role identifies the speaker.
	Role Role `json:"role"`

	// Content is the utterance text.
	Content string `json:"content"`

	// At marks when the turn was committed to the transcript.
	At time.Time `json:"at,omitempty"`
}

// SessionContext carries the interview parameters forwarded to the
// turn-generation boundary with every request. The boundary uses it to keep
// questions on-topic for the configured role and difficulty.
type SessionContext struct {
	// SessionID is the unique identifier of this interview session.
	SessionID string `json:"sessionId"`

	// UserID identifies the candidate's account.
	UserID string `json:"userId"`

	// CandidateName is the candidate's display name, used in the spoken
	// introduction.
	CandidateName string `json:"candidateName"`

	// Role is the position being interviewed for (e.g., "backend engineer").
	Role string `json:"role"`

	// Difficulty is the interview difficulty level (e.g., "junior", "senior").
	Difficulty string `json:"difficulty"`
}
