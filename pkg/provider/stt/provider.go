// Package stt defines the Transcriber interface for the speech-to-text
// boundary and its HTTP implementation.
//
// The boundary is a batch service: one WAV-encoded recording in, one
// transcript out. Transport failures are retried with bounded exponential
// backoff; a success response that violates the contract (missing text field)
// is a hard failure so that upstream breakage never silently drops a turn.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"
)

// ErrTranscription marks a transport-level boundary failure that survived the
// full retry budget. Non-fatal to the session: the turn is dropped and the
// session returns to listening.
var ErrTranscription = errors.New("transcription boundary unavailable")

// ErrMalformedResponse marks a success response whose text field is absent.
// Deliberately a hard failure, distinct from [ErrTranscription], so operators
// can detect upstream contract breakage instead of losing turns silently.
var ErrMalformedResponse = errors.New("transcription response missing text field")

// Transcript is the result of a successful transcription call.
type Transcript struct {
	// Text is the transcribed speech. May be empty: an empty-but-present
	// transcript is the boundary's way of saying "no speech recognised" and
	// is not an error — callers skip the turn and return to listening.
	Text string

	// Confidence is the boundary's overall confidence score (0.0–1.0).
	// Zero when the boundary does not report confidence.
	Confidence float64
}

// Transcriber is the abstraction over the speech-to-text boundary.
type Transcriber interface {
	// Transcribe submits a complete WAV recording and returns its transcript.
	// Returns an error wrapping [ErrTranscription] after exhausted retries,
	// or [ErrMalformedResponse] on a contract violation.
	Transcribe(ctx context.Context, wav []byte) (Transcript, error)
}
