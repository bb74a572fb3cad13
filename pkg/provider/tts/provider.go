// Package tts defines the Provider interface for the speech-synthesis
// boundary.
//
// The boundary accepts plain text and returns an audio byte stream playable
// by the client's audio sink. Synthesis errors are non-fatal to the session:
// the playback engine fails open back to listening.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"
	"io"
)

// ErrSynthesis marks a speech-synthesis boundary failure.
var ErrSynthesis = errors.New("speech-synthesis boundary unavailable")

// Provider is the abstraction over the speech-synthesis boundary.
type Provider interface {
	// Synthesize submits text and returns the synthesized audio as a byte
	// stream. The caller owns the stream and must close it on every exit
	// path. Returns an error wrapping [ErrSynthesis] on boundary failure.
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}
