// Package mock provides a test double for the stt.Transcriber interface.
//
// Use Transcriber to script transcription results per call and to verify the
// WAV payloads the capture pipeline produced.
package mock

import (
	"context"
	"sync"

	"github.com/vocaprep/vocaprep/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context

	// WAV is a copy of the audio payload passed to Transcribe.
	WAV []byte
}

// Transcriber is a mock implementation of stt.Transcriber. Results are
// consumed in order; when the script runs out the zero Transcript is
// returned.
type Transcriber struct {
	mu sync.Mutex

	// Results is the sequence of transcripts returned by successive calls.
	Results []stt.Transcript

	// Err, if non-nil, is returned by every Transcribe call.
	Err error

	// Calls records every call to Transcribe in order.
	Calls []TranscribeCall
}

// Compile-time assertion that Transcriber implements stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// Transcribe records the call and returns the next scripted result or Err.
func (m *Transcriber) Transcribe(ctx context.Context, wav []byte) (stt.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(wav))
	copy(cp, wav)
	m.Calls = append(m.Calls, TranscribeCall{Ctx: ctx, WAV: cp})

	if m.Err != nil {
		return stt.Transcript{}, m.Err
	}
	if idx := len(m.Calls) - 1; idx < len(m.Results) {
		return m.Results[idx], nil
	}
	return stt.Transcript{}, nil
}
