// Package mock provides a test double for the tts.Provider interface.
package mock

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/vocaprep/vocaprep/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context

	// Text is the text passed to Synthesize.
	Text string
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// Audio is the byte stream returned by every Synthesize call.
	Audio []byte

	// Err, if non-nil, is returned by every Synthesize call.
	Err error

	// Calls records every call to Synthesize in order.
	Calls []SynthesizeCall
}

// Compile-time assertion that Provider implements tts.Provider.
var _ tts.Provider = (*Provider)(nil)

// Synthesize records the call and returns a reader over Audio or Err.
func (m *Provider) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, SynthesizeCall{Ctx: ctx, Text: text})
	if m.Err != nil {
		return nil, m.Err
	}
	return io.NopCloser(bytes.NewReader(m.Audio)), nil
}

// Spoken returns the text of every recorded Synthesize call in order.
func (m *Provider) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		out[i] = c.Text
	}
	return out
}
