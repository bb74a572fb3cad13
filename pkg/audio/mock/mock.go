// Package mock provides test doubles for the audio.Source and audio.Sink
// interfaces.
//
// Use Source to feed scripted PCM frames into the capture engine without a
// real device, and Sink to verify what the playback engine renders.
//
// Example:
//
//	src := mock.NewSource()
//	src.EmitSamples(someFloat32s)
//	engine := capture.New(src)
package mock

import (
	"context"
	"sync"

	"github.com/vocaprep/vocaprep/pkg/audio"
)

// Source is a mock implementation of audio.Source driven by the test.
type Source struct {
	mu        sync.Mutex
	frames    chan audio.Frame
	suspended bool
	closed    bool

	// ResumeErr, if non-nil, is returned by Resume.
	ResumeErr error

	// ResumeCalls counts invocations of Resume.
	ResumeCalls int

	// CloseCalls counts invocations of Close.
	CloseCalls int
}

// Compile-time assertion that Source implements audio.Source.
var _ audio.Source = (*Source)(nil)

// NewSource creates a Source with a buffered frame channel deep enough for
// scripted recordings (up to ~60 s of audio at the pipeline frame size).
func NewSource() *Source {
	return &Source{frames: make(chan audio.Frame, 2048)}
}

// Emit delivers a single frame to the consumer. Emit after Close panics, same
// as a real send on a closed channel would — tests must not script that.
func (s *Source) Emit(f audio.Frame) {
	s.frames <- f
}

// EmitSamples splits samples into pipeline-sized frames and delivers them in
// order. A final short frame is padded with zeros to the fixed frame size.
func (s *Source) EmitSamples(samples []float32) {
	for start := 0; start < len(samples); start += audio.FrameSamples {
		end := start + audio.FrameSamples
		frame := make([]float32, audio.FrameSamples)
		if end > len(samples) {
			end = len(samples)
		}
		copy(frame, samples[start:end])
		s.Emit(audio.Frame{Samples: frame})
	}
}

// Frames returns the scripted frame channel.
func (s *Source) Frames() <-chan audio.Frame { return s.frames }

// Suspend pauses the source, mimicking a backgrounded audio context.
func (s *Source) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = true
}

// Suspended reports whether the source is paused.
func (s *Source) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

// Resume records the call, clears the suspended flag, and returns ResumeErr.
func (s *Source) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResumeCalls++
	if s.ResumeErr != nil {
		return s.ResumeErr
	}
	s.suspended = false
	return nil
}

// Close records the call and closes the frame channel exactly once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.frames)
	return nil
}

// PlayCall records a single invocation of Sink.Play.
type PlayCall struct {
	// Ctx is the context passed to Play.
	Ctx context.Context

	// PCM is a copy of the audio bytes passed to Play.
	PCM []byte
}

// Sink is a mock implementation of audio.Sink.
type Sink struct {
	mu sync.Mutex

	// PlayErr, if non-nil, is returned by every Play call.
	PlayErr error

	// PlayCalls records every call to Play in order.
	PlayCalls []PlayCall

	// CloseCalls counts invocations of Close.
	CloseCalls int
}

// Compile-time assertion that Sink implements audio.Sink.
var _ audio.Sink = (*Sink)(nil)

// Play records the call and returns PlayErr.
func (s *Sink) Play(ctx context.Context, pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	s.PlayCalls = append(s.PlayCalls, PlayCall{Ctx: ctx, PCM: cp})
	return s.PlayErr
}

// Close records the call.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	return nil
}

// Played returns a snapshot of the recorded Play calls.
func (s *Sink) Played() []PlayCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlayCall, len(s.PlayCalls))
	copy(out, s.PlayCalls)
	return out
}
