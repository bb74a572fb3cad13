package playback

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	audiomock "github.com/vocaprep/vocaprep/pkg/audio/mock"
	ttsmock "github.com/vocaprep/vocaprep/pkg/provider/tts/mock"
)

// closeTracker wraps a reader and records whether Close was called.
type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

// trackingSynth returns a fresh closeTracker stream per call.
type trackingSynth struct {
	stream *closeTracker
	err    error
}

func (s *trackingSynth) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stream, nil
}

func TestSpeak_RendersSynthesizedAudio(t *testing.T) {
	t.Parallel()

	synth := &ttsmock.Provider{Audio: []byte{0x01, 0x02, 0x03, 0x04}}
	sink := &audiomock.Sink{}
	p := NewPlayer(synth, sink)

	if err := p.Speak(context.Background(), "Hello there"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	spoken := synth.Spoken()
	if len(spoken) != 1 || spoken[0] != "Hello there" {
		t.Fatalf("synthesized texts = %v", spoken)
	}
	played := sink.Played()
	if len(played) != 1 {
		t.Fatalf("sink received %d Play calls, want 1", len(played))
	}
	if !bytes.Equal(played[0].PCM, synth.Audio) {
		t.Fatalf("sink played %v, want %v", played[0].PCM, synth.Audio)
	}
}

func TestSpeak_SynthesisFailure(t *testing.T) {
	t.Parallel()

	synth := &ttsmock.Provider{Err: errors.New("boundary down")}
	sink := &audiomock.Sink{}
	p := NewPlayer(synth, sink)

	err := p.Speak(context.Background(), "hi")
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("Speak error = %v, want ErrPlayback", err)
	}
	if len(sink.Played()) != 0 {
		t.Fatal("sink played audio despite synthesis failure")
	}
}

func TestSpeak_EmptyStream(t *testing.T) {
	t.Parallel()

	synth := &ttsmock.Provider{}
	sink := &audiomock.Sink{}
	p := NewPlayer(synth, sink)

	err := p.Speak(context.Background(), "hi")
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("Speak error = %v, want ErrPlayback", err)
	}
	if len(sink.Played()) != 0 {
		t.Fatal("sink played an empty stream")
	}
}

func TestSpeak_ClosesStreamOnEveryPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		audio   []byte
		playErr error
		wantErr bool
	}{
		{name: "success", audio: []byte{1, 2, 3}},
		{name: "empty stream", audio: nil, wantErr: true},
		{name: "play failure", audio: []byte{1, 2, 3}, playErr: errors.New("device gone"), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			stream := &closeTracker{Reader: bytes.NewReader(tc.audio)}
			synth := &trackingSynth{stream: stream}
			sink := &audiomock.Sink{PlayErr: tc.playErr}
			p := NewPlayer(synth, sink)

			err := p.Speak(context.Background(), "hi")
			if tc.wantErr && !errors.Is(err, ErrPlayback) {
				t.Fatalf("Speak error = %v, want ErrPlayback", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Speak: %v", err)
			}
			if !stream.closed {
				t.Fatal("synthesis stream was not closed")
			}
		})
	}
}

func TestSpeak_PlayFailureWrapsErrPlayback(t *testing.T) {
	t.Parallel()

	synth := &ttsmock.Provider{Audio: []byte{1}}
	sink := &audiomock.Sink{PlayErr: errors.New("underrun")}
	p := NewPlayer(synth, sink)

	if err := p.Speak(context.Background(), "hi"); !errors.Is(err, ErrPlayback) {
		t.Fatalf("Speak error = %v, want ErrPlayback", err)
	}
}
