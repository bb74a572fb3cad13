// Package playback turns assistant text into audible speech: it streams
// synthesized audio from the speech-synthesis boundary into an audio.Sink.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vocaprep/vocaprep/pkg/audio"
	"github.com/vocaprep/vocaprep/pkg/provider/tts"
)

// ErrPlayback classifies failures to render synthesized speech. Callers fail
// open: a turn whose audio could not play still counts as delivered and the
// session returns to listening.
var ErrPlayback = errors.New("playback: failed")

// Player renders synthesized speech through an audio sink.
type Player struct {
	synth tts.Provider
	sink  audio.Sink
	log   *slog.Logger
}

// Option configures a Player.
type Option func(*Player)

// WithLogger overrides the player's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPlayer creates a Player speaking through sink.
func NewPlayer(synth tts.Provider, sink audio.Sink, opts ...Option) *Player {
	p := &Player{
		synth: synth,
		sink:  sink,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Speak synthesizes text and plays it to completion. The synthesis stream is
// released on every exit path. Errors wrap ErrPlayback.
func (p *Player) Speak(ctx context.Context, text string) error {
	stream, err := p.synth.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: synthesize: %v", ErrPlayback, err)
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			p.log.Warn("closing synthesis stream", "error", cerr)
		}
	}()

	pcm, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("%w: read synthesis stream: %v", ErrPlayback, err)
	}
	if len(pcm) == 0 {
		return fmt.Errorf("%w: synthesis stream was empty", ErrPlayback)
	}

	if err := p.sink.Play(ctx, pcm); err != nil {
		return fmt.Errorf("%w: play: %v", ErrPlayback, err)
	}
	return nil
}

// Close releases the output device.
func (p *Player) Close() error {
	return p.sink.Close()
}
