// Package malgo provides audio.Source and audio.Sink implementations backed
// by the miniaudio library via github.com/gen2brain/malgo.
//
// The capture source opens the default (or named) input device at the
// pipeline's fixed mono 16 kHz float32 format with echo cancellation and
// noise suppression left to the OS audio stack, and re-frames the device
// callback data into fixed-size [audio.Frame] values delivered on a buffered
// channel. The device callback runs on miniaudio's realtime thread; it must
// never block, so full channels drop frames rather than stall the device.
package malgo

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/vocaprep/vocaprep/pkg/audio"
)

// frameChannelDepth is the capture channel buffer: ~16 s of audio at the
// pipeline frame size, enough to absorb a stalled consumer during a state
// transition without dropping frames.
const frameChannelDepth = 512

// CaptureSource implements audio.Source on top of a miniaudio capture device.
type CaptureSource struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	frames chan audio.Frame

	mu        sync.Mutex
	partial   []float32
	elapsed   time.Duration
	suspended bool
	closed    bool
}

// Compile-time assertion that CaptureSource implements audio.Source.
var _ audio.Source = (*CaptureSource)(nil)

// NewCaptureSource opens the default capture device at 16 kHz mono float32
// and starts frame delivery. Returns an error if the audio context cannot be
// constructed or the device cannot be opened — callers treat this as fatal to
// session start.
func NewCaptureSource() (*CaptureSource, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: init context: %w", err)
	}

	s := &CaptureSource{
		ctx:    mctx,
		frames: make(chan audio.Frame, frameChannelDepth),
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = audio.SampleRate

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, frameCount uint32) {
			s.onData(data, frameCount)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, cfg, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("malgo: init capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("malgo: start capture device: %w", err)
	}

	s.device = device
	return s, nil
}

// onData re-frames raw device data into fixed-size frames. Runs on the
// miniaudio realtime thread: no locks held across the channel send, and a
// full channel drops the frame instead of blocking.
func (s *CaptureSource) onData(data []byte, frameCount uint32) {
	s.mu.Lock()
	for i := uint32(0); i < frameCount; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		s.partial = append(s.partial, math.Float32frombits(bits))
	}
	var ready []audio.Frame
	for len(s.partial) >= audio.FrameSamples {
		frame := make([]float32, audio.FrameSamples)
		copy(frame, s.partial[:audio.FrameSamples])
		s.partial = s.partial[audio.FrameSamples:]
		ready = append(ready, audio.Frame{Samples: frame, Timestamp: s.elapsed})
		s.elapsed += time.Duration(audio.FrameSamples) * time.Second / audio.SampleRate
	}
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return
	}
	for _, f := range ready {
		select {
		case s.frames <- f:
		default:
			// Consumer stalled; drop rather than block the device thread.
		}
	}
}

// Frames returns the capture frame channel.
func (s *CaptureSource) Frames() <-chan audio.Frame { return s.frames }

// Suspend stops the device without releasing it. Frame delivery pauses until
// Resume.
func (s *CaptureSource) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.suspended {
		return nil
	}
	if err := s.device.Stop(); err != nil {
		return fmt.Errorf("malgo: stop capture device: %w", err)
	}
	s.suspended = true
	return nil
}

// Suspended reports whether the device is stopped.
func (s *CaptureSource) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

// Resume restarts a suspended device. A running source is a no-op.
func (s *CaptureSource) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("malgo: source closed")
	}
	if !s.suspended {
		return nil
	}
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("malgo: restart capture device: %w", err)
	}
	s.suspended = false
	return nil
}

// Close stops and releases the device and the audio context, then closes the
// frame channel. Safe to call more than once.
func (s *CaptureSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Uninit blocks until the data callback has drained, so the channel close
	// below cannot race a send.
	s.device.Uninit()
	err := s.ctx.Uninit()
	s.ctx.Free()
	close(s.frames)
	if err != nil {
		return fmt.Errorf("malgo: uninit context: %w", err)
	}
	return nil
}

// PlaybackSink implements audio.Sink on top of a miniaudio playback device.
// Each Play call opens a short-lived playback device, streams the PCM buffer
// through it, and tears the device down on every exit path.
type PlaybackSink struct {
	ctx *malgo.AllocatedContext

	mu     sync.Mutex
	closed bool
}

// Compile-time assertion that PlaybackSink implements audio.Sink.
var _ audio.Sink = (*PlaybackSink)(nil)

// NewPlaybackSink constructs a sink using a dedicated miniaudio context.
func NewPlaybackSink() (*PlaybackSink, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: init playback context: %w", err)
	}
	return &PlaybackSink{ctx: mctx}, nil
}

// Play renders pcm (16-bit signed little-endian mono at the pipeline sample
// rate) through the default output device. It blocks until the buffer has
// been consumed, ctx is cancelled, or the device fails.
func (p *PlaybackSink) Play(ctx context.Context, pcm []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("malgo: sink closed")
	}
	p.mu.Unlock()

	if len(pcm) == 0 {
		return nil
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = audio.SampleRate

	var (
		offset int
		once   sync.Once
		done   = make(chan struct{})
	)

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			want := int(frameCount) * 2
			n := copy(out, pcm[offset:])
			offset += n
			if n < want {
				// Buffer exhausted; remaining output stays zeroed (silence).
				once.Do(func() { close(done) })
			}
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, cfg, callbacks)
	if err != nil {
		return fmt.Errorf("malgo: init playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("malgo: start playback device: %w", err)
	}

	select {
	case <-done:
		// Give the device one buffer period to flush the tail before Uninit.
		time.Sleep(50 * time.Millisecond)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the playback context. Safe to call more than once.
func (p *PlaybackSink) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.ctx.Uninit()
	p.ctx.Free()
	if err != nil {
		return fmt.Errorf("malgo: uninit playback context: %w", err)
	}
	return nil
}
