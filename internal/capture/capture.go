// Package capture owns the microphone side of a session: it consumes frames
// from an audio.Source, buffers them while a recording is active, and turns
// a finished recording into an encoded WAV payload ready for upload.
package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vocaprep/vocaprep/pkg/audio"
)

// ─── Errors ──────────────────────────────────────────────────────────────────

var (
	// ErrAudioSetup classifies failures to acquire the capture device. A
	// session cannot start without audio, so callers treat this as fatal.
	ErrAudioSetup = errors.New("capture: audio setup failed")

	// ErrNotRecording is returned by StopRecording when no recording is
	// active and no force-stopped result is pending.
	ErrNotRecording = errors.New("capture: not recording")

	// ErrAlreadyRecording is returned by StartRecording while a recording
	// is in progress.
	ErrAlreadyRecording = errors.New("capture: recording already in progress")

	// ErrClosed is returned once Cleanup has released the engine.
	ErrClosed = errors.New("capture: engine closed")
)

// DefaultRecordingTimeout is the hard ceiling on a single recording. When it
// elapses the engine force-stops the recording on the caller's behalf.
const DefaultRecordingTimeout = 30 * time.Second

// ─── Result ──────────────────────────────────────────────────────────────────

// Result is the outcome of one recording.
type Result struct {
	// WAV is the trimmed, encoded recording. Nil when NoAudio is true.
	WAV []byte

	// NoAudio is true when the recording contained no frames at all or only
	// silence. Such recordings are discarded without an upload.
	NoAudio bool

	// Duration is the length of the raw (untrimmed) recording.
	Duration time.Duration

	// ForceStopped is true when the recording was ended by the timeout
	// rather than by the caller.
	ForceStopped bool
}

// ─── Options ─────────────────────────────────────────────────────────────────

// Option configures an Engine.
type Option func(*Engine)

// WithRecordingTimeout overrides the hard recording timeout.
func WithRecordingTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithSilenceThreshold overrides the RMS threshold used for speech detection.
func WithSilenceThreshold(th float64) Option {
	return func(e *Engine) {
		if th > 0 {
			e.threshold = th
		}
	}
}

// WithLogger overrides the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// ─── Engine ──────────────────────────────────────────────────────────────────

// Engine consumes frames from a single audio.Source for the lifetime of one
// session. Frames arriving while no recording is active are dropped.
type Engine struct {
	src       audio.Source
	timeout   time.Duration
	threshold float64
	log       *slog.Logger

	forced chan Result

	mu        sync.Mutex
	recording bool
	gen       uint64
	buf       [][]float32
	timer     *time.Timer
	spoke     bool
	closed    bool
}

// New acquires a Source via open and starts consuming its frames. An open
// failure is classified as ErrAudioSetup.
func New(open func() (audio.Source, error), opts ...Option) (*Engine, error) {
	src, err := open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioSetup, err)
	}

	e := &Engine{
		src:       src,
		timeout:   DefaultRecordingTimeout,
		threshold: audio.SilenceThreshold,
		log:       slog.Default(),
		forced:    make(chan Result, 1),
	}
	for _, opt := range opts {
		opt(e)
	}

	go e.consume()
	return e, nil
}

// consume drains the source's frame channel until it closes. Frames are
// buffered only while a recording is active.
func (e *Engine) consume() {
	for frame := range e.src.Frames() {
		e.mu.Lock()
		if e.recording {
			cp := make([]float32, len(frame.Samples))
			copy(cp, frame.Samples)
			e.buf = append(e.buf, cp)
			if !e.spoke && audio.RMS(frame.Samples) >= e.threshold {
				e.spoke = true
			}
		}
		e.mu.Unlock()
	}
}

// StartRecording clears the buffer and begins collecting frames. The
// recording force-stops after the configured timeout unless StopRecording is
// called first.
func (e *Engine) StartRecording() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.recording {
		return ErrAlreadyRecording
	}

	e.recording = true
	e.gen++
	e.buf = e.buf[:0]

	gen := e.gen
	e.timer = time.AfterFunc(e.timeout, func() { e.forceStop(gen) })
	return nil
}

// StopRecording ends the active recording and returns its Result. If the
// timeout force-stopped the recording first, the pending force-stop result is
// returned instead.
func (e *Engine) StopRecording() (Result, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Result{}, ErrClosed
	}
	if !e.recording {
		e.mu.Unlock()
		// The timeout may have beaten us to it.
		select {
		case res := <-e.forced:
			return res, nil
		default:
			return Result{}, ErrNotRecording
		}
	}

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	res := e.finishLocked(false)
	e.mu.Unlock()
	return res, nil
}

// forceStop is the timeout path. It finalizes the recording and delivers the
// result on the ForceStopped channel.
func (e *Engine) forceStop(gen uint64) {
	e.mu.Lock()
	if e.closed || !e.recording || e.gen != gen {
		e.mu.Unlock()
		return
	}
	res := e.finishLocked(true)
	e.mu.Unlock()

	e.log.Warn("recording hit hard timeout, force-stopping",
		"timeout", e.timeout, "duration", res.Duration)
	e.forced <- res
}

// finishLocked packages the buffered frames into a Result. Caller holds e.mu.
func (e *Engine) finishLocked(forced bool) Result {
	e.recording = false

	chunks := e.buf
	e.buf = nil

	var total int
	for _, c := range chunks {
		total += len(c)
	}
	res := Result{
		Duration:     time.Duration(total) * time.Second / audio.SampleRate,
		ForceStopped: forced,
	}

	if total == 0 {
		res.NoAudio = true
		return res
	}
	samples := audio.TrimLeadingSilence(chunks)
	if samples == nil {
		res.NoAudio = true
		return res
	}
	res.WAV = audio.EncodeWAV(samples, audio.SampleRate)
	return res
}

// ForceStopped delivers the Result of any recording ended by the hard
// timeout. The channel is buffered; at most one result is pending at a time.
func (e *Engine) ForceStopped() <-chan Result {
	return e.forced
}

// UserSpoke reports whether any frame of any recording in this session has
// crossed the speech threshold. The flag is one-way for the session.
func (e *Engine) UserSpoke() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spoke
}

// Recording reports whether a recording is currently active.
func (e *Engine) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}

// ResumeIfSuspended restarts a suspended source. A running source is left
// alone.
func (e *Engine) ResumeIfSuspended() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	src := e.src
	e.mu.Unlock()

	if !src.Suspended() {
		return nil
	}
	if err := src.Resume(); err != nil {
		return fmt.Errorf("capture: resume source: %w", err)
	}
	e.log.Info("capture source resumed after suspension")
	return nil
}

// Cleanup stops any in-flight recording and closes the source. It is
// idempotent and safe to call concurrently with an active recording.
func (e *Engine) Cleanup() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.recording = false
	e.buf = nil
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	if err := e.src.Close(); err != nil {
		return fmt.Errorf("capture: close source: %w", err)
	}
	return nil
}
