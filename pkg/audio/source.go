package audio

import "context"

// Source is the capture boundary: an off-goroutine audio producer that
// delivers fixed-size PCM frames over a channel. Implementations wrap real
// hardware (audio/malgo) or scripted test input (audio/mock).
//
// A Source is exclusively owned by one capture engine per session; no two
// sessions may hold a live Source simultaneously.
type Source interface {
	// Frames returns the channel on which captured frames are delivered.
	// The channel is closed when the source is closed. The returned channel
	// is the same value for the lifetime of the source.
	Frames() <-chan Frame

	// Suspended reports whether frame delivery is currently paused — the
	// hardware analogue of a browser tab losing focus and suspending its
	// audio context.
	Suspended() bool

	// Resume restarts frame delivery after a suspension. Calling Resume on a
	// running source is a no-op. Returns an error if the underlying device
	// cannot be restarted.
	Resume() error

	// Close stops capture, detaches the frame listener, and releases the
	// device. The Frames channel is closed. Calling Close more than once is
	// safe and returns nil.
	Close() error
}

// Sink is the playback boundary: it renders synthesized speech audio.
// Play blocks until playback completes, ctx is cancelled, or an error occurs.
// Implementations must release any transient decode state on every exit path.
type Sink interface {
	Play(ctx context.Context, pcm []byte) error

	// Close releases the output device. Safe to call more than once.
	Close() error
}
