// Package audio defines the frame types, silence-trimming algorithm, and WAV
// encoder for the vocaprep capture pipeline, together with the [Source] and
// [Sink] interfaces that decouple the pipeline from real audio hardware.
//
// The pipeline operates on mono float32 PCM at a fixed 16 kHz sample rate.
// Frames are produced off the session goroutine by a capture backend (see
// audio/malgo) and delivered over a channel — the Go rendition of an audio
// worklet's message port. Everything downstream of the channel is plain
// deterministic code and is tested without a device via audio/mock.
package audio

import "time"

const (
	// SampleRate is the fixed sample rate of the capture pipeline in Hz.
	// Speech-to-text boundaries expect 16 kHz mono; the capture backend is
	// responsible for delivering frames at this rate.
	SampleRate = 16000

	// FrameSamples is the number of samples in one capture frame (32 ms at
	// 16 kHz). The capture backend must emit frames of exactly this size.
	FrameSamples = 512

	// EncodeBlockSamples is the block size used when re-chunking trimmed audio
	// for WAV encoding. Purely a uniform-handling convention; it has no
	// semantic effect on the encoded output.
	EncodeBlockSamples = 4096
)

// Frame is a fixed-size buffer of mono float32 PCM samples produced by a
// capture [Source]. Frames are immutable once emitted: the capture backend
// must not reuse the Samples slice after sending the frame.
type Frame struct {
	// Samples holds FrameSamples float32 values in [-1, 1].
	Samples []float32

	// Timestamp marks when the frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Duration returns the wall-clock length of the frame at [SampleRate].
func (f Frame) Duration() time.Duration {
	return time.Duration(len(f.Samples)) * time.Second / SampleRate
}

// Concat flattens an ordered sequence of sample chunks into a single sample
// array. Returns nil for empty input.
func Concat(chunks [][]float32) []float32 {
	var n int
	for _, c := range chunks {
		n += len(c)
	}
	if n == 0 {
		return nil
	}
	out := make([]float32, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// Rechunk splits samples into blocks of at most size samples. The final block
// may be shorter. Returns nil for empty input or non-positive size.
func Rechunk(samples []float32, size int) [][]float32 {
	if len(samples) == 0 || size <= 0 {
		return nil
	}
	out := make([][]float32, 0, (len(samples)+size-1)/size)
	for start := 0; start < len(samples); start += size {
		end := start + size
		if end > len(samples) {
			end = len(samples)
		}
		out = append(out, samples[start:end])
	}
	return out
}
