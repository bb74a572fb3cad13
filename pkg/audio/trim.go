package audio

import "math"

const (
	// TrimWindowSamples is the silence-detection window length: 200 ms at
	// [SampleRate].
	TrimWindowSamples = SampleRate / 5

	// TrimStrideSamples is the slide distance between successive windows,
	// 25 % of the window length.
	TrimStrideSamples = TrimWindowSamples / 4

	// SilenceThreshold is the linear RMS level below which a window is
	// considered silent (~-40 dBFS).
	SilenceThreshold = 0.01
)

// RMS returns the root-mean-square energy of samples, in the same linear
// [0, 1] scale as the sample values. Returns 0 for an empty slice.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// SpeechOnset returns the sample index of the first 200 ms window whose RMS
// exceeds [SilenceThreshold], scanning with a 25 %-window stride. Returns -1
// when every window is sub-threshold.
//
// Inputs shorter than one window are evaluated as a single window covering
// the whole array, so a short but loud recording is not misclassified as
// silence.
func SpeechOnset(samples []float32) int {
	if len(samples) == 0 {
		return -1
	}
	if len(samples) < TrimWindowSamples {
		if RMS(samples) > SilenceThreshold {
			return 0
		}
		return -1
	}
	for start := 0; start+TrimWindowSamples <= len(samples); start += TrimStrideSamples {
		if RMS(samples[start:start+TrimWindowSamples]) > SilenceThreshold {
			return start
		}
	}
	return -1
}

// TrimLeadingSilence removes everything before the first window of detected
// speech from an ordered sequence of sample chunks and returns the remainder
// as one flat sample array.
//
// When no window exceeds the threshold the whole recording is silence and the
// result is nil — all-silence recordings are discarded, never forwarded to
// the transcription boundary.
func TrimLeadingSilence(chunks [][]float32) []float32 {
	samples := Concat(chunks)
	onset := SpeechOnset(samples)
	if onset < 0 {
		return nil
	}
	return samples[onset:]
}
