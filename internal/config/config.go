// Package config provides the configuration schema and loader for the
// vocaprep interview client.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Difficulty selects the interviewer's question difficulty.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is a recognised difficulty.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Config is the root configuration structure for vocaprep.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Boundaries BoundariesConfig `yaml:"boundaries"`
	Audio      AudioConfig      `yaml:"audio"`
	Interview  InterviewConfig  `yaml:"interview"`
}

// ServerConfig holds logging and the local observability endpoint settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the health/metrics server listens on
	// (e.g., ":8080"). Empty disables the server.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// BoundariesConfig declares the four remote services the client talks to.
type BoundariesConfig struct {
	Transcription BoundaryConfig  `yaml:"transcription"`
	Turn          BoundaryConfig  `yaml:"turn"`
	Synthesis     SynthesisConfig `yaml:"synthesis"`
	Feedback      BoundaryConfig  `yaml:"feedback"`
}

// BoundaryConfig is the common configuration block shared by all boundaries.
type BoundaryConfig struct {
	// URL is the boundary endpoint (e.g., "https://api.example.com/transcribe").
	URL string `yaml:"url"`

	// Timeout bounds a single request to the boundary. Zero means the
	// client's built-in default.
	Timeout time.Duration `yaml:"timeout"`
}

// SynthesisConfig extends the boundary block with voice selection.
type SynthesisConfig struct {
	BoundaryConfig `yaml:",inline"`

	// Voice is the provider-specific voice identifier. Empty means the
	// boundary's default voice.
	Voice string `yaml:"voice"`
}

// AudioConfig holds capture tuning knobs.
type AudioConfig struct {
	// SilenceThreshold is the linear RMS level below which audio counts as
	// silence. Zero means the pipeline default (0.01).
	SilenceThreshold float64 `yaml:"silence_threshold"`

	// RecordingTimeout is the hard ceiling on a single recording. Zero means
	// the pipeline default (30s).
	RecordingTimeout time.Duration `yaml:"recording_timeout"`
}

// InterviewConfig describes the candidate and the interview to run.
type InterviewConfig struct {
	// UserID identifies the candidate's account for the feedback handoff.
	UserID string `yaml:"user_id"`

	// CandidateName is used in the interviewer's greeting.
	CandidateName string `yaml:"candidate_name"`

	// Role is the position being interviewed for (e.g., "Backend Engineer").
	Role string `yaml:"role"`

	// Difficulty selects the question difficulty.
	Difficulty Difficulty `yaml:"difficulty"`
}
