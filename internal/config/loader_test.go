package config

import (
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
boundaries:
  transcription:
    url: https://api.example.com/transcribe
    timeout: 20s
  turn:
    url: https://api.example.com/turn
  synthesis:
    url: https://api.example.com/synthesize
    voice: alloy
  feedback:
    url: https://api.example.com/feedback
audio:
  silence_threshold: 0.01
  recording_timeout: 30s
interview:
  user_id: user-42
  candidate_name: Ada
  role: Backend Engineer
  difficulty: medium
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("log_level = %q", cfg.Server.LogLevel)
	}
	if cfg.Boundaries.Transcription.Timeout != 20*time.Second {
		t.Errorf("transcription timeout = %v", cfg.Boundaries.Transcription.Timeout)
	}
	if cfg.Boundaries.Synthesis.Voice != "alloy" {
		t.Errorf("synthesis voice = %q", cfg.Boundaries.Synthesis.Voice)
	}
	if cfg.Audio.RecordingTimeout != 30*time.Second {
		t.Errorf("recording_timeout = %v", cfg.Audio.RecordingTimeout)
	}
	if cfg.Interview.CandidateName != "Ada" {
		t.Errorf("candidate_name = %q", cfg.Interview.CandidateName)
	}
	if cfg.Interview.Difficulty != DifficultyMedium {
		t.Errorf("difficulty = %q", cfg.Interview.Difficulty)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	yaml := validYAML + "\nextra_field: true\n"
	if _, err := LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("unknown top-level field was accepted")
	}
}

func TestLoadFromReader_InvalidYAML(t *testing.T) {
	t.Parallel()

	if _, err := LoadFromReader(strings.NewReader("{{not yaml")); err == nil {
		t.Fatal("malformed yaml was accepted")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load("/does/not/exist.yml"); err == nil {
		t.Fatal("missing file was accepted")
	}
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Server: ServerConfig{LogLevel: "verbose"},
		Boundaries: BoundariesConfig{
			Transcription: BoundaryConfig{URL: "not-a-url"},
			// turn and synthesis URLs missing
		},
		Audio: AudioConfig{SilenceThreshold: 1.5},
		Interview: InterviewConfig{
			CandidateName: "",
			Difficulty:    "impossible",
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("invalid config passed validation")
	}
	for _, want := range []string{
		"server.log_level",
		"boundaries.transcription.url",
		"boundaries.turn.url is required",
		"boundaries.synthesis.url is required",
		"audio.silence_threshold",
		"interview.candidate_name is required",
		"interview.difficulty",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error missing %q:\n%v", want, err)
		}
	}
}

func TestValidate_FeedbackOptional(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Boundaries: BoundariesConfig{
			Transcription: BoundaryConfig{URL: "https://a.example.com/t"},
			Turn:          BoundaryConfig{URL: "https://a.example.com/turn"},
			Synthesis:     SynthesisConfig{BoundaryConfig: BoundaryConfig{URL: "https://a.example.com/s"}},
		},
		Interview: InterviewConfig{CandidateName: "Ada"},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("config without feedback boundary rejected: %v", err)
	}
}

func TestDifficultyIsValid(t *testing.T) {
	t.Parallel()

	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		if !d.IsValid() {
			t.Errorf("%q reported invalid", d)
		}
	}
	if Difficulty("brutal").IsValid() {
		t.Error("unknown difficulty reported valid")
	}
}

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()

	for _, l := range []LogLevel{LogDebug, LogInfo, LogWarn, LogError} {
		if !l.IsValid() {
			t.Errorf("%q reported invalid", l)
		}
	}
	if LogLevel("trace").IsValid() {
		t.Error("unknown log level reported valid")
	}
}
