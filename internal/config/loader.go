package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Boundaries
	errs = append(errs, validateBoundary("boundaries.transcription", cfg.Boundaries.Transcription, true)...)
	errs = append(errs, validateBoundary("boundaries.turn", cfg.Boundaries.Turn, true)...)
	errs = append(errs, validateBoundary("boundaries.synthesis", cfg.Boundaries.Synthesis.BoundaryConfig, true)...)
	errs = append(errs, validateBoundary("boundaries.feedback", cfg.Boundaries.Feedback, false)...)

	// Audio
	if th := cfg.Audio.SilenceThreshold; th < 0 || th >= 1 {
		errs = append(errs, fmt.Errorf("audio.silence_threshold %.3f is out of range [0, 1)", th))
	}
	if cfg.Audio.RecordingTimeout < 0 {
		errs = append(errs, fmt.Errorf("audio.recording_timeout must not be negative"))
	}

	// Interview
	if cfg.Interview.CandidateName == "" {
		errs = append(errs, errors.New("interview.candidate_name is required"))
	}
	if cfg.Interview.Difficulty != "" && !cfg.Interview.Difficulty.IsValid() {
		errs = append(errs, fmt.Errorf("interview.difficulty %q is invalid; valid values: easy, medium, hard", cfg.Interview.Difficulty))
	}

	return errors.Join(errs...)
}

// validateBoundary checks a single boundary block. required marks boundaries
// the session cannot run without.
func validateBoundary(prefix string, b BoundaryConfig, required bool) []error {
	var errs []error
	if b.URL == "" {
		if required {
			errs = append(errs, fmt.Errorf("%s.url is required", prefix))
		}
		return errs
	}
	u, err := url.Parse(b.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%s.url %q is not an absolute URL", prefix, b.URL))
	}
	if b.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s.timeout must not be negative", prefix))
	}
	return errs
}
