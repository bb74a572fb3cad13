// Command vocaprep runs a voice mock-interview session from the terminal:
// push-to-talk recording, remote transcription and turn generation, and
// spoken interviewer replies.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vocaprep/vocaprep/internal/capture"
	"github.com/vocaprep/vocaprep/internal/config"
	"github.com/vocaprep/vocaprep/internal/health"
	"github.com/vocaprep/vocaprep/internal/observe"
	"github.com/vocaprep/vocaprep/internal/playback"
	"github.com/vocaprep/vocaprep/internal/session"
	"github.com/vocaprep/vocaprep/pkg/audio"
	malgoaudio "github.com/vocaprep/vocaprep/pkg/audio/malgo"
	"github.com/vocaprep/vocaprep/pkg/provider/convo"
	"github.com/vocaprep/vocaprep/pkg/provider/feedback"
	"github.com/vocaprep/vocaprep/pkg/provider/stt"
	"github.com/vocaprep/vocaprep/pkg/provider/tts"
	"github.com/vocaprep/vocaprep/pkg/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vocaprep: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "vocaprep: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("vocaprep starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "vocaprep",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Session wiring ────────────────────────────────────────────────────────
	s, err := buildSession(cfg)
	if err != nil {
		slog.Error("failed to build session", "err", err)
		return 1
	}

	// ── Run: interview loop + observability server ────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Server.ListenAddr != "" {
		srv := observabilityServer(cfg)
		g.Go(func() error {
			slog.Info("observability server listening", "addr", cfg.Server.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer stop()
		return runInterview(gctx, s)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildSession constructs the boundary clients and the session from cfg.
func buildSession(cfg *config.Config) (*session.Session, error) {
	transcriber, err := stt.NewClient(cfg.Boundaries.Transcription.URL,
		stt.WithHTTPClient(boundaryHTTPClient(cfg.Boundaries.Transcription.Timeout)))
	if err != nil {
		return nil, fmt.Errorf("transcription client: %w", err)
	}

	turns, err := convo.NewClient(cfg.Boundaries.Turn.URL,
		convo.WithHTTPClient(boundaryHTTPClient(cfg.Boundaries.Turn.Timeout)))
	if err != nil {
		return nil, fmt.Errorf("turn client: %w", err)
	}

	ttsOpts := []tts.Option{
		tts.WithHTTPClient(boundaryHTTPClient(cfg.Boundaries.Synthesis.Timeout)),
	}
	if cfg.Boundaries.Synthesis.Voice != "" {
		ttsOpts = append(ttsOpts, tts.WithVoice(cfg.Boundaries.Synthesis.Voice))
	}
	synth, err := tts.NewClient(cfg.Boundaries.Synthesis.URL, ttsOpts...)
	if err != nil {
		return nil, fmt.Errorf("synthesis client: %w", err)
	}

	sink, err := malgoaudio.NewPlaybackSink()
	if err != nil {
		return nil, fmt.Errorf("playback device: %w", err)
	}
	speaker := playback.NewPlayer(synth, sink)

	sc := types.SessionContext{
		UserID:        cfg.Interview.UserID,
		CandidateName: cfg.Interview.CandidateName,
		Role:          cfg.Interview.Role,
		Difficulty:    string(cfg.Interview.Difficulty),
	}

	var capOpts []capture.Option
	if cfg.Audio.SilenceThreshold > 0 {
		capOpts = append(capOpts, capture.WithSilenceThreshold(cfg.Audio.SilenceThreshold))
	}
	if cfg.Audio.RecordingTimeout > 0 {
		capOpts = append(capOpts, capture.WithRecordingTimeout(cfg.Audio.RecordingTimeout))
	}

	opts := []session.Option{session.WithCaptureOptions(capOpts...)}
	if cfg.Boundaries.Feedback.URL != "" {
		fb, err := feedback.NewClient(cfg.Boundaries.Feedback.URL,
			feedback.WithHTTPClient(boundaryHTTPClient(cfg.Boundaries.Feedback.Timeout)))
		if err != nil {
			return nil, fmt.Errorf("feedback client: %w", err)
		}
		opts = append(opts, session.WithFeedback(fb))
	}

	openSource := func() (audio.Source, error) { return malgoaudio.NewCaptureSource() }
	return session.New(sc, openSource, transcriber, turns, speaker, opts...), nil
}

// boundaryHTTPClient returns an HTTP client with the configured per-request
// timeout, falling back to 30s.
func boundaryHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// runInterview drives the push-to-talk loop over stdin until the interviewer
// finishes, the user quits, or ctx is cancelled.
func runInterview(ctx context.Context, s *session.Session) error {
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer s.End()

	fmt.Println()
	fmt.Println("Press Enter to start recording an answer, Enter again to stop.")
	fmt.Println("Type q and press Enter to finish the interview.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "q" {
				return nil
			}
			if s.IsRecording() {
				if err := s.StopRecording(ctx); err != nil {
					slog.Warn("turn failed", "err", err)
				}
				if notice := s.Notice(); notice != "" {
					fmt.Println(notice)
				}
				if s.State() == session.StateFinished {
					fmt.Println("Interview complete. Your feedback is on its way.")
					return nil
				}
				continue
			}
			if err := s.ResumeIfSuspended(); err != nil {
				slog.Warn("could not resume capture", "err", err)
			}
			if err := s.StartRecording(); err != nil {
				slog.Warn("cannot record right now", "err", err)
				continue
			}
			fmt.Println("Recording… press Enter to stop.")
		}
	}
}

// observabilityServer serves /healthz, /readyz, and /metrics.
func observabilityServer(cfg *config.Config) *http.Server {
	checkers := []health.Checker{
		health.Boundary("transcription", cfg.Boundaries.Transcription.URL, nil),
		health.Boundary("turn", cfg.Boundaries.Turn.URL, nil),
		health.Boundary("synthesis", cfg.Boundaries.Synthesis.URL, nil),
	}

	mux := http.NewServeMux()
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
