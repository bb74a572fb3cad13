// Package session implements the interview session state machine: it owns
// the capture engine, the conversation transcript, and the per-turn pipeline
// from recording through transcription, turn generation, and speech playback.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/vocaprep/vocaprep/internal/capture"
	"github.com/vocaprep/vocaprep/internal/observe"
	"github.com/vocaprep/vocaprep/internal/playback"
	"github.com/vocaprep/vocaprep/internal/resilience"
	"github.com/vocaprep/vocaprep/pkg/audio"
	"github.com/vocaprep/vocaprep/pkg/provider/convo"
	"github.com/vocaprep/vocaprep/pkg/provider/feedback"
	"github.com/vocaprep/vocaprep/pkg/provider/stt"
	"github.com/vocaprep/vocaprep/pkg/types"
)

// ─── Errors ──────────────────────────────────────────────────────────────────

var (
	// ErrNotActive is returned by operations that require a started,
	// unfinished session.
	ErrNotActive = errors.New("session: not active")

	// ErrAlreadyStarted is returned by Start on a session past the Ready
	// state.
	ErrAlreadyStarted = errors.New("session: already started")

	// ErrNotReadyToRecord is returned by StartRecording when the session is
	// mid-turn and cannot accept a new recording yet.
	ErrNotReadyToRecord = errors.New("session: not ready to record")
)

// ─── States and phases ───────────────────────────────────────────────────────

// State is the session's outer lifecycle.
type State int

const (
	// StateReady is the initial state: constructed, audio not yet acquired.
	StateReady State = iota

	// StateActive is the live interview: capture is running and the turn
	// loop is in progress.
	StateActive

	// StateFinished is terminal: resources released, feedback handed off.
	StateFinished
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Phase is the position within the active turn loop. Exactly one phase holds
// at any time; the derived accessors on [Session] are projections of it.
type Phase int

const (
	// PhaseIdle holds outside the Active state.
	PhaseIdle Phase = iota

	// PhaseListening means the microphone is armed and no turn is in
	// flight.
	PhaseListening

	// PhaseRecording means the user is actively recording an answer.
	PhaseRecording

	// PhaseUploading means the recording is being uploaded for
	// transcription.
	PhaseUploading

	// PhaseThinking means the turn-generation boundary is producing the
	// interviewer's reply.
	PhaseThinking

	// PhaseSpeaking means synthesized speech is playing.
	PhaseSpeaking

	// PhaseWaitingForUser means the interviewer has finished a turn and the
	// session is waiting for the user to answer.
	PhaseWaitingForUser
)

// String returns the human-readable name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseListening:
		return "listening"
	case PhaseRecording:
		return "recording"
	case PhaseUploading:
		return "uploading"
	case PhaseThinking:
		return "thinking"
	case PhaseSpeaking:
		return "speaking"
	case PhaseWaitingForUser:
		return "waiting-for-user"
	default:
		return "unknown"
	}
}

// ─── User-visible notices ────────────────────────────────────────────────────

// Per-turn failure notices surfaced to the user. A failed turn never ends the
// session; it produces a notice and hands control back to the user.
const (
	noticeNoAudio       = "We didn't catch any audio. Please try answering again."
	noticeTranscription = "We couldn't process your answer. Please try again."
	noticeTurn          = "The interviewer is having trouble responding. Please try again in a moment."
	noticePlayback      = "We couldn't play the interviewer's response out loud."
)

// Speaker renders assistant text as audible speech.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Compile-time assertion that the playback engine satisfies Speaker.
var _ Speaker = (*playback.Player)(nil)

// ─── Options ─────────────────────────────────────────────────────────────────

// Option configures a Session.
type Option func(*Session)

// WithLogger overrides the session's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics overrides the metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithFeedback sets the feedback generator invoked once at session end.
func WithFeedback(g feedback.Generator) Option {
	return func(s *Session) { s.feedback = g }
}

// WithBreaker overrides the circuit breaker guarding the turn-generation
// boundary.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(s *Session) {
		if cb != nil {
			s.breaker = cb
		}
	}
}

// WithCaptureOptions forwards options to the capture engine acquired by
// Start.
func WithCaptureOptions(opts ...capture.Option) Option {
	return func(s *Session) { s.capOpts = opts }
}

// WithClock overrides the time source used for transcript timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// ─── Session ─────────────────────────────────────────────────────────────────

// Session is one interview from start to feedback handoff. All exported
// methods are safe for concurrent use.
type Session struct {
	id string
	sc types.SessionContext

	openSource  func() (audio.Source, error)
	transcriber stt.Transcriber
	turns       convo.Provider
	speaker     Speaker
	feedback    feedback.Generator
	breaker     *resilience.CircuitBreaker
	metrics     *observe.Metrics
	log         *slog.Logger
	now         func() time.Time
	capOpts     []capture.Option

	quit chan struct{}
	// feedbackDone is closed once the feedback handoff goroutine finishes.
	feedbackDone chan struct{}

	mu         sync.Mutex
	state      State
	phase      Phase
	capture    *capture.Engine
	transcript []types.Turn
	notice     string
	turnMu     sync.Mutex // serialises turn processing
}

// New creates a Session in the Ready state. openSource is invoked by Start
// to acquire the capture device.
func New(sc types.SessionContext, openSource func() (audio.Source, error), transcriber stt.Transcriber, turns convo.Provider, speaker Speaker, opts ...Option) *Session {
	s := &Session{
		id:           sc.SessionID,
		sc:           sc,
		openSource:   openSource,
		transcriber:  transcriber,
		turns:        turns,
		speaker:      speaker,
		log:          slog.Default(),
		now:          time.Now,
		quit:         make(chan struct{}),
		feedbackDone: make(chan struct{}),
	}
	if s.id == "" {
		s.id = uuid.NewString()
		s.sc.SessionID = s.id
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.breaker == nil {
		s.breaker = resilience.NewCircuitBreaker(resilience.BreakerConfig{
			Name: "turn-generation",
		})
	}
	s.log = s.log.With("session_id", s.id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start acquires the audio resources, plays the introductory utterance, and
// begins listening. Audio setup failures abort the start and leave the
// session in Ready.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.mu.Unlock()

	eng, err := capture.New(s.openSource, s.capOpts...)
	if err != nil {
		return fmt.Errorf("session: start: %w", err)
	}

	s.mu.Lock()
	s.capture = eng
	s.state = StateActive
	s.mu.Unlock()

	s.metrics.ActiveSessions.Add(ctx, 1)
	s.log.Info("session started",
		"candidate", s.sc.CandidateName,
		"role", s.sc.Role,
		"difficulty", s.sc.Difficulty,
	)

	// Turn zero: the templated greeting goes straight to playback, no
	// boundary round trip.
	intro := introGreeting(s.sc)
	s.appendTurn(types.RoleAssistant, intro)
	s.metrics.RecordTurn(ctx, string(types.RoleAssistant))
	s.setPhase(PhaseSpeaking)
	if err := s.speaker.Speak(ctx, intro); err != nil {
		// Playback fails open: the session proceeds to listening.
		s.log.Error("intro playback failed", "error", err)
	}
	s.setPhase(PhaseListening)

	go s.watchForceStops(ctx)
	return nil
}

// watchForceStops processes recordings ended by the hard recording timeout.
func (s *Session) watchForceStops(ctx context.Context) {
	eng := s.captureEngine()
	if eng == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case res := <-eng.ForceStopped():
			if err := s.processRecording(ctx, res); err != nil {
				s.log.Error("force-stopped turn failed", "error", err)
			}
		}
	}
}

func (s *Session) captureEngine() *capture.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture
}

// StartRecording arms a new recording. Valid only while listening or waiting
// for the user.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	if s.phase != PhaseListening && s.phase != PhaseWaitingForUser {
		phase := s.phase
		s.mu.Unlock()
		return fmt.Errorf("%w: phase %s", ErrNotReadyToRecord, phase)
	}
	s.phase = PhaseRecording
	s.notice = ""
	eng := s.capture
	s.mu.Unlock()

	if err := eng.StartRecording(); err != nil {
		s.setPhase(PhaseListening)
		return fmt.Errorf("session: start recording: %w", err)
	}
	return nil
}

// StopRecording ends the active recording and runs the full turn pipeline:
// trim, upload, transcribe, generate the interviewer's reply, and speak it.
// Per-turn boundary failures do not end the session.
func (s *Session) StopRecording(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	eng := s.capture
	s.mu.Unlock()

	res, err := eng.StopRecording()
	if errors.Is(err, capture.ErrNotRecording) {
		// The hard timeout won the race; the watcher owns this turn.
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: stop recording: %w", err)
	}
	return s.processRecording(ctx, res)
}

// processRecording drives one turn from a finished recording to the
// interviewer's spoken reply.
func (s *Session) processRecording(ctx context.Context, res capture.Result) error {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	turnIndex := len(s.transcript)
	s.mu.Unlock()

	ctx, span := observe.StartSpan(ctx, "session.turn")
	defer span.End()
	log := observe.Logger(ctx).With("session_id", s.id, "turn", turnIndex)

	s.metrics.RecordingDuration.Record(ctx, res.Duration.Seconds())
	if res.ForceStopped {
		log.Warn("recording was force-stopped by the hard timeout")
	}

	if res.NoAudio {
		s.metrics.DiscardedRecordings.Add(ctx, 1,
			metric.WithAttributes(observe.Attr("reason", "no_audio")))
		s.noteAndSetPhase(noticeNoAudio, PhaseListening)
		log.Info("recording discarded", "reason", "no audio")
		return nil
	}

	// Upload and transcribe.
	s.setPhase(PhaseUploading)
	start := s.now()
	transcript, err := s.transcriber.Transcribe(ctx, res.WAV)
	s.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordBoundaryError(ctx, "transcription")
		s.noteAndSetPhase(noticeTranscription, PhaseWaitingForUser)
		log.Error("transcription failed", "error", err)
		return fmt.Errorf("session: transcribe: %w", err)
	}
	s.metrics.RecordBoundaryRequest(ctx, "transcription", "ok")

	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		s.metrics.DiscardedRecordings.Add(ctx, 1,
			metric.WithAttributes(observe.Attr("reason", "empty_transcript")))
		s.noteAndSetPhase("", PhaseListening)
		log.Info("recording discarded", "reason", "empty transcript")
		return nil
	}

	s.appendTurn(types.RoleUser, text)
	s.metrics.RecordTurn(ctx, string(types.RoleUser))
	log.Info("user turn transcribed", "confidence", transcript.Confidence)

	// Generate the interviewer's reply.
	s.setPhase(PhaseThinking)
	history := s.Transcript()
	var reply convo.Reply
	start = s.now()
	err = s.breaker.Execute(func() error {
		var terr error
		reply, terr = s.turns.NextTurn(ctx, history, s.sc)
		return terr
	})
	s.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordBoundaryError(ctx, "turn")
		s.noteAndSetPhase(noticeTurn, PhaseWaitingForUser)
		log.Error("turn generation failed", "error", err)
		return fmt.Errorf("session: next turn: %w", err)
	}
	s.metrics.RecordBoundaryRequest(ctx, "turn", "ok")

	if reply.Content != "" {
		s.appendTurn(types.RoleAssistant, reply.Content)
		s.metrics.RecordTurn(ctx, string(types.RoleAssistant))

		s.setPhase(PhaseSpeaking)
		start = s.now()
		if err := s.speaker.Speak(ctx, reply.Content); err != nil {
			// The turn still counts as delivered; playback fails open.
			s.metrics.RecordBoundaryError(ctx, "synthesis")
			s.noteAndSetPhase(noticePlayback, PhaseWaitingForUser)
			log.Error("playback failed", "error", err)
			if reply.IsComplete {
				s.End()
			}
			return nil
		}
		s.metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds())
	}

	if reply.IsComplete {
		log.Info("interview complete")
		s.End()
		return nil
	}
	s.noteAndSetPhase("", PhaseWaitingForUser)
	return nil
}

// End finishes the session: audio resources are released unconditionally,
// even with a recording in flight, and the transcript is handed off for
// feedback generation exactly once. End is idempotent.
func (s *Session) End() {
	s.mu.Lock()
	if s.state == StateFinished {
		s.mu.Unlock()
		return
	}
	wasActive := s.state == StateActive
	s.state = StateFinished
	s.phase = PhaseIdle
	eng := s.capture
	s.capture = nil
	s.mu.Unlock()

	close(s.quit)

	if eng != nil {
		if err := eng.Cleanup(); err != nil {
			s.log.Error("releasing audio resources", "error", err)
		}
	}
	if wasActive {
		s.metrics.ActiveSessions.Add(context.Background(), -1)
	}

	transcript := s.Transcript()
	s.log.Info("session ended", "turns", len(transcript))

	// Fire-and-forget: feedback generation must not block teardown, and its
	// failure is logged, never surfaced.
	if s.feedback != nil && len(transcript) > 0 {
		go func() {
			defer close(s.feedbackDone)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			res, err := s.feedback.Generate(ctx, s.id, s.sc.UserID, transcript)
			if err != nil {
				s.log.Error("feedback handoff failed", "error", err)
				return
			}
			s.log.Info("feedback handoff complete",
				"success", res.Success, "feedback_id", res.FeedbackID)
		}()
	} else {
		close(s.feedbackDone)
	}
}

// ResumeIfSuspended restarts a suspended capture source, e.g. after the host
// application regains focus.
func (s *Session) ResumeIfSuspended() error {
	eng := s.captureEngine()
	if eng == nil {
		return ErrNotActive
	}
	return eng.ResumeIfSuspended()
}

// UserSpoke reports whether the user has produced over-threshold audio at
// any point in the session.
func (s *Session) UserSpoke() bool {
	eng := s.captureEngine()
	return eng != nil && eng.UserSpoke()
}

// ─── State accessors ─────────────────────────────────────────────────────────

// State returns the outer lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Phase returns the current turn-loop phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// IsRecording reports whether a recording is in progress.
func (s *Session) IsRecording() bool { return s.Phase() == PhaseRecording }

// IsProcessing reports whether a turn is mid-pipeline (uploading or waiting
// on the turn-generation boundary).
func (s *Session) IsProcessing() bool {
	p := s.Phase()
	return p == PhaseUploading || p == PhaseThinking
}

// IsSpeaking reports whether synthesized speech is playing.
func (s *Session) IsSpeaking() bool { return s.Phase() == PhaseSpeaking }

// IsWaitingForUser reports whether the interviewer has finished a turn and
// the session awaits the user's answer.
func (s *Session) IsWaitingForUser() bool { return s.Phase() == PhaseWaitingForUser }

// Notice returns the user-visible notice of the most recent failed or
// discarded turn, or the empty string.
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// Transcript returns a copy of the conversation so far, in strict
// chronological order.
func (s *Session) Transcript() []types.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// ─── Internals ───────────────────────────────────────────────────────────────

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	s.phase = p
}

func (s *Session) noteAndSetPhase(notice string, p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	s.notice = notice
	s.phase = p
}

func (s *Session) appendTurn(role types.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, types.Turn{
		Role:    role,
		Content: content,
		At:      s.now(),
	})
}

// introGreeting builds the turn-zero greeting from the session context.
func introGreeting(sc types.SessionContext) string {
	name := strings.TrimSpace(sc.CandidateName)
	if name == "" {
		name = "there"
	}
	role := strings.TrimSpace(sc.Role)
	if role == "" {
		return fmt.Sprintf("Hi %s, welcome to your mock interview. I'll ask you a series of questions and you can answer out loud. Whenever you're ready, start by introducing yourself.", name)
	}
	return fmt.Sprintf("Hi %s, welcome to your mock interview for the %s position. I'll ask you a series of questions and you can answer out loud. Whenever you're ready, start by introducing yourself.", name, role)
}
