// Package observe provides application-wide observability primitives for
// vocaprep: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all vocaprep metrics.
const meterName = "github.com/vocaprep/vocaprep"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscriptionDuration tracks speech-to-text upload+transcription latency.
	TranscriptionDuration metric.Float64Histogram

	// TurnDuration tracks turn-generation boundary latency.
	TurnDuration metric.Float64Histogram

	// SynthesisDuration tracks speech-synthesis latency (synthesize + play).
	SynthesisDuration metric.Float64Histogram

	// RecordingDuration tracks the raw length of user recordings.
	RecordingDuration metric.Float64Histogram

	// --- Counters ---

	// BoundaryRequests counts boundary API calls. Use with attributes:
	//   attribute.String("boundary", ...), attribute.String("status", ...)
	BoundaryRequests metric.Int64Counter

	// Turns counts transcript turns by role.
	Turns metric.Int64Counter

	// DiscardedRecordings counts recordings dropped as empty or all-silence.
	DiscardedRecordings metric.Int64Counter

	// --- Error counters ---

	// BoundaryErrors counts boundary failures. Use with attribute:
	//   attribute.String("boundary", ...)
	BoundaryErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live interview sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// recordingBuckets covers user recordings up to the hard recording timeout.
var recordingBuckets = []float64{
	0.5, 1, 2, 5, 10, 15, 20, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscriptionDuration, err = m.Float64Histogram("vocaprep.transcription.duration",
		metric.WithDescription("Latency of recording upload and transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TurnDuration, err = m.Float64Histogram("vocaprep.turn.duration",
		metric.WithDescription("Latency of conversational turn generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisDuration, err = m.Float64Histogram("vocaprep.synthesis.duration",
		metric.WithDescription("Latency of speech synthesis and playback."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RecordingDuration, err = m.Float64Histogram("vocaprep.recording.duration",
		metric.WithDescription("Raw length of user recordings."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(recordingBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.BoundaryRequests, err = m.Int64Counter("vocaprep.boundary.requests",
		metric.WithDescription("Total boundary API requests by boundary and status."),
	); err != nil {
		return nil, err
	}
	if met.Turns, err = m.Int64Counter("vocaprep.session.turns",
		metric.WithDescription("Total transcript turns by role."),
	); err != nil {
		return nil, err
	}
	if met.DiscardedRecordings, err = m.Int64Counter("vocaprep.recordings.discarded",
		metric.WithDescription("Recordings discarded as empty or all-silence."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.BoundaryErrors, err = m.Int64Counter("vocaprep.boundary.errors",
		metric.WithDescription("Total boundary failures by boundary."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("vocaprep.active_sessions",
		metric.WithDescription("Number of live interview sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("vocaprep.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordBoundaryRequest records a boundary request counter increment with the
// standard attribute set.
func (m *Metrics) RecordBoundaryRequest(ctx context.Context, boundary, status string) {
	m.BoundaryRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("boundary", boundary),
			attribute.String("status", status),
		),
	)
}

// RecordBoundaryError records a boundary error counter increment.
func (m *Metrics) RecordBoundaryError(ctx context.Context, boundary string) {
	m.BoundaryErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("boundary", boundary)),
	)
}

// RecordTurn records a transcript turn counter increment by role.
func (m *Metrics) RecordTurn(ctx context.Context, role string) {
	m.Turns.Add(ctx, 1,
		metric.WithAttributes(attribute.String("role", role)),
	)
}
