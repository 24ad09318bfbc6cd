// Package metrics exposes Prometheus instrumentation for the session
// pipeline and transport.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the server.
type Metrics struct {
	// Inbound event metrics
	EventsReceived *prometheus.CounterVec
	EventsRejected prometheus.Counter

	// Transcription metrics
	ChunksTranscribed     prometheus.Counter
	ChunksSkipped         prometheus.Counter
	TranscriptionFailures prometheus.Counter
	TranscriptionDuration prometheus.Histogram

	// Finalization metrics
	FinalizationsCompleted prometheus.Counter
	FinalizationsFailed    prometheus.Counter

	// Transport and dispatch metrics
	ActiveConnections prometheus.Gauge
	ActiveRooms       prometheus.Gauge
	ActiveWorkers     prometheus.Gauge
}

// New creates and registers all metrics against the given registerer.
// Tests pass a fresh prometheus.NewRegistry to avoid double
// registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notulen_events_received_total",
			Help: "Inbound session events by type",
		}, []string{"type"}),
		EventsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "notulen_events_rejected_total",
			Help: "Inbound events rejected by validation",
		}),
		ChunksTranscribed: factory.NewCounter(prometheus.CounterOpts{
			Name: "notulen_chunks_transcribed_total",
			Help: "Audio chunks transcribed and persisted",
		}),
		ChunksSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "notulen_chunks_skipped_total",
			Help: "Audio chunks skipped because transcription returned no text",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "notulen_transcription_failures_total",
			Help: "Transcription gateway calls that failed",
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "notulen_transcription_duration_seconds",
			Help:    "Latency of transcription gateway calls",
			Buckets: prometheus.DefBuckets,
		}),
		FinalizationsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "notulen_finalizations_completed_total",
			Help: "Sessions finalized successfully",
		}),
		FinalizationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "notulen_finalizations_failed_total",
			Help: "Session finalizations that ended in ERROR",
		}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "notulen_active_connections",
			Help: "Open WebSocket connections",
		}),
		ActiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "notulen_active_rooms",
			Help: "Session rooms with at least one subscriber",
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "notulen_active_workers",
			Help: "Per-session dispatch workers currently alive",
		}),
	}
}
