package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the console.
type Metrics struct {
	SessionActive   prometheus.Gauge
	SessionEvents   *prometheus.CounterVec
	FramesStreamed  prometheus.Counter
	ChunksScheduled prometheus.Counter
	PlaybackFlushes prometheus.Counter
	CommandsRouted  *prometheus.CounterVec
	ConsoleClients  *prometheus.GaugeVec
	SessionDuration prometheus.Histogram
}

// NewMetrics registers the instruments on reg, or on the default
// registry when reg is nil.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		SessionActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "Whether a live voice session is currently open (0 or 1).",
		}),
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		FramesStreamed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_frames_total",
			Help:      "Microphone frames streamed to the model.",
		}),
		ChunksScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_chunks_total",
			Help:      "Audio chunks scheduled for playback.",
		}),
		PlaybackFlushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_flushes_total",
			Help:      "Playback flushes caused by interruptions.",
		}),
		CommandsRouted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_routed_total",
			Help:      "System commands routed by name.",
		}, []string{"command"}),
		ConsoleClients: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "console_clients",
			Help:      "Connected console websocket clients by stream.",
		}, []string{"stream"}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of completed voice sessions in seconds.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		}),
	}
}

// ObserveSessionDuration records how long a completed session lasted.
func (m *Metrics) ObserveSessionDuration(d time.Duration) {
	m.SessionDuration.Observe(d.Seconds())
}

// MetricsHandler returns the HTTP handler serving the default registry
// in the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
