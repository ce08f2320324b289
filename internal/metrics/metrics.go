// Package metrics exposes Prometheus instrumentation for the sign pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lsa"

// Metrics holds the pipeline collectors. A nil *Metrics is valid and records
// nothing, which keeps components usable without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	frames            prometheus.Counter
	frameErrors       *prometheus.CounterVec
	frameDuration     prometheus.Histogram
	detections        *prometheus.CounterVec
	fusions           prometheus.Counter
	emitted           prometheus.Counter
	suppressed        prometheus.Counter
	smoothingFailures prometheus.Counter
	sinkDropped       *prometheus.CounterVec
	grammarBonus      prometheus.Gauge
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames processed by the pipeline.",
		}),
		frameErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_errors_total",
			Help:      "Recovered per-frame failures by stage.",
		}, []string{"stage"}),
		frameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent processing a single frame.",
			Buckets:   []float64{.002, .005, .01, .02, .033, .05, .1, .25},
		}),
		detections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Detection results produced by the extractors.",
		}, []string{"kind"}),
		fusions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fusions_total",
			Help:      "Gesture/expression pairs fused.",
		}),
		emitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_emitted_total",
			Help:      "Smoothed results forwarded to sinks.",
		}),
		suppressed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_suppressed_total",
			Help:      "Smoothed results below the confidence gate.",
		}),
		smoothingFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "smoothing_failures_total",
			Help:      "Grammar smoothing failures that fell back to the raw result.",
		}),
		sinkDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_dropped_total",
			Help:      "Results dropped because a sink buffer was full.",
		}, []string{"sink"}),
		grammarBonus: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grammar_bonus",
			Help:      "Most recent grammar context bonus.",
		}),
	}
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// FrameProcessed records a processed frame and its duration.
func (m *Metrics) FrameProcessed(d time.Duration) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.frameDuration.Observe(d.Seconds())
}

// FrameError records a recovered failure in the given stage.
func (m *Metrics) FrameError(stage string) {
	if m == nil {
		return
	}
	m.frameErrors.WithLabelValues(stage).Inc()
}

// Detection records an extractor result of the given kind.
func (m *Metrics) Detection(kind string) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(kind).Inc()
}

// Fusion records a fused pair.
func (m *Metrics) Fusion() {
	if m == nil {
		return
	}
	m.fusions.Inc()
}

// Emitted records a result forwarded to sinks.
func (m *Metrics) Emitted() {
	if m == nil {
		return
	}
	m.emitted.Inc()
}

// Suppressed records a result held back by the confidence gate.
func (m *Metrics) Suppressed() {
	if m == nil {
		return
	}
	m.suppressed.Inc()
}

// SmoothingFailure records a smoothing fallback.
func (m *Metrics) SmoothingFailure() {
	if m == nil {
		return
	}
	m.smoothingFailures.Inc()
}

// SinkDropped records a result dropped for a slow sink.
func (m *Metrics) SinkDropped(sink string) {
	if m == nil {
		return
	}
	m.sinkDropped.WithLabelValues(sink).Inc()
}

// GrammarBonus records the latest context bonus.
func (m *Metrics) GrammarBonus(v float64) {
	if m == nil {
		return
	}
	m.grammarBonus.Set(v)
}
