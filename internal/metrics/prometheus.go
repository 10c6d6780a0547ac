// Package metrics exposes the pipeline's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
)

// Manager owns every instrument. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	framesAnalyzed   *prometheus.CounterVec
	detections       *prometheus.CounterVec
	smoothingBoosts  prometheus.Counter
	detectorErrors   *prometheus.CounterVec
	imageLatency     prometheus.Histogram
	videoLatency     prometheus.Histogram
	videoTruncations *prometheus.CounterVec
	webhookDelivery  *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

type Option func(*Manager)

// WithRegistry registers instruments on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = reg }
}

func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

func WithHistogramBuckets(b []float64) Option {
	return func(m *Manager) { m.histogramBuckets = b }
}

// NewManager creates the instruments on a private registry that also
// carries the Go runtime and process collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "neotriage",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesAnalyzed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "frames_analyzed_total",
		Help:      "Frames and images assessed, by final usability",
	}, []string{"usability"})

	m.detections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "detections_total",
		Help:      "Fused face detection outcomes",
	}, []string{"status"})

	m.smoothingBoosts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "smoothing_boosts_total",
		Help:      "Frames whose score was raised by adjacent-frame smoothing",
	})

	m.detectorErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "detector_errors_total",
		Help:      "Detector calls that failed and were treated as no detection",
	}, []string{"detector"})

	m.imageLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "image_analysis_seconds",
		Help:      "Single image analysis latency",
		Buckets:   m.histogramBuckets,
	})

	m.videoLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "video_analysis_seconds",
		Help:      "Whole video analysis latency",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	m.videoTruncations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "video_truncations_total",
		Help:      "Videos whose extraction stopped early",
	}, []string{"reason"})

	m.webhookDelivery = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "webhook_deliveries_total",
		Help:      "Webhook delivery attempts by outcome",
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})
}

// Registry is the gatherer backing Handler.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) ObserveFrame(u domain.Usability) {
	if m == nil {
		return
	}
	m.framesAnalyzed.WithLabelValues(string(u)).Inc()
}

func (m *Manager) ObserveDetection(s domain.DetectionStatus) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(string(s)).Inc()
}

func (m *Manager) ObserveBoosts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.smoothingBoosts.Add(float64(n))
}

func (m *Manager) ObserveDetectorError(detector string) {
	if m == nil {
		return
	}
	m.detectorErrors.WithLabelValues(detector).Inc()
}

func (m *Manager) ObserveImageLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.imageLatency.Observe(d.Seconds())
}

func (m *Manager) ObserveVideoLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.videoLatency.Observe(d.Seconds())
}

func (m *Manager) ObserveTruncation(reason string) {
	if m == nil {
		return
	}
	m.videoTruncations.WithLabelValues(reason).Inc()
}

func (m *Manager) ObserveWebhook(outcome string) {
	if m == nil {
		return
	}
	m.webhookDelivery.WithLabelValues(outcome).Inc()
}

func (m *Manager) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// WebhookDeliveries exposes the delivery counter for one outcome.
func (m *Manager) WebhookDeliveries(outcome string) prometheus.Counter {
	return m.webhookDelivery.WithLabelValues(outcome)
}

// SmoothingBoosts exposes the boost counter.
func (m *Manager) SmoothingBoosts() prometheus.Counter {
	return m.smoothingBoosts
}
