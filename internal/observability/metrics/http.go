package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"
)

const namespace = "hfa"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	messagesTotal     *prometheus.CounterVec
	messageCandidates *prometheus.HistogramVec
	messageConfidence *prometheus.HistogramVec
	messageDuration   *prometheus.HistogramVec
	embedFallbacks    *prometheus.CounterVec
	searchTotal       *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	messagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "total",
			Help:      "Processed customer messages by final decision and search method.",
		},
		[]string{"service", "decision", "search_method"},
	)
	messageCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "candidates",
			Help:      "Candidates above threshold per message.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		},
		[]string{"service"},
	)
	messageConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "confidence",
			Help:      "Reported confidence per answered message.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service", "level"},
	)
	messageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "duration_seconds",
			Help:      "Decision pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "state"},
	)
	embedFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "lexical_fallback_total",
			Help:      "Messages that fell back to lexical scoring after an embedding failure.",
		},
		[]string{"service", "endpoint"},
	)
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "search_requests_total",
			Help:      "FAQ search requests by search method.",
		},
		[]string{"service", "search_method"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "circuit_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		messagesTotal,
		messageCandidates,
		messageConfidence,
		messageDuration,
		embedFallbacks,
		searchTotal,
		breakerState,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		messagesTotal:     messagesTotal,
		messageCandidates: messageCandidates,
		messageConfidence: messageConfidence,
		messageDuration:   messageDuration,
		embedFallbacks:    embedFallbacks,
		searchTotal:       searchTotal,
		breakerState:      breakerState,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch path {
	case "/healthz", "/metrics", "/v1/messages", "/v1/faqs/search":
		return path
	default:
		return "other"
	}
}

// MessageObservation is what the message endpoint records per processed message.
type MessageObservation struct {
	State           string
	Decision        string
	SearchMethod    string
	ConfidenceLevel string
	Confidence      float64
	Candidates      int
	Answered        bool
	Duration        time.Duration
}

func (m *HTTPServerMetrics) RecordMessage(service string, obs MessageObservation) {
	state := obs.State
	if state == "" {
		state = "none"
	}
	m.messagesTotal.WithLabelValues(service, obs.Decision, obs.SearchMethod).Inc()
	m.messageCandidates.WithLabelValues(service).Observe(float64(obs.Candidates))
	m.messageDuration.WithLabelValues(service, state).Observe(obs.Duration.Seconds())
	if obs.Answered {
		m.messageConfidence.WithLabelValues(service, obs.ConfidenceLevel).Observe(obs.Confidence)
	}
	if obs.SearchMethod == "lexical_fallback" {
		m.embedFallbacks.WithLabelValues(service, "messages").Inc()
	}
}

func (m *HTTPServerMetrics) RecordSearch(service, searchMethod string) {
	if searchMethod == "" {
		searchMethod = "unknown"
	}
	m.searchTotal.WithLabelValues(service, searchMethod).Inc()
	if searchMethod == "lexical_fallback" {
		m.embedFallbacks.WithLabelValues(service, "search").Inc()
	}
}

// BreakerObserver feeds resilience.WithStateObserver.
func (m *HTTPServerMetrics) BreakerObserver(service string) func(operation string, from, to gobreaker.State) {
	return func(operation string, _, to gobreaker.State) {
		m.breakerState.WithLabelValues(service, operation).Set(breakerStateValue(to))
	}
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
