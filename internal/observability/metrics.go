package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the API server.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	statusTransitions *prometheus.CounterVec
	proposalsCreated  *prometheus.CounterVec
	documentsRendered *prometheus.CounterVec
}

// NewMetrics builds a private registry with HTTP and domain collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repdesk_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repdesk_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repdesk_status_transitions_total",
		Help: "Status transitions by entity and target status.",
	}, []string{"entity", "status"})
	proposals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repdesk_proposals_created_total",
		Help: "Proposals created by origin.",
	}, []string{"origin"})
	documents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repdesk_documents_rendered_total",
		Help: "Rendered documents by kind and format.",
	}, []string{"kind", "format"})
	registry.MustRegister(requests, duration, transitions, proposals, documents)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		statusTransitions: transitions,
		proposalsCreated:  proposals,
		documentsRendered: documents,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// StatusTransition counts a persisted status change.
func (m *Metrics) StatusTransition(entity, status string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(entity, status).Inc()
}

// ProposalCreated counts a new proposal. Origin is "manual" or "tabela".
func (m *Metrics) ProposalCreated(origin string) {
	if m == nil {
		return
	}
	m.proposalsCreated.WithLabelValues(origin).Inc()
}

// DocumentRendered counts a generated document.
func (m *Metrics) DocumentRendered(kind, format string) {
	if m == nil {
		return
	}
	m.documentsRendered.WithLabelValues(kind, format).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
