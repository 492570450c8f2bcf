// Package jobmetrics instruments background tasks: runs, failures, duration,
// tasks in flight, the last successful run and the files a dispatch produced.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inflight    *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
	dispatched  *prometheus.CounterVec
	now         func() time.Time
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on registerer. A nil registerer shares
// one instance on the default Prometheus registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() { defaultMetrics = register(prometheus.DefaultRegisterer) })
	return defaultMetrics
}

func register(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repdesk_jobs_total",
			Help: "Task runs by task type and outcome.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repdesk_jobs_failures_total",
			Help: "Failed task runs by task type.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "repdesk_job_duration_seconds",
			Help:    "Task run duration.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "repdesk_jobs_in_flight",
			Help: "Tasks currently running by task type.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "repdesk_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run by task type.",
		}, []string{"job"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repdesk_price_lists_dispatched_total",
			Help: "Price list files written for clients by format.",
		}, []string{"format"}),
		now: time.Now,
	}
	reg.MustRegister(m.runs, m.failures, m.duration, m.inflight, m.lastSuccess, m.dispatched)
	return m
}

// Tracker measures one task run. Obtain it with Track and finish it with End.
type Tracker struct {
	m     *Metrics
	job   string
	start time.Time
}

func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job}
	}
	m.inflight.WithLabelValues(job).Inc()
	return &Tracker{m: m, job: job, start: m.now()}
}

// End records the outcome and returns err unchanged, so handlers can write
// `defer func() { err = tracker.End(err) }()`.
func (t *Tracker) End(err error) error {
	if t == nil || t.m == nil {
		return err
	}
	m := t.m
	m.inflight.WithLabelValues(t.job).Dec()
	m.duration.WithLabelValues(t.job).Observe(m.now().Sub(t.start).Seconds())
	if err != nil {
		m.failures.WithLabelValues(t.job).Inc()
		m.runs.WithLabelValues(t.job, "failure").Inc()
		return err
	}
	m.runs.WithLabelValues(t.job, "success").Inc()
	m.lastSuccess.WithLabelValues(t.job).Set(float64(m.now().Unix()))
	return nil
}

// AddDispatched counts price list files written in one format.
func (m *Metrics) AddDispatched(format string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.dispatched.WithLabelValues(format).Add(float64(count))
}
