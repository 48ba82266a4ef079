package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	analysisDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}
	correlationBuckets      = []float64{0, .5, .6, .7, .8, .85, .9, .95, .99, 1}
)

// Metrics owns a private registry so several instances (tests) can coexist.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	AnalysisDuration      *prometheus.HistogramVec
	AnalysisErrorsTotal   *prometheus.CounterVec
	CopheneticCorrelation prometheus.Histogram
}

func New() *Metrics {

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phageatlas",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status_code"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "phageatlas",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by route.",
		Buckets:   httpDurationBuckets,
	}, []string{"method", "route"})

	m.AnalysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "phageatlas",
		Name:      "analysis_duration_seconds",
		Help:      "Time spent in heatmap, phase and time series computations.",
		Buckets:   analysisDurationBuckets,
	}, []string{"op"})

	m.AnalysisErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phageatlas",
		Name:      "analysis_errors_total",
		Help:      "Failed analysis computations.",
	}, []string{"op"})

	m.CopheneticCorrelation = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "phageatlas",
		Name:      "heatmap_cophenetic_correlation",
		Help:      "Cophenetic correlation of clustered heatmaps.",
		Buckets:   correlationBuckets,
	})

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AnalysisDuration,
		m.AnalysisErrorsTotal,
		m.CopheneticCorrelation,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records how long op took and whether it failed.
func (m *Metrics) ObserveAnalysis(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.AnalysisDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.AnalysisErrorsTotal.WithLabelValues(op).Inc()
	}
}

// ObserveRequest is called once per finished request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveCophenetic(c float64) {
	if m == nil {
		return
	}
	m.CopheneticCorrelation.Observe(c)
}
