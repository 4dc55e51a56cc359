package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "printssistant"

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	intents  *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "advise_requests_total",
			Help:      "Advise requests by outcome.",
		}, []string{"status"}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "advise_intents_total",
			Help:      "Intents routed by the advise endpoint.",
		}, []string{"intent"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "advise_duration_seconds",
			Help:      "Time spent producing advice.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.intents,
		m.duration,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *metrics) observeAdvice(intents []string) {
	m.requests.WithLabelValues("ok").Inc()
	for _, in := range intents {
		m.intents.WithLabelValues(in).Inc()
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
