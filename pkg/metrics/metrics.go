// Package metrics holds the prometheus collectors shared by the handlers and the matching engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a private registry plus its collectors. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	MatchedTransactions *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "handler_requests_total",
			Help: "Total number of handler invocations.",
		}, []string{"function", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "handler_duration_seconds",
			Help:    "Handler latency distributions.",
			Buckets: []float64{0.1, 0.3, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"function"}),
		MatchedTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matching_transactions_total",
			Help: "Bank transactions examined by the matching engine.",
		}, []string{"result"}),
	}
	m.Registry.MustRegister(m.RequestsTotal, m.RequestDuration, m.MatchedTransactions)
	return m
}

// ObserveRequest records one handler invocation.
func (m *Metrics) ObserveRequest(function string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(function, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(function).Observe(d.Seconds())
}

// ObserveMatch records the outcome for one examined transaction.
func (m *Metrics) ObserveMatch(result string) {
	if m == nil {
		return
	}
	m.MatchedTransactions.WithLabelValues(result).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
