package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Checkouts      *prometheus.CounterVec
	BackendLatency *prometheus.HistogramVec
	BackendErrors  *prometheus.CounterVec
	PollTicks      prometheus.Counter
}

// New registers the storefront collectors on reg. Pass
// prometheus.NewRegistry() in tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "submissions_total",
			Help:      "Checkout submissions by payment method and result.",
		}, []string{"method", "result"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "backend",
			Name:      "request_duration_ms",
			Help:      "Backend API latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"endpoint"}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "backend",
			Name:      "errors_total",
			Help:      "Backend API failures by endpoint and status.",
		}, []string{"endpoint", "status"}),
		PollTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "orders",
			Name:      "poll_ticks_total",
			Help:      "Order list refreshes issued by the tracking poller.",
		}),
	}
	reg.MustRegister(m.Checkouts, m.BackendLatency, m.BackendErrors, m.PollTicks)
	return m
}

// ObserveBackend records one backend call. status 0 means a transport error.
func (m *Metrics) ObserveBackend(endpoint string, status int, started time.Time) {
	if m == nil {
		return
	}
	m.BackendLatency.WithLabelValues(endpoint).Observe(float64(time.Since(started).Milliseconds()))
	if status == 0 || status >= 300 {
		m.BackendErrors.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	}
}

func (m *Metrics) CheckoutResult(method, result string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(method, result).Inc()
}

func (m *Metrics) PollTick() {
	if m == nil {
		return
	}
	m.PollTicks.Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
