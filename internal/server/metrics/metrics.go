// Package metrics holds the Prometheus collectors for the shop server.
//
// A *Metrics is created once by the app and handed to whoever records
// something. All recording methods are safe on a nil receiver so tests and
// tools can pass nil.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophshop"

// Checkout results used as the "result" label.
const (
	CheckoutOK            = "ok"
	CheckoutEmptyCart     = "empty_cart"
	CheckoutPaymentFailed = "payment_failed"
	CheckoutInconsistent  = "inconsistent"
	CheckoutError         = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	requestInFlight prometheus.Gauge

	checkoutTotal        *prometheus.CounterVec
	checkoutInconsistent prometheus.Counter
	chargedAmount        prometheus.Counter
	cleanupJobs          *prometheus.CounterVec
	cleanupQueueDepth    prometheus.Gauge
}

// New builds the collectors and registers them, plus the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		checkoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Checkouts by result.",
		}, []string{"result"}),
		checkoutInconsistent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_inconsistent_total",
			Help:      "Checkouts that charged the customer but failed to record the order.",
		}),
		chargedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charged_amount_minor_units_total",
			Help:      "Sum of confirmed charge amounts in minor currency units.",
		}),
		cleanupJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart_cleanup",
			Name:      "jobs_total",
			Help:      "Cart cleanup jobs by outcome.",
		}, []string{"status"}),
		cleanupQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cart_cleanup",
			Name:      "queue_depth",
			Help:      "Cart cleanup jobs waiting for retry.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.requestTotal,
		m.requestInFlight,
		m.checkoutTotal,
		m.checkoutInconsistent,
		m.chargedAmount,
		m.cleanupJobs,
		m.cleanupQueueDepth,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// CheckoutFinished counts one checkout with the given result label.
func (m *Metrics) CheckoutFinished(result string) {
	if m == nil {
		return
	}
	m.checkoutTotal.WithLabelValues(result).Inc()
	if result == CheckoutInconsistent {
		m.checkoutInconsistent.Inc()
	}
}

// Charged adds a confirmed charge amount.
func (m *Metrics) Charged(amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.chargedAmount.Add(float64(amount))
}

// CleanupJob counts a cart cleanup attempt; status is "enqueued", "done",
// "retry" or "dropped".
func (m *Metrics) CleanupJob(status string) {
	if m == nil {
		return
	}
	m.cleanupJobs.WithLabelValues(status).Inc()
}

// CleanupQueueDepth records the current retry backlog.
func (m *Metrics) CleanupQueueDepth(n int64) {
	if m == nil {
		return
	}
	m.cleanupQueueDepth.Set(float64(n))
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records duration, count and in-flight requests. Routes are
// labelled with the chi route pattern to keep cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rr, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := strconv.Itoa(rr.status)

		m.requestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.requestTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

// Handler exposes the registry on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
