package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Billing metrics
	BillingOperationsTotal *prometheus.CounterVec
	CreditsPurchasedTotal  *prometheus.CounterVec
	AddOnPurchasesTotal    *prometheus.CounterVec
	PlanChangesTotal       *prometheus.CounterVec
	Subscriptions          *prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Catalog metrics
	CatalogReloadsTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launchpad_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launchpad_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		BillingOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_billing_operations_total",
				Help: "Billing operations by outcome (ok or the error kind)",
			},
			[]string{"operation", "outcome"},
		),
		CreditsPurchasedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_credits_purchased_total",
				Help: "Credits purchased per pool",
			},
			[]string{"pool"},
		),
		AddOnPurchasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_addon_purchases_total",
				Help: "Add-on purchases",
			},
			[]string{"add_on"},
		),
		PlanChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_plan_changes_total",
				Help: "Plan transitions",
			},
			[]string{"from", "to"},
		),
		Subscriptions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "launchpad_subscriptions",
				Help: "Billing records per plan, refreshed by the reporting job",
			},
			[]string{"plan"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),

		CatalogReloadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "launchpad_catalog_reloads_total",
				Help: "Successful catalog file reloads",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.BillingOperationsTotal,
		m.CreditsPurchasedTotal,
		m.AddOnPurchasesTotal,
		m.PlanChangesTotal,
		m.Subscriptions,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CatalogReloadsTotal,
	)

	return m
}

// ObserveOperation counts a billing operation. A nil error is recorded as "ok", anything else
// under the label produced by kindOf.
func (m *Metrics) ObserveOperation(operation string, err error, kindOf func(error) string) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = kindOf(err)
	}
	m.BillingOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel returns the mux route template so path parameters do not explode cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Install it with Router.Use so the matched route is available.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
