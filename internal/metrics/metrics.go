package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Storefront records cart, checkout, catalog and HTTP metrics. A nil
// *Storefront is valid and records nothing.
type Storefront struct {
	gatherer prometheus.Gatherer

	cartMutations    *prometheus.CounterVec
	ordersSubmitted  prometheus.Counter
	ordersFailed     prometheus.Counter
	catalogFallbacks prometheus.Counter
	httpDuration     *prometheus.HistogramVec
}

// New registers the storefront metrics on a fresh registry that also carries
// the Go and process collectors.
func New() *Storefront {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the metrics on reg and serves them from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Storefront {
	m := &Storefront{
		gatherer: gatherer,
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart store mutations by operation.",
		}, []string{"op"}),
		ordersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Order requests written to the store.",
		}),
		ordersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_failed_total",
			Help:      "Order requests that could not be written.",
		}),
		catalogFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fallbacks_total",
			Help:      "Catalog reads served from the built-in sample products.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.cartMutations, m.ordersSubmitted, m.ordersFailed, m.catalogFallbacks, m.httpDuration)
	return m
}

func (m *Storefront) CartMutation(op string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

func (m *Storefront) OrderSubmitted() {
	if m == nil {
		return
	}
	m.ordersSubmitted.Inc()
}

func (m *Storefront) OrderFailed() {
	if m == nil {
		return
	}
	m.ordersFailed.Inc()
}

func (m *Storefront) CatalogFallback() {
	if m == nil {
		return
	}
	m.catalogFallbacks.Inc()
}

// ObserveRequest records one finished HTTP request. route is the matched
// pattern, not the raw path.
func (m *Storefront) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Storefront) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
