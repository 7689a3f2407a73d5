package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Orders    *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewServerMetrics builds the collectors on a private registry so several
// servers can coexist in one process.
func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eshop",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "eshop",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "route"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eshop",
		Subsystem: service,
		Name:      "order_operations_total",
		Help:      "Order workflow outcomes by operation and result.",
	}, []string{"operation", "result"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		requests, latency, orders,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &ServerMetrics{Requests: requests, LatencyMS: latency, Orders: orders, registry: registry}
}

func (m *ServerMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(method, route).Observe(float64(elapsed) / float64(time.Millisecond))
}

func (m *ServerMetrics) ObserveOrder(operation, result string) {
	m.Orders.WithLabelValues(operation, result).Inc()
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
