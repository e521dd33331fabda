// Package metrics wires github.com/prometheus/client_golang into the
// observe(label, duration) collaborator the matching façade calls at entry
// and exit of every ProcessOrder, grounded on
// exchange-matching/internal/metrics/metrics.go.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()
	once     sync.Once

	matchingLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matching_latency_seconds",
		Help:    "Latency of the matching facade, by call label.",
		Buckets: prometheus.DefBuckets,
	}, []string{"label"})
	tradesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trades_created_total",
			Help: "Total number of trades produced.",
		},
		[]string{"symbol"},
	)
	orderbookDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orderbook_depth",
			Help: "Current resting quantity per side.",
		},
		[]string{"symbol", "side"},
	)
	ordersProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_processed_total",
		Help: "Total number of orders submitted to the matching facade.",
	}, []string{"symbol", "outcome"})
)

// Init registers every collector with the registry exactly once.
func Init() {
	once.Do(func() {
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
			matchingLatency,
			tradesCreated,
			orderbookDepth,
			ordersProcessed,
		)
	})
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Observe is the observe(label, duration) sink named by the matching
// core's external interfaces; internal/engine.Book.OnLatency wires this in
// directly.
func Observe(label string, nanos int64) {
	Init()
	matchingLatency.WithLabelValues(label).Observe(time.Duration(nanos).Seconds())
}

// IncTradesCreated increments the trades-created counter for symbol by n.
func IncTradesCreated(symbol string, n int) {
	Init()
	if n <= 0 {
		return
	}
	tradesCreated.WithLabelValues(symbol).Add(float64(n))
}

// SetOrderbookDepth records the current resting quantity for symbol/side.
func SetOrderbookDepth(symbol, side string, qty int64) {
	Init()
	orderbookDepth.WithLabelValues(symbol, side).Set(float64(qty))
}

// IncOrdersProcessed increments the per-outcome order counter (e.g.
// "accepted", "rejected", "cancelled").
func IncOrdersProcessed(symbol, outcome string) {
	Init()
	ordersProcessed.WithLabelValues(symbol, outcome).Inc()
}
