package observability

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type ledgerMetrics struct {
	txs     *prometheus.CounterVec
	latency *prometheus.HistogramVec
	events  *prometheus.CounterVec
	height  prometheus.Gauge
	supply  prometheus.Gauge
	reward  prometheus.Gauge
}

type httpMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *ledgerMetrics

	httpMetricsOnce sync.Once
	httpRegistry    *httpMetrics
)

// Ledger returns the lazily-initialised metrics for ledger calls applied by
// the node.
func Ledger() *ledgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &ledgerMetrics{
			txs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "relp",
				Subsystem: "ledger",
				Name:      "calls_total",
				Help:      "Ledger calls segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "relp",
				Subsystem: "ledger",
				Name:      "call_duration_seconds",
				Help:      "Latency of ledger calls including the state commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "relp",
				Subsystem: "ledger",
				Name:      "events_total",
				Help:      "Committed ledger events segmented by type.",
			}, []string{"type"}),
			height: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "relp",
				Subsystem: "ledger",
				Name:      "block_height",
				Help:      "Block height of the last applied call.",
			}),
			supply: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "relp",
				Subsystem: "ledger",
				Name:      "total_supply",
				Help:      "Total RELP supply in base units.",
			}),
			reward: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "relp",
				Subsystem: "farm",
				Name:      "total_reward",
				Help:      "Continuous reward released to holders in base units.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.txs,
			ledgerRegistry.latency,
			ledgerRegistry.events,
			ledgerRegistry.height,
			ledgerRegistry.supply,
			ledgerRegistry.reward,
		)
	})
	return ledgerRegistry
}

// ObserveCall records the outcome and latency of a ledger call.
func (m *ledgerMetrics) ObserveCall(op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.txs.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordEvent counts a committed event.
func (m *ledgerMetrics) RecordEvent(kind string) {
	if m == nil {
		return
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "unknown"
	}
	m.events.WithLabelValues(kind).Inc()
}

// SetHeight publishes the current block height.
func (m *ledgerMetrics) SetHeight(height uint64) {
	if m == nil {
		return
	}
	m.height.Set(float64(height))
}

// SetTotals publishes the ledger supply and the released farm reward.
func (m *ledgerMetrics) SetTotals(supply, reward *big.Int) {
	if m == nil {
		return
	}
	m.supply.Set(bigToFloat(supply))
	m.reward.Set(bigToFloat(reward))
}

// HTTP returns the lazily-initialised metrics for the gateway routes.
func HTTP() *httpMetrics {
	httpMetricsOnce.Do(func() {
		httpRegistry = &httpMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "relp",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests segmented by route, method and outcome.",
			}, []string{"route", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "relp",
				Subsystem: "http",
				Name:      "errors_total",
				Help:      "HTTP errors segmented by route and status code.",
			}, []string{"route", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "relp",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for HTTP handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "relp",
				Subsystem: "http",
				Name:      "throttles_total",
				Help:      "Requests rejected by the rate limiter.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			httpRegistry.requests,
			httpRegistry.errors,
			httpRegistry.latency,
			httpRegistry.throttles,
		)
	})
	return httpRegistry
}

// Observe records the outcome of a request. The status code should be the HTTP
// status that was ultimately written to the response writer.
func (m *httpMetrics) Observe(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
		m.errors.WithLabelValues(route, fmt.Sprintf("%d", status)).Inc()
	}
	m.requests.WithLabelValues(route, method, outcome).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordThrottle counts a rejected request. Reasons should be stable strings
// such as "rate_limit".
func (m *httpMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

func bigToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	floatVal, acc := new(big.Float).SetInt(value).Float64()
	if acc != big.Exact && (math.IsNaN(floatVal) || math.IsInf(floatVal, 0)) {
		return 0
	}
	return floatVal
}
