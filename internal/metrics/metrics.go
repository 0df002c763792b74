// Package metrics exposes Prometheus instruments for the simulator.
package metrics

import (
	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loansim"

// Simulation outcome labels.
const (
	StatusOK       = "ok"
	StatusInvalid  = "invalid"
	StatusError    = "error"
	StatusDefaults = "defaulted"
)

// ProductUnknown labels every product type outside the catalogue.
const ProductUnknown = "unknown"

var (
	// Simulations counts simulation requests by product and outcome.
	Simulations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Number of simulations computed, by product and outcome",
		},
		[]string{"product", "status"},
	)

	// EffortRate observes the effort rate of successful simulations.
	EffortRate = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "effort_rate_percent",
			Help:      "Share of monthly income taken by the loan payment",
			Buckets:   []float64{5, 10, 15, 20, 25, 30, 40, 50, 75, 100},
		},
		[]string{"product"},
	)

	// RequestedAmount observes requested principals.
	RequestedAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "requested_amount",
			Help:      "Requested loan principal",
			Buckets:   prometheus.ExponentialBuckets(10000, 2.5, 10),
		},
		[]string{"product"},
	)

	// Submissions counts bank submissions by outcome.
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bank_submissions_total",
			Help:      "Number of simulations forwarded to the bank, by outcome",
		},
		[]string{"status"},
	)

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code",
		},
		[]string{"route", "code"},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
	)
)

// ProductLabel maps a client-supplied product type onto the catalogue, so
// the product label only ever takes a fixed set of values.
func ProductLabel(product string) string {
	parsed, err := simulation.ParseProductType(product)
	if err != nil {
		return ProductUnknown
	}
	return string(parsed)
}

// ObserveSimulation records the outcome of one simulation.
func ObserveSimulation(product, status string, amount, effortRate float64) {
	product = ProductLabel(product)
	Simulations.WithLabelValues(product, status).Inc()
	if status == StatusOK || status == StatusDefaults {
		RequestedAmount.WithLabelValues(product).Observe(amount)
		EffortRate.WithLabelValues(product).Observe(effortRate)
	}
}
