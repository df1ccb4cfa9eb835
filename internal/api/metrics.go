package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	plansGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netgen_plans_generated_total",
		Help: "Number of plans generated successfully",
	})

	generateFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netgen_generate_failures_total",
		Help: "Number of plan generations that failed",
	})

	validationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netgen_validation_failures_total",
		Help: "Number of manifest validations that failed",
	})

	generateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "netgen_generate_duration_seconds",
		Help:    "Time spent generating a plan from a manifest",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	// Register custom metrics with the global prometheus registry
	prometheus.MustRegister(plansGenerated)
	prometheus.MustRegister(generateFailures)
	prometheus.MustRegister(validationFailures)
	prometheus.MustRegister(generateDuration)
}

// RegisterMetrics exposes the prometheus scrape endpoint on the mux.
// It lives outside /api/ so scrapers do not need the bearer token.
func RegisterMetrics(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.Handler())
}
