package dispatch

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeLocal        = "local"
	outcomeCached       = "cached"
	outcomeRemote       = "remote"
	outcomeBadRequest   = "bad_request"
	outcomeNotFound     = "not_found"
	outcomeCompileError = "compile_error"
	outcomeInternal     = "internal"
	outcomeDelegation   = "delegation_failure"
)

var (
	requestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "online_judge",
		Subsystem: "compiler_gateway",
		Name:      "compile_in_flight",
		Help:      "Current number of in-flight compile requests.",
	})

	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "online_judge",
		Subsystem: "compiler_gateway",
		Name:      "compile_requests_total",
		Help:      "Total number of compile requests by outcome.",
	}, []string{"outcome"})

	compileDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "online_judge",
		Subsystem: "compiler_gateway",
		Name:      "compile_duration_seconds",
		Help:      "Duration of local compilations in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 16),
	}, []string{"compiler"})
)

func init() {
	prometheus.MustRegister(
		requestsInFlight,
		requestsTotal,
		compileDurationSeconds,
	)
}
