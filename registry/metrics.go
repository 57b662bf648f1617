package registry

import "github.com/prometheus/client_golang/prometheus"

var (
	rebuildTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "online_judge",
		Subsystem: "compiler_registry",
		Name:      "rebuild_total",
		Help:      "Total number of registry rebuilds.",
	}, []string{"result"})

	rebuildDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "online_judge",
		Subsystem: "compiler_registry",
		Name:      "rebuild_duration_seconds",
		Help:      "Duration of registry rebuilds in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	compilersLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "online_judge",
		Subsystem: "compiler_registry",
		Name:      "compilers",
		Help:      "Number of compilers in the live snapshot.",
	})

	buildOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "online_judge",
		Subsystem: "compiler_registry",
		Name:      "build_total",
		Help:      "Per-config construction outcomes during rebuilds.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		rebuildTotal,
		rebuildDurationSeconds,
		compilersLive,
		buildOutcomeTotal,
	)
}
