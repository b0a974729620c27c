package kde

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kde_build_duration_seconds",
		Help:    "Time to build a KDE structure",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	queriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kde_queries_total",
		Help: "Total number of density estimates computed",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kde_query_batch_duration_seconds",
		Help:    "Time to answer a batch of density queries",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	})
)
