package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// engineMetrics holds the Prometheus metrics owned by the engine.
type engineMetrics struct {
	// operationsTotal counts add/delete/search calls by outcome: "ok" or "error".
	operationsTotal *prometheus.CounterVec

	// operationDurationSeconds records the wall-clock duration of each operation.
	operationDurationSeconds *prometheus.HistogramVec

	// embeddingsTotal counts calls made to the embedder, by purpose:
	// "add", "rebuild" or "query".
	embeddingsTotal *prometheus.CounterVec

	// queryCacheHitsTotal counts query embeddings served from the cache.
	queryCacheHitsTotal prometheus.Counter

	documents prometheus.Gauge
	chunks    prometheus.Gauge

	// persistFailuresTotal counts failed saves of the index or metadata.
	persistFailuresTotal prometheus.Counter
}

func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	factory := promauto.With(reg)

	return &engineMetrics{
		operationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docrag",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Total number of engine operations, partitioned by operation and outcome.",
		}, []string{"operation", "outcome"}),

		operationDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docrag",
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Duration of engine operations including embedding and persistence.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"operation"}),

		embeddingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docrag",
			Subsystem: "engine",
			Name:      "embeddings_total",
			Help:      "Total number of embedder calls, partitioned by purpose.",
		}, []string{"purpose"}),

		queryCacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "docrag",
			Subsystem: "engine",
			Name:      "query_cache_hits_total",
			Help:      "Number of query embeddings served from the cache.",
		}),

		documents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "docrag",
			Subsystem: "engine",
			Name:      "documents",
			Help:      "Number of indexed documents.",
		}),

		chunks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "docrag",
			Subsystem: "engine",
			Name:      "chunks",
			Help:      "Number of indexed chunks, equal to the vector index size.",
		}),

		persistFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "docrag",
			Subsystem: "engine",
			Name:      "persist_failures_total",
			Help:      "Number of failed attempts to save the index or metadata.",
		}),
	}
}
