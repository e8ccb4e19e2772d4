// Package metrics exposes the engine's Prometheus instrumentation: query
// outcomes and latencies, matcher work counters, and indexing volume. All
// collectors register on the default registry and are served by the
// /metrics endpoint of the HTTP host.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts structured queries by outcome.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "annographix_queries_total",
		Help: "Number of structured queries executed, by status.",
	}, []string{"status"})

	// QueryDuration observes end-to-end query latency.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "annographix_query_duration_seconds",
		Help:    "Structured query latency.",
		Buckets: prometheus.DefBuckets,
	})

	// DocsSeen counts documents surviving the posting intersection.
	DocsSeen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "annographix_intersection_docs_total",
		Help: "Documents reached by the posting intersection.",
	})

	// DocsMatched counts documents with at least one constraint-satisfying tuple.
	DocsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "annographix_matched_docs_total",
		Help: "Documents with at least one structured match.",
	})

	// ConstraintChecks counts individual constraint evaluations.
	ConstraintChecks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "annographix_constraint_checks_total",
		Help: "Constraint checks performed by the match recursion.",
	})

	// DocsIndexed counts documents added across all indexes.
	DocsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "annographix_indexed_docs_total",
		Help: "Documents added to the engine.",
	})

	// IndexDocs gauges the live doc-id set cardinality of each index.
	IndexDocs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "annographix_index_docs",
		Help: "Live documents per index.",
	}, []string{"index"})
)

// SetIndexDocs updates the per-index document gauge.
func SetIndexDocs(indexName string, cardinality uint64) {
	IndexDocs.WithLabelValues(indexName).Set(float64(cardinality))
}

// DropIndexDocs removes the gauge series of a deleted index.
func DropIndexDocs(indexName string) {
	IndexDocs.DeleteLabelValues(indexName)
}

// ObserveQuery records the outcome and latency of one query execution.
func ObserveQuery(status string, took time.Duration) {
	QueriesTotal.WithLabelValues(status).Inc()
	QueryDuration.Observe(took.Seconds())
}

// ObserveMatcher records the matcher work counters of one query execution.
func ObserveMatcher(docsSeen, docsMatched, constraintChecks int64) {
	DocsSeen.Add(float64(docsSeen))
	DocsMatched.Add(float64(docsMatched))
	ConstraintChecks.Add(float64(constraintChecks))
}
