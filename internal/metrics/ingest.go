package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	IngestTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragcore",
			Name:      "ingest_transitions_total",
			Help:      "File status transitions by target state",
		},
		[]string{"to"},
	)

	IngestChunksWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragcore",
			Name:      "ingest_chunks_written_total",
			Help:      "Chunks written to the vector store",
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ragcore",
			Name:      "ingest_duration_seconds",
			Help:      "End-to-end ingestion duration per file",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestTransitionsTotal)
	prometheus.MustRegister(IngestChunksWrittenTotal)
	prometheus.MustRegister(IngestDuration)
	ingestMetricsRegistered = true
}
