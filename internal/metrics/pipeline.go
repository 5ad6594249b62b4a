package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "pipeline_rows_total",
		Namespace: PdmNamespace,
		Help:      "The total number of rows produced per pipeline stage.",
	}, []string{"stage"})

	PipelineRunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:      "pipeline_run_duration_seconds",
		Namespace: PdmNamespace,
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		Help:      "The wall-clock duration of full pipeline runs in seconds.",
	})

	PipelineRunFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "pipeline_run_failures_total",
		Namespace: PdmNamespace,
		Help:      "The total number of pipeline runs aborted by a fatal error.",
	})

	IngestRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "ingest_records_total",
		Namespace: PdmNamespace,
		Help:      "The total number of raw records drained from Kafka per topic.",
	}, []string{"topic"})
)
