package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crossref_parsing_seconds",
		Help:    "Time spent parsing and resolving a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ParseCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossref_parse_cache_hits_total",
		Help: "Total number of parsed units served from the unit cache.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossref_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	OperationsEnqueuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossref_operations_enqueued_total",
		Help: "Total number of index operations accepted into the queue.",
	}, []string{"kind"})

	OperationsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossref_operations_processed_total",
		Help: "Total number of index operations executed by the processor.",
	}, []string{"kind"})

	OperationsDiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossref_operations_discarded_total",
		Help: "Total number of queued operations abandoned by a non-graceful stop or a closed queue.",
	}, []string{"kind"})

	OperationsSupersededTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossref_operations_superseded_total",
		Help: "Total number of pending index operations dropped by a later removal of the same source.",
	}, []string{"kind"})

	OperationLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crossref_operation_seconds",
		Help:    "Time spent executing one index operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	CallbackPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossref_callback_panics_total",
		Help: "Total number of panics recovered while executing an operation.",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossref_queue_depth",
		Help: "Current number of index operations waiting to be processed.",
	})

	IndexElements = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossref_index_elements",
		Help: "Number of elements with at least one recorded relationship.",
	})

	IndexRelationships = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossref_index_relationships",
		Help: "Number of live element and relationship pairs.",
	})

	IndexLocations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossref_index_locations",
		Help: "Number of live recorded locations.",
	})

	IndexSources = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossref_index_sources",
		Help: "Number of sources owning at least one location.",
	})
)
