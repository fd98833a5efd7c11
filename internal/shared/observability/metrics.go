package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pydefs_parsing_seconds",
		Help:    "Time spent parsing a Python source file.",
		Buckets: prometheus.DefBuckets,
	})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pydefs_scan_seconds",
		Help:    "Time spent on high-level scan tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	ModulesScanned = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pydefs_modules_scanned_total",
		Help: "Number of modules covered by the most recent scan.",
	})

	DefinitionsFound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pydefs_definitions_total",
		Help: "Number of top-level definitions found in the most recent scan.",
	})

	StarImportsFound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pydefs_star_imports_total",
		Help: "Number of wildcard imports found in the most recent scan.",
	})

	ParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pydefs_parse_failures_total",
		Help: "Total number of files that failed to parse.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pydefs_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherRescansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pydefs_watcher_rescans_total",
		Help: "Total number of rescans triggered by the watcher.",
	})

	StoreWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pydefs_store_write_seconds",
		Help:    "Latency for persisting a scan snapshot.",
		Buckets: prometheus.DefBuckets,
	})

	StoreRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pydefs_store_retries_total",
		Help: "Total number of retried store operations after lock contention.",
	})
)
