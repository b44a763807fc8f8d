package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FSEventsReceived counts raw watcher notifications by operation
	FSEventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fsguard",
			Name:      "fs_events_received_total",
			Help:      "Total number of filesystem notifications received from watchers",
		},
		[]string{"op"},
	)

	// FSEventsFiltered counts notifications discarded before enqueue
	FSEventsFiltered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fsguard",
			Name:      "fs_events_filtered_total",
			Help:      "Total number of filesystem notifications discarded by the monitor filter",
		},
		[]string{"reason"},
	)

	// FSEventsDropped counts notifications lost because the queue was full
	FSEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fsguard",
			Name:      "fs_events_dropped_total",
			Help:      "Total number of filesystem notifications dropped on a full queue",
		},
	)

	// FSEventsProcessed counts events handled by the consumer loop
	FSEventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fsguard",
			Name:      "fs_events_processed_total",
			Help:      "Total number of queued filesystem events processed",
		},
		[]string{"outcome"},
	)

	// QueueDepth is the current number of pending monitor events
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fsguard",
			Name:      "monitor_queue_depth",
			Help:      "Number of filesystem events waiting in the monitor queue",
		},
	)

	// Detections counts threat detections by source (rule or signature)
	Detections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fsguard",
			Name:      "detections_total",
			Help:      "Total number of threat detections",
		},
		[]string{"source", "severity"},
	)

	// QuarantineOps counts quarantine lifecycle operations
	QuarantineOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fsguard",
			Name:      "quarantine_operations_total",
			Help:      "Total number of quarantine operations",
		},
		[]string{"op", "result"},
	)

	// FilesScanned counts files examined by on-demand scans
	FilesScanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fsguard",
			Name:      "files_scanned_total",
			Help:      "Total number of files examined by on-demand scans",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// It is idempotent.
func InitMetrics() {
	once.Do(func() {
		// Registration errors mean the collector is already present
		prometheus.DefaultRegisterer.Register(FSEventsReceived)
		prometheus.DefaultRegisterer.Register(FSEventsFiltered)
		prometheus.DefaultRegisterer.Register(FSEventsDropped)
		prometheus.DefaultRegisterer.Register(FSEventsProcessed)
		prometheus.DefaultRegisterer.Register(QueueDepth)
		prometheus.DefaultRegisterer.Register(Detections)
		prometheus.DefaultRegisterer.Register(QuarantineOps)
		prometheus.DefaultRegisterer.Register(FilesScanned)
	})
}

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
