// Package promadapters provides a Prometheus implementation of versionhistory.MetricsCollector.
//
// Metric vectors are created and registered on first use. Their label names are the sorted label
// keys of that first observation.
//
//	registry := prometheus.NewRegistry()
//	collector := promadapters.NewMetricsCollector(registry)
//
//	tasks, _ := versionhistory.NewVersionedStore[*Task](taskStore, history, snapshotter,
//		versionhistory.WithMetrics(collector),
//	)
package promadapters
