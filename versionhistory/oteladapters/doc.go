// Package oteladapters provides OpenTelemetry implementations of the versionhistory observability interfaces.
//
// Use them with the versionhistory.With* options of a VersionedStore or the With* options of the
// postgresengine and sqliteengine history stores:
//
//	tracer := otel.Tracer("versionhistory")
//	meter := otel.Meter("versionhistory")
//
//	history, _ := postgresengine.NewHistoryStoreFromPGXPool(
//		db,
//		postgresengine.WithTracing(oteladapters.NewTracingCollector(tracer)),
//		postgresengine.WithMetrics(oteladapters.NewMetricsCollector(meter)),
//		postgresengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger("versionhistory")),
//	)
package oteladapters
