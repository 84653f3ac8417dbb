// Package testdoubles provides test doubles (spies) for the versionhistory observability interfaces.
//
//   - MetricsCollectorSpy: captures metrics recording calls for verification
//   - TracingCollectorSpy: captures spans with their start and end attributes
//   - ContextualLoggerSpy: captures context-aware logging calls
//   - LogHandlerSpy: a slog.Handler capturing records and their attributes
//
// They let tests verify the instrumentation of VersionedStore and the history store engines
// without a telemetry backend.
package testdoubles
