// Package otel binds session store metrics to OpenTelemetry.
//
// [NewOTelExporter] registers an Int64ObservableCounter per store counter
// and an Int64ObservableGauge per cumulative latency bucket. A single
// callback reads the store snapshot on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate store state.
package otel
