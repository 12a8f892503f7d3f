// Package otel publishes dashboard client metrics as OpenTelemetry
// observable instruments.
//
// Each counter becomes an Int64ObservableCounter and every latency bucket an
// Int64ObservableGauge. One callback reads the client snapshot per
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Change client state.
package otel
