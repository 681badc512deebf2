// Package otel bridges goShield metrics onto OpenTelemetry instruments.
//
// [NewOTelExporter] creates an Int64ObservableCounter per goShield counter
// and an Int64ObservableGauge per cumulative histogram bucket, then registers
// a single callback that reads [goShield.Engine.MetricsSnapshot] on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate engine state.
package otel
