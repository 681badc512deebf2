// Package internaldefs carries the metric definitions shared by every
// exporter implementation.
//
// Keeping counter and histogram definitions in one place guarantees that the
// Prometheus and OTel exporters agree on metric names, help strings and
// bucket boundaries. A change here reaches every export surface at once.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
