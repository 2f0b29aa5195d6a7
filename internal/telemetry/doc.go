// Package telemetry wires the OpenTelemetry SDK for DocQuill. When
// telemetry is disabled the global providers stay noop and no exporter
// connection is made.
package telemetry
