// Package telemetry wires OpenTelemetry tracing and metrics for todod.
//
// Telemetry is off by default. When enabled, spans and metrics are exported
// over OTLP using gRPC (default) or HTTP/protobuf, and the providers are
// installed globally so packages that call otel.Tracer and otel.Meter pick
// them up without further wiring.
//
// Exporter failures never stop the daemon: New returns a degraded instance
// that falls back to the global no-op providers.
package telemetry
