// Package observability provides the structured logger, Prometheus
// metrics, health-check handlers, and OpenTelemetry bootstrap used by
// the registry server (the CLI does not use this package).
package observability
