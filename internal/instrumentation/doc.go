// Package instrumentation provides OpenTelemetry metrics and tracing for the
// kubectl gateway.
//
// # Metrics
//
// HTTP metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - http_rate_limited_total: Counter of requests rejected by the rate limiter
//
// Command metrics:
//   - kubectl_commands_total: Counter of commands by verb, status, and error code
//   - kubectl_command_duration_seconds: Histogram of command durations
//   - analysis_cache_invalidations_total: Counter of analysis cache invalidations
//
// Namespace and resource_type labels are only attached to command metrics when
// METRICS_DETAILED_LABELS is set, since large clusters can have thousands of
// namespaces.
//
// # Tracing
//
// Every command gets a "kubectl.command" server span carrying the verb, the
// target resource and, on failure, the error code.
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable metrics and tracing (default: false)
//   - METRICS_EXPORTER: prometheus, otlp, or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces and metrics
//   - OTEL_EXPORTER_OTLP_INSECURE: Use plain HTTP for OTLP export
//   - OTEL_TRACES_SAMPLER_ARG: Trace sampling rate between 0 and 1 (default: 0.1)
//   - METRICS_DETAILED_LABELS: Add namespace and resource_type to command metrics
//
// # Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordCommand(ctx, "get", "pods", "default", "", time.Since(start))
package instrumentation
