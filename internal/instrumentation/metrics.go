package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod       = "method"
	attrPath         = "path"
	attrStatus       = "status"
	attrVerb         = "verb"
	attrCode         = "code"
	attrResourceType = "resource_type"
	attrNamespace    = "namespace"
)

// durationBuckets covers fast reads up to long running exec calls.
var durationBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal    metric.Int64Counter
	httpRequestDuration  metric.Float64Histogram
	httpRateLimitedTotal metric.Int64Counter

	// Command metrics
	commandsTotal   metric.Int64Counter
	commandDuration metric.Float64Histogram

	// analysisInvalidations counts cache invalidations after successful commands
	analysisInvalidations metric.Int64Counter

	// detailedLabels controls whether high-cardinality labels (namespace,
	// resource_type) are included in command metrics
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.httpRateLimitedTotal, err = meter.Int64Counter(
		"http_rate_limited_total",
		metric.WithDescription("Total number of HTTP requests rejected by the rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_rate_limited_total counter: %w", err)
	}

	m.commandsTotal, err = meter.Int64Counter(
		"kubectl_commands_total",
		metric.WithDescription("Total number of kubectl commands executed"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubectl_commands_total counter: %w", err)
	}

	m.commandDuration, err = meter.Float64Histogram(
		"kubectl_command_duration_seconds",
		metric.WithDescription("kubectl command duration in seconds, including the cluster call"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubectl_command_duration_seconds histogram: %w", err)
	}

	m.analysisInvalidations, err = meter.Int64Counter(
		"analysis_cache_invalidations_total",
		metric.WithDescription("Total number of analysis cache invalidations"),
		metric.WithUnit("{invalidation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis_cache_invalidations_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRateLimited records a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited(ctx context.Context, path string) {
	if m == nil || m.httpRateLimitedTotal == nil {
		return
	}

	m.httpRateLimitedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrPath, path)))
}

// RecordCommand records one kubectl command. code is empty for successful
// commands and the error code otherwise. Commands rejected before a verb was
// recognised use an empty verb.
//
// CARDINALITY NOTE: namespace and resource_type are only recorded when
// detailedLabels is enabled. Use traces for per-namespace debugging instead.
func (m *Metrics) RecordCommand(ctx context.Context, verb, resourceType, namespace, code string, duration time.Duration) {
	if m == nil || m.commandsTotal == nil || m.commandDuration == nil {
		return
	}

	status := StatusSuccess
	if code != "" {
		status = StatusError
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrVerb, verb),
		attribute.String(attrStatus, status),
		attribute.String(attrCode, code),
	}

	if m.detailedLabels {
		attrs = append(attrs,
			attribute.String(attrResourceType, resourceType),
			attribute.String(attrNamespace, namespace),
		)
	}

	m.commandsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.commandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordAnalysisInvalidation records one analysis cache invalidation.
func (m *Metrics) RecordAnalysisInvalidation(ctx context.Context) {
	if m == nil || m.analysisInvalidations == nil {
		return
	}

	m.analysisInvalidations.Add(ctx, 1)
}
