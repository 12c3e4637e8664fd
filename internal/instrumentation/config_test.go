package instrumentation

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	for _, key := range []string{
		"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER", "TRACING_EXPORTER",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_TRACES_SAMPLER_ARG", "METRICS_DETAILED_LABELS",
	} {
		t.Setenv(key, "")
	}

	config := DefaultConfig()

	if config.ServiceName != "kubectl-gateway" {
		t.Errorf("expected ServiceName to be 'kubectl-gateway', got %s", config.ServiceName)
	}

	if config.Enabled {
		t.Error("expected Enabled to be false by default")
	}

	if config.MetricsExporter != ExporterPrometheus {
		t.Errorf("expected MetricsExporter to be 'prometheus', got %s", config.MetricsExporter)
	}

	if config.TracingExporter != ExporterNone {
		t.Errorf("expected TracingExporter to be 'none', got %s", config.TracingExporter)
	}

	if config.TraceSamplingRate != 0.1 {
		t.Errorf("expected TraceSamplingRate to be 0.1, got %f", config.TraceSamplingRate)
	}

	if config.DetailedLabels {
		t.Error("expected DetailedLabels to be false by default")
	}

	if config.PrometheusEndpoint != "/metrics" {
		t.Errorf("expected PrometheusEndpoint to be '/metrics', got %s", config.PrometheusEndpoint)
	}
}

func TestDefaultConfigWithEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "test-service")
	t.Setenv("INSTRUMENTATION_ENABLED", "true")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("TRACING_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("METRICS_DETAILED_LABELS", "true")

	config := DefaultConfig()

	if config.ServiceName != "test-service" {
		t.Errorf("expected ServiceName to be 'test-service', got %s", config.ServiceName)
	}
	if !config.Enabled {
		t.Error("expected Enabled to be true")
	}
	if config.MetricsExporter != "stdout" {
		t.Errorf("expected MetricsExporter to be 'stdout', got %s", config.MetricsExporter)
	}
	if config.TracingExporter != "otlp" {
		t.Errorf("expected TracingExporter to be 'otlp', got %s", config.TracingExporter)
	}
	if config.OTLPEndpoint != "http://localhost:4318" {
		t.Errorf("expected OTLPEndpoint to be 'http://localhost:4318', got %s", config.OTLPEndpoint)
	}
	if config.TraceSamplingRate != 0.5 {
		t.Errorf("expected TraceSamplingRate to be 0.5, got %f", config.TraceSamplingRate)
	}
	if !config.DetailedLabels {
		t.Error("expected DetailedLabels to be true")
	}
}

func TestDefaultConfigInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("INSTRUMENTATION_ENABLED", "not-a-bool")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "lots")

	config := DefaultConfig()

	if config.Enabled {
		t.Error("expected Enabled to fall back to false")
	}
	if config.TraceSamplingRate != 0.1 {
		t.Errorf("expected TraceSamplingRate to fall back to 0.1, got %f", config.TraceSamplingRate)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "disabled config is always valid",
			config: Config{Enabled: false, MetricsExporter: "bogus", TraceSamplingRate: 7},
		},
		{
			name:   "prometheus without tracing",
			config: Config{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone, TraceSamplingRate: 0.1},
		},
		{
			name:   "otlp both",
			config: Config{Enabled: true, MetricsExporter: ExporterOTLP, TracingExporter: ExporterOTLP, TraceSamplingRate: 1},
		},
		{
			name:   "empty tracing exporter",
			config: Config{Enabled: true, MetricsExporter: ExporterStdout},
		},
		{
			name:    "unknown metrics exporter",
			config:  Config{Enabled: true, MetricsExporter: "graphite"},
			wantErr: true,
		},
		{
			name:    "unknown tracing exporter",
			config:  Config{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: "zipkin"},
			wantErr: true,
		},
		{
			name:    "sampling rate above one",
			config:  Config{Enabled: true, MetricsExporter: ExporterPrometheus, TraceSamplingRate: 1.5},
			wantErr: true,
		},
		{
			name:    "negative sampling rate",
			config:  Config{Enabled: true, MetricsExporter: ExporterPrometheus, TraceSamplingRate: -0.1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
