package server

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/giantswarm/kubectl-gateway/internal/instrumentation"
	"github.com/giantswarm/kubectl-gateway/internal/interpreter"
	"github.com/giantswarm/kubectl-gateway/internal/k8s"
	"github.com/giantswarm/kubectl-gateway/internal/logging"
	"github.com/giantswarm/kubectl-gateway/internal/server/middleware"
)

// Transport names used in logs, spans and metrics.
const (
	TransportHTTP  = "http"
	TransportMCP   = "mcp"
	TransportLocal = "local"
)

// ServerContext encapsulates all dependencies needed by the gateway
// transports and owns the boundary around the command interpreter.
type ServerContext struct {
	// Core dependencies
	k8sClient   k8s.Client
	interpreter *interpreter.Interpreter
	logger      *slog.Logger
	config      *Config

	instrumentationProvider *instrumentation.Provider
	analysisCache           AnalysisCache

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Lifecycle management
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new ServerContext with default values.
// Use the provided functional options to customize the context.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    serverCtx,
		cancel: cancel,
		config: NewDefaultConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(sc); err != nil {
			cancel()
			return nil, err
		}
	}

	if err := sc.validate(); err != nil {
		cancel()
		return nil, err
	}

	sc.interpreter = interpreter.New(sc.k8sClient, interpreter.WithLogger(sc.logger))

	return sc, nil
}

// ExecuteCommand runs one raw kubectl command and returns its envelope.
// It wraps the interpreter with a span, command metrics and a log line, and
// invalidates the analysis cache after every successful command.
func (sc *ServerContext) ExecuteCommand(ctx context.Context, transport, raw string) interpreter.Envelope {
	start := time.Now()

	ctx, span := instrumentation.StartCommandSpan(ctx, transport)
	defer span.End()

	logger := logging.WithTransport(sc.logger, transport)
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		logger = logger.With(logging.RequestID(id))
	}

	if sc.IsShutdown() {
		return interpreter.Normalize(raw, nil, ErrServerShutdown)
	}

	var (
		verb, kind, namespace string
		result                any
	)

	cmd, err := interpreter.Parse(raw)
	if err == nil {
		target := cmd.ResourceTarget()
		verb = cmd.Verb().String()
		kind = strings.ToLower(target.Kind.String())
		namespace = target.Namespace

		span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
			WithVerb(verb).
			WithNamespace(namespace).
			WithResource(kind, target.Name).
			Build()...)

		result, err = sc.interpreter.Dispatch(ctx, cmd)
	}

	envelope := interpreter.Normalize(raw, result, err)
	duration := time.Since(start)

	metrics := sc.InstrumentationProvider().Metrics()
	metrics.RecordCommand(ctx, verb, kind, namespace, envelope.Code.String(), duration)

	attrs := []any{
		logging.Verb(verb),
		logging.Command(raw),
		logging.Namespace(namespace),
		slog.Duration(logging.KeyDuration, duration),
	}

	if !envelope.Success {
		instrumentation.SetSpanError(span, err)
		span.SetAttributes(attribute.String(instrumentation.SpanAttrCode, envelope.Code.String()))
		attrs = append(attrs, logging.Code(envelope.Code.String()), logging.SanitizedErr(err))

		if envelope.Code.ClientCaused() {
			logger.Info("command rejected", attrs...)
		} else {
			logger.Error("command failed", attrs...)
		}
		return envelope
	}

	instrumentation.SetSpanSuccess(span)
	logger.Info("command executed", attrs...)

	if cache := sc.AnalysisCache(); cache != nil {
		cache.Invalidate()
		metrics.RecordAnalysisInvalidation(ctx)
	}

	return envelope
}

// Context returns the server context for cancellation and deadlines.
func (sc *ServerContext) Context() context.Context {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ctx
}

// K8sClient returns the Kubernetes client interface.
func (sc *ServerContext) K8sClient() k8s.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.k8sClient
}

// Interpreter returns the command interpreter.
func (sc *ServerContext) Interpreter() *interpreter.Interpreter {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.interpreter
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// Config returns the server configuration.
func (sc *ServerContext) Config() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config
}

// InstrumentationProvider returns the instrumentation provider, which may be nil.
func (sc *ServerContext) InstrumentationProvider() *instrumentation.Provider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.instrumentationProvider
}

// AnalysisCache returns the analysis cache, which may be nil.
func (sc *ServerContext) AnalysisCache() AnalysisCache {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.analysisCache
}

// Shutdown gracefully shuts down the server context.
// This cancels the context and releases any resources.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.logger.Info("shutting down server context")

	if sc.cancel != nil {
		sc.cancel()
	}
	sc.shutdown = true

	return nil
}

// IsShutdown returns true if the server context has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// validate ensures all required dependencies are set.
func (sc *ServerContext) validate() error {
	if sc.k8sClient == nil {
		return ErrMissingK8sClient
	}
	if sc.logger == nil {
		return ErrMissingLogger
	}
	if sc.config == nil {
		return ErrMissingConfig
	}
	return nil
}

// Config holds the server configuration.
type Config struct {
	ServerName string `json:"serverName"`
	Version    string `json:"version"`

	// InCluster is set when the gateway authenticates with its service account.
	InCluster bool `json:"inCluster"`

	// Safety settings mirrored from the cluster client for health reporting.
	NonDestructiveMode bool `json:"nonDestructiveMode"`
	DryRun             bool `json:"dryRun"`

	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"`
}

// NewDefaultConfig creates a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		ServerName:         "kubectl-gateway",
		Version:            "0.1.0",
		NonDestructiveMode: true,
		LogLevel:           "info",
		LogFormat:          logging.FormatText,
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
