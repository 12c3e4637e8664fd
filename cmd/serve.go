package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/giantswarm/kubectl-gateway/internal/instrumentation"
	"github.com/giantswarm/kubectl-gateway/internal/logging"
	"github.com/giantswarm/kubectl-gateway/internal/server"
	"github.com/giantswarm/kubectl-gateway/internal/server/middleware"
	"github.com/giantswarm/kubectl-gateway/internal/tools/kubectl"
)

// newServeCmd creates the Cobra command for starting the gateway.
func newServeCmd() *cobra.Command {
	config := ServeConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the kubectl gateway",
		Long: `Start the kubectl gateway and accept kubectl commands from clients.

Supports two transport types:
  - stdio: Model Context Protocol over standard input/output (default)
  - http: HTTP server exposing POST /api/cli/exec, the streamable-http MCP
    endpoint, and /healthz and /readyz probes

Both transports expose a single "kubectl" MCP tool. While --non-destructive
is set, exec and the mutating commands (patch, scale, set env, rollout
restart) are refused. --dry-run lets the mutations through as server-side
dry runs. exec stays refused because it has no dry-run mode.

Metrics and traces are configured through INSTRUMENTATION_ENABLED,
METRICS_EXPORTER, TRACING_EXPORTER and the OTEL_* environment variables.
With the http transport, Prometheus metrics are served on a separate
address (--metrics-addr).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnvVars(cmd, &config)
			if err := config.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), config)
		},
	}

	addServeFlags(cmd, &config)

	return cmd
}

// addServeFlags registers every serve flag on cmd, bound to config.
func addServeFlags(cmd *cobra.Command, config *ServeConfig) {
	addClusterFlags(cmd, &config.Cluster)
	addLogFlags(cmd, &config.Log, "info")

	cmd.Flags().StringVar(&config.Transport, "transport", transportStdio, "Transport type: stdio or http")
	cmd.Flags().StringVar(&config.HTTPAddr, "http-addr", ":8080", "HTTP server address (for http transport)")
	cmd.Flags().StringVar(&config.HTTPEndpoint, "http-endpoint", server.DefaultMCPEndpoint, "MCP endpoint path (for http transport)")

	cmd.Flags().Float64Var(&config.RateLimit, "rate-limit", middleware.DefaultRateLimit, "Requests per second allowed per client, 0 disables limiting (can also be set via RATE_LIMIT env var)")
	cmd.Flags().IntVar(&config.RateLimitBurst, "rate-limit-burst", middleware.DefaultRateLimitBurst, "Burst size per client (can also be set via RATE_LIMIT_BURST env var)")
	cmd.Flags().BoolVar(&config.TrustProxyHeaders, "trust-proxy-headers", false, "Identify clients by X-Forwarded-For/X-Real-IP (only behind a trusted proxy)")
	cmd.Flags().StringVar(&config.AllowedOrigins, "allowed-origins", "", "Comma separated CORS origins (can also be set via ALLOWED_ORIGINS env var)")
	cmd.Flags().BoolVar(&config.EnableHSTS, "enable-hsts", false, "Send Strict-Transport-Security even without TLS (behind a TLS terminating proxy)")
	cmd.Flags().Int64Var(&config.MaxRequestBytes, "max-request-bytes", server.DefaultMaxRequestBytes, "Maximum request body size in bytes")

	cmd.Flags().BoolVar(&config.Metrics.Enabled, "metrics-enabled", true, "Serve Prometheus metrics on a separate address (for http transport)")
	cmd.Flags().StringVar(&config.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address (can also be set via METRICS_ADDR env var)")
}

func runServe(ctx context.Context, config ServeConfig) error {
	// stdout belongs to the MCP stream in stdio mode
	var logOutput io.Writer = os.Stdout
	if config.Transport == transportStdio {
		logOutput = os.Stderr
	}
	logger, err := newLogger(config.Log, logOutput)
	if err != nil {
		return err
	}

	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	k8sClient, err := newK8sClient(config.Cluster.k8sClientConfig(logger))
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	instrumentationConfig := instrumentation.DefaultConfig()
	if rootCmd.Version != "" {
		instrumentationConfig.ServiceVersion = rootCmd.Version
	}
	instrumentationProvider, err := instrumentation.NewProvider(shutdownCtx, instrumentationConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if shutdownErr := instrumentationProvider.Shutdown(context.Background()); shutdownErr != nil {
			logger.Error("error during instrumentation shutdown", logging.Err(shutdownErr))
		}
	}()

	if instrumentationProvider.Enabled() {
		logger.Info("OpenTelemetry instrumentation enabled",
			"metrics_exporter", instrumentationConfig.MetricsExporter,
			"tracing_exporter", instrumentationConfig.TracingExporter)
	}

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithK8sClient(k8sClient),
		server.WithLogger(logger),
		server.WithConfig(config.Cluster.serverConfig(config.Log)),
		server.WithInstrumentationProvider(instrumentationProvider),
		server.WithAnalysisCache(server.NewMemoryAnalysisCache()),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return err
	}

	logger.Info("starting kubectl gateway",
		logging.KeyTransport, config.Transport,
		"non_destructive", config.Cluster.NonDestructiveMode,
		"dry_run", config.Cluster.DryRun)

	switch config.Transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	case transportHTTP:
		return runHTTPServer(shutdownCtx, mcpSrv, serverContext, config)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", config.Transport, transportStdio, transportHTTP)
	}
}

// newMCPServer creates the MCP server and registers the kubectl tool.
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	cfg := sc.Config()
	mcpSrv := mcpserver.NewMCPServer(cfg.ServerName, cfg.Version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := kubectl.RegisterKubectlTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register kubectl tools: %w", err)
	}
	return mcpSrv, nil
}
