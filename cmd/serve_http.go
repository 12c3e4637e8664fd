package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/kubectl-gateway/internal/logging"
	"github.com/giantswarm/kubectl-gateway/internal/server"
)

// runHTTPServer serves the command endpoint, MCP and health probes on
// config.HTTPAddr and, when enabled, metrics on a separate address. It
// returns once ctx is cancelled and both servers have shut down, or as soon
// as either server fails.
func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, config ServeConfig) error {
	logger := sc.Logger()

	httpConfig, err := config.httpConfig()
	if err != nil {
		return fmt.Errorf("invalid HTTP configuration: %w", err)
	}
	httpConfig.MCPHandler = mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(httpConfig.MCPEndpoint),
	)

	healthChecker := server.NewHealthChecker(sc)
	httpServer := server.NewHTTPServer(config.HTTPAddr, server.NewHTTPHandler(sc, healthChecker, httpConfig))

	// Metrics are served on a separate server so they are never exposed on the public port
	var metricsServer *server.MetricsServer
	provider := sc.InstrumentationProvider()
	if config.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    config.Metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server starting",
			"addr", config.HTTPAddr,
			"exec_endpoint", server.ExecPath,
			"mcp_endpoint", httpConfig.MCPEndpoint,
			"health_endpoints", []string{"/healthz", "/readyz"})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			logger.Info("metrics server starting", "addr", metricsServer.Addr(), "endpoint", "/metrics")
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server stopped with error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, stopping HTTP server")

		// Fail readiness first so load balancers stop routing new commands
		healthChecker.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("error shutting down metrics server", logging.Err(err))
			}
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
