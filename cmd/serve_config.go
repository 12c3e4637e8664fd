package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/giantswarm/kubectl-gateway/internal/k8s"
	"github.com/giantswarm/kubectl-gateway/internal/logging"
	"github.com/giantswarm/kubectl-gateway/internal/server"
	"github.com/giantswarm/kubectl-gateway/internal/server/middleware"
)

// Transport type constants for the serve command.
const (
	transportStdio = "stdio"
	transportHTTP  = "http"
)

// envValueTrue is the string value used to enable boolean environment variables.
const envValueTrue = "true"

// defaultClientTimeout bounds every Kubernetes API call.
const defaultClientTimeout = 30 * time.Second

// ClusterConfig holds the Kubernetes client settings shared by serve and run.
type ClusterConfig struct {
	Kubeconfig         string
	Context            string
	InCluster          bool
	NonDestructiveMode bool
	DryRun             bool
	QPSLimit           float32
	BurstLimit         int
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Transport settings
	Transport    string
	HTTPAddr     string
	HTTPEndpoint string

	Cluster ClusterConfig
	Log     LogConfig

	// HTTP hardening
	RateLimit         float64
	RateLimitBurst    int
	TrustProxyHeaders bool
	AllowedOrigins    string
	EnableHSTS        bool
	MaxRequestBytes   int64

	Metrics MetricsServeConfig
}

// MetricsServeConfig configures the dedicated metrics server.
type MetricsServeConfig struct {
	Enabled bool
	Addr    string
}

// addClusterFlags registers the flags of ClusterConfig on cmd.
func addClusterFlags(cmd *cobra.Command, config *ClusterConfig) {
	cmd.Flags().StringVar(&config.Kubeconfig, "kubeconfig", "", "Path to the kubeconfig file (can also be set via KUBECONFIG env var)")
	cmd.Flags().StringVar(&config.Context, "context", "", "Kubeconfig context to use (default: current context)")
	cmd.Flags().BoolVar(&config.InCluster, "in-cluster", false, "Use in-cluster authentication (service account token) instead of kubeconfig")
	cmd.Flags().BoolVar(&config.NonDestructiveMode, "non-destructive", true, "Refuse exec and mutating commands (patch, scale, set env, rollout restart). --dry-run unlocks the mutations but never exec")
	cmd.Flags().BoolVar(&config.DryRun, "dry-run", false, "Send mutations to the API server as server-side dry runs")
	cmd.Flags().Float32Var(&config.QPSLimit, "qps-limit", 20.0, "QPS limit for Kubernetes API calls")
	cmd.Flags().IntVar(&config.BurstLimit, "burst-limit", 30, "Burst limit for Kubernetes API calls")
}

// addLogFlags registers the flags of LogConfig on cmd.
func addLogFlags(cmd *cobra.Command, config *LogConfig, defaultLevel string) {
	cmd.Flags().StringVar(&config.Level, "log-level", defaultLevel, "Log level: debug, info, warn or error (can also be set via LOG_LEVEL env var)")
	cmd.Flags().StringVar(&config.Format, "log-format", logging.FormatText, "Log format: text or json (can also be set via LOG_FORMAT env var)")
}

// loadClusterEnvVars fills unset cluster flags from the environment.
func loadClusterEnvVars(cmd *cobra.Command, config *ClusterConfig) {
	if !cmd.Flags().Changed("kubeconfig") {
		loadEnvIfEmpty(&config.Kubeconfig, "KUBECONFIG")
	}
	if !cmd.Flags().Changed("in-cluster") && os.Getenv("IN_CLUSTER") == envValueTrue {
		config.InCluster = true
	}
	if !cmd.Flags().Changed("qps-limit") {
		if f, ok := parseFloat32Env(os.Getenv("QPS_LIMIT"), "QPS_LIMIT"); ok {
			config.QPSLimit = f
		}
	}
	if !cmd.Flags().Changed("burst-limit") {
		if n, ok := parseIntEnv(os.Getenv("BURST_LIMIT"), "BURST_LIMIT"); ok {
			config.BurstLimit = n
		}
	}
}

// loadLogEnvVars fills unset log flags from the environment.
func loadLogEnvVars(cmd *cobra.Command, config *LogConfig) {
	if !cmd.Flags().Changed("log-level") {
		if level := os.Getenv("LOG_LEVEL"); level != "" {
			config.Level = level
		}
	}
	if !cmd.Flags().Changed("log-format") {
		if format := os.Getenv("LOG_FORMAT"); format != "" {
			config.Format = format
		}
	}
}

// loadServeEnvVars loads serve configuration from environment variables.
// Environment variables only override flag values when the flag was not explicitly set.
func loadServeEnvVars(cmd *cobra.Command, config *ServeConfig) {
	loadClusterEnvVars(cmd, &config.Cluster)
	loadLogEnvVars(cmd, &config.Log)

	if !cmd.Flags().Changed("rate-limit") {
		if f, ok := parseFloat64Env(os.Getenv("RATE_LIMIT"), "RATE_LIMIT"); ok {
			config.RateLimit = f
		}
	}
	if !cmd.Flags().Changed("rate-limit-burst") {
		if n, ok := parseIntEnv(os.Getenv("RATE_LIMIT_BURST"), "RATE_LIMIT_BURST"); ok {
			config.RateLimitBurst = n
		}
	}
	if !cmd.Flags().Changed("trust-proxy-headers") && os.Getenv("TRUST_PROXY_HEADERS") == envValueTrue {
		config.TrustProxyHeaders = true
	}
	if !cmd.Flags().Changed("allowed-origins") {
		loadEnvIfEmpty(&config.AllowedOrigins, "ALLOWED_ORIGINS")
	}
	if !cmd.Flags().Changed("enable-hsts") && os.Getenv("ENABLE_HSTS") == envValueTrue {
		config.EnableHSTS = true
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			config.Metrics.Addr = addr
		}
	}
	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			config.Metrics.Enabled = v == envValueTrue
		}
	}
}

// Validate checks the serve configuration for values that cannot work.
func (c *ServeConfig) Validate() error {
	switch c.Transport {
	case transportStdio, transportHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", c.Transport, transportStdio, transportHTTP)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1 when rate limiting is enabled, got %d", c.RateLimitBurst)
	}
	if c.MaxRequestBytes < 0 {
		return fmt.Errorf("max request bytes must not be negative, got %d", c.MaxRequestBytes)
	}
	if _, err := middleware.ValidateAllowedOrigins(c.AllowedOrigins); err != nil {
		return fmt.Errorf("invalid allowed origins: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// httpConfig translates the serve configuration into the server's HTTP settings.
func (c *ServeConfig) httpConfig() (server.HTTPConfig, error) {
	origins, err := middleware.ValidateAllowedOrigins(c.AllowedOrigins)
	if err != nil {
		return server.HTTPConfig{}, err
	}
	return server.HTTPConfig{
		MCPEndpoint: c.HTTPEndpoint,
		RateLimit: middleware.RateLimitConfig{
			Rate:              rate.Limit(c.RateLimit),
			Burst:             c.RateLimitBurst,
			TrustProxyHeaders: c.TrustProxyHeaders,
		},
		AllowedOrigins:  origins,
		EnableHSTS:      c.EnableHSTS,
		MaxRequestBytes: c.MaxRequestBytes,
	}, nil
}

// k8sClientConfig builds the Kubernetes client configuration.
func (c ClusterConfig) k8sClientConfig(logger *slog.Logger) *k8s.ClientConfig {
	return &k8s.ClientConfig{
		KubeconfigPath:     c.Kubeconfig,
		Context:            c.Context,
		InCluster:          c.InCluster,
		NonDestructiveMode: c.NonDestructiveMode,
		DryRun:             c.DryRun,
		QPSLimit:           c.QPSLimit,
		BurstLimit:         c.BurstLimit,
		Timeout:            defaultClientTimeout,
		Logger:             logger,
	}
}

// serverConfig builds the server context configuration.
func (c ClusterConfig) serverConfig(log LogConfig) *server.Config {
	config := server.NewDefaultConfig()
	if rootCmd.Version != "" {
		config.Version = rootCmd.Version
	}
	config.InCluster = c.InCluster
	config.NonDestructiveMode = c.NonDestructiveMode
	config.DryRun = c.DryRun
	config.LogLevel = log.Level
	config.LogFormat = log.Format
	return config
}

// newLogger builds the process logger. Logs go to w, which is stderr for the
// stdio transport so they never mix with the MCP stream on stdout.
func newLogger(config LogConfig, w io.Writer) (*slog.Logger, error) {
	return logging.New(config.Level, config.Format, w)
}

// newK8sClient is replaced in tests.
var newK8sClient = k8s.NewClient

// loadEnvIfEmpty loads an environment variable into a string pointer if it's empty.
func loadEnvIfEmpty(target *string, envKey string) {
	if *target == "" {
		*target = os.Getenv(envKey)
	}
}

// parseIntEnv parses an integer from an environment variable value.
// Returns the parsed int and true if successful, or zero and false if parsing fails.
// Logs a warning if the value is present but invalid.
func parseIntEnv(value, envName string) (int, bool) {
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment", "env", envName, "value", value, logging.Err(err))
		return 0, false
	}
	return n, true
}

// parseFloat32Env parses a float32 from an environment variable value.
func parseFloat32Env(value, envName string) (float32, bool) {
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		slog.Warn("invalid float in environment", "env", envName, "value", value, logging.Err(err))
		return 0, false
	}
	return float32(f), true
}

// parseFloat64Env parses a float64 from an environment variable value.
func parseFloat64Env(value, envName string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("invalid float in environment", "env", envName, "value", value, logging.Err(err))
		return 0, false
	}
	return f, true
}
