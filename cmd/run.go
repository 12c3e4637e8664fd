package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giantswarm/kubectl-gateway/internal/interpreter"
	"github.com/giantswarm/kubectl-gateway/internal/logging"
	"github.com/giantswarm/kubectl-gateway/internal/server"
)

// RunConfig holds the configuration of the run command.
type RunConfig struct {
	Cluster ClusterConfig
	Log     LogConfig
}

// newRunCmd creates the Cobra command that executes a single command locally.
func newRunCmd() *cobra.Command {
	config := RunConfig{}

	cmd := &cobra.Command{
		Use:   "run [kubectl] <verb> [args...]",
		Short: "Execute one kubectl command and print the result envelope",
		Long: `Execute a single kubectl command through the gateway's interpreter and
print the JSON result envelope to stdout.

The leading "kubectl" may be omitted. Everything after "--" is passed through
unchanged, so flags of the command itself do not clash with run's flags:

  kubectl-gateway run -- kubectl get pods -n prod
  kubectl-gateway run -- logs web-0 --tail=20

The exit code is non-zero when the command is rejected or fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loadClusterEnvVars(cmd, &config.Cluster)
			loadLogEnvVars(cmd, &config.Log)
			return runCommand(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), config, args)
		},
	}

	addClusterFlags(cmd, &config.Cluster)
	// warn keeps the envelope the only output of a successful run
	addLogFlags(cmd, &config.Log, "warn")

	return cmd
}

// commandLine rebuilds the raw command from CLI arguments.
func commandLine(args []string) string {
	if len(args) > 0 && args[0] != interpreter.ProgramName {
		args = append([]string{interpreter.ProgramName}, args...)
	}
	return strings.Join(args, " ")
}

func runCommand(ctx context.Context, stdout, stderr io.Writer, config RunConfig, args []string) error {
	logger, err := newLogger(config.Log, stderr)
	if err != nil {
		return err
	}

	k8sClient, err := newK8sClient(config.Cluster.k8sClientConfig(logger))
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	sc, err := server.NewServerContext(ctx,
		server.WithK8sClient(k8sClient),
		server.WithLogger(logger),
		server.WithConfig(config.Cluster.serverConfig(config.Log)),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := sc.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", logging.Err(err))
		}
	}()

	envelope := sc.ExecuteCommand(ctx, server.TransportLocal, commandLine(args))

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(envelope); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if !envelope.Success {
		return fmt.Errorf("command failed with %s", envelope.Code)
	}
	return nil
}
