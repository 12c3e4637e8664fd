// Package cmd provides the command-line interface for kubectl-gateway.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - serve: Starts the gateway (default behavior when no subcommand is provided)
//   - run: Executes a single kubectl command locally and prints the envelope
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest version from GitHub releases
//
// Command Structure:
//
//	kubectl-gateway [flags]                     # Starts the gateway (default)
//	kubectl-gateway serve [flags]               # Explicitly starts the gateway
//	kubectl-gateway run -- kubectl get pods     # Runs one command
//	kubectl-gateway version                     # Shows version information
//	kubectl-gateway self-update                 # Updates to latest release
//
// The serve command supports two transports:
//   - stdio: MCP over standard input/output, for local MCP clients
//   - http: the command endpoint, streamable-http MCP and health probes
//
// Transport Configuration Examples:
//
//	kubectl-gateway serve --transport stdio
//	kubectl-gateway serve --transport http --http-addr :8080 --metrics-addr :9090
//
// Most flags can also be set through environment variables (KUBECONFIG,
// LOG_LEVEL, LOG_FORMAT, RATE_LIMIT, RATE_LIMIT_BURST, METRICS_ADDR,
// ALLOWED_ORIGINS...). A flag given on the command line always wins.
package cmd
