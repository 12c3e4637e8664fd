// Package logging provides structured logging utilities for kubectl-gateway.
//
// All components log through log/slog. This package builds the process
// logger from the configured level and format, and centralises attribute
// names so that log lines from the interpreter and the cluster client can be
// correlated.
//
// # Usage Patterns
//
// Build the process logger:
//
//	logger, err := logging.New("info", "json", os.Stderr)
//
// Attach standard attributes:
//
//	logger.Info("command executed",
//	    logging.Verb("scale"),
//	    logging.Namespace("default"),
//	    logging.Command(raw))
//
// # Security Considerations
//
//   - Commands are logged through SanitizeCommand, which masks KEY=VALUE
//     values and patch bodies
//   - API server URLs and error messages have IP addresses redacted
package logging
