// Package server provides the ServerContext and the HTTP surface of the
// kubectl gateway.
//
// ServerContext wires the cluster client, the command interpreter, the
// logger, the instrumentation provider and the analysis cache together using
// functional options. Every transport (HTTP, MCP, the local run command)
// funnels commands through ServerContext.ExecuteCommand, which adds a trace
// span, command metrics and a structured log line around the interpreter and
// invalidates the analysis cache after a successful command.
//
// HTTP endpoints:
//
//   - POST /api/cli/exec: body {"command": "kubectl ..."}, responds with the
//     command envelope. 200 on success, 400 for malformed or unsupported
//     commands, 500 when the cluster call fails.
//   - /healthz, /readyz, /healthz/detailed: Kubernetes probes.
//   - /mcp: streamable HTTP MCP endpoint, when mounted.
//
// Metrics are served by a separate MetricsServer so scrapes never share a
// listener with command traffic.
package server
