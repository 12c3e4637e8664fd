// Package kubectl exposes the command interpreter as a single MCP tool.
//
// The tool takes one raw kubectl command line, runs it through the shared
// ServerContext and returns the JSON envelope the HTTP endpoint would return.
// Rejected and failed commands are flagged as tool errors so MCP clients can
// tell them apart without parsing the envelope.
package kubectl
