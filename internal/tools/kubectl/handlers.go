package kubectl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/kubectl-gateway/internal/server"
	"github.com/giantswarm/kubectl-gateway/internal/server/middleware"
)

// handleKubectl runs one command through the interpreter.
func handleKubectl(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	command, ok := args["command"].(string)
	if !ok {
		return mcp.NewToolResultError("command is required"), nil
	}

	// stdio sessions never pass the HTTP middleware.
	if middleware.RequestIDFromContext(ctx) == "" {
		ctx = middleware.WithRequestID(ctx, uuid.New().String())
	}

	envelope := sc.ExecuteCommand(ctx, server.TransportMCP, command)

	jsonData, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal result: %v", err)), nil
	}

	if !envelope.Success {
		return mcp.NewToolResultError(string(jsonData)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
