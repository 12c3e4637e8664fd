package kubectl

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/kubectl-gateway/internal/server"
)

// ToolName is the name the kubectl tool is registered under.
const ToolName = "kubectl"

const toolDescription = `Run a kubectl command against the cluster.

Supported commands:
  kubectl get <pods|deployments|services> [-n NS]
  kubectl describe <pod|deployment> <name> [-n NS]
  kubectl logs <pod> [-n NS] [-c CONTAINER] [--tail=N]
  kubectl exec <pod> [-n NS] [-c CONTAINER] -- <command...>
  kubectl patch deployment <name> [-n NS] [--type=json|merge|strategic] --patch=<patch>
  kubectl scale deployment <name> --replicas=N [-n NS]
  kubectl set env deployment/<name> KEY=VALUE... [-n NS]
  kubectl rollout restart deployment/<name> [-n NS]

The command is split on whitespace and quoting is not supported: quotes are
passed through as part of the value. Patch bodies and env values must not
contain whitespace, for example --patch={"spec":{"replicas":2}}`

// RegisterKubectlTools registers the kubectl tool with the MCP server.
func RegisterKubectlTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	tool := mcp.NewTool(ToolName,
		mcp.WithDescription(toolDescription),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Full kubectl command line, starting with \"kubectl\""),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleKubectl(ctx, request, sc)
	})

	return nil
}
