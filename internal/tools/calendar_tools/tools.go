package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/tools"
)

// Dispatcher runs a tool invocation.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv tools.Invocation, source string) tools.Result
}

// RegisterCalendarTools registers the scheduling tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, d Dispatcher) error {
	if d == nil {
		return fmt.Errorf("no dispatcher configured")
	}
	for _, tool := range tools.Definitions() {
		s.AddTool(tool, handler(d, tool.Name))
	}
	return nil
}

func handler(d Dispatcher, name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		res := d.Dispatch(ctx, tools.Invocation{
			ID:        "mcp_" + uuid.NewString(),
			Name:      name,
			Arguments: raw,
		}, instrumentation.SourceMCP)

		if res.IsError {
			return mcp.NewToolResultError(res.Result), nil
		}
		return mcp.NewToolResultText(res.Result), nil
	}
}
