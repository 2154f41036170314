package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"linkmcp/internal/api"
	"linkmcp/pkg/logging"
)

// createServerTools converts every tool the provider offers into an MCP
// server tool backed by the provider's ExecuteTool.
func createServerTools(provider api.ToolProvider) []mcpserver.ServerTool {
	var tools []mcpserver.ServerTool

	for _, toolMeta := range provider.GetTools() {
		tools = append(tools, mcpserver.ServerTool{
			Tool: mcp.Tool{
				Name:        toolMeta.Name,
				Description: toolMeta.Description,
				InputSchema: convertToMCPSchema(toolMeta.Parameters),
			},
			Handler: createToolHandler(provider, toolMeta.Name),
		})
	}

	return tools
}

// createToolHandler wraps the provider's ExecuteTool in an MCP handler.
// Execution failures become error results rather than protocol errors so
// MCP clients always receive a well-formed response.
func createToolHandler(provider api.ToolProvider, toolName string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := make(map[string]interface{})
		if req.Params.Arguments != nil {
			if argsMap, ok := req.Params.Arguments.(map[string]interface{}); ok {
				args = argsMap
			}
		}

		result, err := provider.ExecuteTool(ctx, toolName, args)
		if err != nil {
			logging.Error("Server", err, "Tool execution failed for %s", toolName)
			return mcp.NewToolResultError(fmt.Sprintf("Tool execution failed: %v", err)), nil
		}

		return convertToMCPResult(result), nil
	}
}

// convertToMCPSchema converts parameter metadata to the JSON schema MCP
// clients validate input against.
func convertToMCPSchema(params []api.ParameterMetadata) mcp.ToolInputSchema {
	properties := make(map[string]interface{})
	required := []string{}

	for _, param := range params {
		propSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}

		if param.Default != nil {
			propSchema["default"] = param.Default
		}

		properties[param.Name] = propSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// convertToMCPResult converts an internal tool result to MCP format.
// String content is converted directly to text content; anything else is
// marshaled to JSON for MCP compatibility.
func convertToMCPResult(result *api.CallToolResult) *mcp.CallToolResult {
	mcpContent := make([]mcp.Content, len(result.Content))

	for i, content := range result.Content {
		if text, ok := content.(string); ok {
			mcpContent[i] = mcp.NewTextContent(text)
		} else {
			jsonBytes, _ := json.Marshal(content)
			mcpContent[i] = mcp.NewTextContent(string(jsonBytes))
		}
	}

	return &mcp.CallToolResult{
		Content: mcpContent,
		IsError: result.IsError,
	}
}
