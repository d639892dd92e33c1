package transport

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"mcpbase/internal/api"
)

// toolInputSchema converts declared arguments into the JSON schema the MCP
// protocol expects for a tool.
//
// Every declared argument becomes a property with its JSON type name and
// description. Defaults are advertised so clients can prefill them, and
// required arguments are listed in the schema's required array.
func toolInputSchema(args []api.ArgSpec) mcp.ToolInputSchema {
	properties := make(map[string]interface{})
	required := []string{}

	for _, arg := range args {
		propSchema := map[string]interface{}{
			"type":        arg.Type.String(),
			"description": arg.Description,
		}
		if arg.Default != nil {
			propSchema["default"] = arg.Default
		}

		properties[arg.Name] = propSchema

		if arg.Required {
			required = append(required, arg.Name)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// renderResult converts a dispatch result into MCP wire format.
//
// Faults are serialized as a JSON object carrying the fault kind and
// message, and flagged with IsError on the result. String values pass
// through as plain text; anything else is marshaled to JSON.
func renderResult(result api.InvocationResult) *mcp.CallToolResult {
	if result.IsFaulted() {
		data, err := json.Marshal(result.Fault)
		if err != nil {
			// Fault carries only strings, but keep the degraded path anyway.
			return mcp.NewToolResultError(result.Fault.Error())
		}
		return mcp.NewToolResultError(string(data))
	}

	if text, ok := result.Value.(string); ok {
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(text)},
		}
	}

	data, err := json.Marshal(result.Value)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize tool result: %v", err))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
	}
}
