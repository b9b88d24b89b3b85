package chat

import (
	"encoding/json"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"mcpchat/backend"
)

// NoToolsText is displayed in place of an empty tool list.
const NoToolsText = "No tools available"

type Tool = backend.Tool

// ToolParams returns the parameter names declared in the tool's input schema,
// sorted, with required ones suffixed by "*". A missing or undecodable schema
// yields no parameters.
func ToolParams(t Tool) []string {
	if len(t.InputSchema) == 0 {
		return nil
	}

	var schema mcp.ToolInputSchema
	if err := json.Unmarshal(t.InputSchema, &schema); err != nil {
		return nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	params := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		if required[name] {
			name += "*"
		}
		params = append(params, name)
	}
	sort.Strings(params)
	return params
}
