package tools

import (
	"encoding/json"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	ollamaapi "github.com/ollama/ollama/api"
)

// ToOllama converts MCP tool descriptions to the Ollama chat API format.
func ToOllama(mcpTools []mcptypes.Tool) []ollamaapi.Tool {
	out := make([]ollamaapi.Tool, 0, len(mcpTools))
	for _, t := range mcpTools {
		out = append(out, ollamaapi.Tool{
			Type: "function",
			Function: ollamaapi.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toParameters(t.InputSchema),
			},
		})
	}
	return out
}

func toParameters(schema mcptypes.ToolInputSchema) ollamaapi.ToolFunctionParameters {
	params := ollamaapi.ToolFunctionParameters{
		Type:       schema.Type,
		Required:   schema.Required,
		Properties: make(map[string]ollamaapi.ToolProperty, len(schema.Properties)),
	}
	if schema.Defs != nil {
		params.Defs = schema.Defs
	}
	for name, value := range schema.Properties {
		params.Properties[name] = toProperty(value)
	}
	return params
}

func toProperty(value any) ollamaapi.ToolProperty {
	prop := ollamaapi.ToolProperty{}

	m, ok := value.(map[string]any)
	if !ok {
		data, err := json.Marshal(value)
		if err != nil {
			return prop
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return prop
		}
	}

	switch t := m["type"].(type) {
	case string:
		prop.Type = ollamaapi.PropertyType{t}
	case []string:
		prop.Type = ollamaapi.PropertyType(t)
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		prop.Type = ollamaapi.PropertyType(types)
	}
	if desc, ok := m["description"].(string); ok {
		prop.Description = desc
	}
	if enum, ok := m["enum"].([]any); ok {
		prop.Enum = enum
	}
	if items, ok := m["items"]; ok {
		prop.Items = items
	}
	return prop
}
