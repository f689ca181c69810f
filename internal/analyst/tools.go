package analyst

import (
	"encoding/json"
	"fmt"

	"github.com/statlab-ai/analyst-platform/internal/llm"
)

// ToolKind is the closed set of tools the analyst assistant may call.
type ToolKind int

const (
	ToolUnknown ToolKind = iota
	ToolQuery
	ToolVisualization
)

const (
	toolNameQuery         = "query_tool"
	toolNameVisualization = "visualization_tool"
)

func (k ToolKind) String() string {
	switch k {
	case ToolQuery:
		return toolNameQuery
	case ToolVisualization:
		return toolNameVisualization
	}
	return "unknown"
}

// QueryArgs are the arguments of a query tool call.
type QueryArgs struct {
	QueryDescriptions []string `json:"query_descriptions"`
}

// VisualizationArgs are the arguments of a visualization tool call.
type VisualizationArgs struct {
	VisualizationDescription string `json:"visualization_description"`
}

// Invocation is one parsed tool call with its strongly-typed argument record.
// Exactly the field matching Kind is non-nil.
type Invocation struct {
	CallID string
	Name   string
	Kind   ToolKind

	Query         *QueryArgs
	Visualization *VisualizationArgs
}

// parseInvocation decodes a raw tool call into a typed invocation. Unknown
// tool names parse successfully as ToolUnknown; malformed arguments for a
// known tool are an error.
func parseInvocation(tc llm.ToolCall) (Invocation, error) {
	inv := Invocation{CallID: tc.ID, Name: tc.Name}

	switch tc.Name {
	case toolNameQuery:
		inv.Kind = ToolQuery
		var args QueryArgs
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return inv, fmt.Errorf("parse %s arguments: %w", tc.Name, err)
		}
		inv.Query = &args
	case toolNameVisualization:
		inv.Kind = ToolVisualization
		var args VisualizationArgs
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return inv, fmt.Errorf("parse %s arguments: %w", tc.Name, err)
		}
		inv.Visualization = &args
	default:
		inv.Kind = ToolUnknown
	}

	return inv, nil
}
