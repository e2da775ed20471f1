package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/archkit/internal/graph"
)

// --- arch_graph ---

// GraphTool handles the arch_graph MCP tool.
type GraphTool struct {
	graphs *graph.Service
}

// NewGraphTool creates a GraphTool.
func NewGraphTool(gs *graph.Service) *GraphTool {
	return &GraphTool{graphs: gs}
}

// Definition returns the MCP tool definition for arch_graph.
func (t *GraphTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_graph",
		mcp.WithDescription("Render the reference graph as Mermaid or Graphviz DOT, optionally limited to the artifacts connected to one root."),
		mcp.WithString("format", mcp.Description("mermaid (default) or dot")),
		mcp.WithString("root", mcp.Description("Only draw the component containing this artifact")),
	)
}

// Handle processes the arch_graph tool call.
func (t *GraphTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := t.graphs.Render(graph.RenderOptions{
		Format: graph.Format(req.GetString("format", string(graph.FormatMermaid))),
		Root:   req.GetString("root", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(out), nil
}

// --- arch_cycles ---

// CyclesTool handles the arch_cycles MCP tool.
type CyclesTool struct {
	graphs *graph.Service
}

// NewCyclesTool creates a CyclesTool.
func NewCyclesTool(gs *graph.Service) *CyclesTool {
	return &CyclesTool{graphs: gs}
}

// Definition returns the MCP tool definition for arch_cycles.
func (t *CyclesTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_cycles",
		mcp.WithDescription("Detect circular references between artifacts. Cycles longer than three artifacts are critical."),
	)
}

// Handle processes the arch_cycles tool call.
func (t *CyclesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycles, err := t.graphs.DetectCircularDependencies()
	if err != nil {
		return toolError(err)
	}
	if len(cycles) == 0 {
		return mcp.NewToolResultText("No circular dependencies found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d circular dependencies:\n\n", len(cycles))
	for _, c := range cycles {
		fmt.Fprintf(&b, "- [%s] %s\n", c.Severity, c)
	}
	return mcp.NewToolResultText(b.String()), nil
}
