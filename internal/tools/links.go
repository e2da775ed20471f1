package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/links"
)

// --- arch_link ---

// LinkTool handles the arch_link MCP tool.
type LinkTool struct {
	links *links.Service
}

// NewLinkTool creates a LinkTool.
func NewLinkTool(ls *links.Service) *LinkTool {
	return &LinkTool{links: ls}
}

// Definition returns the MCP tool definition for arch_link.
func (t *LinkTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_link",
		mcp.WithDescription("Add a typed reference from one artifact to another. Both artifacts must exist."),
		mcp.WithString("source", mcp.Required(), mcp.Description("ID of the artifact that holds the reference")),
		mcp.WithString("target", mcp.Required(), mcp.Description("ID of the referenced artifact")),
		mcp.WithString("type", mcp.Required(),
			mcp.Description("Reference type: implements, supersedes, relates-to, depends-on, blocks, enables"),
		),
	)
}

// Handle processes the arch_link tool call.
func (t *LinkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := req.GetString("source", "")
	target := req.GetString("target", "")
	rt := req.GetString("type", "")
	if source == "" || target == "" || rt == "" {
		return mcp.NewToolResultError("'source', 'target' and 'type' are required"), nil
	}

	res, err := t.links.CreateLink(ctx, source, target, artifact.ReferenceType(rt))
	if err != nil {
		return toolError(err)
	}
	msg := fmt.Sprintf("Linked %s -%s-> %s.", res.Link.SourceID, res.Link.Type, res.Link.TargetID)
	if res.Duplicate {
		msg += "\n\nNote: an identical link already existed; the artifact now lists it twice."
	}
	return mcp.NewToolResultText(msg), nil
}

// --- arch_links ---

// LinksTool handles the arch_links MCP tool.
type LinksTool struct {
	links *links.Service
}

// NewLinksTool creates a LinksTool.
func NewLinksTool(ls *links.Service) *LinksTool {
	return &LinksTool{links: ls}
}

// Definition returns the MCP tool definition for arch_links.
func (t *LinksTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_links",
		mcp.WithDescription("Show the outgoing references of an artifact and every artifact that references it. Missing targets are flagged."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Artifact ID")),
	)
}

// Handle processes the arch_links tool call.
func (t *LinksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	display, err := t.links.GetLinksForDisplay(id)
	if err != nil {
		return toolError(err)
	}
	if len(display) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s has no links.", id)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Links of %s\n\n", id)
	for _, l := range display {
		writeDisplayLink(&b, l)
	}
	return mcp.NewToolResultText(b.String()), nil
}
