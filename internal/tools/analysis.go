package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/health"
	"github.com/HendryAvila/archkit/internal/impact"
	"github.com/HendryAvila/archkit/internal/search"
)

// --- arch_health ---

// HealthTool handles the arch_health MCP tool.
type HealthTool struct {
	checker *health.Checker
}

// NewHealthTool creates a HealthTool.
func NewHealthTool(c *health.Checker) *HealthTool {
	return &HealthTool{checker: c}
}

// Definition returns the MCP tool definition for arch_health.
func (t *HealthTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_health",
		mcp.WithDescription(
			"Score the documentation corpus (0-100) and list issues: stale or orphaned artifacts, broken references, "+
				"missing owners, long-running drafts and circular dependencies. Pass id to score one artifact.",
		),
		mcp.WithString("id", mcp.Description("Score only this artifact")),
	)
}

// Handle processes the arch_health tool call.
func (t *HealthTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := req.GetString("id", ""); id != "" {
		s, err := t.checker.CheckArtifact(id)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(s)
	}

	r, err := t.checker.Check()
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(FormatReport(r)), nil
}

// FormatReport renders a health report as Markdown. The health resource
// serves the same report as JSON.
func FormatReport(r *health.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Health Report (%s)\n\n", r.Strategy)
	fmt.Fprintf(&b, "**Score:** %d/100\n", r.Score)
	if r.Threshold > 0 {
		fmt.Fprintf(&b, "**Artifacts:** %d (%d healthy, %d below %d)\n", r.Total, r.Healthy, r.BelowThreshold, r.Threshold)
	} else {
		fmt.Fprintf(&b, "**Artifacts:** %d (%d healthy)\n", r.Total, r.Healthy)
	}
	fmt.Fprintf(&b, "**Critical issues:** %d\n", r.CriticalIssues)
	if r.Skipped > 0 {
		fmt.Fprintf(&b, "**Skipped (unreadable):** %d\n", r.Skipped)
	}

	if len(r.Issues) == 0 {
		b.WriteString("\nNo issues found.\n")
		return b.String()
	}
	b.WriteString("\n## Issues\n\n")
	for _, is := range r.Issues {
		fmt.Fprintf(&b, "- [%s] %s %s: %s\n", is.Severity, is.Type, orDash(is.ArtifactID), is.Message)
	}
	return b.String()
}

// --- arch_impact ---

// ImpactTool handles the arch_impact MCP tool.
type ImpactTool struct {
	analyzer *impact.Analyzer
}

// NewImpactTool creates an ImpactTool.
func NewImpactTool(an *impact.Analyzer) *ImpactTool {
	return &ImpactTool{analyzer: an}
}

// Definition returns the MCP tool definition for arch_impact.
func (t *ImpactTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_impact",
		mcp.WithDescription(
			"Analyze what depends on an artifact, directly and transitively, with a 0-100 risk score. "+
				"Set checklist=true for a prioritized deprecation plan.",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Artifact ID")),
		mcp.WithBoolean("checklist", mcp.Description("Return the deprecation checklist instead of the analysis")),
	)
}

// Handle processes the arch_impact tool call.
func (t *ImpactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	if boolArg(req, "checklist", false) {
		c, err := t.analyzer.DeprecationChecklist(id)
		if err != nil {
			return toolError(err)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# Deprecation checklist for %s\n\n", c.ID)
		fmt.Fprintf(&b, "Risk score %d. Tasks: %d high, %d medium, %d low.\n\n", c.RiskScore, c.High, c.Medium, c.Low)
		if len(c.Tasks) == 0 {
			b.WriteString("Nothing depends on it; it can be deprecated directly.\n")
		}
		for _, task := range c.Tasks {
			fmt.Fprintf(&b, "- [ ] (%s) %s\n", task.Priority, task.Action)
		}
		return mcp.NewToolResultText(b.String()), nil
	}

	a, err := t.analyzer.Analyze(id)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(a)
}

// --- arch_search ---

// Searcher runs a full-text query over the corpus.
type Searcher interface {
	Search(query string, opts search.Options) ([]search.Result, error)
}

// SearchTool handles the arch_search MCP tool.
type SearchTool struct {
	searcher Searcher
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(s Searcher) *SearchTool {
	return &SearchTool{searcher: s}
}

// Definition returns the MCP tool definition for arch_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_search",
		mcp.WithDescription("Full-text search over titles, owners, tags and section text. An empty query lists the most recently updated artifacts."),
		mcp.WithString("query", mcp.Description("Keywords")),
		mcp.WithString("type", mcp.Description("Filter by type: rfc, adr, decomposition")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 10, max: 100)")),
	)
}

// Handle processes the arch_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results, err := t.searcher.Search(req.GetString("query", ""), search.Options{
		Type:  artifact.Type(req.GetString("type", "")),
		Limit: intArg(req, "limit", 0),
	})
	if err != nil {
		return toolError(err)
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No artifacts found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d artifacts:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d. **%s** %s [%s]\n", i+1, r.ID, r.Title, r.Status)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", strings.Join(strings.Fields(r.Snippet), " "))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
