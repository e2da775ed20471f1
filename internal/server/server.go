// Package server wires the MCP tools, prompts and resources around one
// workspace and creates the server instance. No business logic lives
// here; it only resolves dependencies.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/archkit/internal/prompts"
	"github.com/HendryAvila/archkit/internal/resources"
	"github.com/HendryAvila/archkit/internal/tools"
	"github.com/HendryAvila/archkit/internal/workspace"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every tool, prompt and resource
// registered against w.
func New(w *workspace.Workspace) *server.MCPServer {
	s := server.NewMCPServer(
		"archkit",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Artifacts ---

	listTool := tools.NewListTool(w.Store)
	s.AddTool(listTool.Definition(), listTool.Handle)

	showTool := tools.NewShowTool(w.Store, w.Links)
	s.AddTool(showTool.Definition(), showTool.Handle)

	createTool := tools.NewCreateTool(w.Lifecycle)
	s.AddTool(createTool.Definition(), createTool.Handle)

	updateTool := tools.NewUpdateTool(w.Lifecycle)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	// --- Links and graph ---

	linkTool := tools.NewLinkTool(w.Links)
	s.AddTool(linkTool.Definition(), linkTool.Handle)

	linksTool := tools.NewLinksTool(w.Links)
	s.AddTool(linksTool.Definition(), linksTool.Handle)

	graphTool := tools.NewGraphTool(w.Graphs)
	s.AddTool(graphTool.Definition(), graphTool.Handle)

	cyclesTool := tools.NewCyclesTool(w.Graphs)
	s.AddTool(cyclesTool.Definition(), cyclesTool.Handle)

	// --- Analysis ---

	healthTool := tools.NewHealthTool(w.Health)
	s.AddTool(healthTool.Definition(), healthTool.Handle)

	impactTool := tools.NewImpactTool(w.Impact)
	s.AddTool(impactTool.Definition(), impactTool.Handle)

	searchTool := tools.NewSearchTool(w)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	// --- Prompts ---

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Resources ---

	rh := resources.NewHandler(w.Store, w.Health)
	s.AddResource(rh.HealthResource(), rh.HandleHealth)
	s.AddResource(rh.IndexResource(), rh.HandleIndex)

	return s
}

// serverInstructions tells the AI how to use archkit.
func serverInstructions() string {
	return `You have access to archkit, an MCP server for architecture documentation.

The project keeps RFCs, ADRs and decomposition plans as Markdown files with
YAML frontmatter under .arch/. IDs look like RFC-0001, ADR-0001, DECOMP-0001.

## CRITICAL: How Tools Work
archkit tools are STORAGE tools. They save content YOU write after talking
with the user. Never create an artifact with placeholder text; sections you
leave out are stored as _TODO: placeholders and lower the health score.

## Lifecycles
- RFC: draft -> review -> approved | rejected; approved -> implemented
- ADR: proposed -> accepted -> deprecated | superseded
- Decomposition: draft -> active -> completed | abandoned
Superseding an ADR requires superseded_by naming another existing ADR.

## Before changing or retiring an artifact
Run arch_impact first. Dependents at depth 1 that are still active must be
updated before the change lands; use checklist=true for the plan.

## Keeping the corpus healthy
- Link related artifacts with arch_link (implements, supersedes, relates-to,
  depends-on, blocks, enables). Orphans and broken references are flagged.
- Run arch_health after a batch of edits and fix critical issues first.
- arch_cycles reports circular dependencies; cycles longer than three
  artifacts are critical.
`
}
