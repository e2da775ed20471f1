package tools

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/lifecycle"
	"github.com/HendryAvila/archkit/internal/links"
	"github.com/HendryAvila/archkit/internal/store"
)

// --- arch_list ---

// ListTool handles the arch_list MCP tool.
type ListTool struct {
	store store.Store
}

// NewListTool creates a ListTool.
func NewListTool(st store.Store) *ListTool {
	return &ListTool{store: st}
}

// Definition returns the MCP tool definition for arch_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_list",
		mcp.WithDescription("List architecture artifacts (RFCs, ADRs, decompositions). All filters are optional and combine with AND."),
		mcp.WithString("type", mcp.Description("Filter by type: rfc, adr, decomposition")),
		mcp.WithString("status", mcp.Description("Filter by status, e.g. draft, accepted, active")),
		mcp.WithString("owner", mcp.Description("Filter by owner")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags; artifacts must carry all of them")),
	)
}

// Handle processes the arch_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := store.Filter{
		Type:   artifact.Type(req.GetString("type", "")),
		Status: artifact.Status(req.GetString("status", "")),
		Owner:  req.GetString("owner", ""),
		Tags:   splitList(req.GetString("tags", "")),
	}
	if f.Type != "" {
		if err := artifact.ValidateType(f.Type); err != nil {
			return toolError(err)
		}
	}

	items, err := t.store.List(f)
	if err != nil {
		return toolError(err)
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("No artifacts found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d artifacts:\n\n", len(items))
	b.WriteString("| ID | Title | Status | Owner | Updated |\n")
	b.WriteString("|----|-------|--------|-------|---------|\n")
	for _, a := range items {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", a.ID, a.Title, a.Status, orDash(a.Owner), humanize.Time(a.UpdatedAt))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// --- arch_show ---

// ShowTool handles the arch_show MCP tool.
type ShowTool struct {
	store store.Store
	links *links.Service
}

// NewShowTool creates a ShowTool.
func NewShowTool(st store.Store, ls *links.Service) *ShowTool {
	return &ShowTool{store: st, links: ls}
}

// Definition returns the MCP tool definition for arch_show.
func (t *ShowTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_show",
		mcp.WithDescription("Show one artifact as stored (YAML frontmatter and Markdown sections) followed by its resolved links."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Artifact ID, e.g. ADR-0001")),
	)
}

// Handle processes the arch_show tool call.
func (t *ShowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	a, err := t.store.Load(id)
	if err != nil {
		return toolError(err)
	}
	if a == nil {
		return toolError(artifact.NotFound("show", id))
	}
	data, err := artifact.Marshal(a)
	if err != nil {
		return toolError(err)
	}
	display, err := t.links.GetLinksForDisplay(id)
	if err != nil {
		return toolError(err)
	}

	var b strings.Builder
	b.Write(data)
	b.WriteString("\n---\n\n## Links\n\n")
	if len(display) == 0 {
		b.WriteString("No links.\n")
	}
	for _, l := range display {
		writeDisplayLink(&b, l)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func writeDisplayLink(b *strings.Builder, l links.DisplayLink) {
	arrow := "->"
	if l.Direction == links.Incoming {
		arrow = "<-"
	}
	if l.Missing {
		fmt.Fprintf(b, "- %s %s %s (missing)\n", arrow, l.ReferenceType, l.ID)
		return
	}
	fmt.Fprintf(b, "- %s %s %s: %s [%s]\n", arrow, l.ReferenceType, l.ID, l.Title, l.Status)
}

// --- arch_create ---

// CreateTool handles the arch_create MCP tool.
type CreateTool struct {
	lifecycle *lifecycle.Service
}

// NewCreateTool creates a CreateTool.
func NewCreateTool(svc *lifecycle.Service) *CreateTool {
	return &CreateTool{lifecycle: svc}
}

// Definition returns the MCP tool definition for arch_create.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_create",
		mcp.WithDescription(
			"Create a new RFC, ADR or decomposition plan. The next free ID is assigned automatically. "+
				"Write real content: sections you leave out are filled with _TODO: placeholders and lower the health score.",
		),
		mcp.WithString("type", mcp.Required(), mcp.Description("Artifact type: rfc, adr, decomposition")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short descriptive title")),
		mcp.WithString("owner", mcp.Description("Person or team responsible")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("references", mcp.Description("Comma-separated type:ID pairs, e.g. implements:ADR-0001")),
		mcp.WithString("sections", mcp.Description(`JSON object of section heading to Markdown text, e.g. {"Decision": "..."}`)),
		mcp.WithString("phases", mcp.Description("Decompositions only: comma-separated phase names, in order")),
	)
}

// Handle processes the arch_create tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := req.GetString("type", "")
	title := req.GetString("title", "")
	if typ == "" || strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("'type' and 'title' are required"), nil
	}

	refs, err := parseReferences(req.GetString("references", ""))
	if err != nil {
		return toolError(err)
	}
	sections, err := parseSections(req.GetString("sections", ""))
	if err != nil {
		return toolError(err)
	}

	in := lifecycle.CreateInput{
		Type:       artifact.Type(typ),
		Title:      title,
		Owner:      req.GetString("owner", ""),
		Tags:       splitList(req.GetString("tags", "")),
		References: refs,
	}
	for _, heading := range slices.Sorted(maps.Keys(sections)) {
		in.Sections = append(in.Sections, artifact.Section{Heading: heading, Body: sections[heading]})
	}
	for _, name := range splitList(req.GetString("phases", "")) {
		in.Phases = append(in.Phases, artifact.Phase{Name: name})
	}

	a, err := t.lifecycle.Create(ctx, in)
	if err != nil {
		return toolError(err)
	}

	var placeholders []string
	for _, s := range a.Sections {
		if artifact.IsPlaceholder(s.Body) {
			placeholders = append(placeholders, s.Heading)
		}
	}
	msg := fmt.Sprintf("Created %s %q with status %s.", a.ID, a.Title, a.Status)
	if len(placeholders) > 0 {
		msg += fmt.Sprintf("\n\nSections still to write: %s. Fill them with arch_update.", strings.Join(placeholders, ", "))
	}
	return mcp.NewToolResultText(msg), nil
}

// --- arch_update ---

// UpdateTool handles the arch_update MCP tool.
type UpdateTool struct {
	lifecycle *lifecycle.Service
}

// NewUpdateTool creates an UpdateTool.
func NewUpdateTool(svc *lifecycle.Service) *UpdateTool {
	return &UpdateTool{lifecycle: svc}
}

// Definition returns the MCP tool definition for arch_update.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("arch_update",
		mcp.WithDescription(
			"Update an artifact. Only the fields you pass change. Status changes must follow the lifecycle "+
				"("+lifecycleSummary()+"). Superseding an ADR requires superseded_by.",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Artifact ID")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("owner", mcp.Description("New owner")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags; replaces the current set")),
		mcp.WithString("status", mcp.Description("New status")),
		mcp.WithString("superseded_by", mcp.Description("ADR only: ID of the ADR that replaces this one")),
		mcp.WithString("sections", mcp.Description(`JSON object of section heading to Markdown text; other sections are kept`)),
		mcp.WithString("phase_id", mcp.Description("Decompositions only: phase to move, used with phase_status")),
		mcp.WithString("phase_status", mcp.Description("pending, in-progress, completed or blocked")),
	)
}

// lifecycleSummary lists the allowed status transitions of every type.
func lifecycleSummary() string {
	parts := make([]string, len(artifact.AllTypes))
	for i, t := range artifact.AllTypes {
		parts[i] = string(t) + ": " + lifecycle.Summary(t)
	}
	return strings.Join(parts, "; ")
}

// Handle processes the arch_update tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	sections, err := parseSections(req.GetString("sections", ""))
	if err != nil {
		return toolError(err)
	}
	p := lifecycle.Patch{
		Title:        optString(req, "title"),
		Owner:        optString(req, "owner"),
		SupersededBy: optString(req, "superseded_by"),
		Sections:     sections,
	}
	if tags := optString(req, "tags"); tags != nil {
		list := splitList(*tags)
		p.Tags = &list
	}
	if s := req.GetString("status", ""); s != "" {
		status := artifact.Status(s)
		p.Status = &status
	}

	phaseID := req.GetString("phase_id", "")
	phaseStatus := req.GetString("phase_status", "")
	if (phaseID == "") != (phaseStatus == "") {
		return mcp.NewToolResultError("'phase_id' and 'phase_status' must be given together"), nil
	}
	if p.IsEmpty() && phaseID == "" {
		return mcp.NewToolResultError("nothing to update: pass at least one field"), nil
	}

	var a *artifact.Artifact
	if !p.IsEmpty() {
		if a, err = t.lifecycle.Update(ctx, id, p); err != nil {
			return toolError(err)
		}
	}
	if phaseID != "" {
		if a, err = t.lifecycle.SetPhaseStatus(ctx, id, phaseID, artifact.PhaseStatus(phaseStatus)); err != nil {
			return toolError(err)
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %s %q (status %s).", a.ID, a.Title, a.Status)), nil
}
