// Package resources implements the read-only MCP resources.
//
// Resources use arch:// URIs and give the host context without a tool call.
package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/archkit/internal/export"
	"github.com/HendryAvila/archkit/internal/health"
	"github.com/HendryAvila/archkit/internal/store"
)

const (
	HealthURI = "arch://health/report"
	IndexURI  = "arch://artifacts/index"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Handler serves the archkit resources.
type Handler struct {
	store   store.Store
	checker *health.Checker
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(st store.Store, c *health.Checker) *Handler {
	return &Handler{store: st, checker: c}
}

// HealthResource returns the MCP resource definition for the health report.
func (h *Handler) HealthResource() mcp.Resource {
	return mcp.NewResource(
		HealthURI,
		"Architecture Health Report",
		mcp.WithResourceDescription("Corpus health score, per-artifact scores, issues and cycles"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleHealth returns the current health report as JSON.
func (h *Handler) HandleHealth(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	r, err := h.checker.Check()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling health report: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// IndexResource returns the MCP resource definition for the artifact index.
func (h *Handler) IndexResource() mcp.Resource {
	return mcp.NewResource(
		IndexURI,
		"Architecture Index",
		mcp.WithResourceDescription("Markdown table of every RFC, ADR and decomposition with status, owner, links and age"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleIndex returns the Markdown index of all artifacts.
func (h *Handler) HandleIndex(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	items, err := h.store.List(store.Filter{})
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	var buf bytes.Buffer
	if err := export.Markdown(&buf, items, timeNow()); err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     buf.String(),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
