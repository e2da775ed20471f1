// Package tools implements the MCP tool handlers over the artifact services.
//
// Each tool is a struct holding the services it needs, with Definition()
// returning the mcp.Tool schema and Handle() serving the call. Validation,
// security and not-found errors go back to the model as tool errors;
// storage failures are returned as Go errors.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/archkit/internal/artifact"
)

// intArg extracts an integer argument (JSON numbers arrive as float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// optString returns a pointer to the argument when the caller sent it.
func optString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// splitList parses "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseReferences parses "implements:ADR-0001, depends-on:RFC-0002".
func parseReferences(s string) ([]artifact.Reference, error) {
	var refs []artifact.Reference
	for _, item := range splitList(s) {
		rt, id, ok := strings.Cut(item, ":")
		if !ok {
			return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "parse references",
				Err: fmt.Errorf("reference %q must look like type:ID", item)}
		}
		refs = append(refs, artifact.Reference{
			TargetID:      strings.TrimSpace(id),
			ReferenceType: artifact.ReferenceType(strings.TrimSpace(rt)),
		})
	}
	return refs, nil
}

// parseSections decodes a JSON object of heading -> body.
func parseSections(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "parse sections",
			Err: fmt.Errorf("sections must be a JSON object of heading to text: %w", err)}
	}
	return m, nil
}

// toolError turns a service error into a tool result.
func toolError(err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, artifact.ErrStorage) {
		return nil, err
	}
	return mcp.NewToolResultError(err.Error()), nil
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
