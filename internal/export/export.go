// Package export writes the artifact corpus as a versioned JSON bundle or
// as a Markdown index.
package export

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/HendryAvila/archkit/internal/artifact"
)

// BundleVersion is bumped whenever the bundle layout changes.
const BundleVersion = 1

// Bundle is the JSON export envelope.
type Bundle struct {
	Version   int                  `json:"version"`
	Count     int                  `json:"count"`
	Artifacts []*artifact.Artifact `json:"artifacts"`
}

var typeHeadings = map[artifact.Type]string{
	artifact.TypeRFC:           "RFCs",
	artifact.TypeADR:           "ADRs",
	artifact.TypeDecomposition: "Decompositions",
}

// JSON writes every artifact, ordered by ID, as an indented bundle.
func JSON(w io.Writer, items []*artifact.Artifact) error {
	b := Bundle{Version: BundleVersion, Count: len(items), Artifacts: sortByID(items)}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return &artifact.Error{Kind: artifact.ErrSerialization, Op: "export json", Err: err}
	}
	return nil
}

// ReadJSON decodes a bundle written by JSON.
func ReadJSON(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, &artifact.Error{Kind: artifact.ErrSerialization, Op: "read bundle", Err: err}
	}
	if b.Version != BundleVersion {
		return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "read bundle", Err: fmt.Errorf("unsupported bundle version %d", b.Version)}
	}
	return &b, nil
}

// Markdown writes an index with one table per artifact type. Ages are
// relative to now.
func Markdown(w io.Writer, items []*artifact.Artifact, now time.Time) error {
	var b strings.Builder
	b.WriteString("# Architecture Index\n\n")
	fmt.Fprintf(&b, "_Generated %s, %d artifacts._\n", now.UTC().Format("2006-01-02 15:04 UTC"), len(items))

	sorted := sortByID(items)
	for _, t := range artifact.AllTypes {
		var group []*artifact.Artifact
		for _, a := range sorted {
			if a.Type == t {
				group = append(group, a)
			}
		}

		fmt.Fprintf(&b, "\n## %s (%d)\n\n", typeHeadings[t], len(group))
		if len(group) == 0 {
			b.WriteString("_None._\n")
			continue
		}
		b.WriteString("| ID | Title | Status | Owner | Links | Updated |\n")
		b.WriteString("|----|-------|--------|-------|-------|---------|\n")
		for _, a := range group {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				a.ID, cell(a.Title), a.Status, cell(a.Owner), linkCell(a), humanize.RelTime(a.UpdatedAt, now, "ago", "from now"))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return &artifact.Error{Kind: artifact.ErrStorage, Op: "export markdown", Err: err}
	}
	return nil
}

func sortByID(items []*artifact.Artifact) []*artifact.Artifact {
	out := slices.Clone(items)
	if out == nil {
		out = []*artifact.Artifact{}
	}
	slices.SortFunc(out, func(a, b *artifact.Artifact) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func linkCell(a *artifact.Artifact) string {
	if len(a.References) == 0 {
		return "-"
	}
	parts := make([]string, len(a.References))
	for i, r := range a.References {
		parts[i] = fmt.Sprintf("%s %s", r.ReferenceType, r.TargetID)
	}
	return strings.Join(parts, ", ")
}

// cell makes text safe inside a Markdown table cell.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
