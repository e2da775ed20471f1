package graph

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HendryAvila/archkit/internal/artifact"
)

// Format is a graph output dialect.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatDOT     Format = "dot"
)

// RenderOptions selects the dialect and an optional root to scope to.
type RenderOptions struct {
	Format Format
	Root   string
}

// typeColors are the node fill colors per artifact type.
var typeColors = map[artifact.Type]string{
	artifact.TypeRFC:           "#dbeafe",
	artifact.TypeADR:           "#dcfce7",
	artifact.TypeDecomposition: "#fef9c3",
}

const missingColor = "#fee2e2"

// Render writes g in the requested dialect. Each node appears once and
// each deduplicated edge appears once.
func Render(g *Graph, f Format) (string, error) {
	switch f {
	case FormatMermaid, "":
		return renderMermaid(g), nil
	case FormatDOT:
		return renderDOT(g), nil
	default:
		return "", &artifact.Error{Kind: artifact.ErrValidation, Op: "render graph", Err: fmt.Errorf("unknown format %q: must be mermaid or dot", f)}
	}
}

// --- Mermaid ---

func renderMermaid(g *Graph) string {
	var b strings.Builder
	b.WriteString("flowchart LR\n")
	for _, t := range artifact.AllTypes {
		fmt.Fprintf(&b, "    classDef %s fill:%s,stroke:#333\n", t, typeColors[t])
	}
	b.WriteString("    classDef draft stroke-dasharray:4 2\n")
	b.WriteString("    classDef inactive fill:#e5e7eb,color:#6b7280\n")
	fmt.Fprintf(&b, "    classDef missing fill:%s,stroke:#b91c1c,stroke-dasharray:2 2\n", missingColor)

	for _, n := range g.Nodes {
		id := mermaidID(n.ID)
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", id, mermaidText(nodeLabel(n, ": ")))
		for _, class := range nodeClasses(n) {
			fmt.Fprintf(&b, "    class %s %s\n", id, class)
		}
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "    %s -->|%s| %s\n", mermaidID(e.From), mermaidText(string(e.Type)), mermaidID(e.To))
	}
	return b.String()
}

var mermaidUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]`)

func mermaidID(id string) string {
	return mermaidUnsafe.ReplaceAllString(id, "_")
}

// mermaidText escapes label text for a quoted Mermaid label.
func mermaidText(s string) string {
	return strings.NewReplacer(
		`"`, "#quot;",
		"|", "#124;",
		"\r", " ",
		"\n", " ",
	).Replace(s)
}

func nodeClasses(n Node) []string {
	if n.Missing {
		return []string{"missing"}
	}
	classes := []string{string(n.Type)}
	switch {
	case n.Status.IsInactive():
		classes = append(classes, "inactive")
	case n.Status.IsDraft():
		classes = append(classes, "draft")
	}
	return classes
}

// --- Graphviz DOT ---

func renderDOT(g *Graph) string {
	var b strings.Builder
	b.WriteString("digraph architecture {\n")
	b.WriteString("    rankdir=LR;\n")
	b.WriteString("    node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\"];\n")

	for _, n := range g.Nodes {
		fill, style := dotStyle(n)
		fmt.Fprintf(&b, "    \"%s\" [label=\"%s\", fillcolor=\"%s\", style=\"%s\"];\n",
			dotText(n.ID), dotText(nodeLabel(n, "\n")), fill, style)
	}
	for _, e := range g.Edges {
		attrs := fmt.Sprintf("label=\"%s\"", dotText(string(e.Type)))
		if e.Type == artifact.RefSupersedes {
			attrs += ", style=\"dashed\""
		}
		fmt.Fprintf(&b, "    \"%s\" -> \"%s\" [%s];\n", dotText(e.From), dotText(e.To), attrs)
	}
	b.WriteString("}\n")
	return b.String()
}

func dotStyle(n Node) (fill, style string) {
	if n.Missing {
		return missingColor, "rounded,filled,dotted"
	}
	fill = typeColors[n.Type]
	switch {
	case n.Status.IsInactive():
		return "#e5e7eb", "rounded,filled"
	case n.Status.IsDraft():
		return fill, "rounded,filled,dashed"
	}
	return fill, "rounded,filled"
}

// dotText escapes a DOT double-quoted string. Newlines become the \n
// escape DOT renders as a line break.
func dotText(s string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\r", "",
		"\n", `\n`,
	).Replace(s)
}

// nodeLabel is "ID<sep>Title", or "ID<sep>(missing)" for broken targets.
func nodeLabel(n Node, sep string) string {
	switch {
	case n.Missing:
		return n.ID + sep + "(missing)"
	case n.Title == "":
		return n.ID
	default:
		return n.ID + sep + n.Title
	}
}
