// Package graph builds the whole-corpus reference graph and answers
// reachability and cycle questions over it.
package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/links"
	"github.com/HendryAvila/archkit/internal/store"
)

// Node is one artifact in the graph. Missing nodes are reference targets
// that do not exist in the store.
type Node struct {
	ID      string          `json:"id"`
	Type    artifact.Type   `json:"type"`
	Title   string          `json:"title,omitempty"`
	Status  artifact.Status `json:"status,omitempty"`
	Missing bool            `json:"missing,omitempty"`
}

// Edge is a deduplicated directed reference.
type Edge struct {
	From string                 `json:"from"`
	To   string                 `json:"to"`
	Type artifact.ReferenceType `json:"type"`
}

// Severity grades a finding.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// criticalCycleLen is the node count above which a cycle is critical.
const criticalCycleLen = 3

// Cycle is a closed path: the last node references the first.
type Cycle struct {
	Nodes    []string `json:"nodes"`
	Severity Severity `json:"severity"`
}

func (c Cycle) String() string {
	if len(c.Nodes) == 0 {
		return ""
	}
	return strings.Join(c.Nodes, " -> ") + " -> " + c.Nodes[0]
}

// Graph is an immutable snapshot of the corpus. Nodes are sorted by ID,
// edges by (from, to, type); each appears once.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	index map[string]int
	out   map[string][]string
	in    map[string][]string
}

// Build assembles a graph from artifacts and their links. Targets that are
// not among items become Missing nodes.
func Build(items []*artifact.Artifact, edges []links.Link) *Graph {
	g := &Graph{
		index: make(map[string]int),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
	}

	for _, a := range items {
		if _, ok := g.index[a.ID]; ok {
			continue
		}
		g.index[a.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{ID: a.ID, Type: a.Type, Title: a.Title, Status: a.Status})
	}

	seen := make(map[Edge]bool)
	for _, l := range edges {
		e := Edge{From: l.SourceID, To: l.TargetID, Type: l.Type}
		if seen[e] {
			continue
		}
		seen[e] = true
		g.Edges = append(g.Edges, e)

		for _, id := range []string{e.From, e.To} {
			if _, ok := g.index[id]; !ok {
				t, _ := artifact.ValidateID(id)
				g.index[id] = len(g.Nodes)
				g.Nodes = append(g.Nodes, Node{ID: id, Type: t, Missing: true})
			}
		}
		if !slices.Contains(g.out[e.From], e.To) {
			g.out[e.From] = append(g.out[e.From], e.To)
		}
		if !slices.Contains(g.in[e.To], e.From) {
			g.in[e.To] = append(g.in[e.To], e.From)
		}
	}

	g.sort()
	return g
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Outgoing returns the distinct IDs id references, sorted.
func (g *Graph) Outgoing(id string) []string { return slices.Clone(g.out[id]) }

// Incoming returns the distinct IDs referencing id, sorted.
func (g *Graph) Incoming(id string) []string { return slices.Clone(g.in[id]) }

// Connected returns every ID reachable from root over edges taken in
// either direction, in breadth-first order, excluding root itself.
func (g *Graph) Connected(root string) []string {
	visited := map[string]bool{root: true}
	queue := []string{root}
	var result []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		neighbors := append(slices.Clone(g.out[current]), g.in[current]...)
		slices.Sort(neighbors)
		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			visited[n] = true
			result = append(result, n)
			queue = append(queue, n)
		}
	}
	return result
}

// Cycles finds circular reference chains with a depth-first search over
// outgoing edges. When the search reaches a node already on the recursion
// stack, the path from that node to the current one is a cycle.
//
// Cycles are deduplicated by their sorted node set, so two distinct cycles
// over the same members are reported once.
func (g *Graph) Cycles() []Cycle {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var found [][]string

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, next := range g.out[node] {
			if !visited[next] {
				dfs(next, path)
			} else if onStack[next] {
				if start := slices.Index(path, next); start >= 0 {
					found = append(found, slices.Clone(path[start:]))
				}
			}
		}

		onStack[node] = false
	}

	for _, n := range g.Nodes {
		if !visited[n.ID] {
			dfs(n.ID, nil)
		}
	}

	seen := make(map[string]bool)
	cycles := []Cycle{}
	for _, path := range found {
		key := slices.Clone(path)
		slices.Sort(key)
		k := strings.Join(key, ",")
		if seen[k] {
			continue
		}
		seen[k] = true

		sev := SeverityWarning
		if len(path) > criticalCycleLen {
			sev = SeverityCritical
		}
		cycles = append(cycles, Cycle{Nodes: path, Severity: sev})
	}
	return cycles
}

// Subgraph keeps only the listed nodes and the edges between them.
func (g *Graph) Subgraph(ids []string) *Graph {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	var items []*artifact.Artifact
	var missing []Node
	for _, n := range g.Nodes {
		if !keep[n.ID] {
			continue
		}
		if n.Missing {
			missing = append(missing, n)
			continue
		}
		items = append(items, &artifact.Artifact{ID: n.ID, Type: n.Type, Title: n.Title, Status: n.Status})
	}
	var edges []links.Link
	for _, e := range g.Edges {
		if keep[e.From] && keep[e.To] {
			edges = append(edges, links.Link{SourceID: e.From, TargetID: e.To, Type: e.Type})
		}
	}

	sub := Build(items, edges)
	// Missing nodes without a surviving edge would otherwise be dropped.
	for _, n := range missing {
		if _, ok := sub.index[n.ID]; !ok {
			sub.index[n.ID] = len(sub.Nodes)
			sub.Nodes = append(sub.Nodes, n)
		}
	}
	sub.sort()
	return sub
}

func (g *Graph) sort() {
	slices.SortFunc(g.Nodes, func(a, b Node) int { return strings.Compare(a.ID, b.ID) })
	for i, n := range g.Nodes {
		g.index[n.ID] = i
	}
	slices.SortFunc(g.Edges, func(a, b Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		if c := strings.Compare(a.To, b.To); c != 0 {
			return c
		}
		return strings.Compare(string(a.Type), string(b.Type))
	})
	for _, m := range []map[string][]string{g.out, g.in} {
		for _, ns := range m {
			slices.Sort(ns)
		}
	}
}

// --- Service ---

// Service builds graphs from the store on demand.
type Service struct {
	store store.Store
}

// NewService creates a graph service over st.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Build snapshots the whole corpus.
func (s *Service) Build() (*Graph, error) {
	items, err := s.store.List(store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}
	return Build(items, links.Edges(items)), nil
}

// GetConnectedArtifacts returns every artifact reachable from rootID in
// either direction, excluding rootID.
func (s *Service) GetConnectedArtifacts(rootID string) ([]string, error) {
	if _, err := artifact.ValidateID(rootID); err != nil {
		return nil, err
	}
	g, err := s.Build()
	if err != nil {
		return nil, err
	}
	if n, ok := g.Node(rootID); !ok || n.Missing {
		return nil, artifact.NotFound("connected artifacts", rootID)
	}
	return g.Connected(rootID), nil
}

// DetectCircularDependencies reports every distinct reference cycle.
func (s *Service) DetectCircularDependencies() ([]Cycle, error) {
	g, err := s.Build()
	if err != nil {
		return nil, err
	}
	return g.Cycles(), nil
}

// Render draws the corpus, or the component around opts.Root when set.
func (s *Service) Render(opts RenderOptions) (string, error) {
	g, err := s.Build()
	if err != nil {
		return "", err
	}
	if opts.Root != "" {
		if _, err := artifact.ValidateID(opts.Root); err != nil {
			return "", err
		}
		if n, ok := g.Node(opts.Root); !ok || n.Missing {
			return "", artifact.NotFound("render graph", opts.Root)
		}
		g = g.Subgraph(append([]string{opts.Root}, g.Connected(opts.Root)...))
	}
	return Render(g, opts.Format)
}
