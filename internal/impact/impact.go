// Package impact answers "what breaks if this artifact changes": it walks
// incoming references transitively and turns the result into a risk score
// and a deprecation checklist.
package impact

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/graph"
	"github.com/HendryAvila/archkit/internal/store"
)

// Risk score weights: each direct dependent, each transitive dependent and
// each level of depth adds this many points, capped at 100.
const (
	directWeight     = 10
	transitiveWeight = 5
	depthWeight      = 5
)

// RiskLevel buckets a risk score.
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Dependent is an artifact that references the analyzed one, directly
// (Depth 1) or through a chain. Via is the artifact it references on the
// shortest such chain.
type Dependent struct {
	ID            string                 `json:"id"`
	Type          artifact.Type          `json:"type"`
	Title         string                 `json:"title"`
	Status        artifact.Status        `json:"status"`
	Depth         int                    `json:"depth"`
	Via           string                 `json:"via"`
	ReferenceType artifact.ReferenceType `json:"referenceType"`
}

// Analysis is the impact of changing or removing one artifact.
type Analysis struct {
	ID                   string      `json:"id"`
	DirectDependents     []string    `json:"directDependents"`
	TransitiveDependents []string    `json:"transitiveDependents"`
	Dependents           []Dependent `json:"dependents"`
	MaxDepth             int         `json:"maxDepth"`
	RiskScore            int         `json:"riskScore"`
	RiskLevel            RiskLevel   `json:"riskLevel"`
}

// Analyze walks incoming references from id breadth-first. Each dependent
// is placed at its shortest distance from id. Dependents are ordered by
// depth, then ID.
func Analyze(g *graph.Graph, id string) *Analysis {
	edgeType := make(map[[2]string]artifact.ReferenceType)
	for _, e := range g.Edges {
		key := [2]string{e.From, e.To}
		if _, ok := edgeType[key]; !ok {
			edgeType[key] = e.Type
		}
	}

	a := &Analysis{ID: id, DirectDependents: []string{}, TransitiveDependents: []string{}, Dependents: []Dependent{}}
	visited := map[string]bool{id: true}
	type item struct {
		id    string
		depth int
	}
	queue := []item{{id: id}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, src := range g.Incoming(current.id) {
			if visited[src] {
				continue
			}
			visited[src] = true

			d := Dependent{
				ID:            src,
				Depth:         current.depth + 1,
				Via:           current.id,
				ReferenceType: edgeType[[2]string{src, current.id}],
			}
			if n, ok := g.Node(src); ok {
				d.Type, d.Title, d.Status = n.Type, n.Title, n.Status
			}
			a.Dependents = append(a.Dependents, d)
			queue = append(queue, item{id: src, depth: d.Depth})
		}
	}

	slices.SortStableFunc(a.Dependents, func(x, y Dependent) int {
		return cmp.Or(cmp.Compare(x.Depth, y.Depth), cmp.Compare(x.ID, y.ID))
	})
	for _, d := range a.Dependents {
		if d.Depth == 1 {
			a.DirectDependents = append(a.DirectDependents, d.ID)
		} else {
			a.TransitiveDependents = append(a.TransitiveDependents, d.ID)
		}
		a.MaxDepth = max(a.MaxDepth, d.Depth)
	}

	a.RiskScore = riskScore(len(a.DirectDependents), len(a.TransitiveDependents), a.MaxDepth)
	a.RiskLevel = riskLevel(a.RiskScore)
	return a
}

// riskScore is min(100, direct*10 + transitive*5 + maxDepth*5). It grows
// with both count and depth, and is 0 without dependents.
func riskScore(direct, transitive, maxDepth int) int {
	if direct+transitive == 0 {
		return 0
	}
	return min(100, direct*directWeight+transitive*transitiveWeight+maxDepth*depthWeight)
}

func riskLevel(score int) RiskLevel {
	switch {
	case score == 0:
		return RiskNone
	case score < 30:
		return RiskLow
	case score < 70:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// --- Deprecation checklist ---

// Priority orders migration tasks.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Task is one migration step for a dependent.
type Task struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Status   artifact.Status `json:"status"`
	Depth    int             `json:"depth"`
	Priority Priority        `json:"priority"`
	Action   string          `json:"action"`
}

// Checklist lists what must happen before an artifact can be deprecated.
type Checklist struct {
	ID        string `json:"id"`
	Tasks     []Task `json:"tasks"`
	High      int    `json:"high"`
	Medium    int    `json:"medium"`
	Low       int    `json:"low"`
	RiskScore int    `json:"riskScore"`
}

// TaskPriority is the deprecation policy:
//
//	depth 1, active                        -> high
//	depth 1 inactive, or depth >= 2 active -> medium
//	depth >= 2, inactive                   -> low
//
// Inactive means deprecated, superseded, rejected or abandoned.
func TaskPriority(d Dependent) Priority {
	active := !d.Status.IsInactive()
	switch {
	case d.Depth == 1 && active:
		return PriorityHigh
	case d.Depth == 1 || active:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// DeprecationChecklist turns an analysis into one task per dependent,
// high priority first, then by depth and ID.
func DeprecationChecklist(a *Analysis) *Checklist {
	c := &Checklist{ID: a.ID, Tasks: make([]Task, 0, len(a.Dependents)), RiskScore: a.RiskScore}
	for _, d := range a.Dependents {
		p := TaskPriority(d)
		var action string
		if d.Depth == 1 {
			action = fmt.Sprintf("Update %s: it references %s (%s)", d.ID, a.ID, d.ReferenceType)
		} else {
			action = fmt.Sprintf("Review %s: it depends on %s through %s (depth %d)", d.ID, a.ID, d.Via, d.Depth)
		}
		c.Tasks = append(c.Tasks, Task{ID: d.ID, Title: d.Title, Status: d.Status, Depth: d.Depth, Priority: p, Action: action})
		switch p {
		case PriorityHigh:
			c.High++
		case PriorityMedium:
			c.Medium++
		default:
			c.Low++
		}
	}

	rank := map[Priority]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}
	slices.SortStableFunc(c.Tasks, func(x, y Task) int {
		return cmp.Or(cmp.Compare(rank[x.Priority], rank[y.Priority]), cmp.Compare(x.Depth, y.Depth), cmp.Compare(x.ID, y.ID))
	})
	return c
}

// --- Analyzer ---

// Analyzer runs impact analysis against the store.
type Analyzer struct {
	graphs *graph.Service
}

// NewAnalyzer creates an analyzer over st.
func NewAnalyzer(st store.Store) *Analyzer {
	return &Analyzer{graphs: graph.NewService(st)}
}

// Analyze reports the dependents of id. The artifact must exist.
func (an *Analyzer) Analyze(id string) (*Analysis, error) {
	if _, err := artifact.ValidateID(id); err != nil {
		return nil, err
	}
	g, err := an.graphs.Build()
	if err != nil {
		return nil, err
	}
	if n, ok := g.Node(id); !ok || n.Missing {
		return nil, artifact.NotFound("analyze impact", id)
	}
	return Analyze(g, id), nil
}

// DeprecationChecklist analyzes id and builds its migration checklist.
func (an *Analyzer) DeprecationChecklist(id string) (*Checklist, error) {
	a, err := an.Analyze(id)
	if err != nil {
		return nil, err
	}
	return DeprecationChecklist(a), nil
}
