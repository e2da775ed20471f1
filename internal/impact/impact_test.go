package impact

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/graph"
	"github.com/HendryAvila/archkit/internal/links"
	"github.com/HendryAvila/archkit/internal/store"
)

// --- Helpers ---

func art(id string, status artifact.Status, refs ...string) *artifact.Artifact {
	t, _ := artifact.ValidateID(id)
	a := &artifact.Artifact{ID: id, Type: t, Title: "T " + id, Status: status}
	for _, r := range refs {
		rt, _ := artifact.ValidateID(r)
		a.References = append(a.References, artifact.Reference{TargetID: r, TargetType: rt, ReferenceType: artifact.RefDependsOn})
	}
	return a
}

func graphOf(items ...*artifact.Artifact) *graph.Graph {
	return graph.Build(items, links.Edges(items))
}

// --- Analyze ---

func TestAnalyze_DirectDependent(t *testing.T) {
	g := graphOf(
		art("RFC-0001", artifact.StatusDraft),
		art("RFC-0002", artifact.StatusDraft, "RFC-0001"),
	)
	a := Analyze(g, "RFC-0001")

	if !slices.Equal(a.DirectDependents, []string{"RFC-0002"}) {
		t.Errorf("DirectDependents = %v", a.DirectDependents)
	}
	if len(a.TransitiveDependents) != 0 {
		t.Errorf("TransitiveDependents = %v, want empty", a.TransitiveDependents)
	}
	if a.MaxDepth != 1 {
		t.Errorf("MaxDepth = %d, want 1", a.MaxDepth)
	}
	if a.RiskScore != 15 {
		t.Errorf("RiskScore = %d, want 15", a.RiskScore)
	}
	if a.Dependents[0].ReferenceType != artifact.RefDependsOn || a.Dependents[0].Via != "RFC-0001" {
		t.Errorf("Dependents[0] = %+v", a.Dependents[0])
	}
}

func TestAnalyze_TransitiveShortestDepth(t *testing.T) {
	// B -> A, C -> B, D -> C, D -> A: D is direct despite the longer chain.
	g := graphOf(
		art("ADR-0001", artifact.StatusAccepted),
		art("ADR-0002", artifact.StatusAccepted, "ADR-0001"),
		art("ADR-0003", artifact.StatusAccepted, "ADR-0002"),
		art("ADR-0004", artifact.StatusAccepted, "ADR-0003", "ADR-0001"),
		art("ADR-0005", artifact.StatusAccepted, "ADR-0003"),
	)
	a := Analyze(g, "ADR-0001")

	if !slices.Equal(a.DirectDependents, []string{"ADR-0002", "ADR-0004"}) {
		t.Errorf("DirectDependents = %v", a.DirectDependents)
	}
	if !slices.Equal(a.TransitiveDependents, []string{"ADR-0003", "ADR-0005"}) {
		t.Errorf("TransitiveDependents = %v", a.TransitiveDependents)
	}
	if a.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", a.MaxDepth)
	}
	// 2*10 + 2*5 + 3*5
	if a.RiskScore != 45 {
		t.Errorf("RiskScore = %d, want 45", a.RiskScore)
	}
	if a.RiskLevel != RiskMedium {
		t.Errorf("RiskLevel = %s, want medium", a.RiskLevel)
	}
}

func TestAnalyze_NoDependents(t *testing.T) {
	g := graphOf(art("RFC-0001", artifact.StatusDraft, "RFC-0002"), art("RFC-0002", artifact.StatusDraft))
	a := Analyze(g, "RFC-0001")
	if a.RiskScore != 0 || a.MaxDepth != 0 || a.RiskLevel != RiskNone {
		t.Errorf("analysis = %+v, want zero risk", a)
	}
}

func TestAnalyze_CyclesTerminate(t *testing.T) {
	g := graphOf(
		art("RFC-0001", artifact.StatusDraft, "RFC-0002"),
		art("RFC-0002", artifact.StatusDraft, "RFC-0001"),
	)
	a := Analyze(g, "RFC-0001")
	if len(a.Dependents) != 1 {
		t.Errorf("Dependents = %+v, want only RFC-0002", a.Dependents)
	}
}

func TestRiskScore_Monotonic(t *testing.T) {
	prev := 0
	for n := 1; n <= 12; n++ {
		s := riskScore(n, 0, 1)
		if s < prev || s > 100 {
			t.Errorf("riskScore(%d direct) = %d, previous %d", n, s, prev)
		}
		prev = s
	}
	if riskScore(1, 0, 1) >= riskScore(1, 1, 2) {
		t.Error("deeper dependents should raise the score")
	}
	if riskScore(50, 50, 10) != 100 {
		t.Error("score not capped at 100")
	}
}

// --- Deprecation checklist ---

func TestTaskPriority(t *testing.T) {
	tests := []struct {
		depth  int
		status artifact.Status
		want   Priority
	}{
		{1, artifact.StatusAccepted, PriorityHigh},
		{1, artifact.StatusDraft, PriorityHigh},
		{1, artifact.StatusDeprecated, PriorityMedium},
		{2, artifact.StatusApproved, PriorityMedium},
		{3, artifact.StatusActive, PriorityMedium},
		{2, artifact.StatusSuperseded, PriorityLow},
		{4, artifact.StatusAbandoned, PriorityLow},
	}
	for _, tt := range tests {
		if got := TaskPriority(Dependent{Depth: tt.depth, Status: tt.status}); got != tt.want {
			t.Errorf("TaskPriority(depth %d, %s) = %s, want %s", tt.depth, tt.status, got, tt.want)
		}
	}
}

func TestDeprecationChecklist(t *testing.T) {
	g := graphOf(
		art("ADR-0001", artifact.StatusAccepted),
		art("ADR-0002", artifact.StatusDeprecated, "ADR-0001"),
		art("RFC-0001", artifact.StatusApproved, "ADR-0001"),
		art("RFC-0002", artifact.StatusRejected, "ADR-0002"),
		art("RFC-0003", artifact.StatusDraft, "RFC-0001"),
	)
	c := DeprecationChecklist(Analyze(g, "ADR-0001"))

	var order []string
	for _, task := range c.Tasks {
		order = append(order, task.ID+":"+string(task.Priority))
	}
	want := []string{"RFC-0001:high", "ADR-0002:medium", "RFC-0003:medium", "RFC-0002:low"}
	if !slices.Equal(order, want) {
		t.Errorf("tasks = %v, want %v", order, want)
	}
	if c.High != 1 || c.Medium != 2 || c.Low != 1 {
		t.Errorf("counts = %d/%d/%d", c.High, c.Medium, c.Low)
	}
	if c.Tasks[0].Action != "Update RFC-0001: it references ADR-0001 (depends-on)" {
		t.Errorf("Action = %q", c.Tasks[0].Action)
	}
}

// --- Analyzer ---

func TestAnalyzer_Scenario(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), store.DirName))
	if err := st.Initialize("x"); err != nil {
		t.Fatal(err)
	}
	x := art("RFC-0001", artifact.StatusDraft)
	x.Title, x.Owner = "X", "alice"
	y := art("RFC-0002", artifact.StatusDraft, "RFC-0001")
	y.Title, y.Owner = "Y", "bob"
	for _, a := range []*artifact.Artifact{x, y} {
		if err := st.Save(a); err != nil {
			t.Fatal(err)
		}
	}

	an := NewAnalyzer(st)
	a, err := an.Analyze("RFC-0001")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !slices.Equal(a.DirectDependents, []string{"RFC-0002"}) || len(a.TransitiveDependents) != 0 || a.MaxDepth != 1 {
		t.Errorf("analysis = %+v", a)
	}

	c, err := an.DeprecationChecklist("RFC-0001")
	if err != nil || len(c.Tasks) != 1 || c.Tasks[0].Priority != PriorityHigh {
		t.Errorf("checklist = %+v, %v", c, err)
	}

	if _, err := an.Analyze("RFC-0404"); !errors.Is(err, artifact.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := an.Analyze(`RFC-0001\x`); !errors.Is(err, artifact.ErrSecurity) {
		t.Errorf("err = %v, want ErrSecurity", err)
	}
}
