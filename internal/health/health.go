// Package health scores the architecture corpus.
//
// Two strategies ship side by side and are selected by configuration:
// BasicStrategy derives one corpus score from an issue list, and
// EnhancedStrategy scores every artifact and averages. Their numbers are
// not comparable.
package health

import (
	"fmt"
	"math"
	"time"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/config"
	"github.com/HendryAvila/archkit/internal/graph"
	"github.com/HendryAvila/archkit/internal/links"
	"github.com/HendryAvila/archkit/internal/store"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// IssueType classifies a finding.
type IssueType string

const (
	IssueStale                 IssueType = "stale"
	IssueOrphaned              IssueType = "orphaned"
	IssueBrokenReference       IssueType = "broken-reference"
	IssueMissingOwner          IssueType = "missing-owner"
	IssueDraftTooLong          IssueType = "draft-too-long"
	IssueCircularDependency    IssueType = "circular-dependency"
	IssueSupersededWithoutLink IssueType = "superseded-without-link"
	IssueLowScore              IssueType = "low-score"
)

// Severity grades an issue. Critical issues are counted separately in
// reports; the basic formula treats them as errors.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// criticalScore is the per-artifact score below which the enhanced
// strategy raises a critical issue.
const criticalScore = 50

// Issue is one health finding. Members lists every artifact involved when
// the finding spans several (cycles).
type Issue struct {
	Type       IssueType `json:"type"`
	Severity   Severity  `json:"severity"`
	ArtifactID string    `json:"artifactId"`
	Message    string    `json:"message"`
	Members    []string  `json:"members,omitempty"`
}

// Penalty is one deduction from an artifact's score.
type Penalty struct {
	Reason string `json:"reason"`
	Points int    `json:"points"`
}

// ArtifactScore is the enhanced score of one artifact.
type ArtifactScore struct {
	ID        string          `json:"id"`
	Type      artifact.Type   `json:"type"`
	Title     string          `json:"title"`
	Status    artifact.Status `json:"status"`
	Score     int             `json:"score"`
	Penalties []Penalty       `json:"penalties,omitempty"`
}

// Report is the outcome of a health check. Threshold and BelowThreshold
// are set only by strategies that score each artifact.
type Report struct {
	Strategy       string          `json:"strategy"`
	Score          int             `json:"score"`
	AverageScore   float64         `json:"averageScore"`
	Threshold      int             `json:"threshold,omitempty"`
	BelowThreshold int             `json:"belowThreshold,omitempty"`
	CriticalIssues int             `json:"criticalIssues"`
	Total          int             `json:"total"`
	Healthy        int             `json:"healthy"`
	Skipped        int             `json:"skipped"`
	Issues         []Issue         `json:"issues"`
	Artifacts      []ArtifactScore `json:"artifacts,omitempty"`
	Cycles         []graph.Cycle   `json:"cycles"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// Input is the corpus snapshot a strategy evaluates.
type Input struct {
	Artifacts []*artifact.Artifact
	Graph     *graph.Graph
	Now       time.Time
	Skipped   int
}

// Strategy turns a corpus snapshot into a report.
type Strategy interface {
	Name() string
	Evaluate(in Input) *Report
}

// NewStrategy returns the strategy named in cfg.Strategy.
func NewStrategy(cfg config.HealthConfig) (Strategy, error) {
	switch cfg.Strategy {
	case config.StrategyBasic:
		return &BasicStrategy{Config: cfg}, nil
	case config.StrategyEnhanced, "":
		return &EnhancedStrategy{Config: cfg}, nil
	default:
		return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "health strategy", Err: fmt.Errorf("unknown strategy %q", cfg.Strategy)}
	}
}

// skipReporter is implemented by stores that count unparsable files.
type skipReporter interface {
	Skipped() []string
}

// Checker runs a strategy against the store.
type Checker struct {
	store    store.Store
	cfg      config.HealthConfig
	strategy Strategy
}

// NewChecker creates a checker using the strategy selected by cfg.
func NewChecker(st store.Store, cfg config.HealthConfig) (*Checker, error) {
	s, err := NewStrategy(cfg)
	if err != nil {
		return nil, err
	}
	return &Checker{store: st, cfg: cfg, strategy: s}, nil
}

// Strategy returns the name of the active strategy.
func (c *Checker) Strategy() string { return c.strategy.Name() }

// Check evaluates the whole corpus. Unparsable files do not fail the
// check; they are reported in Report.Skipped.
func (c *Checker) Check() (*Report, error) {
	in, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	return c.strategy.Evaluate(in), nil
}

// CheckArtifact computes the enhanced score of one artifact regardless of
// the configured strategy.
func (c *Checker) CheckArtifact(id string) (*ArtifactScore, error) {
	a, err := c.store.Load(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, artifact.NotFound("check health", id)
	}
	in, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	s := ScoreArtifact(a, in.Graph, in.Now, c.cfg)
	return &s, nil
}

func (c *Checker) snapshot() (Input, error) {
	items, err := c.store.List(store.Filter{})
	if err != nil {
		return Input{}, err
	}
	in := Input{
		Artifacts: items,
		Graph:     graph.Build(items, links.Edges(items)),
		Now:       timeNow().UTC(),
	}
	if sr, ok := c.store.(skipReporter); ok {
		in.Skipped = len(sr.Skipped())
	}
	return in, nil
}

// --- shared helpers ---

// daysSince returns whole days elapsed from t to now, never negative.
func daysSince(t, now time.Time) int {
	if t.IsZero() || now.Before(t) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}

func clamp(v int) int {
	return max(0, min(100, v))
}

func round(v float64) int {
	return int(math.Round(v))
}

func cycleIssues(cycles []graph.Cycle) []Issue {
	issues := make([]Issue, 0, len(cycles))
	for _, c := range cycles {
		sev := SeverityError
		if c.Severity == graph.SeverityCritical {
			sev = SeverityCritical
		}
		issues = append(issues, Issue{
			Type:       IssueCircularDependency,
			Severity:   sev,
			ArtifactID: c.Nodes[0],
			Message:    "circular dependency: " + c.String(),
			Members:    c.Nodes,
		})
	}
	return issues
}

func countSeverity(issues []Issue, sev Severity) int {
	n := 0
	for _, i := range issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}
