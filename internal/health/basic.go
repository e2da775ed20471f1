package health

import (
	"fmt"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/config"
)

// BasicStrategy collects corpus-wide issues and scores
//
//	round(healthy/total*100 - errors*5 - warnings*2)
//
// clamped to [0, 100], where an artifact is healthy when no issue names it.
// Critical issues count as errors. An empty corpus scores 100. There are no
// per-artifact scores, so Config.ScoreThreshold is not applied and the
// report's threshold fields stay zero.
type BasicStrategy struct {
	Config config.HealthConfig
}

func (s *BasicStrategy) Name() string { return config.StrategyBasic }

func (s *BasicStrategy) Evaluate(in Input) *Report {
	cycles := in.Graph.Cycles()
	issues := s.issues(in)
	issues = append(issues, cycleIssues(cycles)...)

	unhealthy := make(map[string]bool)
	for _, i := range issues {
		unhealthy[i.ArtifactID] = true
		for _, m := range i.Members {
			unhealthy[m] = true
		}
	}
	total := len(in.Artifacts)
	healthy := 0
	for _, a := range in.Artifacts {
		if !unhealthy[a.ID] {
			healthy++
		}
	}

	errs := countSeverity(issues, SeverityError) + countSeverity(issues, SeverityCritical)
	warns := countSeverity(issues, SeverityWarning)

	score := 100
	if total > 0 {
		score = clamp(round(float64(healthy)/float64(total)*100 - float64(errs*5) - float64(warns*2)))
	}

	return &Report{
		Strategy:       s.Name(),
		Score:          score,
		AverageScore:   float64(score),
		CriticalIssues: countSeverity(issues, SeverityCritical),
		Total:          total,
		Healthy:        healthy,
		Skipped:        in.Skipped,
		Issues:         issues,
		Cycles:         cycles,
		GeneratedAt:    in.Now,
	}
}

func (s *BasicStrategy) issues(in Input) []Issue {
	issues := []Issue{}
	add := func(t IssueType, sev Severity, id, format string, args ...any) {
		issues = append(issues, Issue{Type: t, Severity: sev, ArtifactID: id, Message: fmt.Sprintf(format, args...)})
	}

	for _, a := range in.Artifacts {
		if days := daysSince(a.UpdatedAt, in.Now); !a.Status.IsInactive() && days > s.Config.StalenessThresholdDays {
			add(IssueStale, SeverityWarning, a.ID, "not updated for %d days", days)
		}

		if len(in.Graph.Outgoing(a.ID)) == 0 && len(in.Graph.Incoming(a.ID)) == 0 {
			add(IssueOrphaned, SeverityWarning, a.ID, "no links to or from other artifacts")
		}

		for _, r := range a.References {
			if n, ok := in.Graph.Node(r.TargetID); !ok || n.Missing {
				add(IssueBrokenReference, SeverityError, a.ID, "references missing artifact %s (%s)", r.TargetID, r.ReferenceType)
			}
		}

		if a.Owner == "" {
			add(IssueMissingOwner, SeverityWarning, a.ID, "no owner")
		}

		if days := daysSince(a.CreatedAt, in.Now); a.Status.IsDraft() && days > s.Config.DraftMaxDays {
			add(IssueDraftTooLong, SeverityWarning, a.ID, "still %s after %d days", a.Status, days)
		}

		if a.Status == artifact.StatusSuperseded {
			if a.SupersededBy == "" {
				add(IssueSupersededWithoutLink, SeverityError, a.ID, "superseded but supersededBy is empty")
			} else if n, ok := in.Graph.Node(a.SupersededBy); !ok || n.Missing {
				add(IssueSupersededWithoutLink, SeverityError, a.ID, "superseded by missing artifact %s", a.SupersededBy)
			}
		}
	}
	return issues
}
