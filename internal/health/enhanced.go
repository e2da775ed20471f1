package health

import (
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/config"
	"github.com/HendryAvila/archkit/internal/graph"
)

// Completeness penalties.
const (
	blankTitlePenalty = 20
	blankOwnerPenalty = 10
	noTagsPenalty     = 5
)

// EnhancedStrategy scores each artifact with ScoreArtifact and reports the
// average. Critical issues are critical cycles plus artifacts scoring
// below 50.
type EnhancedStrategy struct {
	Config config.HealthConfig
}

func (s *EnhancedStrategy) Name() string { return config.StrategyEnhanced }

func (s *EnhancedStrategy) Evaluate(in Input) *Report {
	cycles := in.Graph.Cycles()
	r := &Report{
		Strategy:    s.Name(),
		Threshold:   s.Config.ScoreThreshold,
		Total:       len(in.Artifacts),
		Skipped:     in.Skipped,
		Issues:      cycleIssues(cycles),
		Cycles:      cycles,
		GeneratedAt: in.Now,
		Artifacts:   make([]ArtifactScore, 0, len(in.Artifacts)),
	}

	sum := 0
	for _, a := range in.Artifacts {
		score := ScoreArtifact(a, in.Graph, in.Now, s.Config)
		r.Artifacts = append(r.Artifacts, score)
		sum += score.Score

		if score.Score < s.Config.ScoreThreshold {
			r.BelowThreshold++
		} else {
			r.Healthy++
		}
		if score.Score < criticalScore {
			r.Issues = append(r.Issues, Issue{
				Type:       IssueLowScore,
				Severity:   SeverityCritical,
				ArtifactID: a.ID,
				Message:    fmt.Sprintf("health score %d is below %d", score.Score, criticalScore),
			})
		}
	}

	r.AverageScore = 100
	if r.Total > 0 {
		r.AverageScore = float64(sum) / float64(r.Total)
	}
	r.Score = round(r.AverageScore)
	r.CriticalIssues = countSeverity(r.Issues, SeverityCritical)
	return r
}

// ScoreArtifact starts at 100 and subtracts:
//
//   - completeness: 20 for a blank title, 10 for a blank owner, 5 for no tags
//   - freshness: floor((days since update - threshold) / 30) * penalty per month,
//     once the threshold is exceeded
//   - relationships: the no-links penalty when there are no outgoing
//     references, and the stale-reference penalty for each outgoing reference
//     to a deprecated or superseded artifact
//   - required sections configured for the type that are absent or still
//     placeholder text
//
// The result is clamped to [0, 100].
func ScoreArtifact(a *artifact.Artifact, g *graph.Graph, now time.Time, cfg config.HealthConfig) ArtifactScore {
	s := ArtifactScore{ID: a.ID, Type: a.Type, Title: a.Title, Status: a.Status}
	deduct := func(points int, format string, args ...any) {
		if points > 0 {
			s.Penalties = append(s.Penalties, Penalty{Reason: fmt.Sprintf(format, args...), Points: points})
		}
	}

	if strings.TrimSpace(a.Title) == "" {
		deduct(blankTitlePenalty, "title is blank")
	}
	if strings.TrimSpace(a.Owner) == "" {
		deduct(blankOwnerPenalty, "owner is blank")
	}
	if len(a.Tags) == 0 {
		deduct(noTagsPenalty, "no tags")
	}

	if days := daysSince(a.UpdatedAt, now); days > cfg.StalenessThresholdDays {
		months := (days - cfg.StalenessThresholdDays) / 30
		deduct(months*cfg.StalenessPenaltyPerMonth, "not updated for %d days", days)
	}

	if len(a.References) == 0 {
		deduct(cfg.NoLinksPenalty, "no outgoing links")
	}
	for _, r := range a.References {
		if n, ok := g.Node(r.TargetID); ok && !n.Missing && n.Status.IsStale() {
			deduct(cfg.StaleReferencePenalty, "references %s %s", n.Status, r.TargetID)
		}
	}

	for _, heading := range cfg.RequiredSections[a.Type] {
		body, ok := a.Section(heading)
		switch {
		case !ok || strings.TrimSpace(body) == "":
			deduct(cfg.MissingSectionPenalty, "section %q missing", heading)
		case artifact.IsPlaceholder(body):
			deduct(cfg.MissingSectionPenalty, "section %q is a placeholder", heading)
		}
	}

	total := 0
	for _, p := range s.Penalties {
		total += p.Points
	}
	s.Score = clamp(100 - total)
	return s
}
