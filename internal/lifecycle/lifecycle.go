// Package lifecycle creates, updates and deletes artifacts on top of the
// store, enforcing status transitions and firing hooks.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/hooks"
	"github.com/HendryAvila/archkit/internal/logging"
	"github.com/HendryAvila/archkit/internal/store"
)

// CreateInput describes a new artifact. Sections omitted here get the
// type's placeholder body; extra sections are appended after them.
type CreateInput struct {
	Type       artifact.Type
	Title      string
	Owner      string
	Tags       []string
	References []artifact.Reference
	Sections   []artifact.Section
	Phases     []artifact.Phase
}

// Patch is a partial update: nil fields keep their current value.
type Patch struct {
	Title         *string
	Owner         *string
	Tags          *[]string
	Status        *artifact.Status
	SupersededBy  *string
	Sections      map[string]string
	AddReferences []artifact.Reference
	Phases        *[]artifact.Phase
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Owner == nil && p.Tags == nil && p.Status == nil &&
		p.SupersededBy == nil && len(p.Sections) == 0 && len(p.AddReferences) == 0 && p.Phases == nil
}

// Service owns artifact mutations.
type Service struct {
	store store.Store
	hooks *hooks.Registry
	log   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHooks fires lifecycle events on r.
func WithHooks(r *hooks.Registry) Option {
	return func(s *Service) { s.hooks = r }
}

// WithLogger sets the service's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a lifecycle service over st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates the next ID for the type, applies the initial status
// and placeholder sections, and saves the artifact.
func (s *Service) Create(ctx context.Context, in CreateInput) (*artifact.Artifact, error) {
	if err := artifact.ValidateType(in.Type); err != nil {
		return nil, err
	}
	refs, err := normalizeReferences(in.References)
	if err != nil {
		return nil, err
	}
	if len(in.Phases) > 0 && in.Type != artifact.TypeDecomposition {
		return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "create", Err: fmt.Errorf("only decompositions have phases")}
	}
	phases, err := normalizePhases(in.Phases)
	if err != nil {
		return nil, err
	}

	id, err := s.store.NextID(in.Type)
	if err != nil {
		return nil, err
	}

	a := &artifact.Artifact{
		ID:         id,
		Type:       in.Type,
		Title:      strings.TrimSpace(in.Title),
		Status:     artifact.InitialStatus(in.Type),
		Owner:      strings.TrimSpace(in.Owner),
		Tags:       normalizeTags(in.Tags),
		References: refs,
		Phases:     phases,
		Sections:   artifact.DefaultSections(in.Type),
	}
	for _, sec := range in.Sections {
		a.SetSection(sec.Heading, sec.Body)
	}

	if err := s.store.Save(a); err != nil {
		return nil, err
	}
	s.log.Info("artifact created", "id", a.ID, "type", a.Type)
	s.hooks.Fire(ctx, hooks.Payload{Event: hooks.ArtifactCreated, ID: a.ID, Artifact: a.Clone()})
	return a, nil
}

// Update merges p into the stored artifact. Status changes must follow the
// type's transitions; moving an ADR to superseded requires SupersededBy to
// name another existing ADR. Nothing is written when validation fails.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*artifact.Artifact, error) {
	current, err := s.load("update", id)
	if err != nil {
		return nil, err
	}
	a := current.Clone()

	if p.Title != nil {
		a.Title = strings.TrimSpace(*p.Title)
	}
	if p.Owner != nil {
		a.Owner = strings.TrimSpace(*p.Owner)
	}
	if p.Tags != nil {
		a.Tags = normalizeTags(*p.Tags)
	}
	for _, heading := range slices.Sorted(maps.Keys(p.Sections)) {
		a.SetSection(heading, p.Sections[heading])
	}
	if len(p.AddReferences) > 0 {
		refs, err := normalizeReferences(p.AddReferences)
		if err != nil {
			return nil, err
		}
		a.References = append(a.References, refs...)
	}
	if p.Phases != nil {
		if a.Type != artifact.TypeDecomposition {
			return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "update", ID: id, Err: fmt.Errorf("only decompositions have phases")}
		}
		phases, err := normalizePhases(*p.Phases)
		if err != nil {
			return nil, err
		}
		a.Phases = phases
	}
	if p.SupersededBy != nil {
		if a.Type != artifact.TypeADR {
			return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "update", ID: id, Err: fmt.Errorf("only ADRs can be superseded")}
		}
		a.SupersededBy = strings.TrimSpace(*p.SupersededBy)
	}
	if p.Status != nil {
		if err := CanTransition(a.Type, current.Status, *p.Status); err != nil {
			return nil, wrapOp(err, "update", id)
		}
		a.Status = *p.Status
	}
	if a.Status == artifact.StatusSuperseded && (current.Status != a.Status || current.SupersededBy != a.SupersededBy) {
		if err := s.checkSuccessor(a); err != nil {
			return nil, err
		}
	}

	if err := s.store.Save(a); err != nil {
		return nil, err
	}
	s.log.Info("artifact updated", "id", a.ID, "status", a.Status)
	s.hooks.Fire(ctx, hooks.Payload{Event: hooks.ArtifactUpdated, ID: a.ID, Artifact: a.Clone()})
	return a, nil
}

// SetStatus is Update with only a status change.
func (s *Service) SetStatus(ctx context.Context, id string, status artifact.Status, supersededBy string) (*artifact.Artifact, error) {
	p := Patch{Status: &status}
	if supersededBy != "" {
		p.SupersededBy = &supersededBy
	}
	return s.Update(ctx, id, p)
}

// SetPhaseStatus moves one phase of a decomposition along
// pending -> in-progress -> {completed, blocked}, blocked -> in-progress.
func (s *Service) SetPhaseStatus(ctx context.Context, id, phaseID string, status artifact.PhaseStatus) (*artifact.Artifact, error) {
	a, err := s.load("set phase status", id)
	if err != nil {
		return nil, err
	}
	if a.Type != artifact.TypeDecomposition {
		return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "set phase status", ID: id, Err: fmt.Errorf("only decompositions have phases")}
	}
	i := slices.IndexFunc(a.Phases, func(p artifact.Phase) bool { return p.ID == phaseID })
	if i < 0 {
		return nil, &artifact.Error{Kind: artifact.ErrNotFound, Op: "set phase status", ID: id, Err: fmt.Errorf("phase %q not found", phaseID)}
	}
	if err := CanTransitionPhase(a.Phases[i].Status, status); err != nil {
		return nil, wrapOp(err, "set phase status", id)
	}
	if status == artifact.PhaseInProgress {
		for _, dep := range a.Phases[i].DependsOn {
			j := slices.IndexFunc(a.Phases, func(p artifact.Phase) bool { return p.ID == dep })
			if j >= 0 && a.Phases[j].Status != artifact.PhaseCompleted {
				s.log.Warn("phase started before its dependency completed", "id", id, "phase", phaseID, "dependsOn", dep)
			}
		}
	}

	a.Phases[i].Status = status
	if err := s.store.Save(a); err != nil {
		return nil, err
	}
	s.hooks.Fire(ctx, hooks.Payload{Event: hooks.ArtifactUpdated, ID: a.ID, Artifact: a.Clone()})
	return a, nil
}

// Delete removes the artifact. References to it elsewhere are left alone
// and surface later as broken references.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.Delete(id)
	if err != nil || !deleted {
		return deleted, err
	}
	s.log.Info("artifact deleted", "id", id)
	s.hooks.Fire(ctx, hooks.Payload{Event: hooks.ArtifactDeleted, ID: id})
	return true, nil
}

// --- internals ---

func (s *Service) load(op, id string) (*artifact.Artifact, error) {
	a, err := s.store.Load(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, artifact.NotFound(op, id)
	}
	return a, nil
}

// checkSuccessor validates the supersededBy target of an ADR.
func (s *Service) checkSuccessor(a *artifact.Artifact) error {
	if a.SupersededBy == "" {
		return &artifact.Error{Kind: artifact.ErrValidation, Op: "supersede", ID: a.ID, Err: fmt.Errorf("supersededBy is required")}
	}
	t, err := artifact.ValidateID(a.SupersededBy)
	if err != nil {
		return wrapOp(err, "supersede", a.ID)
	}
	if t != artifact.TypeADR {
		return &artifact.Error{Kind: artifact.ErrValidation, Op: "supersede", ID: a.ID, Err: fmt.Errorf("successor %s is not an ADR", a.SupersededBy)}
	}
	if a.SupersededBy == a.ID {
		return &artifact.Error{Kind: artifact.ErrValidation, Op: "supersede", ID: a.ID, Err: fmt.Errorf("an ADR cannot supersede itself")}
	}
	if !s.store.Exists(a.SupersededBy) {
		return artifact.NotFound("supersede", a.SupersededBy)
	}
	return nil
}

func wrapOp(err error, op, id string) error {
	var ae *artifact.Error
	if errors.As(err, &ae) {
		return &artifact.Error{Kind: ae.Kind, Op: op, ID: id, Err: ae.Err}
	}
	return err
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// normalizeReferences validates reference types and target ID formats and
// fills TargetType from the ID prefix. Targets need not exist.
func normalizeReferences(refs []artifact.Reference) ([]artifact.Reference, error) {
	out := make([]artifact.Reference, 0, len(refs))
	for _, r := range refs {
		t, err := artifact.ValidateID(r.TargetID)
		if err != nil {
			return nil, err
		}
		if err := artifact.ValidateReferenceType(r.ReferenceType); err != nil {
			return nil, err
		}
		r.TargetType = t
		out = append(out, r)
	}
	return out, nil
}

// normalizePhases assigns missing IDs (P1, P2, ...) and pending status,
// and rejects duplicate IDs and dependencies on unknown phases.
func normalizePhases(phases []artifact.Phase) ([]artifact.Phase, error) {
	if len(phases) == 0 {
		return nil, nil
	}
	out := make([]artifact.Phase, len(phases))
	seen := make(map[string]bool, len(phases))
	for i, p := range phases {
		if p.ID == "" {
			p.ID = fmt.Sprintf("P%d", i+1)
		}
		if seen[p.ID] {
			return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "validate phases", Err: fmt.Errorf("duplicate phase id %q", p.ID)}
		}
		seen[p.ID] = true
		if p.Status == "" {
			p.Status = artifact.PhasePending
		}
		if err := ValidatePhaseStatus(p.Status); err != nil {
			return nil, err
		}
		p.DependsOn = slices.Clone(p.DependsOn)
		out[i] = p
	}
	for _, p := range out {
		for _, dep := range p.DependsOn {
			if !seen[dep] || dep == p.ID {
				return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "validate phases", Err: fmt.Errorf("phase %q depends on unknown phase %q", p.ID, dep)}
			}
		}
	}
	return out, nil
}
