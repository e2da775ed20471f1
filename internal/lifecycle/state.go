package lifecycle

import (
	"fmt"
	"slices"
	"strings"

	"github.com/HendryAvila/archkit/internal/artifact"
)

// --- Status transitions ---
//
// Transitions are checked where updates enter the system; there is no
// separate automaton object. Setting the current status again is a no-op
// and always allowed.

var transitions = map[artifact.Type]map[artifact.Status][]artifact.Status{
	artifact.TypeRFC: {
		artifact.StatusDraft:    {artifact.StatusReview},
		artifact.StatusReview:   {artifact.StatusApproved, artifact.StatusRejected},
		artifact.StatusApproved: {artifact.StatusImplemented},
	},
	artifact.TypeADR: {
		artifact.StatusProposed: {artifact.StatusAccepted},
		artifact.StatusAccepted: {artifact.StatusDeprecated, artifact.StatusSuperseded},
	},
	artifact.TypeDecomposition: {
		artifact.StatusDraft:  {artifact.StatusActive},
		artifact.StatusActive: {artifact.StatusCompleted, artifact.StatusAbandoned},
	},
}

var phaseTransitions = map[artifact.PhaseStatus][]artifact.PhaseStatus{
	artifact.PhasePending:    {artifact.PhaseInProgress},
	artifact.PhaseInProgress: {artifact.PhaseCompleted, artifact.PhaseBlocked},
	artifact.PhaseBlocked:    {artifact.PhaseInProgress},
}

// NextStatuses returns the statuses reachable from the current one.
func NextStatuses(t artifact.Type, from artifact.Status) []artifact.Status {
	return slices.Clone(transitions[t][from])
}

// Summary describes the transitions of type t in status order, e.g.
// "proposed -> accepted, accepted -> deprecated|superseded".
func Summary(t artifact.Type) string {
	var steps []string
	for _, from := range artifact.StatusesFor(t) {
		next := NextStatuses(t, from)
		if len(next) == 0 {
			continue
		}
		names := make([]string, len(next))
		for i, s := range next {
			names[i] = string(s)
		}
		steps = append(steps, fmt.Sprintf("%s -> %s", from, strings.Join(names, "|")))
	}
	return strings.Join(steps, ", ")
}

// CanTransition returns an error unless an artifact of type t may move
// from one status to the other.
func CanTransition(t artifact.Type, from, to artifact.Status) error {
	if err := artifact.ValidateStatus(t, to); err != nil {
		return err
	}
	if from == to || slices.Contains(transitions[t][from], to) {
		return nil
	}
	allowed := NextStatuses(t, from)
	if len(allowed) == 0 {
		return &artifact.Error{Kind: artifact.ErrValidation, Op: "transition", Err: fmt.Errorf("%s status %q is final", t, from)}
	}
	return &artifact.Error{Kind: artifact.ErrValidation, Op: "transition", Err: fmt.Errorf("cannot move %s from %q to %q: allowed: %v", t, from, to, allowed)}
}

// ValidatePhaseStatus returns an error for an unknown phase status.
func ValidatePhaseStatus(s artifact.PhaseStatus) error {
	switch s {
	case artifact.PhasePending, artifact.PhaseInProgress, artifact.PhaseCompleted, artifact.PhaseBlocked:
		return nil
	}
	return &artifact.Error{Kind: artifact.ErrValidation, Op: "validate phase status", Err: fmt.Errorf("invalid phase status %q", s)}
}

// CanTransitionPhase returns an error unless a phase may move between the
// two statuses.
func CanTransitionPhase(from, to artifact.PhaseStatus) error {
	if err := ValidatePhaseStatus(to); err != nil {
		return err
	}
	if from == to || slices.Contains(phaseTransitions[from], to) {
		return nil
	}
	return &artifact.Error{Kind: artifact.ErrValidation, Op: "phase transition", Err: fmt.Errorf("cannot move phase from %q to %q", from, to)}
}
