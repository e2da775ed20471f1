// Package artifact defines the architecture documentation model: RFCs,
// ADRs and decomposition plans stored as Markdown files with YAML
// frontmatter under a project-local .arch/ directory.
//
// This package is the single source of truth for:
// - artifact types and their ID prefixes
// - status enumerations per type
// - reference (link) types
// - ID validation, which is the only security boundary of the store
// - the on-disk text format (see codec.go)
package artifact

import (
	"fmt"
	"slices"
	"time"
)

// --- Artifact type enum ---

// Type identifies the kind of artifact.
type Type string

const (
	TypeRFC           Type = "rfc"
	TypeADR           Type = "adr"
	TypeDecomposition Type = "decomposition"
)

// AllTypes lists every artifact type in display order.
var AllTypes = []Type{TypeRFC, TypeADR, TypeDecomposition}

// typePrefixes is the bit-exact type → ID prefix mapping.
var typePrefixes = map[Type]string{
	TypeRFC:           "RFC",
	TypeADR:           "ADR",
	TypeDecomposition: "DECOMP",
}

// Prefix returns the ID prefix for the type ("RFC", "ADR", "DECOMP").
func (t Type) Prefix() string {
	return typePrefixes[t]
}

// Dir returns the subdirectory name under .arch/ for the type.
func (t Type) Dir() string {
	return string(t)
}

// ValidateType returns an error if the type is not recognized.
func ValidateType(t Type) error {
	if _, ok := typePrefixes[t]; !ok {
		return &Error{Kind: ErrValidation, Op: "validate type", Err: fmt.Errorf("invalid artifact type %q: must be one of: rfc, adr, decomposition", t)}
	}
	return nil
}

// --- Status enum ---

// Status is a type-specific lifecycle state.
type Status string

const (
	// RFC statuses.
	StatusDraft       Status = "draft"
	StatusReview      Status = "review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusImplemented Status = "implemented"

	// ADR statuses.
	StatusProposed   Status = "proposed"
	StatusAccepted   Status = "accepted"
	StatusDeprecated Status = "deprecated"
	StatusSuperseded Status = "superseded"

	// Decomposition statuses. Decompositions also start as draft.
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// validStatuses is the set of allowed statuses per type.
var validStatuses = map[Type][]Status{
	TypeRFC:           {StatusDraft, StatusReview, StatusApproved, StatusRejected, StatusImplemented},
	TypeADR:           {StatusProposed, StatusAccepted, StatusDeprecated, StatusSuperseded},
	TypeDecomposition: {StatusDraft, StatusActive, StatusCompleted, StatusAbandoned},
}

// initialStatuses is the status a freshly created artifact gets.
var initialStatuses = map[Type]Status{
	TypeRFC:           StatusDraft,
	TypeADR:           StatusProposed,
	TypeDecomposition: StatusDraft,
}

// InitialStatus returns the creation status for the type.
func InitialStatus(t Type) Status {
	return initialStatuses[t]
}

// StatusesFor returns the allowed statuses for the type.
func StatusesFor(t Type) []Status {
	return slices.Clone(validStatuses[t])
}

// ValidateStatus returns an error if the status does not belong to the type.
func ValidateStatus(t Type, s Status) error {
	if !slices.Contains(validStatuses[t], s) {
		return &Error{Kind: ErrValidation, Op: "validate status", Err: fmt.Errorf("invalid %s status %q: must be one of: %v", t, s, validStatuses[t])}
	}
	return nil
}

// IsInactive reports whether the status marks an artifact that no longer
// carries weight: deprecated, superseded, rejected or abandoned.
func (s Status) IsInactive() bool {
	switch s {
	case StatusDeprecated, StatusSuperseded, StatusRejected, StatusAbandoned:
		return true
	}
	return false
}

// IsStale reports whether references pointing at an artifact with this
// status should be flagged as stale.
func (s Status) IsStale() bool {
	return s == StatusDeprecated || s == StatusSuperseded
}

// IsDraft reports whether the status is an early, not-yet-decided state.
func (s Status) IsDraft() bool {
	return s == StatusDraft || s == StatusProposed
}

// --- Reference type enum ---

// ReferenceType is the kind of a directed edge between two artifacts.
type ReferenceType string

const (
	RefImplements ReferenceType = "implements"
	RefSupersedes ReferenceType = "supersedes"
	RefRelatesTo  ReferenceType = "relates-to"
	RefDependsOn  ReferenceType = "depends-on"
	RefBlocks     ReferenceType = "blocks"
	RefEnables    ReferenceType = "enables"
)

// AllReferenceTypes lists every reference type.
var AllReferenceTypes = []ReferenceType{
	RefImplements, RefSupersedes, RefRelatesTo, RefDependsOn, RefBlocks, RefEnables,
}

// ValidateReferenceType returns an error if the reference type is unknown.
func ValidateReferenceType(rt ReferenceType) error {
	if !slices.Contains(AllReferenceTypes, rt) {
		return &Error{Kind: ErrValidation, Op: "validate reference type", Err: fmt.Errorf("invalid reference type %q: must be one of: %v", rt, AllReferenceTypes)}
	}
	return nil
}

// --- Phase status enum (decompositions) ---

// PhaseStatus tracks one phase of a decomposition plan.
type PhaseStatus string

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in-progress"
	PhaseCompleted  PhaseStatus = "completed"
	PhaseBlocked    PhaseStatus = "blocked"
)

// --- Core data structures ---

// Reference is a directed, typed edge stored on the source artifact.
// The target is not required to exist.
type Reference struct {
	TargetID      string        `yaml:"targetId" json:"targetId"`
	TargetType    Type          `yaml:"targetType" json:"targetType"`
	ReferenceType ReferenceType `yaml:"referenceType" json:"referenceType"`
}

// Phase is one step of a decomposition plan.
type Phase struct {
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Status      PhaseStatus `yaml:"status" json:"status"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	DependsOn   []string    `yaml:"dependsOn,omitempty" json:"dependsOn,omitempty"`
}

// Section is a "## Heading" block of free text in the artifact body.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Artifact is a single RFC, ADR or decomposition plan.
type Artifact struct {
	ID         string      `json:"id"`
	Type       Type        `json:"type"`
	Title      string      `json:"title"`
	Status     Status      `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Owner      string      `json:"owner"`
	Tags       []string    `json:"tags"`
	References []Reference `json:"references,omitempty"`

	// ADR only.
	SupersededBy string `json:"supersededBy,omitempty"`
	// Decomposition only.
	Phases []Phase `json:"phases,omitempty"`

	Sections []Section `json:"sections,omitempty"`
}

// Section returns the body of the named section and whether it exists.
func (a *Artifact) Section(heading string) (string, bool) {
	for _, s := range a.Sections {
		if s.Heading == heading {
			return s.Body, true
		}
	}
	return "", false
}

// SetSection replaces the body of the named section, appending it if absent.
func (a *Artifact) SetSection(heading, body string) {
	for i := range a.Sections {
		if a.Sections[i].Heading == heading {
			a.Sections[i].Body = body
			return
		}
	}
	a.Sections = append(a.Sections, Section{Heading: heading, Body: body})
}

// HasTag reports whether the artifact carries the tag.
func (a *Artifact) HasTag(tag string) bool {
	return slices.Contains(a.Tags, tag)
}

// HasReference reports whether an identical outgoing reference exists.
func (a *Artifact) HasReference(targetID string, rt ReferenceType) bool {
	for _, r := range a.References {
		if r.TargetID == targetID && r.ReferenceType == rt {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so cached values cannot be mutated by callers.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	c := *a
	c.Tags = slices.Clone(a.Tags)
	c.References = slices.Clone(a.References)
	c.Sections = slices.Clone(a.Sections)
	if a.Phases != nil {
		c.Phases = make([]Phase, len(a.Phases))
		for i, p := range a.Phases {
			p.DependsOn = slices.Clone(p.DependsOn)
			c.Phases[i] = p
		}
	}
	return &c
}
