// Package links presents the one-directional references stored on each
// artifact as a bidirectional view.
//
// Nothing indexes incoming references: every incoming lookup scans the
// whole corpus through the store (whose List cache absorbs repeats).
package links

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/hooks"
	"github.com/HendryAvila/archkit/internal/logging"
	"github.com/HendryAvila/archkit/internal/store"
)

// Direction of a link relative to the artifact being inspected.
type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
)

// Link is one directed edge: SourceID carries a reference to TargetID.
type Link struct {
	SourceID string                 `json:"sourceId"`
	TargetID string                 `json:"targetId"`
	Type     artifact.ReferenceType `json:"type"`
}

// Links groups the edges touching one artifact.
type Links struct {
	Outgoing []Link `json:"outgoing"`
	Incoming []Link `json:"incoming"`
}

// DisplayLink is a link resolved to the artifact on its other end.
// Missing is set when that artifact does not exist (a broken reference).
type DisplayLink struct {
	Direction     Direction              `json:"direction"`
	ReferenceType artifact.ReferenceType `json:"referenceType"`
	ID            string                 `json:"id"`
	Type          artifact.Type          `json:"type,omitempty"`
	Title         string                 `json:"title,omitempty"`
	Status        artifact.Status        `json:"status,omitempty"`
	Missing       bool                   `json:"missing,omitempty"`
}

// CreateResult reports the link written by CreateLink. Duplicate is set
// when an identical link already existed; the new one is still appended.
type CreateResult struct {
	Link      Link `json:"link"`
	Duplicate bool `json:"duplicate"`
}

// Service derives link views from the store.
type Service struct {
	store store.Store
	hooks *hooks.Registry
	log   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHooks fires link events on r.
func WithHooks(r *hooks.Registry) Option {
	return func(s *Service) { s.hooks = r }
}

// WithLogger sets the service's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a link service over st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetLinks returns the outgoing references of id, in stored order, and the
// incoming references from every other artifact, ordered by source ID.
func (s *Service) GetLinks(id string) (*Links, error) {
	a, err := s.mustLoad("get links", id)
	if err != nil {
		return nil, err
	}
	all, err := s.store.List(store.Filter{})
	if err != nil {
		return nil, err
	}

	out := &Links{Outgoing: outgoing(a), Incoming: []Link{}}
	for _, l := range Edges(all) {
		if l.TargetID == id {
			out.Incoming = append(out.Incoming, l)
		}
	}
	sortLinks(out.Incoming)
	return out, nil
}

// CreateLink appends a reference from sourceID to targetID and re-saves
// the source. Both artifacts must exist. Duplicates are logged and kept.
func (s *Service) CreateLink(ctx context.Context, sourceID, targetID string, rt artifact.ReferenceType) (*CreateResult, error) {
	if err := artifact.ValidateReferenceType(rt); err != nil {
		return nil, err
	}
	targetType, err := artifact.ValidateID(targetID)
	if err != nil {
		return nil, err
	}
	if sourceID == targetID {
		return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "create link", ID: sourceID, Err: fmt.Errorf("an artifact cannot reference itself")}
	}

	source, err := s.mustLoad("create link", sourceID)
	if err != nil {
		return nil, err
	}
	if !s.store.Exists(targetID) {
		return nil, artifact.NotFound("create link", targetID)
	}

	res := &CreateResult{Link: Link{SourceID: sourceID, TargetID: targetID, Type: rt}}
	if source.HasReference(targetID, rt) {
		res.Duplicate = true
		s.log.Warn("duplicate link", "source", sourceID, "target", targetID, "type", rt)
	}

	ref := artifact.Reference{TargetID: targetID, TargetType: targetType, ReferenceType: rt}
	source.References = append(source.References, ref)
	if err := s.store.Save(source); err != nil {
		return nil, err
	}

	s.hooks.Fire(ctx, hooks.Payload{Event: hooks.LinkCreated, ID: sourceID, Artifact: source.Clone(), Reference: &ref})
	return res, nil
}

// RemoveLink drops every reference from sourceID to targetID of type rt.
// It reports whether anything was removed; the source is only re-saved
// when something was.
func (s *Service) RemoveLink(sourceID, targetID string, rt artifact.ReferenceType) (bool, error) {
	if err := artifact.ValidateReferenceType(rt); err != nil {
		return false, err
	}
	source, err := s.mustLoad("remove link", sourceID)
	if err != nil {
		return false, err
	}

	before := len(source.References)
	source.References = slices.DeleteFunc(source.References, func(r artifact.Reference) bool {
		return r.TargetID == targetID && r.ReferenceType == rt
	})
	if len(source.References) == before {
		return false, nil
	}
	if err := s.store.Save(source); err != nil {
		return false, err
	}
	return true, nil
}

// GetLinksForDisplay resolves every link of id to the artifact on the
// other end: outgoing links first in stored order, then incoming links.
func (s *Service) GetLinksForDisplay(id string) ([]DisplayLink, error) {
	l, err := s.GetLinks(id)
	if err != nil {
		return nil, err
	}

	display := make([]DisplayLink, 0, len(l.Outgoing)+len(l.Incoming))
	for _, o := range l.Outgoing {
		display = append(display, s.resolve(Outgoing, o.TargetID, o.Type))
	}
	for _, in := range l.Incoming {
		display = append(display, s.resolve(Incoming, in.SourceID, in.Type))
	}
	return display, nil
}

// AllLinks returns every outgoing edge in the corpus from a single scan.
func (s *Service) AllLinks() ([]Link, error) {
	all, err := s.store.List(store.Filter{})
	if err != nil {
		return nil, err
	}
	return Edges(all), nil
}

// Edges flattens the references of items into links, ordered by source
// then target then type. Identical references are kept.
func Edges(items []*artifact.Artifact) []Link {
	var edges []Link
	for _, a := range items {
		edges = append(edges, outgoing(a)...)
	}
	sortLinks(edges)
	return edges
}

// --- internals ---

func (s *Service) mustLoad(op, id string) (*artifact.Artifact, error) {
	a, err := s.store.Load(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, artifact.NotFound(op, id)
	}
	return a, nil
}

func (s *Service) resolve(dir Direction, id string, rt artifact.ReferenceType) DisplayLink {
	d := DisplayLink{Direction: dir, ReferenceType: rt, ID: id}
	other, err := s.store.Load(id)
	if err != nil || other == nil {
		d.Missing = true
		if t, err := artifact.ValidateID(id); err == nil {
			d.Type = t
		}
		return d
	}
	d.Type, d.Title, d.Status = other.Type, other.Title, other.Status
	return d
}

func outgoing(a *artifact.Artifact) []Link {
	out := make([]Link, 0, len(a.References))
	for _, r := range a.References {
		out = append(out, Link{SourceID: a.ID, TargetID: r.TargetID, Type: r.ReferenceType})
	}
	return out
}

func sortLinks(ls []Link) {
	slices.SortStableFunc(ls, func(a, b Link) int {
		return cmp.Or(
			cmp.Compare(a.SourceID, b.SourceID),
			cmp.Compare(a.TargetID, b.TargetID),
			cmp.Compare(a.Type, b.Type),
		)
	})
}
