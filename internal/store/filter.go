package store

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/HendryAvila/archkit/internal/artifact"
)

// allKey is the cache key of the unfiltered list.
const allKey = "all"

// Filter narrows List results. Zero-valued fields do not filter.
// All set fields must match (conjunction); Tags requires every tag.
//
// Fields are declared in alphabetical order of their JSON names so the
// JSON encoding doubles as a sorted-key canonical cache key.
type Filter struct {
	DateFrom *time.Time      `json:"dateFrom,omitempty"`
	DateTo   *time.Time      `json:"dateTo,omitempty"`
	Owner    string          `json:"owner,omitempty"`
	Status   artifact.Status `json:"status,omitempty"`
	Tags     []string        `json:"tags,omitempty"`
	Type     artifact.Type   `json:"type,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.DateFrom == nil && f.DateTo == nil && f.Owner == "" &&
		f.Status == "" && len(f.Tags) == 0 && f.Type == ""
}

// Key returns the canonical cache key. Tag order and duplicates do not
// change the key, and timestamps are normalized to UTC.
func (f Filter) Key() string {
	if f.IsZero() {
		return allKey
	}
	canon := f
	if len(f.Tags) > 0 {
		canon.Tags = slices.Clone(f.Tags)
		slices.Sort(canon.Tags)
		canon.Tags = slices.Compact(canon.Tags)
	}
	if f.DateFrom != nil {
		t := f.DateFrom.UTC()
		canon.DateFrom = &t
	}
	if f.DateTo != nil {
		t := f.DateTo.UTC()
		canon.DateTo = &t
	}
	data, err := json.Marshal(canon)
	if err != nil {
		// Only plain strings and times are marshaled; this cannot fail.
		return allKey
	}
	return string(data)
}

// Matches reports whether the artifact satisfies every set field.
func (f Filter) Matches(a *artifact.Artifact) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Owner != "" && a.Owner != f.Owner {
		return false
	}
	for _, tag := range f.Tags {
		if !a.HasTag(tag) {
			return false
		}
	}
	if f.DateFrom != nil && a.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && a.CreatedAt.After(*f.DateTo) {
		return false
	}
	return true
}
