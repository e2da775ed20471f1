// Package hooks lets plugins and git-hook installers observe artifact
// changes without sitting in the core's control flow.
//
// Hooks run synchronously after the change is persisted. A failing hook is
// logged and otherwise ignored: the change has already happened.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/logging"
)

// Event names a point in an artifact's life.
type Event string

const (
	ArtifactCreated Event = "artifact.created"
	ArtifactUpdated Event = "artifact.updated"
	ArtifactDeleted Event = "artifact.deleted"
	LinkCreated     Event = "link.created"
)

// AllEvents lists every event a hook can subscribe to.
var AllEvents = []Event{ArtifactCreated, ArtifactUpdated, ArtifactDeleted, LinkCreated}

// Payload describes what happened. Artifact is a snapshot taken after the
// change (nil for deletions); Reference is set for link events.
type Payload struct {
	Event     Event
	ID        string
	Artifact  *artifact.Artifact
	Reference *artifact.Reference
}

// Hook is called for each event it was registered for.
type Hook func(ctx context.Context, p Payload) error

type namedHook struct {
	name string
	fn   Hook
}

// Registry holds hooks by event. The zero value is not usable; use NewRegistry.
// A nil *Registry is valid and fires nothing.
type Registry struct {
	mu    sync.RWMutex
	hooks map[Event][]namedHook
	log   *slog.Logger
}

// NewRegistry creates an empty registry logging through l (nil discards).
func NewRegistry(l *slog.Logger) *Registry {
	if l == nil {
		l = logging.Discard()
	}
	return &Registry{hooks: make(map[Event][]namedHook), log: l}
}

// Register subscribes fn to ev under a name used in logs.
func (r *Registry) Register(ev Event, name string, fn Hook) error {
	if !slices.Contains(AllEvents, ev) {
		return &artifact.Error{Kind: artifact.ErrValidation, Op: "register hook", Err: fmt.Errorf("unknown event %q", ev)}
	}
	if fn == nil {
		return &artifact.Error{Kind: artifact.ErrValidation, Op: "register hook", Err: fmt.Errorf("hook %q is nil", name)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[ev] = append(r.hooks[ev], namedHook{name: name, fn: fn})
	return nil
}

// Count returns how many hooks are registered for ev.
func (r *Registry) Count(ev Event) int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[ev])
}

// Fire runs every hook for p.Event in registration order and returns the
// number that failed. A panicking hook counts as a failure.
func (r *Registry) Fire(ctx context.Context, p Payload) int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	hooks := append([]namedHook(nil), r.hooks[p.Event]...)
	r.mu.RUnlock()

	failed := 0
	for _, h := range hooks {
		if err := r.run(ctx, h, p); err != nil {
			failed++
			r.log.Warn("hook failed", "hook", h.name, "event", p.Event, "id", p.ID, "error", err)
		}
	}
	return failed
}

func (r *Registry) run(ctx context.Context, h namedHook, p Payload) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return h.fn(ctx, p)
}
