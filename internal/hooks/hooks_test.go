package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/HendryAvila/archkit/internal/artifact"
)

func TestRegistry_FiresInOrder(t *testing.T) {
	r := NewRegistry(nil)
	var order []string
	for _, name := range []string{"first", "second"} {
		name := name
		if err := r.Register(ArtifactCreated, name, func(_ context.Context, p Payload) error {
			order = append(order, name+":"+p.ID)
			return nil
		}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	failed := r.Fire(context.Background(), Payload{Event: ArtifactCreated, ID: "RFC-0001"})
	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	if len(order) != 2 || order[0] != "first:RFC-0001" || order[1] != "second:RFC-0001" {
		t.Errorf("order = %v", order)
	}
}

func TestRegistry_OnlyMatchingEvent(t *testing.T) {
	r := NewRegistry(nil)
	called := false
	_ = r.Register(ArtifactDeleted, "del", func(context.Context, Payload) error {
		called = true
		return nil
	})

	r.Fire(context.Background(), Payload{Event: ArtifactUpdated, ID: "ADR-0001"})
	if called {
		t.Error("hook fired for a different event")
	}
}

func TestRegistry_FailuresAreCountedNotPropagated(t *testing.T) {
	r := NewRegistry(nil)
	ran := 0
	_ = r.Register(LinkCreated, "err", func(context.Context, Payload) error {
		ran++
		return errors.New("boom")
	})
	_ = r.Register(LinkCreated, "panic", func(context.Context, Payload) error {
		ran++
		panic("kaboom")
	})
	_ = r.Register(LinkCreated, "ok", func(context.Context, Payload) error {
		ran++
		return nil
	})

	failed := r.Fire(context.Background(), Payload{Event: LinkCreated})
	if failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	if ran != 3 {
		t.Errorf("ran = %d, want 3 (a failure must not stop later hooks)", ran)
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register("artifact.renamed", "x", func(context.Context, Payload) error { return nil }); !errors.Is(err, artifact.ErrValidation) {
		t.Errorf("unknown event: err = %v, want ErrValidation", err)
	}
	if err := r.Register(ArtifactCreated, "nil", nil); !errors.Is(err, artifact.ErrValidation) {
		t.Errorf("nil hook: err = %v, want ErrValidation", err)
	}
	if r.Count(ArtifactCreated) != 0 {
		t.Errorf("Count = %d, want 0", r.Count(ArtifactCreated))
	}
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	if n := r.Fire(context.Background(), Payload{Event: ArtifactCreated}); n != 0 {
		t.Errorf("nil registry Fire = %d", n)
	}
	if r.Count(ArtifactCreated) != 0 {
		t.Error("nil registry Count != 0")
	}
}
