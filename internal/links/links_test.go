package links

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/hooks"
	"github.com/HendryAvila/archkit/internal/store"
)

// --- Helpers ---

func setup(t *testing.T, opts ...Option) (*Service, *store.FileStore) {
	t.Helper()
	st := store.NewFileStore(filepath.Join(t.TempDir(), store.DirName))
	if err := st.Initialize("test"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return NewService(st, opts...), st
}

func save(t *testing.T, st store.Store, id, title, owner string, refs ...artifact.Reference) {
	t.Helper()
	typ, err := artifact.ValidateID(id)
	if err != nil {
		t.Fatal(err)
	}
	a := &artifact.Artifact{
		ID: id, Type: typ, Title: title, Owner: owner,
		Status:     artifact.InitialStatus(typ),
		References: refs,
	}
	if err := st.Save(a); err != nil {
		t.Fatalf("Save(%s) failed: %v", id, err)
	}
}

func ref(target string, rt artifact.ReferenceType) artifact.Reference {
	typ, _ := artifact.ValidateID(target)
	return artifact.Reference{TargetID: target, TargetType: typ, ReferenceType: rt}
}

// --- GetLinks ---

func TestGetLinks_DependsOnScenario(t *testing.T) {
	svc, st := setup(t)
	save(t, st, "RFC-0001", "X", "alice")
	save(t, st, "RFC-0002", "Y", "bob", ref("RFC-0001", artifact.RefDependsOn))

	got, err := svc.GetLinks("RFC-0001")
	if err != nil {
		t.Fatalf("GetLinks failed: %v", err)
	}
	if len(got.Outgoing) != 0 {
		t.Errorf("Outgoing = %v, want empty", got.Outgoing)
	}
	want := Link{SourceID: "RFC-0002", TargetID: "RFC-0001", Type: artifact.RefDependsOn}
	if len(got.Incoming) != 1 || got.Incoming[0] != want {
		t.Errorf("Incoming = %v, want [%v]", got.Incoming, want)
	}

	got, _ = svc.GetLinks("RFC-0002")
	if len(got.Outgoing) != 1 || len(got.Incoming) != 0 {
		t.Errorf("RFC-0002 links = %+v", got)
	}
}

func TestGetLinks_NotFound(t *testing.T) {
	svc, _ := setup(t)
	if _, err := svc.GetLinks("ADR-0009"); !errors.Is(err, artifact.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetLinks_UnsafeID(t *testing.T) {
	svc, _ := setup(t)
	if _, err := svc.GetLinks("../ADR-0001"); !errors.Is(err, artifact.ErrSecurity) {
		t.Errorf("err = %v, want ErrSecurity", err)
	}
}

// --- CreateLink ---

func TestCreateLink(t *testing.T) {
	reg := hooks.NewRegistry(nil)
	var fired []hooks.Payload
	_ = reg.Register(hooks.LinkCreated, "rec", func(_ context.Context, p hooks.Payload) error {
		fired = append(fired, p)
		return nil
	})
	svc, st := setup(t, WithHooks(reg))
	save(t, st, "ADR-0001", "Use Go", "alice")
	save(t, st, "RFC-0001", "CLI", "bob")

	res, err := svc.CreateLink(context.Background(), "RFC-0001", "ADR-0001", artifact.RefImplements)
	if err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}
	if res.Duplicate {
		t.Error("first link reported as duplicate")
	}

	a, _ := st.Load("RFC-0001")
	if len(a.References) != 1 || a.References[0].TargetType != artifact.TypeADR {
		t.Errorf("References = %+v", a.References)
	}
	if len(fired) != 1 || fired[0].Reference == nil || fired[0].Reference.TargetID != "ADR-0001" {
		t.Errorf("hook payloads = %+v", fired)
	}
}

func TestCreateLink_DuplicateWarnsButAppends(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	svc, st := setup(t, WithLogger(logger))
	save(t, st, "ADR-0001", "A", "x")
	save(t, st, "ADR-0002", "B", "x")

	ctx := context.Background()
	if _, err := svc.CreateLink(ctx, "ADR-0002", "ADR-0001", artifact.RefRelatesTo); err != nil {
		t.Fatal(err)
	}
	res, err := svc.CreateLink(ctx, "ADR-0002", "ADR-0001", artifact.RefRelatesTo)
	if err != nil {
		t.Fatalf("duplicate CreateLink failed: %v", err)
	}
	if !res.Duplicate {
		t.Error("Duplicate = false, want true")
	}
	if !strings.Contains(logs.String(), "duplicate link") {
		t.Errorf("no warning logged: %q", logs.String())
	}

	a, _ := st.Load("ADR-0002")
	if len(a.References) != 2 {
		t.Errorf("References = %d, want 2 (duplicates are kept)", len(a.References))
	}

	// A different type between the same pair is not a duplicate.
	res, _ = svc.CreateLink(ctx, "ADR-0002", "ADR-0001", artifact.RefSupersedes)
	if res.Duplicate {
		t.Error("different reference type reported as duplicate")
	}
}

func TestCreateLink_Errors(t *testing.T) {
	svc, st := setup(t)
	save(t, st, "RFC-0001", "A", "x")

	tests := []struct {
		name           string
		source, target string
		rt             artifact.ReferenceType
		want           error
	}{
		{"missing source", "RFC-0009", "RFC-0001", artifact.RefDependsOn, artifact.ErrNotFound},
		{"missing target", "RFC-0001", "ADR-0009", artifact.RefDependsOn, artifact.ErrNotFound},
		{"bad type", "RFC-0001", "RFC-0001", "owns", artifact.ErrValidation},
		{"self link", "RFC-0001", "RFC-0001", artifact.RefDependsOn, artifact.ErrValidation},
		{"unsafe target", "RFC-0001", "RFC-0001/../x", artifact.RefDependsOn, artifact.ErrSecurity},
		{"unsafe source", "../RFC-0001", "RFC-0001", artifact.RefDependsOn, artifact.ErrSecurity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateLink(context.Background(), tt.source, tt.target, tt.rt); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	a, _ := st.Load("RFC-0001")
	if len(a.References) != 0 {
		t.Errorf("failed links were persisted: %+v", a.References)
	}
}

// --- RemoveLink ---

func TestRemoveLink(t *testing.T) {
	svc, st := setup(t)
	save(t, st, "RFC-0001", "A", "x")
	save(t, st, "RFC-0002", "B", "x",
		ref("RFC-0001", artifact.RefDependsOn),
		ref("RFC-0001", artifact.RefDependsOn),
		ref("RFC-0001", artifact.RefRelatesTo),
	)

	removed, err := svc.RemoveLink("RFC-0002", "RFC-0001", artifact.RefDependsOn)
	if err != nil || !removed {
		t.Fatalf("RemoveLink = %v, %v, want true, nil", removed, err)
	}
	a, _ := st.Load("RFC-0002")
	if len(a.References) != 1 || a.References[0].ReferenceType != artifact.RefRelatesTo {
		t.Errorf("References = %+v", a.References)
	}

	removed, err = svc.RemoveLink("RFC-0002", "RFC-0001", artifact.RefDependsOn)
	if err != nil || removed {
		t.Errorf("second RemoveLink = %v, %v, want false, nil", removed, err)
	}
}

// --- GetLinksForDisplay ---

func TestGetLinksForDisplay(t *testing.T) {
	svc, st := setup(t)
	save(t, st, "ADR-0001", "Use SQLite", "alice")
	save(t, st, "RFC-0001", "Search", "bob",
		ref("ADR-0001", artifact.RefImplements),
		ref("ADR-0042", artifact.RefRelatesTo),
	)
	save(t, st, "DECOMP-0001", "Plan", "carol", ref("RFC-0001", artifact.RefEnables))

	got, err := svc.GetLinksForDisplay("RFC-0001")
	if err != nil {
		t.Fatalf("GetLinksForDisplay failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(got), got)
	}

	if got[0].Direction != Outgoing || got[0].ID != "ADR-0001" || got[0].Title != "Use SQLite" || got[0].Status != artifact.StatusProposed {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].ID != "ADR-0042" || !got[1].Missing || got[1].Type != artifact.TypeADR {
		t.Errorf("broken reference = %+v, want Missing ADR", got[1])
	}
	if got[2].Direction != Incoming || got[2].ID != "DECOMP-0001" || got[2].ReferenceType != artifact.RefEnables {
		t.Errorf("got[2] = %+v", got[2])
	}
}

// --- AllLinks / Edges ---

func TestAllLinks(t *testing.T) {
	svc, st := setup(t)
	save(t, st, "RFC-0001", "A", "x", ref("ADR-0001", artifact.RefImplements))
	save(t, st, "ADR-0001", "B", "x")
	save(t, st, "ADR-0002", "C", "x", ref("ADR-0001", artifact.RefSupersedes), ref("RFC-0001", artifact.RefRelatesTo))

	got, err := svc.AllLinks()
	if err != nil {
		t.Fatalf("AllLinks failed: %v", err)
	}
	want := []Link{
		{SourceID: "ADR-0002", TargetID: "ADR-0001", Type: artifact.RefSupersedes},
		{SourceID: "ADR-0002", TargetID: "RFC-0001", Type: artifact.RefRelatesTo},
		{SourceID: "RFC-0001", TargetID: "ADR-0001", Type: artifact.RefImplements},
	}
	if len(got) != len(want) {
		t.Fatalf("AllLinks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllLinks[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
