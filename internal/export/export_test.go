package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/HendryAvila/archkit/internal/artifact"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func corpus() []*artifact.Artifact {
	return []*artifact.Artifact{
		{
			ID: "RFC-0002", Type: artifact.TypeRFC, Title: "Pipes | in titles",
			Status: artifact.StatusDraft, Owner: "bob", Tags: []string{"x"},
			CreatedAt: now.Add(-72 * time.Hour), UpdatedAt: now.Add(-72 * time.Hour),
			References: []artifact.Reference{{TargetID: "ADR-0001", TargetType: artifact.TypeADR, ReferenceType: artifact.RefImplements}},
		},
		{
			ID: "ADR-0001", Type: artifact.TypeADR, Title: "Use SQLite",
			Status: artifact.StatusAccepted, Owner: "alice", Tags: []string{},
			CreatedAt: now.Add(-30 * 24 * time.Hour), UpdatedAt: now.Add(-3 * time.Hour),
			Sections: []artifact.Section{{Heading: "Decision", Body: "Yes."}},
		},
		{
			ID: "RFC-0001", Type: artifact.TypeRFC, Title: "First",
			Status: artifact.StatusReview, Tags: []string{},
			CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour),
		},
	}
}

// --- JSON ---

func TestJSON_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, corpus()); err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	b, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if b.Version != BundleVersion || b.Count != 3 {
		t.Errorf("bundle header = v%d count %d", b.Version, b.Count)
	}

	want := sortByID(corpus())
	if diff := cmp.Diff(want, b.Artifacts); diff != "" {
		t.Errorf("artifacts mismatch (-want +got):\n%s", diff)
	}
}

func TestJSON_EmptyCorpus(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"artifacts": []`) {
		t.Errorf("empty bundle = %s", buf.String())
	}
}

func TestReadJSON_Errors(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader("{")); !errors.Is(err, artifact.ErrSerialization) {
		t.Errorf("err = %v, want ErrSerialization", err)
	}
	if _, err := ReadJSON(strings.NewReader(`{"version": 99}`)); !errors.Is(err, artifact.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

// --- Markdown ---

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown(&buf, corpus(), now); err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Architecture Index",
		"_Generated 2026-03-10 09:00 UTC, 3 artifacts._",
		"## RFCs (2)",
		"## ADRs (1)",
		"## Decompositions (0)\n\n_None._",
		`| RFC-0002 | Pipes \| in titles | draft | bob | implements ADR-0001 | 3 days ago |`,
		"| ADR-0001 | Use SQLite | accepted | alice | - | 3 hours ago |",
		"| RFC-0001 | First | review | - | - | 1 hour ago |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	if strings.Index(out, "RFC-0001 |") > strings.Index(out, "RFC-0002 |") {
		t.Error("rows not ordered by ID")
	}
	if strings.Index(out, "## RFCs") > strings.Index(out, "## ADRs") {
		t.Error("sections not in type order")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestMarkdown_WriteError(t *testing.T) {
	if err := Markdown(failWriter{}, corpus(), now); !errors.Is(err, artifact.ErrStorage) {
		t.Errorf("err = %v, want ErrStorage", err)
	}
}
