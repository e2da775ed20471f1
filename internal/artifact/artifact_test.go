package artifact

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// --- ValidateID ---

func TestValidateID_ValidIDs(t *testing.T) {
	tests := []struct {
		id   string
		want Type
	}{
		{"RFC-0001", TypeRFC},
		{"ADR-0042", TypeADR},
		{"DECOMP-0007", TypeDecomposition},
		{"RFC-12345", TypeRFC},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := ValidateID(tt.id)
			if err != nil {
				t.Fatalf("ValidateID(%q) error: %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("ValidateID(%q) = %s, want %s", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidateID_UnsafeIDsAreSecurityErrors(t *testing.T) {
	for _, id := range []string{
		"../RFC-0001",
		"RFC-0001/..",
		"rfc/RFC-0001",
		`adr\ADR-0001`,
		"RFC-0001\x00",
		"..",
	} {
		_, err := ValidateID(id)
		if !errors.Is(err, ErrSecurity) {
			t.Errorf("ValidateID(%q) = %v, want ErrSecurity", id, err)
		}
	}
}

func TestValidateID_MalformedIDsAreValidationErrors(t *testing.T) {
	for _, id := range []string{
		"",
		"RFC-001",
		"rfc-0001",
		"XYZ-0001",
		"RFC-00a1",
		"RFC0001",
		" RFC-0001",
	} {
		_, err := ValidateID(id)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("ValidateID(%q) = %v, want ErrValidation", id, err)
		}
	}
}

func TestFormatID(t *testing.T) {
	tests := []struct {
		typ  Type
		n    int
		want string
	}{
		{TypeRFC, 1, "RFC-0001"},
		{TypeADR, 12, "ADR-0012"},
		{TypeDecomposition, 3, "DECOMP-0003"},
		{TypeRFC, 10000, "RFC-10000"},
	}
	for _, tt := range tests {
		if got := FormatID(tt.typ, tt.n); got != tt.want {
			t.Errorf("FormatID(%s, %d) = %s, want %s", tt.typ, tt.n, got, tt.want)
		}
	}
}

func TestIDNumber(t *testing.T) {
	n, err := IDNumber("DECOMP-0042")
	if err != nil {
		t.Fatalf("IDNumber error: %v", err)
	}
	if n != 42 {
		t.Errorf("IDNumber = %d, want 42", n)
	}
	if _, err := IDNumber("../etc"); !errors.Is(err, ErrSecurity) {
		t.Errorf("IDNumber(unsafe) = %v, want ErrSecurity", err)
	}
}

// --- Status and types ---

func TestValidateStatus(t *testing.T) {
	if err := ValidateStatus(TypeADR, StatusSuperseded); err != nil {
		t.Errorf("ADR superseded should be valid: %v", err)
	}
	if err := ValidateStatus(TypeRFC, StatusSuperseded); !errors.Is(err, ErrValidation) {
		t.Errorf("RFC superseded = %v, want ErrValidation", err)
	}
}

func TestValidateReferenceType(t *testing.T) {
	for _, rt := range AllReferenceTypes {
		if err := ValidateReferenceType(rt); err != nil {
			t.Errorf("%s should be valid: %v", rt, err)
		}
	}
	if err := ValidateReferenceType("references"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown reference type = %v, want ErrValidation", err)
	}
}

func TestClone_IsDeep(t *testing.T) {
	a := &Artifact{
		ID:         "DECOMP-0001",
		Tags:       []string{"x"},
		References: []Reference{{TargetID: "RFC-0001"}},
		Phases:     []Phase{{ID: "p1", DependsOn: []string{"p0"}}},
	}
	c := a.Clone()
	c.Tags[0] = "changed"
	c.References[0].TargetID = "changed"
	c.Phases[0].DependsOn[0] = "changed"

	if a.Tags[0] != "x" || a.References[0].TargetID != "RFC-0001" || a.Phases[0].DependsOn[0] != "p0" {
		t.Error("Clone shares memory with the original")
	}
}

// --- Codec ---

func sampleArtifacts() []*Artifact {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	updated := created.Add(36 * time.Hour)
	return []*Artifact{
		{
			ID: "RFC-0001", Type: TypeRFC, Title: "Adopt event sourcing", Status: StatusReview,
			CreatedAt: created, UpdatedAt: updated, Owner: "alice", Tags: []string{"storage", "events"},
			References: []Reference{
				{TargetID: "ADR-0002", TargetType: TypeADR, ReferenceType: RefImplements},
				{TargetID: "RFC-0009", TargetType: TypeRFC, ReferenceType: RefDependsOn},
			},
			Sections: []Section{
				{Heading: "Summary", Body: "Store every change as an event."},
				{Heading: "Problem Statement", Body: "Line one.\n\nLine three with `code`: yes"},
				{Heading: "Proposed Solution", Body: "Example file:\n\n```md\n## Context\nfoo\n```\n\nAfter the fence."},
				{Heading: "Alternatives Considered", Body: "    indented code first line\nrest"},
				{Heading: "Notes", Body: "~~~~\n## Not a heading\n~~~\nstill fenced\n~~~~"},
			},
		},
		{
			ID: "ADR-0002", Type: TypeADR, Title: "Title: with colon", Status: StatusSuperseded,
			CreatedAt: created, UpdatedAt: updated, Owner: "", SupersededBy: "ADR-0003",
			Sections: []Section{{Heading: "Decision", Body: ""}},
		},
		{
			ID: "DECOMP-0003", Type: TypeDecomposition, Title: "Split billing", Status: StatusActive,
			CreatedAt: created, UpdatedAt: updated, Owner: "bob", Tags: []string{"billing"},
			Phases: []Phase{
				{ID: "phase-1", Name: "Extract", Status: PhaseCompleted},
				{ID: "phase-2", Name: "Migrate", Status: PhaseInProgress, Description: "move data", DependsOn: []string{"phase-1"}},
			},
		},
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	for _, want := range sampleArtifacts() {
		t.Run(want.ID, func(t *testing.T) {
			data, err := Marshal(want)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			got, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal: %v\n%s", err, data)
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarshal_Layout(t *testing.T) {
	data, err := Marshal(sampleArtifacts()[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text := string(data)

	if !strings.HasPrefix(text, "---\nid: RFC-0001\n") {
		t.Errorf("unexpected frontmatter start:\n%s", text)
	}
	for _, want := range []string{
		"type: rfc\n",
		"2026-01-02T03:04:05Z",
		"referenceType: depends-on",
		"\n# Adopt event sourcing\n",
		"\n## Summary\n\nStore every change as an event.\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestUnmarshal_CRLF(t *testing.T) {
	data, _ := Marshal(sampleArtifacts()[0])
	crlf := strings.ReplaceAll(string(data), "\n", "\r\n")
	got, err := Unmarshal([]byte(crlf))
	if err != nil {
		t.Fatalf("Unmarshal CRLF: %v", err)
	}
	if got.Title != "Adopt event sourcing" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestParseSections_FencesAndIndentation(t *testing.T) {
	body := "# Title\n\n## Decision\n\n```md\n## Context\nfoo\n```\n\n## Context\n\n    indented\n\tnext\n\n"
	got := parseSections(body)
	want := []Section{
		{Heading: "Decision", Body: "```md\n## Context\nfoo\n```"},
		{Heading: "Context", Body: "    indented\n\tnext"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseSections mismatch (-want +got):\n%s", diff)
	}
}

func TestNextFence(t *testing.T) {
	tests := []struct {
		open, line, want string
	}{
		{"", "```go", "```"},
		{"", "~~~~", "~~~~"},
		{"", "``", ""},
		{"", "    ```", ""},
		{"```", "```", ""},
		{"```", "````", ""},
		{"````", "```", "````"},
		{"```", "~~~", "```"},
		{"```", "``` trailing", "```"},
	}
	for _, tt := range tests {
		if got := nextFence(tt.open, tt.line); got != tt.want {
			t.Errorf("nextFence(%q, %q) = %q, want %q", tt.open, tt.line, got, tt.want)
		}
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	tests := map[string]string{
		"no frontmatter":    "# just markdown\n",
		"unterminated":      "---\nid: RFC-0001\ntype: rfc\n",
		"bad yaml":          "---\nid: [unclosed\n---\n",
		"bad id":            "---\nid: ../../etc/passwd\ntype: rfc\n---\n",
		"type mismatch":     "---\nid: RFC-0001\ntype: adr\ncreatedAt: 2026-01-01T00:00:00Z\nupdatedAt: 2026-01-01T00:00:00Z\n---\n",
		"bad timestamp":     "---\nid: RFC-0001\ntype: rfc\ncreatedAt: yesterday\nupdatedAt: 2026-01-01T00:00:00Z\n---\n",
		"empty frontmatter": "---\n---\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal([]byte(input))
			if !errors.Is(err, ErrSerialization) {
				t.Errorf("Unmarshal = %v, want ErrSerialization", err)
			}
		})
	}
}

// --- Errors ---

func TestError_UnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := &Error{Kind: ErrStorage, Op: "save", ID: "RFC-0001", Err: cause}

	if !errors.Is(err, ErrStorage) {
		t.Error("error should match ErrStorage")
	}
	if !errors.Is(err, cause) {
		t.Error("error should match its cause")
	}
	if KindOf(err) != ErrStorage {
		t.Errorf("KindOf = %v, want ErrStorage", KindOf(err))
	}
	if got := err.Error(); got != "save RFC-0001: disk full" {
		t.Errorf("Error() = %q", got)
	}
}

// --- Defaults ---

func TestDefaultSections_AreFreshCopies(t *testing.T) {
	a := DefaultSections(TypeADR)
	a[0].Body = "mutated"
	b := DefaultSections(TypeADR)
	if b[0].Body == "mutated" {
		t.Error("DefaultSections returned shared backing array")
	}
	if !IsPlaceholder(b[0].Body) {
		t.Errorf("default body %q should be a placeholder", b[0].Body)
	}
}
