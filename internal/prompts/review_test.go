package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, r *mcp.GetPromptResult) string {
	t.Helper()
	if len(r.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(r.Messages))
	}
	tc, ok := r.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", r.Messages[0].Content)
	}
	return tc.Text
}

func TestReviewPrompt_Definition(t *testing.T) {
	def := NewReviewPrompt().Definition()
	if def.Name != "arch-review" {
		t.Errorf("name = %q, want arch-review", def.Name)
	}
	if len(def.Arguments) != 1 || def.Arguments[0].Name != "id" {
		t.Errorf("arguments = %+v", def.Arguments)
	}
}

func TestReviewPrompt_Corpus(t *testing.T) {
	r, err := NewReviewPrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := promptText(t, r)
	if !strings.Contains(text, "arch_health") || !strings.Contains(text, "arch_cycles") {
		t.Errorf("prompt = %q", text)
	}
}

func TestReviewPrompt_SingleArtifact(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"id": "ADR-0003"}

	r, err := NewReviewPrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if r.Description != "Architecture review of ADR-0003" {
		t.Errorf("Description = %q", r.Description)
	}
	text := promptText(t, r)
	if !strings.Contains(text, "`arch_show` with id=ADR-0003") || !strings.Contains(text, "arch_impact") {
		t.Errorf("prompt = %q", text)
	}
}
