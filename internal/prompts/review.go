// Package prompts implements MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to run a sequence of tool calls. Unlike tools, which the
// AI calls, prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the arch-review MCP prompt.
// It walks the AI through a documentation review, for the whole corpus or
// for one artifact.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("arch-review",
		mcp.WithPromptDescription(
			"Review the architecture documentation: health score, broken or stale references, "+
				"circular dependencies and what to fix first.",
		),
		mcp.WithArgument("id",
			mcp.ArgumentDescription("Review a single artifact (e.g. ADR-0003) instead of the whole corpus"),
		),
	)
}

// Handle processes the arch-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := ""
	if args := req.Params.Arguments; args != nil {
		id = args["id"]
	}

	if id != "" {
		return &mcp.GetPromptResult{
			Description: fmt.Sprintf("Architecture review of %s", id),
			Messages: []mcp.PromptMessage{
				{
					Role: mcp.RoleUser,
					Content: mcp.NewTextContent(fmt.Sprintf(
						"Please review the architecture artifact %[1]s.\n\n"+
							"1. Run `arch_show` with id=%[1]s and read it in full\n"+
							"2. Run `arch_health` with id=%[1]s and explain every penalty\n"+
							"3. Run `arch_impact` with id=%[1]s to see who depends on it\n"+
							"4. Point out sections that are still _TODO: placeholders or too thin to review\n"+
							"5. Propose concrete edits, and apply them with `arch_update` only after I confirm",
						id,
					)),
				},
			},
		}, nil
	}

	return &mcp.GetPromptResult{
		Description: "Architecture documentation review",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please review my architecture documentation.\n\n" +
						"1. Run `arch_health` and summarize the score and the issues by severity\n" +
						"2. Run `arch_cycles` and explain each circular dependency\n" +
						"3. For every broken reference or superseded ADR without a successor, say what should link where\n" +
						"4. List the five artifacts most in need of attention, worst first\n" +
						"5. Tell me exactly what to do next",
				),
			},
		},
	}, nil
}
