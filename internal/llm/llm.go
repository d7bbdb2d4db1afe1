package llm

import (
	"context"
	"fmt"
	"strings"
)

// ScriptCandidate is one script proposed by the text-generation provider
// before validation and storage.
type ScriptCandidate struct {
	Topic      string
	Hook       string
	Fact1      string
	Fact2      string
	Fact3      string
	Fact4      string
	Payoff     string
	ViralScore float64
}

// Complete reports whether every narrative part is present. Candidates
// missing any part are dropped rather than padded.
func (c ScriptCandidate) Complete() bool {
	parts := []string{c.Topic, c.Hook, c.Fact1, c.Fact2, c.Fact3, c.Fact4, c.Payoff}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return false
		}
	}
	return true
}

// Client generates script candidates from a rendered prompt.
type Client interface {
	GenerateScripts(ctx context.Context, systemPrompt, userPrompt string) ([]ScriptCandidate, error)
}

// PromptParams feeds RenderPrompt. RecentContent lists topic/hook pairs the
// provider should avoid repeating.
type PromptParams struct {
	Count         int
	Topics        string
	RecentContent []string
}

// RenderPrompt builds the user prompt sent alongside the stored system
// prompt. The output format instructions ask for a bare JSON array; the
// parser copes with the decorations models add anyway.
func RenderPrompt(params PromptParams) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d short-form video scripts.\n", params.Count)
	if params.Topics != "" {
		fmt.Fprintf(&b, "Topics to draw from: %s\n", params.Topics)
	}
	if len(params.RecentContent) > 0 {
		b.WriteString("Do NOT reuse these recent topics and hooks:\n")
		for _, rc := range params.RecentContent {
			fmt.Fprintf(&b, "- %s\n", rc)
		}
	}
	b.WriteString(`
Respond with a JSON array. Each element:
{"topic": "...", "hook": "...", "facts": ["...", "...", "...", "..."], "payoff": "...", "viral_score": 0.0-1.0}
The hook must stop the scroll in one sentence. Exactly four facts per script.`)

	return b.String()
}
