// Package llm provides a provider-agnostic abstraction over heterogeneous
// LLM wire APIs. Each vendor (OpenAI, Anthropic, Google, Replicate, Together)
// implements the Client interface; the Router normalizes every call into a
// model.ProviderResponse and never lets a provider failure escape as an error.
package llm

import (
	"context"
	"fmt"

	"github.com/discoverly/visibility-service/internal/model"
)

// Completion is the raw result of a single successful provider call,
// before cost computation and response evaluation.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client is the interface each provider implements. One method does the
// work — the smaller the interface, the easier it is to fake in tests.
type Client interface {
	// Complete sends the prompt (with optional grounding context) to the
	// given model and returns the generated text plus token counts.
	Complete(ctx context.Context, modelID, prompt, contextText string) (*Completion, error)

	// Provider returns which vendor this client talks to.
	Provider() model.Provider
}

// buildPrompt merges the grounding context into the user prompt. An empty
// context leaves the prompt untouched — competitive runs test the model's
// organic knowledge, not the user's content.
func buildPrompt(prompt, contextText string) string {
	if contextText == "" {
		return prompt
	}
	return fmt.Sprintf(`Answer the question using only the content provided below.
If the content does not contain the answer, say "Information not available in provided content."

Content:
%s

Question: %s`, contextText, prompt)
}
