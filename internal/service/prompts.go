package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/discoverly/visibility-service/internal/model"
)

// Template sets for competitive prompt generation. Parameterized by the
// industry label plus the strongest fingerprint facets: up to three
// product names and two unique claims.
var (
	industryTemplates = []string{
		"What are the best %s solutions available today?",
		"Which companies lead the %s market?",
		"What should I look for when choosing a %s vendor?",
		"Who are the most innovative %s providers?",
		"What %s tools do experts recommend?",
	}

	productTemplates = []string{
		"How does %s compare to its alternatives?",
		"Is %s a good choice for enterprise use?",
		"What are the main competitors of %s?",
	}

	claimTemplates = []string{
		"Which vendors can genuinely say: %q?",
		"Who offers %s?",
	}
)

const (
	maxProductPrompts = 3
	maxClaimPrompts   = 2
)

// competitivePrompts builds the prompt battery from the fingerprint when
// none was supplied, capped at maxCompetitivePrompts.
func competitivePrompts(industry string, fp model.ContentFingerprint) []string {
	prompts := make([]string, 0, maxCompetitivePrompts)
	for _, tmpl := range industryTemplates {
		prompts = append(prompts, fmt.Sprintf(tmpl, industry))
	}

	for i, product := range fp.ProductNames {
		if i >= maxProductPrompts {
			break
		}
		prompts = append(prompts, fmt.Sprintf(productTemplates[i%len(productTemplates)], product))
	}

	for i, claim := range fp.UniqueClaims {
		if i >= maxClaimPrompts {
			break
		}
		prompts = append(prompts, fmt.Sprintf(claimTemplates[i%len(claimTemplates)], claim))
	}

	if len(prompts) > maxCompetitivePrompts {
		prompts = prompts[:maxCompetitivePrompts]
	}
	return prompts
}

// GeneratePrompts asks one provider to author discoverability questions
// about the given content. The model's free-text answer is parsed by
// keeping only the lines that contain a question mark, capped at count.
func GeneratePrompts(ctx context.Context, querier Querier, runID string, pair model.ProviderModel, industry, corpus string, count int) []string {
	prompt := fmt.Sprintf(`Write %d distinct questions a potential customer might ask an AI assistant about the following %s content.
One question per line, no numbering.

Content:
%s`, count, industry, corpus)

	resp := querier.Query(ctx, runID, pair, prompt, "")
	if resp.ErrorMessage != "" {
		return nil
	}
	return ParseGeneratedPrompts(resp.Response, count)
}

// ParseGeneratedPrompts extracts question lines from a model's free-text
// output: split on newlines, keep lines containing "?", cap at count.
func ParseGeneratedPrompts(text string, count int) []string {
	var prompts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "?") {
			continue
		}
		prompts = append(prompts, line)
		if len(prompts) == count {
			break
		}
	}
	return prompts
}
