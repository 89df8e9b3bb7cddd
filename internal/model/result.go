// Package model defines the core data types for the visibility service.
// Everything here is a value object: built once by the layer that owns it
// and never mutated afterwards. Aggregation is a pure fold over these values.
package model

import "time"

// Provider identifies an external LLM vendor.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderReplicate Provider = "replicate"
	ProviderTogether  Provider = "together"
)

// AllProviders is the ordered list of supported providers.
var AllProviders = []Provider{
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderGoogle,
	ProviderReplicate,
	ProviderTogether,
}

// ValidProvider checks if a string names a supported provider.
func ValidProvider(s string) bool {
	for _, p := range AllProviders {
		if string(p) == s {
			return true
		}
	}
	return false
}

// ProviderModel is a configured (provider, model) pair — the unit the
// orchestrator dispatches against and the aggregator groups by.
type ProviderModel struct {
	Provider Provider `json:"provider"`
	Model    string   `json:"model"`
}

// Key returns the grouping key used by the report aggregator.
func (pm ProviderModel) Key() string {
	return string(pm.Provider) + "/" + pm.Model
}

// TokenUsage records token counts and the derived dollar cost of one call.
type TokenUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// ProviderResponse is the normalized outcome of a single API attempt.
// A failed call is still a complete response: Success false, Confidence 0,
// ErrorMessage populated, LatencyMs measuring the time up to the failure.
type ProviderResponse struct {
	Provider     Provider   `json:"provider"`
	Model        string     `json:"model"`
	Query        string     `json:"query"`
	Response     string     `json:"response"`
	Success      bool       `json:"success"`
	Confidence   float64    `json:"confidence"` // always in [0,1]
	LatencyMs    int64      `json:"latency_ms"`
	TokenUsage   TokenUsage `json:"token_usage"`
	Timestamp    time.Time  `json:"timestamp"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Pair returns the (provider, model) identity of the response.
func (r ProviderResponse) Pair() ProviderModel {
	return ProviderModel{Provider: r.Provider, Model: r.Model}
}

// TestResult aggregates every provider's answer to one (prompt, chunk) pair.
type TestResult struct {
	Prompt            string             `json:"prompt"`
	ContentChunk      string             `json:"content_chunk"`
	Responses         []ProviderResponse `json:"responses"`
	OverallSuccess    bool               `json:"overall_success"`
	AverageConfidence float64            `json:"average_confidence"`
	AverageLatency    float64            `json:"average_latency"`
	TotalCost         float64            `json:"total_cost"`
	BestPerformer     ProviderModel      `json:"best_performer"`
	WorstPerformer    ProviderModel      `json:"worst_performer"`
}

// NewTestResult derives the aggregate fields from the collected responses.
// Averages run over all responses, failures included. Best and worst
// performer are chosen by confidence; ties keep the earlier response.
func NewTestResult(prompt, chunk string, responses []ProviderResponse) TestResult {
	tr := TestResult{
		Prompt:       prompt,
		ContentChunk: chunk,
		Responses:    responses,
	}
	if len(responses) == 0 {
		return tr
	}

	best, worst := 0, 0
	var confSum, latSum float64
	for i, r := range responses {
		if r.Success {
			tr.OverallSuccess = true
		}
		confSum += r.Confidence
		latSum += float64(r.LatencyMs)
		tr.TotalCost += r.TokenUsage.Cost
		if r.Confidence > responses[best].Confidence {
			best = i
		}
		if r.Confidence < responses[worst].Confidence {
			worst = i
		}
	}
	tr.AverageConfidence = confSum / float64(len(responses))
	tr.AverageLatency = latSum / float64(len(responses))
	tr.BestPerformer = responses[best].Pair()
	tr.WorstPerformer = responses[worst].Pair()
	return tr
}

// GapPriority ranks how urgent a content gap is.
type GapPriority string

const (
	PriorityHigh   GapPriority = "High"
	PriorityMedium GapPriority = "Medium"
	PriorityLow    GapPriority = "Low"
)

// ContentGap describes a cluster of content that models consistently
// failed to answer from.
type ContentGap struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Priority       GapPriority `json:"priority"`
	FailedPrompts  []string    `json:"failed_prompts"`
	EstimatedHours int         `json:"estimated_hours"`
}

// Recommendation is an actionable suggestion emitted by the report's
// fixed rule engine.
type Recommendation struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
	Effort      string   `json:"effort"`
	Timeline    string   `json:"timeline"`
	Category    string   `json:"category"`
	Actions     []string `json:"actions"`
}

// ProviderPerformance holds per-(provider, model) statistics for a run.
// SuccessRate is the exact ratio successCount/responseCount — formatting
// for display happens at the export boundary, never here.
type ProviderPerformance struct {
	Provider       Provider `json:"provider"`
	Model          string   `json:"model"`
	SuccessRate    float64  `json:"success_rate"`
	AverageLatency float64  `json:"average_latency"`
	TotalCost      float64  `json:"total_cost"`
	ResponseCount  int      `json:"response_count"`
}

// ContentAnalysisReport is the final artifact of a discoverability run.
type ContentAnalysisReport struct {
	Industry            string                `json:"industry"`
	TestDate            time.Time             `json:"test_date"`
	TotalTests          int                   `json:"total_tests"`
	OverallSuccessRate  float64               `json:"overall_success_rate"`
	AverageLatency      float64               `json:"average_latency"`
	TotalCost           float64               `json:"total_cost"`
	Results             []TestResult          `json:"results"`
	ContentGaps         []ContentGap          `json:"content_gaps"`
	Recommendations     []Recommendation      `json:"recommendations"`
	ProviderPerformance []ProviderPerformance `json:"provider_performance"`
}

// ContentFingerprint is the structured identity record extracted once per
// content corpus and consumed read-only by all competitive analysis.
type ContentFingerprint struct {
	CompanyName     string   `json:"company_name"`
	ProductNames    []string `json:"product_names"`
	UniqueClaims    []string `json:"unique_claims"`
	KeyPhrases      []string `json:"key_phrases"`
	CompetitorNames []string `json:"competitor_names"`
}

// MentionType classifies which fingerprint facet a mention matched.
type MentionType string

const (
	MentionCompany MentionType = "company"
	MentionProduct MentionType = "product"
	MentionClaim   MentionType = "claim"
)

// ContentMention is one detected fingerprint term in a model's response.
// Prominence and Accuracy are 0-100 scores.
type ContentMention struct {
	Source      string      `json:"source"`
	ContentType MentionType `json:"content_type"`
	Snippet     string      `json:"snippet"`
	Prominence  int         `json:"prominence"`
	Accuracy    int         `json:"accuracy"`
}

// ProviderVisibility is the competitive view of one provider's answer to
// one prompt. CompetitiveRank is -1 when the user's brand never appears.
type ProviderVisibility struct {
	Provider           Provider         `json:"provider"`
	Model              string           `json:"model"`
	Response           string           `json:"response"`
	UserMentions       []ContentMention `json:"user_content_mentions"`
	CompetitorMentions []ContentMention `json:"competitor_mentions"`
	VisibilityScore    int              `json:"visibility_score"`
	CompetitiveRank    int              `json:"competitive_rank"`
}

// CompetitiveAnalysisResult gathers every provider's visibility for one
// competitive prompt.
type CompetitiveAnalysisResult struct {
	PromptID               string               `json:"prompt_id"`
	Prompt                 string               `json:"prompt"`
	Providers              []ProviderVisibility `json:"providers"`
	OverallVisibilityScore float64              `json:"overall_visibility_score"`
	MissedOpportunity      bool                 `json:"missed_opportunity"`
}
