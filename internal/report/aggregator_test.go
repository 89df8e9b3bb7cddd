package report

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/discoverly/visibility-service/internal/model"
)

func resp(provider model.Provider, mdl string, success bool, confidence float64, latency int64, cost float64) model.ProviderResponse {
	return model.ProviderResponse{
		Provider:   provider,
		Model:      mdl,
		Success:    success,
		Confidence: confidence,
		LatencyMs:  latency,
		TokenUsage: model.TokenUsage{Cost: cost},
	}
}

// mixedResults is a run where openai answers 2 of 3 prompts and anthropic
// only 1 of 3, with openai much cheaper per success.
func mixedResults() []model.TestResult {
	const chunk = "The Acme platform overview section."
	return []model.TestResult{
		model.NewTestResult("p1", chunk, []model.ProviderResponse{
			resp(model.ProviderOpenAI, "gpt-4o", true, 0.8, 100, 0.002),
			resp(model.ProviderAnthropic, "claude-sonnet-4-5-20250929", true, 0.7, 200, 0.01),
		}),
		model.NewTestResult("p2", chunk, []model.ProviderResponse{
			resp(model.ProviderOpenAI, "gpt-4o", true, 0.8, 100, 0.002),
			resp(model.ProviderAnthropic, "claude-sonnet-4-5-20250929", false, 0, 300, 0),
		}),
		model.NewTestResult("p3", chunk, []model.ProviderResponse{
			resp(model.ProviderOpenAI, "gpt-4o", false, 0, 100, 0),
			resp(model.ProviderAnthropic, "claude-sonnet-4-5-20250929", false, 0, 300, 0),
		}),
	}
}

var testDate = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestAggregate_Summary(t *testing.T) {
	rep := Aggregate("saas", testDate, mixedResults())

	if rep.Industry != "saas" {
		t.Errorf("Industry = %q", rep.Industry)
	}
	if !rep.TestDate.Equal(testDate) {
		t.Errorf("TestDate = %v, want %v", rep.TestDate, testDate)
	}
	if rep.TotalTests != 3 {
		t.Errorf("TotalTests = %d, want 3", rep.TotalTests)
	}
	if rep.OverallSuccessRate != 2.0/3.0 {
		t.Errorf("OverallSuccessRate = %v, want 2/3", rep.OverallSuccessRate)
	}
	if math.Abs(rep.TotalCost-0.014) > 1e-9 {
		t.Errorf("TotalCost = %v, want 0.014", rep.TotalCost)
	}
	if math.Abs(rep.AverageLatency-1100.0/6.0) > 1e-9 {
		t.Errorf("AverageLatency = %v, want %v", rep.AverageLatency, 1100.0/6.0)
	}
}

func TestAggregate_ProviderPerformance(t *testing.T) {
	rep := Aggregate("saas", testDate, mixedResults())

	if len(rep.ProviderPerformance) != 2 {
		t.Fatalf("expected 2 provider entries, got %d", len(rep.ProviderPerformance))
	}

	// First-seen order: openai appears first in every result.
	openai := rep.ProviderPerformance[0]
	if openai.Provider != model.ProviderOpenAI {
		t.Fatalf("first entry = %v, want openai", openai.Provider)
	}
	if openai.SuccessRate != 2.0/3.0 {
		t.Errorf("openai SuccessRate = %v, want 2/3", openai.SuccessRate)
	}
	if openai.ResponseCount != 3 {
		t.Errorf("openai ResponseCount = %d, want 3", openai.ResponseCount)
	}
	if math.Abs(openai.TotalCost-0.004) > 1e-9 {
		t.Errorf("openai TotalCost = %v, want 0.004", openai.TotalCost)
	}
	if openai.AverageLatency != 100 {
		t.Errorf("openai AverageLatency = %v, want 100", openai.AverageLatency)
	}

	anthropic := rep.ProviderPerformance[1]
	if anthropic.SuccessRate != 1.0/3.0 {
		t.Errorf("anthropic SuccessRate = %v, want 1/3", anthropic.SuccessRate)
	}
}

func TestAggregate_ContentGaps(t *testing.T) {
	rep := Aggregate("saas", testDate, mixedResults())

	if len(rep.ContentGaps) != 1 {
		t.Fatalf("expected 1 gap, got %d", len(rep.ContentGaps))
	}
	gap := rep.ContentGaps[0]
	if gap.ID != "gap-1" {
		t.Errorf("gap ID = %q, want gap-1", gap.ID)
	}
	if gap.Priority != model.PriorityLow {
		t.Errorf("gap Priority = %q, want Low", gap.Priority)
	}
	if len(gap.FailedPrompts) != 1 || gap.FailedPrompts[0] != "p3" {
		t.Errorf("FailedPrompts = %v, want [p3]", gap.FailedPrompts)
	}
	if gap.EstimatedHours != 2 {
		t.Errorf("EstimatedHours = %d, want 2", gap.EstimatedHours)
	}
}

func TestAggregate_Recommendations(t *testing.T) {
	rep := Aggregate("saas", testDate, mixedResults())

	if len(rep.Recommendations) != 3 {
		t.Fatalf("expected 3 recommendations, got %d: %+v", len(rep.Recommendations), rep.Recommendations)
	}
	wantIDs := []string{"rec-content-coverage", "rec-provider-selection", "rec-cost-optimization"}
	for i, want := range wantIDs {
		if rep.Recommendations[i].ID != want {
			t.Errorf("recommendation %d ID = %q, want %q", i, rep.Recommendations[i].ID, want)
		}
	}

	selection := rep.Recommendations[1]
	if !bytes.Contains([]byte(selection.Description), []byte("openai/gpt-4o")) {
		t.Errorf("provider-selection description should name the best pair: %q", selection.Description)
	}
}

func TestAggregate_AllSuccessful(t *testing.T) {
	chunk := "chunk"
	results := []model.TestResult{
		model.NewTestResult("p1", chunk, []model.ProviderResponse{
			resp(model.ProviderOpenAI, "gpt-4o", true, 0.8, 100, 0.002),
			resp(model.ProviderAnthropic, "claude-sonnet-4-5-20250929", true, 0.8, 200, 0.004),
		}),
	}

	rep := Aggregate("saas", testDate, results)
	if rep.OverallSuccessRate != 1.0 {
		t.Errorf("OverallSuccessRate = %v, want 1", rep.OverallSuccessRate)
	}
	if len(rep.ContentGaps) != 0 {
		t.Errorf("expected no gaps, got %d", len(rep.ContentGaps))
	}
	if len(rep.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %+v", rep.Recommendations)
	}
	if rep.ContentGaps == nil || rep.Recommendations == nil {
		t.Error("empty slices must be non-nil so they serialize as []")
	}
}

func TestAggregate_EmptyRun(t *testing.T) {
	rep := Aggregate("saas", testDate, nil)
	if rep.TotalTests != 0 || rep.OverallSuccessRate != 0 || rep.AverageLatency != 0 {
		t.Errorf("unexpected totals for empty run: %+v", rep)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	results := mixedResults()

	first, err := json.Marshal(Aggregate("saas", testDate, results))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(Aggregate("saas", testDate, results))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical input must yield byte-identical reports")
	}
}

func TestGapPriority(t *testing.T) {
	tests := []struct {
		failed int
		want   model.GapPriority
	}{
		{1, model.PriorityLow},
		{2, model.PriorityMedium},
		{3, model.PriorityMedium},
		{4, model.PriorityHigh},
		{10, model.PriorityHigh},
	}
	for _, tt := range tests {
		if got := gapPriority(tt.failed); got != tt.want {
			t.Errorf("gapPriority(%d) = %q, want %q", tt.failed, got, tt.want)
		}
	}
}

func TestCostPerSuccess_NoSuccesses(t *testing.T) {
	s := providerStat{cost: 1.5, successes: 0}
	if !math.IsInf(s.costPerSuccess(), 1) {
		t.Errorf("costPerSuccess with zero successes = %v, want +Inf", s.costPerSuccess())
	}
}

func TestContentGaps_DeduplicatesPrompts(t *testing.T) {
	chunk := "same chunk"
	fail := func(prompt string) model.TestResult {
		return model.NewTestResult(prompt, chunk, []model.ProviderResponse{
			resp(model.ProviderOpenAI, "gpt-4o", false, 0, 100, 0),
		})
	}
	results := []model.TestResult{fail("p1"), fail("p1"), fail("p2")}

	gaps := contentGaps(results)
	if len(gaps) != 1 {
		t.Fatalf("expected 1 gap, got %d", len(gaps))
	}
	if len(gaps[0].FailedPrompts) != 2 {
		t.Errorf("FailedPrompts = %v, want deduplicated [p1 p2]", gaps[0].FailedPrompts)
	}
}

func TestSignature_Truncates(t *testing.T) {
	long := "  " + string(bytes.Repeat([]byte("a"), 80))
	if got := signature(long); len(got) != signatureLength {
		t.Errorf("signature length = %d, want %d", len(got), signatureLength)
	}
	if got := signature("short"); got != "short" {
		t.Errorf("signature(short) = %q", got)
	}
}
