package model

import "testing"

func response(provider Provider, mdl string, success bool, confidence float64, latency int64, cost float64) ProviderResponse {
	return ProviderResponse{
		Provider:   provider,
		Model:      mdl,
		Success:    success,
		Confidence: confidence,
		LatencyMs:  latency,
		TokenUsage: TokenUsage{Cost: cost},
	}
}

func TestNewTestResult_MixedOutcome(t *testing.T) {
	tr := NewTestResult("What is the pricing?", "Pricing starts at $99.", []ProviderResponse{
		response(ProviderOpenAI, "gpt-4o", true, 0.8, 1000, 0.01),
		response(ProviderAnthropic, "claude-sonnet-4-5-20250929", false, 0, 2000, 0),
	})

	if !tr.OverallSuccess {
		t.Error("one success should make the result an overall success")
	}
	if tr.AverageConfidence != 0.4 {
		t.Errorf("AverageConfidence = %v, want 0.4", tr.AverageConfidence)
	}
	if tr.AverageLatency != 1500 {
		t.Errorf("AverageLatency = %v, want 1500", tr.AverageLatency)
	}
	if tr.TotalCost != 0.01 {
		t.Errorf("TotalCost = %v, want 0.01", tr.TotalCost)
	}
	if tr.BestPerformer.Provider != ProviderOpenAI {
		t.Errorf("BestPerformer = %+v, want openai", tr.BestPerformer)
	}
	if tr.WorstPerformer.Provider != ProviderAnthropic {
		t.Errorf("WorstPerformer = %+v, want anthropic", tr.WorstPerformer)
	}
}

func TestNewTestResult_AllFailed(t *testing.T) {
	tr := NewTestResult("q", "c", []ProviderResponse{
		response(ProviderOpenAI, "gpt-4o", false, 0, 500, 0),
		response(ProviderGoogle, "gemini-2.0-flash", false, 0, 700, 0),
	})

	if tr.OverallSuccess {
		t.Error("expected overall failure when every response failed")
	}
	if tr.AverageConfidence != 0 {
		t.Errorf("AverageConfidence = %v, want 0", tr.AverageConfidence)
	}
}

func TestNewTestResult_TieKeepsFirst(t *testing.T) {
	tr := NewTestResult("q", "c", []ProviderResponse{
		response(ProviderOpenAI, "gpt-4o", true, 0.6, 100, 0.001),
		response(ProviderAnthropic, "claude-sonnet-4-5-20250929", true, 0.6, 100, 0.002),
	})

	if tr.BestPerformer.Provider != ProviderOpenAI {
		t.Errorf("tied best should keep the earlier response, got %+v", tr.BestPerformer)
	}
	if tr.WorstPerformer.Provider != ProviderOpenAI {
		t.Errorf("tied worst should keep the earlier response, got %+v", tr.WorstPerformer)
	}
}

func TestNewTestResult_Empty(t *testing.T) {
	tr := NewTestResult("q", "c", nil)
	if tr.OverallSuccess || tr.AverageConfidence != 0 || tr.TotalCost != 0 {
		t.Errorf("empty responses should yield zero aggregates: %+v", tr)
	}
}

func TestProviderModelKey(t *testing.T) {
	pm := ProviderModel{Provider: ProviderOpenAI, Model: "gpt-4o"}
	if pm.Key() != "openai/gpt-4o" {
		t.Errorf("Key() = %q, want openai/gpt-4o", pm.Key())
	}
}

func TestValidProvider(t *testing.T) {
	if !ValidProvider("openai") {
		t.Error("openai should be valid")
	}
	if ValidProvider("bedrock") {
		t.Error("bedrock should be invalid")
	}
}
