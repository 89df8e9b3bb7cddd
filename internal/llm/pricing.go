package llm

// modelPricing holds USD prices per 1K tokens.
type modelPricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// pricingTable maps model IDs to their published per-1K token prices.
// An unlisted model costs 0 — unknown pricing resolves silently to free
// rather than failing the call. This is documented behavior.
var pricingTable = map[string]modelPricing{
	// OpenAI
	"gpt-4o":        {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":   {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4-turbo":   {InputPer1K: 0.01, OutputPer1K: 0.03},
	"gpt-3.5-turbo": {InputPer1K: 0.0005, OutputPer1K: 0.0015},

	// Anthropic
	"claude-sonnet-4-5-20250929": {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-3-5-haiku-20241022":  {InputPer1K: 0.0008, OutputPer1K: 0.004},
	"claude-3-7-sonnet-20250219": {InputPer1K: 0.003, OutputPer1K: 0.015},

	// Google
	"gemini-2.0-flash": {InputPer1K: 0.0001, OutputPer1K: 0.0004},
	"gemini-1.5-pro":   {InputPer1K: 0.00125, OutputPer1K: 0.005},

	// Together
	"meta-llama/Llama-3.3-70B-Instruct-Turbo": {InputPer1K: 0.00088, OutputPer1K: 0.00088},
	"mistralai/Mixtral-8x7B-Instruct-v0.1":    {InputPer1K: 0.0006, OutputPer1K: 0.0006},

	// Replicate
	"meta/meta-llama-3-70b-instruct": {InputPer1K: 0.00065, OutputPer1K: 0.00275},
}

// Cost computes the dollar cost of a call from its token counts.
func Cost(modelID string, inputTokens, outputTokens int) float64 {
	p, ok := pricingTable[modelID]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000*p.InputPer1K + float64(outputTokens)/1000*p.OutputPer1K
}
