// Package fingerprint turns a raw content corpus into a structured
// identity record: company name, products, claims, key phrases, and
// competitors. This is the one place a model is used as a structured-data
// generator instead of a free-text responder.
package fingerprint

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/discoverly/visibility-service/internal/model"
)

// defaultCompanyName fills the fingerprint when extraction fails or the
// model omits the field — downstream analysis degrades instead of aborting.
const defaultCompanyName = "Unknown Company"

// Querier is the single provider call the extractor needs. The llm.Router
// satisfies it.
type Querier interface {
	Query(ctx context.Context, runID string, pm model.ProviderModel, prompt, contextText string) model.ProviderResponse
}

// Extractor issues the structured-extraction request.
type Extractor struct {
	querier Querier
	logger  *zap.Logger
}

// NewExtractor creates an Extractor over the given querier.
func NewExtractor(querier Querier, logger *zap.Logger) *Extractor {
	return &Extractor{querier: querier, logger: logger}
}

// DefaultFingerprint is the safe fallback: empty lists, placeholder name.
func DefaultFingerprint() model.ContentFingerprint {
	return model.ContentFingerprint{
		CompanyName:     defaultCompanyName,
		ProductNames:    []string{},
		UniqueClaims:    []string{},
		KeyPhrases:      []string{},
		CompetitorNames: []string{},
	}
}

// Extract asks one provider to emit the fingerprint as JSON. Parse
// failures of any kind return the default fingerprint, never an error.
func (e *Extractor) Extract(ctx context.Context, runID string, pair model.ProviderModel, corpus, industry string) model.ContentFingerprint {
	prompt := extractionPrompt(corpus, industry)

	resp := e.querier.Query(ctx, runID, pair, prompt, "")
	if resp.ErrorMessage != "" {
		e.logger.Warn("fingerprint extraction call failed",
			zap.String("provider", string(pair.Provider)),
			zap.String("error", resp.ErrorMessage),
		)
		return DefaultFingerprint()
	}

	fp, err := parseFingerprint(resp.Response)
	if err != nil {
		e.logger.Warn("fingerprint response not parseable, using default",
			zap.String("provider", string(pair.Provider)),
			zap.Error(err),
		)
		return DefaultFingerprint()
	}
	return fp
}

func extractionPrompt(corpus, industry string) string {
	return fmt.Sprintf(`Analyze the following %s content and extract its identity as JSON.
Respond ONLY with a single JSON object in exactly this shape, no other text:
{
  "company_name": "string",
  "product_names": ["string"],
  "unique_claims": ["string"],
  "key_phrases": ["string"],
  "competitor_names": ["string"]
}

Content:
%s`, industry, corpus)
}

// parseFingerprint tolerates markdown fences and surrounding prose by
// extracting the outermost JSON object before unmarshaling.
func parseFingerprint(text string) (model.ContentFingerprint, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return model.ContentFingerprint{}, fmt.Errorf("no JSON object in response")
	}

	var fp model.ContentFingerprint
	if err := json.Unmarshal([]byte(text[start:end+1]), &fp); err != nil {
		return model.ContentFingerprint{}, fmt.Errorf("unmarshaling fingerprint: %w", err)
	}

	if fp.CompanyName == "" {
		fp.CompanyName = defaultCompanyName
	}
	if fp.ProductNames == nil {
		fp.ProductNames = []string{}
	}
	if fp.UniqueClaims == nil {
		fp.UniqueClaims = []string{}
	}
	if fp.KeyPhrases == nil {
		fp.KeyPhrases = []string{}
	}
	if fp.CompetitorNames == nil {
		fp.CompetitorNames = []string{}
	}
	return fp, nil
}
