package fingerprint

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/discoverly/visibility-service/internal/model"
)

type fakeQuerier struct {
	response model.ProviderResponse
}

func (f *fakeQuerier) Query(_ context.Context, _ string, _ model.ProviderModel, _, _ string) model.ProviderResponse {
	return f.response
}

var pair = model.ProviderModel{Provider: model.ProviderOpenAI, Model: "gpt-4o"}

func extract(t *testing.T, response model.ProviderResponse) model.ContentFingerprint {
	t.Helper()
	e := NewExtractor(&fakeQuerier{response: response}, zap.NewNop())
	return e.Extract(context.Background(), "run-1", pair, "corpus", "saas")
}

func TestExtract_ValidJSON(t *testing.T) {
	fp := extract(t, model.ProviderResponse{Success: true, Response: `{
		"company_name": "Acme",
		"product_names": ["Acme Cloud"],
		"unique_claims": ["zero-downtime deploys"],
		"key_phrases": ["developer-first"],
		"competitor_names": ["Globex"]
	}`})

	if fp.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want Acme", fp.CompanyName)
	}
	if len(fp.ProductNames) != 1 || fp.ProductNames[0] != "Acme Cloud" {
		t.Errorf("ProductNames = %v", fp.ProductNames)
	}
	if len(fp.CompetitorNames) != 1 || fp.CompetitorNames[0] != "Globex" {
		t.Errorf("CompetitorNames = %v", fp.CompetitorNames)
	}
}

func TestExtract_ToleratesMarkdownFences(t *testing.T) {
	fp := extract(t, model.ProviderResponse{Success: true, Response: "Here you go:\n```json\n{\"company_name\": \"Acme\"}\n```\nHope that helps!"})
	if fp.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want Acme", fp.CompanyName)
	}
}

func TestExtract_FillsMissingFields(t *testing.T) {
	fp := extract(t, model.ProviderResponse{Success: true, Response: `{"company_name": "Acme"}`})

	if fp.ProductNames == nil || fp.UniqueClaims == nil || fp.KeyPhrases == nil || fp.CompetitorNames == nil {
		t.Errorf("omitted list fields must come back as empty slices: %+v", fp)
	}
}

func TestExtract_GarbageFallsBackToDefault(t *testing.T) {
	fp := extract(t, model.ProviderResponse{Success: true, Response: "I'd rather chat about the weather."})
	if fp.CompanyName != "Unknown Company" {
		t.Errorf("CompanyName = %q, want default fallback", fp.CompanyName)
	}
	if fp.ProductNames == nil || len(fp.ProductNames) != 0 {
		t.Errorf("default fingerprint should carry empty lists: %+v", fp)
	}
}

func TestExtract_MalformedJSONFallsBackToDefault(t *testing.T) {
	fp := extract(t, model.ProviderResponse{Success: true, Response: `{"company_name": `})
	if fp.CompanyName != "Unknown Company" {
		t.Errorf("CompanyName = %q, want default fallback", fp.CompanyName)
	}
}

func TestExtract_ProviderFailureFallsBackToDefault(t *testing.T) {
	fp := extract(t, model.ProviderResponse{ErrorMessage: "openai: HTTP 500: boom"})
	if fp.CompanyName != "Unknown Company" {
		t.Errorf("CompanyName = %q, want default fallback", fp.CompanyName)
	}
}

func TestExtract_EmptyCompanyNameDefaults(t *testing.T) {
	fp := extract(t, model.ProviderResponse{Success: true, Response: `{"company_name": "", "product_names": ["P"]}`})
	if fp.CompanyName != "Unknown Company" {
		t.Errorf("CompanyName = %q, want default", fp.CompanyName)
	}
	if len(fp.ProductNames) != 1 {
		t.Errorf("ProductNames = %v, should survive the name fallback", fp.ProductNames)
	}
}
