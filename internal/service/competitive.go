package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discoverly/visibility-service/internal/fingerprint"
	"github.com/discoverly/visibility-service/internal/mention"
	"github.com/discoverly/visibility-service/internal/model"
)

const (
	// visibilityThreshold marks a prompt as a missed opportunity when the
	// averaged visibility score falls below it.
	visibilityThreshold = 20

	// maxCompetitivePrompts caps generated prompts per run.
	maxCompetitivePrompts = 15
)

// CompetitiveRequest describes one competitive analysis run. Prompts may
// be supplied; when empty they are generated from templates parameterized
// by the extracted fingerprint.
type CompetitiveRequest struct {
	Industry string   `json:"industry"`
	Content  []string `json:"content"`
	Prompts  []string `json:"prompts"`
}

// CompetitiveAnalysis is the full outcome of a competitive run.
type CompetitiveAnalysis struct {
	Fingerprint model.ContentFingerprint          `json:"fingerprint"`
	Results     []model.CompetitiveAnalysisResult `json:"results"`
}

// CompetitiveOrchestrator drives the competitive pipeline: fingerprint the
// corpus once, then probe each provider's organic knowledge with empty
// context and rank the user's brand against competitors in every answer.
type CompetitiveOrchestrator struct {
	querier     Querier
	extractor   *fingerprint.Extractor
	pairs       []model.ProviderModel
	workerLimit int
	logger      *zap.Logger
}

// NewCompetitiveOrchestrator wires the competitive pipeline.
func NewCompetitiveOrchestrator(
	querier Querier,
	extractor *fingerprint.Extractor,
	pairs []model.ProviderModel,
	workerLimit int,
	logger *zap.Logger,
) *CompetitiveOrchestrator {
	if workerLimit <= 0 {
		workerLimit = defaultWorkerLimit
	}
	return &CompetitiveOrchestrator{
		querier:     querier,
		extractor:   extractor,
		pairs:       pairs,
		workerLimit: workerLimit,
		logger:      logger,
	}
}

// RunCompetitiveAnalysis executes the full pipeline. Provider failures are
// omitted from the affected prompt's responses and never abort the run.
func (o *CompetitiveOrchestrator) RunCompetitiveAnalysis(ctx context.Context, req CompetitiveRequest) (*CompetitiveAnalysis, error) {
	if len(o.pairs) == 0 {
		return nil, fmt.Errorf("running competitive analysis: %w", ErrNoProviders)
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("no content provided for fingerprinting")
	}

	runID := uuid.NewString()
	corpus := strings.Join(req.Content, "\n\n")

	fp := o.extractor.Extract(ctx, runID, o.pairs[0], corpus, req.Industry)
	o.logger.Info("fingerprint extracted",
		zap.String("run_id", runID),
		zap.String("company", fp.CompanyName),
		zap.Int("products", len(fp.ProductNames)),
		zap.Int("competitors", len(fp.CompetitorNames)),
	)

	prompts := req.Prompts
	if len(prompts) == 0 {
		prompts = competitivePrompts(req.Industry, fp)
	}
	if len(prompts) > maxCompetitivePrompts {
		prompts = prompts[:maxCompetitivePrompts]
	}

	// One slot per (prompt, pair); failed calls leave their slot nil and
	// are dropped from the prompt's provider list afterwards.
	slots := make([][]*model.ProviderVisibility, len(prompts))
	for i := range slots {
		slots[i] = make([]*model.ProviderVisibility, len(o.pairs))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workerLimit)

	for pi, prompt := range prompts {
		for qi, pair := range o.pairs {
			g.Go(func() error {
				// Empty context on purpose: this tests what the model
				// already knows, not what the user's content says.
				resp := o.querier.Query(gctx, runID, pair, prompt, "")
				if resp.ErrorMessage != "" {
					o.logger.Warn("competitive query failed, omitting provider",
						zap.String("run_id", runID),
						zap.String("provider", string(pair.Provider)),
						zap.String("error", resp.ErrorMessage),
					)
					return nil
				}

				analysis := mention.Analyze(resp.Response, fp)
				slots[pi][qi] = &model.ProviderVisibility{
					Provider:           pair.Provider,
					Model:              pair.Model,
					Response:           resp.Response,
					UserMentions:       analysis.UserMentions,
					CompetitorMentions: analysis.CompetitorMentions,
					VisibilityScore:    mention.VisibilityScore(analysis.UserMentions, len(resp.Response)),
					CompetitiveRank:    mention.CompetitiveRank(analysis.UserMentions, analysis.CompetitorMentions),
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	results := make([]model.CompetitiveAnalysisResult, 0, len(prompts))
	for pi, prompt := range prompts {
		result := model.CompetitiveAnalysisResult{
			PromptID:  fmt.Sprintf("prompt-%d", pi+1),
			Prompt:    prompt,
			Providers: []model.ProviderVisibility{},
		}

		sum := 0
		for _, pv := range slots[pi] {
			if pv == nil {
				continue
			}
			result.Providers = append(result.Providers, *pv)
			sum += pv.VisibilityScore
		}
		if len(result.Providers) > 0 {
			result.OverallVisibilityScore = float64(sum) / float64(len(result.Providers))
		}
		result.MissedOpportunity = result.OverallVisibilityScore < visibilityThreshold

		results = append(results, result)
	}

	return &CompetitiveAnalysis{Fingerprint: fp, Results: results}, nil
}
