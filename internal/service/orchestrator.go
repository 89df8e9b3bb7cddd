// Package service contains the two run pipelines:
//
//	Discoverability: prompts × content chunks × providers, each response
//	scored by the evaluator, the whole set reduced into a report.
//	Competitive: fingerprint once, then prompts × providers with empty
//	context, each response scanned for brand and competitor mentions.
//
// Provider failures are data, not errors — both pipelines always complete
// and yield a result. The only error that aborts a run outright is a
// missing provider configuration, raised before any network call.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discoverly/visibility-service/internal/evaluate"
	"github.com/discoverly/visibility-service/internal/model"
	"github.com/discoverly/visibility-service/internal/report"
)

// ErrNoProviders aborts a run before any network call when zero
// (provider, model) pairs are configured.
var ErrNoProviders = errors.New("no providers configured")

// defaultWorkerLimit bounds concurrent provider calls when configuration
// leaves the pool size unset.
const defaultWorkerLimit = 4

// Querier is the provider abstraction the orchestrator dispatches
// through. llm.Router satisfies it; tests inject fakes.
type Querier interface {
	Query(ctx context.Context, runID string, pm model.ProviderModel, prompt, contextText string) model.ProviderResponse
}

// TestRequest describes one discoverability run.
type TestRequest struct {
	Industry string   `json:"industry"`
	Content  []string `json:"content"`
	Prompts  []string `json:"prompts"`
}

// Orchestrator drives the discoverability pipeline.
type Orchestrator struct {
	querier     Querier
	pairs       []model.ProviderModel
	workerLimit int
	logger      *zap.Logger
}

// NewOrchestrator wires the pipeline. pairs is the configured set of
// (provider, model) combinations — an explicit value, not global state.
func NewOrchestrator(querier Querier, pairs []model.ProviderModel, workerLimit int, logger *zap.Logger) *Orchestrator {
	if workerLimit <= 0 {
		workerLimit = defaultWorkerLimit
	}
	return &Orchestrator{
		querier:     querier,
		pairs:       pairs,
		workerLimit: workerLimit,
		logger:      logger,
	}
}

// Pairs returns the configured (provider, model) pairs.
func (o *Orchestrator) Pairs() []model.ProviderModel {
	return o.pairs
}

// runStats is the run-level accumulator shared by worker goroutines.
type runStats struct {
	mu         sync.Mutex
	calls      int
	failures   int
	totalCost  float64
	latencySum float64
}

func (s *runStats) add(resp model.ProviderResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if resp.ErrorMessage != "" {
		s.failures++
	}
	s.totalCost += resp.TokenUsage.Cost
	s.latencySum += float64(resp.LatencyMs)
}

// RunDiscoverabilityTest queries every configured pair for every
// (prompt, chunk) combination and reduces the results into a report.
// The cross product is dispatched through a bounded worker pool; the
// router's per-provider limiters keep the courtesy spacing intact.
func (o *Orchestrator) RunDiscoverabilityTest(ctx context.Context, req TestRequest) (*model.ContentAnalysisReport, error) {
	if len(o.pairs) == 0 {
		return nil, fmt.Errorf("running discoverability test: %w", ErrNoProviders)
	}
	if len(req.Content) == 0 {
		return nil, errors.New("no content chunks provided")
	}
	if len(req.Prompts) == 0 {
		return nil, errors.New("no prompts provided")
	}

	runID := uuid.NewString()
	o.logger.Info("starting discoverability run",
		zap.String("run_id", runID),
		zap.String("industry", req.Industry),
		zap.Int("chunks", len(req.Content)),
		zap.Int("prompts", len(req.Prompts)),
		zap.Int("pairs", len(o.pairs)),
	)

	// Responses are written into pre-sized slots so each TestResult keeps
	// its pair ordering regardless of completion order.
	responses := make([][]model.ProviderResponse, len(req.Content)*len(req.Prompts))
	for i := range responses {
		responses[i] = make([]model.ProviderResponse, len(o.pairs))
	}

	stats := &runStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workerLimit)

	for ci, chunk := range req.Content {
		for pi, prompt := range req.Prompts {
			slot := responses[ci*len(req.Prompts)+pi]
			for qi, pair := range o.pairs {
				g.Go(func() error {
					resp := o.querier.Query(gctx, runID, pair, prompt, chunk)
					if resp.ErrorMessage == "" {
						resp.Success, resp.Confidence = evaluate.Score(resp.Response)
					}
					slot[qi] = resp
					stats.add(resp)
					return nil
				})
			}
		}
	}
	// Workers never return errors — failed calls are failed responses.
	_ = g.Wait()

	results := make([]model.TestResult, 0, len(responses))
	for ci, chunk := range req.Content {
		for pi, prompt := range req.Prompts {
			results = append(results, model.NewTestResult(prompt, chunk, responses[ci*len(req.Prompts)+pi]))
		}
	}

	rep := report.Aggregate(req.Industry, time.Now().UTC(), results)

	o.logger.Info("discoverability run complete",
		zap.String("run_id", runID),
		zap.Int("calls", stats.calls),
		zap.Int("failures", stats.failures),
		zap.Float64("total_cost", stats.totalCost),
		zap.Float64("success_rate", rep.OverallSuccessRate),
	)

	return &rep, nil
}
