package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/discoverly/visibility-service/internal/model"
	"github.com/discoverly/visibility-service/internal/storage"
)

// Router dispatches queries to provider clients and normalizes every
// outcome into a model.ProviderResponse. Query never returns an error:
// network, HTTP, and parse failures become responses with Success false,
// Confidence 0 and the error message captured, so a run always completes
// even at a 100% failure rate.
//
// Each provider gets its own courtesy limiter so concurrent dispatch still
// respects the minimum spacing between calls to the same vendor. The
// Router itself is stateless between calls.
type Router struct {
	clients  map[model.Provider]Client
	limiters map[model.Provider]*rate.Limiter
	retry    RetryConfig
	timeout  time.Duration
	ledger   storage.CallRepository // nil disables cost tracking
	logger   *zap.Logger
}

// NewRouter creates a Router over the given clients. spacing is the
// minimum delay between consecutive calls to one provider; timeout bounds
// each individual call.
func NewRouter(
	clients []Client,
	spacing time.Duration,
	timeout time.Duration,
	retry RetryConfig,
	ledger storage.CallRepository,
	logger *zap.Logger,
) *Router {
	if spacing <= 0 {
		spacing = 150 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	byProvider := make(map[model.Provider]Client, len(clients))
	limiters := make(map[model.Provider]*rate.Limiter, len(clients))
	for _, c := range clients {
		byProvider[c.Provider()] = c
		limiters[c.Provider()] = rate.NewLimiter(rate.Every(spacing), 1)
	}

	return &Router{
		clients:  byProvider,
		limiters: limiters,
		retry:    retry,
		timeout:  timeout,
		ledger:   ledger,
		logger:   logger,
	}
}

// Providers returns the set of providers this router can reach.
func (r *Router) Providers() []model.Provider {
	out := make([]model.Provider, 0, len(r.clients))
	for _, p := range model.AllProviders {
		if _, ok := r.clients[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Query sends one prompt to one (provider, model) pair and returns the
// normalized response. Success here means the API call itself succeeded;
// content-level evaluation happens downstream.
func (r *Router) Query(ctx context.Context, runID string, pm model.ProviderModel, prompt, contextText string) model.ProviderResponse {
	resp := model.ProviderResponse{
		Provider:  pm.Provider,
		Model:     pm.Model,
		Query:     prompt,
		Timestamp: time.Now().UTC(),
	}

	client, ok := r.clients[pm.Provider]
	if !ok {
		resp.ErrorMessage = "provider not configured: " + string(pm.Provider)
		return resp
	}

	// Courtesy spacing. Wait blocks until a slot opens or the run is
	// cancelled; cancellation counts as a failed call, not a crash.
	start := time.Now()
	if err := r.limiters[pm.Provider].Wait(ctx); err != nil {
		resp.LatencyMs = time.Since(start).Milliseconds()
		resp.ErrorMessage = "rate limit wait: " + err.Error()
		r.record(runID, resp)
		return resp
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var completion *Completion
	err := withRetry(callCtx, r.retry, func() error {
		var callErr error
		completion, callErr = client.Complete(callCtx, pm.Model, prompt, contextText)
		return callErr
	})
	resp.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		resp.ErrorMessage = err.Error()
		r.logger.Warn("provider call failed",
			zap.String("provider", string(pm.Provider)),
			zap.String("model", pm.Model),
			zap.Error(err),
		)
		r.record(runID, resp)
		return resp
	}

	resp.Success = true
	resp.Response = completion.Text
	resp.TokenUsage = model.TokenUsage{
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
		Cost:         Cost(pm.Model, completion.InputTokens, completion.OutputTokens),
	}
	r.record(runID, resp)
	return resp
}

// record writes the attempt to the call ledger for cost tracking.
func (r *Router) record(runID string, resp model.ProviderResponse) {
	if r.ledger == nil {
		return
	}

	call := &model.ProviderCall{
		RunID:     runID,
		Provider:  resp.Provider,
		Model:     resp.Model,
		Success:   resp.ErrorMessage == "",
		LatencyMs: resp.LatencyMs,
		Cost:      resp.TokenUsage.Cost,
	}
	if resp.ErrorMessage != "" {
		msg := resp.ErrorMessage
		call.ErrorMessage = &msg
	}

	// Ledger writes use a background context: a cancelled run should still
	// account for the spend it already incurred.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.ledger.Create(ctx, call); err != nil {
		r.logger.Error("recording provider call", zap.Error(err))
	}
}
