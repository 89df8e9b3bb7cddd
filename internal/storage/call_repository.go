package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/discoverly/visibility-service/internal/model"
)

// CallRepository persists one ledger row per provider API attempt.
// The Router writes through this interface; handlers read usage totals
// from it. Implementations must tolerate concurrent writers.
type CallRepository interface {
	Create(ctx context.Context, call *model.ProviderCall) error
	UsageByProvider(ctx context.Context) ([]model.ProviderUsage, error)
	TotalCostByRun(ctx context.Context, runID string) (float64, error)
	Count(ctx context.Context) (int64, error)
}

type sqliteCallRepository struct {
	db *sqlx.DB
}

// NewCallRepository creates a SQLite-backed CallRepository.
func NewCallRepository(db *sqlx.DB) CallRepository {
	return &sqliteCallRepository{db: db}
}

func (r *sqliteCallRepository) Create(ctx context.Context, call *model.ProviderCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO provider_calls (run_id, provider, model, success, latency_ms, cost, error_message)
		VALUES (:run_id, :provider, :model, :success, :latency_ms, :cost, :error_message)
	`, call)
	if err != nil {
		return fmt.Errorf("creating provider call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteCallRepository) UsageByProvider(ctx context.Context) ([]model.ProviderUsage, error) {
	var usage []model.ProviderUsage
	err := r.db.SelectContext(ctx, &usage, `
		SELECT provider, model,
		       COUNT(*) AS calls,
		       SUM(CASE WHEN success THEN 1 ELSE 0 END) AS successes,
		       SUM(cost) AS total_cost
		FROM provider_calls
		GROUP BY provider, model
		ORDER BY provider, model
	`)
	if err != nil {
		return nil, fmt.Errorf("aggregating provider usage: %w", err)
	}
	return usage, nil
}

func (r *sqliteCallRepository) TotalCostByRun(ctx context.Context, runID string) (float64, error) {
	var cost float64
	err := r.db.GetContext(ctx, &cost,
		"SELECT COALESCE(SUM(cost), 0) FROM provider_calls WHERE run_id = ?", runID)
	if err != nil {
		return 0, fmt.Errorf("summing run cost: %w", err)
	}
	return cost, nil
}

func (r *sqliteCallRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM provider_calls")
	return count, err
}
