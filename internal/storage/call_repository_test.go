package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/discoverly/visibility-service/internal/model"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func call(runID string, provider model.Provider, mdl string, success bool, cost float64) *model.ProviderCall {
	c := &model.ProviderCall{
		RunID:     runID,
		Provider:  provider,
		Model:     mdl,
		Success:   success,
		LatencyMs: 120,
		Cost:      cost,
	}
	if !success {
		msg := "provider error"
		c.ErrorMessage = &msg
	}
	return c
}

func TestCreate(t *testing.T) {
	repo := NewCallRepository(setupTestDB(t))
	ctx := context.Background()

	c := call("run-1", model.ProviderOpenAI, "gpt-4o", true, 0.01)
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == 0 {
		t.Error("Create should backfill the row ID")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestCreate_FailedCallKeepsErrorMessage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCallRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, call("run-1", model.ProviderGoogle, "gemini-2.0-flash", false, 0)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var msg *string
	if err := db.GetContext(ctx, &msg, "SELECT error_message FROM provider_calls WHERE run_id = 'run-1'"); err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if msg == nil || *msg != "provider error" {
		t.Errorf("error_message = %v, want provider error", msg)
	}
}

func TestUsageByProvider(t *testing.T) {
	repo := NewCallRepository(setupTestDB(t))
	ctx := context.Background()

	calls := []*model.ProviderCall{
		call("run-1", model.ProviderOpenAI, "gpt-4o", true, 0.01),
		call("run-1", model.ProviderOpenAI, "gpt-4o", false, 0),
		call("run-1", model.ProviderAnthropic, "claude-sonnet-4-5-20250929", true, 0.02),
		call("run-2", model.ProviderOpenAI, "gpt-4o", true, 0.01),
	}
	for _, c := range calls {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	usage, err := repo.UsageByProvider(ctx)
	if err != nil {
		t.Fatalf("UsageByProvider: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("expected 2 usage rows, got %d", len(usage))
	}

	// Ordered by provider, model: anthropic first.
	anthropic := usage[0]
	if anthropic.Provider != model.ProviderAnthropic || anthropic.Calls != 1 || anthropic.Successes != 1 {
		t.Errorf("unexpected anthropic usage: %+v", anthropic)
	}

	openai := usage[1]
	if openai.Calls != 3 || openai.Successes != 2 {
		t.Errorf("unexpected openai usage: %+v", openai)
	}
	if openai.TotalCost != 0.02 {
		t.Errorf("openai TotalCost = %v, want 0.02", openai.TotalCost)
	}
}

func TestTotalCostByRun(t *testing.T) {
	repo := NewCallRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, call("run-1", model.ProviderOpenAI, "gpt-4o", true, 0.25)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, call("run-1", model.ProviderAnthropic, "claude-sonnet-4-5-20250929", true, 0.5)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, call("run-2", model.ProviderOpenAI, "gpt-4o", true, 2)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cost, err := repo.TotalCostByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("TotalCostByRun: %v", err)
	}
	if cost != 0.75 {
		t.Errorf("cost = %v, want 0.75", cost)
	}

	cost, err = repo.TotalCostByRun(ctx, "no-such-run")
	if err != nil {
		t.Fatalf("TotalCostByRun: %v", err)
	}
	if cost != 0 {
		t.Errorf("unknown run cost = %v, want 0", cost)
	}
}
