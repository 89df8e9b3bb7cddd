package model

import "time"

// ProviderCall is the ledger record written for every API attempt,
// successful or not. It exists for cost monitoring — historical test runs
// themselves are not persisted.
type ProviderCall struct {
	ID           int64     `db:"id" json:"id"`
	RunID        string    `db:"run_id" json:"run_id"`
	Provider     Provider  `db:"provider" json:"provider"`
	Model        string    `db:"model" json:"model"`
	Success      bool      `db:"success" json:"success"`
	LatencyMs    int64     `db:"latency_ms" json:"latency_ms"`
	Cost         float64   `db:"cost" json:"cost"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ProviderUsage is an aggregate over the call ledger, grouped by
// (provider, model).
type ProviderUsage struct {
	Provider  Provider `db:"provider" json:"provider"`
	Model     string   `db:"model" json:"model"`
	Calls     int64    `db:"calls" json:"calls"`
	Successes int64    `db:"successes" json:"successes"`
	TotalCost float64  `db:"total_cost" json:"total_cost"`
}
