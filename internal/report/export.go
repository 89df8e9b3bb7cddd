package report

import (
	"fmt"
	"time"

	"github.com/discoverly/visibility-service/internal/model"
)

// The export document is the compatibility surface for downstream
// consumers: its top-level keys and field names must not change.

// Export is the JSON document produced for one run.
type Export struct {
	Summary             ExportSummary        `json:"summary"`
	ProviderPerformance []ExportProviderStat `json:"providerPerformance"`
	ContentGaps         []ExportGap          `json:"contentGaps"`
	Recommendations     []ExportRec          `json:"recommendations"`
}

// ExportSummary presents run totals. SuccessRate is formatted as a
// percentage string here, at the display boundary — the report itself
// keeps the exact ratio.
type ExportSummary struct {
	Industry       string  `json:"industry"`
	TestDate       string  `json:"testDate"`
	SuccessRate    string  `json:"successRate"`
	AverageLatency float64 `json:"averageLatency"`
	TotalCost      float64 `json:"totalCost"`
	TotalTests     int     `json:"totalTests"`
}

type ExportProviderStat struct {
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	SuccessRate    float64 `json:"successRate"`
	AverageLatency float64 `json:"averageLatency"`
	TotalCost      float64 `json:"totalCost"`
	ResponseCount  int     `json:"responseCount"`
}

type ExportGap struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Priority       string   `json:"priority"`
	FailedPrompts  []string `json:"failedPrompts"`
	EstimatedHours int      `json:"estimatedHours"`
}

type ExportRec struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
	Effort      string   `json:"effort"`
	Timeline    string   `json:"timeline"`
	Category    string   `json:"category"`
	Actions     []string `json:"actions"`
}

// ToExport converts a report into the export document.
func ToExport(rep model.ContentAnalysisReport) Export {
	out := Export{
		Summary: ExportSummary{
			Industry:       rep.Industry,
			TestDate:       rep.TestDate.UTC().Format(time.RFC3339),
			SuccessRate:    fmt.Sprintf("%.1f%%", rep.OverallSuccessRate*100),
			AverageLatency: rep.AverageLatency,
			TotalCost:      rep.TotalCost,
			TotalTests:     rep.TotalTests,
		},
		ProviderPerformance: []ExportProviderStat{},
		ContentGaps:         []ExportGap{},
		Recommendations:     []ExportRec{},
	}

	for _, p := range rep.ProviderPerformance {
		out.ProviderPerformance = append(out.ProviderPerformance, ExportProviderStat{
			Provider:       string(p.Provider),
			Model:          p.Model,
			SuccessRate:    p.SuccessRate,
			AverageLatency: p.AverageLatency,
			TotalCost:      p.TotalCost,
			ResponseCount:  p.ResponseCount,
		})
	}
	for _, g := range rep.ContentGaps {
		out.ContentGaps = append(out.ContentGaps, ExportGap{
			ID:             g.ID,
			Title:          g.Title,
			Description:    g.Description,
			Priority:       string(g.Priority),
			FailedPrompts:  g.FailedPrompts,
			EstimatedHours: g.EstimatedHours,
		})
	}
	for _, r := range rep.Recommendations {
		out.Recommendations = append(out.Recommendations, ExportRec(r))
	}

	return out
}
