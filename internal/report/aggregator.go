// Package report reduces a run's TestResults into a ContentAnalysisReport
// and serializes it into the fixed export shape downstream consumers read.
// Aggregation is deterministic: no clock reads, no randomness, positional
// IDs — identical input yields a byte-identical report.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/discoverly/visibility-service/internal/model"
)

const (
	// signatureLength truncates a content chunk into its gap-bucket key.
	signatureLength = 50

	// Gap priority cutoffs on failed-prompt counts.
	gapHighCutoff   = 3
	gapMediumCutoff = 1

	// hoursPerFailedPrompt sizes the remediation estimate.
	hoursPerFailedPrompt = 2

	// providerGapThreshold triggers the provider-selection recommendation
	// when best and worst success rates diverge by more than this.
	providerGapThreshold = 0.2

	// costRatioThreshold triggers the cost-optimization recommendation when
	// the cheapest cost-per-success is below this fraction of the priciest.
	costRatioThreshold = 0.5
)

// Aggregate folds all TestResults of one run into the final report.
// testDate is an input, not a clock read, to keep the fold pure.
func Aggregate(industry string, testDate time.Time, results []model.TestResult) model.ContentAnalysisReport {
	rep := model.ContentAnalysisReport{
		Industry:        industry,
		TestDate:        testDate,
		TotalTests:      len(results),
		Results:         results,
		ContentGaps:     []model.ContentGap{},
		Recommendations: []model.Recommendation{},
	}

	stats := providerStats(results)
	rep.ProviderPerformance = performance(stats)
	rep.ContentGaps = contentGaps(results)

	succeeded := 0
	responseCount := 0
	var latencySum float64
	for _, tr := range results {
		if tr.OverallSuccess {
			succeeded++
		}
		rep.TotalCost += tr.TotalCost
		for _, r := range tr.Responses {
			responseCount++
			latencySum += float64(r.LatencyMs)
		}
	}
	if len(results) > 0 {
		rep.OverallSuccessRate = float64(succeeded) / float64(len(results))
	}
	if responseCount > 0 {
		rep.AverageLatency = latencySum / float64(responseCount)
	}

	rep.Recommendations = recommendations(results, stats)
	return rep
}

// providerStat carries the exact counts the rules need; the exported
// ProviderPerformance keeps only the ratio.
type providerStat struct {
	pair       model.ProviderModel
	count      int
	successes  int
	latencySum float64
	cost       float64
}

func (s providerStat) successRate() float64 {
	if s.count == 0 {
		return 0
	}
	return float64(s.successes) / float64(s.count)
}

// costPerSuccess is the provider's total spend divided by its successful
// responses; +Inf when nothing succeeded.
func (s providerStat) costPerSuccess() float64 {
	if s.successes == 0 {
		return math.Inf(1)
	}
	return s.cost / float64(s.successes)
}

// providerStats groups every response by (provider, model), preserving
// first-seen order so output ordering is stable.
func providerStats(results []model.TestResult) []providerStat {
	index := make(map[string]int)
	var stats []providerStat

	for _, tr := range results {
		for _, r := range tr.Responses {
			key := r.Pair().Key()
			i, ok := index[key]
			if !ok {
				i = len(stats)
				index[key] = i
				stats = append(stats, providerStat{pair: r.Pair()})
			}
			stats[i].count++
			if r.Success {
				stats[i].successes++
			}
			stats[i].latencySum += float64(r.LatencyMs)
			stats[i].cost += r.TokenUsage.Cost
		}
	}
	return stats
}

func performance(stats []providerStat) []model.ProviderPerformance {
	out := make([]model.ProviderPerformance, 0, len(stats))
	for _, s := range stats {
		perf := model.ProviderPerformance{
			Provider:      s.pair.Provider,
			Model:         s.pair.Model,
			SuccessRate:   s.successRate(),
			TotalCost:     s.cost,
			ResponseCount: s.count,
		}
		if s.count > 0 {
			perf.AverageLatency = s.latencySum / float64(s.count)
		}
		out = append(out, perf)
	}
	return out
}

// contentGaps buckets failed results by a truncated content signature.
// Each bucket becomes one gap whose failed prompts are the de-duplicated
// union of the bucket's prompts.
func contentGaps(results []model.TestResult) []model.ContentGap {
	index := make(map[string]int)
	var signatures []string
	prompts := make(map[string][]string)
	seen := make(map[string]map[string]struct{})

	for _, tr := range results {
		if tr.OverallSuccess {
			continue
		}
		sig := signature(tr.ContentChunk)
		if _, ok := index[sig]; !ok {
			index[sig] = len(signatures)
			signatures = append(signatures, sig)
			seen[sig] = make(map[string]struct{})
		}
		if _, dup := seen[sig][tr.Prompt]; !dup {
			seen[sig][tr.Prompt] = struct{}{}
			prompts[sig] = append(prompts[sig], tr.Prompt)
		}
	}

	gaps := make([]model.ContentGap, 0, len(signatures))
	for i, sig := range signatures {
		failed := prompts[sig]
		gaps = append(gaps, model.ContentGap{
			ID:             fmt.Sprintf("gap-%d", i+1),
			Title:          fmt.Sprintf("Content gap: %q", sig),
			Description:    fmt.Sprintf("AI assistants could not answer %d prompt(s) from this content section.", len(failed)),
			Priority:       gapPriority(len(failed)),
			FailedPrompts:  failed,
			EstimatedHours: hoursPerFailedPrompt * len(failed),
		})
	}
	return gaps
}

func signature(chunk string) string {
	chunk = strings.TrimSpace(chunk)
	if len(chunk) > signatureLength {
		return chunk[:signatureLength]
	}
	return chunk
}

func gapPriority(failedPrompts int) model.GapPriority {
	switch {
	case failedPrompts > gapHighCutoff:
		return model.PriorityHigh
	case failedPrompts > gapMediumCutoff:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// recommendations is the fixed rule engine. Rules fire in a constant
// order so the output is reproducible.
func recommendations(results []model.TestResult, stats []providerStat) []model.Recommendation {
	recs := []model.Recommendation{}

	anyFailed := false
	for _, tr := range results {
		if !tr.OverallSuccess {
			anyFailed = true
			break
		}
	}
	if anyFailed {
		recs = append(recs, model.Recommendation{
			ID:          "rec-content-coverage",
			Title:       "Expand content coverage",
			Description: "Some prompts could not be answered from the provided content. Fill the identified gaps so AI assistants can surface your material.",
			Impact:      "High",
			Effort:      "Medium",
			Timeline:    "2-4 weeks",
			Category:    "content",
			Actions: []string{
				"Review the content gaps listed in this report",
				"Author sections answering each failed prompt",
				"Re-run the discoverability test to confirm coverage",
			},
		})
	}

	if len(stats) > 1 {
		best, worst := stats[0], stats[0]
		for _, s := range stats[1:] {
			if s.successRate() > best.successRate() {
				best = s
			}
			if s.successRate() < worst.successRate() {
				worst = s
			}
		}
		if best.successRate()-worst.successRate() > providerGapThreshold {
			recs = append(recs, model.Recommendation{
				ID:    "rec-provider-selection",
				Title: "Prioritize your strongest provider",
				Description: fmt.Sprintf("%s answered %.0f%% of prompts successfully while %s managed only %.0f%%. Weight your optimization toward the stronger performer.",
					best.pair.Key(), best.successRate()*100, worst.pair.Key(), worst.successRate()*100),
				Impact:   "Medium",
				Effort:   "Low",
				Timeline: "1 week",
				Category: "providers",
				Actions: []string{
					fmt.Sprintf("Validate content changes against %s first", best.pair.Key()),
					fmt.Sprintf("Investigate why %s underperforms on this content", worst.pair.Key()),
				},
			})
		}

		cheapest, priciest := stats[0], stats[0]
		for _, s := range stats[1:] {
			if s.costPerSuccess() < cheapest.costPerSuccess() {
				cheapest = s
			}
			if s.costPerSuccess() > priciest.costPerSuccess() {
				priciest = s
			}
		}
		if cheapest.costPerSuccess() < costRatioThreshold*priciest.costPerSuccess() {
			recs = append(recs, model.Recommendation{
				ID:    "rec-cost-optimization",
				Title: "Rebalance provider spend",
				Description: fmt.Sprintf("%s delivers successful answers at a much lower cost per success than %s. Shift routine testing volume to the cheaper provider.",
					cheapest.pair.Key(), priciest.pair.Key()),
				Impact:   "Medium",
				Effort:   "Low",
				Timeline: "1 week",
				Category: "cost",
				Actions: []string{
					fmt.Sprintf("Route bulk test traffic through %s", cheapest.pair.Key()),
					fmt.Sprintf("Reserve %s for spot checks", priciest.pair.Key()),
				},
			})
		}
	}

	return recs
}
