// Package analyzer turns post history into statistically gated findings.
// Analyzers are pure functions over a filtered slice of one pipeline's
// records: they never mutate input and never error on data shape — absence
// of signal is an empty result.
package analyzer

import (
	"fmt"
	"math"
	"sort"

	"github.com/Shawm69/fbigposter/internal/models"
)

// Shared sample-size gates. Below the gate an analyzer returns no finding,
// which is not an error.
const (
	minSample = 5 // posts overall
	minCohort = 2 // posts per compared cohort
)

// slotKeepRatio is the fraction of the best slot's mean viewers a time slot
// must reach to be suggested alongside it.
const slotKeepRatio = 0.8

// Analyzer is one named analysis pass over a pipeline's records.
type Analyzer struct {
	Name string
	Run  func(p models.Pipeline, posts []models.PostRecord) []models.Finding
}

// ForPipeline returns the analyzer set for a pipeline: the common set plus
// the pipeline specialization plus the generation-trace analyzers. The
// story set is a deliberate, permanent no-op (see story.go).
func ForPipeline(p models.Pipeline) []Analyzer {
	switch p {
	case models.PipelineReel:
		return append(append(commonAnalyzers(), reelAnalyzers()...), traceAnalyzers()...)
	case models.PipelineImage:
		return append(append(commonAnalyzers(), imageAnalyzers()...), traceAnalyzers()...)
	case models.PipelineStory:
		return storyAnalyzers()
	}
	return nil
}

// Run executes every analyzer for the pipeline over its records and
// collects the findings. Records with no harvested metrics and no viewer
// data are excluded up front.
func Run(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	qualified := Filter(posts)
	var out []models.Finding
	for _, a := range ForPipeline(p) {
		out = append(out, a.Run(p, qualified)...)
	}
	return out
}

// Filter drops records excluded from all analyses: harvest count 0 with no
// viewer data.
func Filter(posts []models.PostRecord) []models.PostRecord {
	out := make([]models.PostRecord, 0, len(posts))
	for _, r := range posts {
		if r.Analyzable() {
			out = append(out, r)
		}
	}
	return out
}

// PrimaryMetric is the single pipeline-to-metric lookup reused by every
// ranking analyzer so rankings stay consistent across pipelines: short
// video ranks by average watch time, everything else by engagement rate.
func PrimaryMetric(p models.Pipeline, m models.Metrics) float64 {
	if p == models.PipelineReel {
		return m.AvgWatchTime
	}
	return m.EngagementRate
}

// confidence is the bounded sample-size confidence function: more data
// raises confidence monotonically but never past the analyzer's cap.
func confidence(n int, cap, divisor float64) float64 {
	return math.Min(cap, float64(n)/divisor)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// meanMetric averages fn over posts.
func meanMetric(posts []models.PostRecord, fn func(models.PostRecord) float64) float64 {
	xs := make([]float64, len(posts))
	for i, r := range posts {
		xs[i] = fn(r)
	}
	return mean(xs)
}

// splitAtMean splits posts into high/low cohorts at the mean of fn over the
// distribution itself. Ties go to the high group.
func splitAtMean(posts []models.PostRecord, fn func(models.PostRecord) float64) (high, low []models.PostRecord) {
	m := meanMetric(posts, fn)
	for _, r := range posts {
		if fn(r) >= m {
			high = append(high, r)
		} else {
			low = append(low, r)
		}
	}
	return high, low
}

// pctGain returns the relative gain of a over b. A zero b with a positive a
// counts as a full gain.
func pctGain(a, b float64) float64 {
	if b == 0 {
		if a == 0 {
			return 0
		}
		return 1
	}
	return (a - b) / b
}

// classifyTrend splits a pillar's posts chronologically in half and flags
// rising when the second half's primary metric exceeds the first by >=20%,
// declining on a >=20% drop, else stable.
func classifyTrend(p models.Pipeline, posts []models.PostRecord) string {
	if len(posts) < 2*minCohort {
		return models.TrendStable
	}
	sorted := make([]models.PostRecord, len(posts))
	copy(sorted, posts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PostedAt.Before(sorted[j].PostedAt) })

	mid := len(sorted) / 2
	first := meanMetric(sorted[:mid], func(r models.PostRecord) float64 { return PrimaryMetric(p, r.Metrics) })
	second := meanMetric(sorted[mid:], func(r models.PostRecord) float64 { return PrimaryMetric(p, r.Metrics) })

	switch gain := pctGain(second, first); {
	case gain >= 0.20:
		return models.TrendRising
	case gain <= -0.20:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// primaryMetricName labels the ranking metric in evidence strings.
func primaryMetricName(p models.Pipeline) string {
	if p == models.PipelineReel {
		return "avg watch time"
	}
	return "engagement rate"
}

func fmtRate(x float64) string {
	return fmt.Sprintf("%.4f", x)
}
