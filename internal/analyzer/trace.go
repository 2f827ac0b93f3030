package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Shawm69/fbigposter/internal/models"
)

// Trace analyzers require the optional generation trace; records without
// one are excluded before the sample-size gate is applied.
func traceAnalyzers() []Analyzer {
	return []Analyzer{
		{Name: "hook_style", Run: analyzeHookStyle},
		{Name: "prompt_keywords", Run: analyzePromptKeywords},
		{Name: "recommendation_adherence", Run: analyzeAdherence},
	}
}

func withTrace(posts []models.PostRecord) []models.PostRecord {
	var out []models.PostRecord
	for _, r := range posts {
		if r.Trace != nil {
			out = append(out, r)
		}
	}
	return out
}

// analyzeHookStyle ranks the hook styles recorded in generation traces by
// the pipeline's primary metric.
func analyzeHookStyle(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	traced := withTrace(posts)

	byStyle := make(map[string][]models.PostRecord)
	for _, r := range traced {
		if s := r.Trace.Tactics.HookStyle; s != "" {
			byStyle[s] = append(byStyle[s], r)
		}
	}

	styled := 0
	for _, group := range byStyle {
		styled += len(group)
	}
	if styled < minSample {
		return nil
	}

	type scored struct {
		style string
		m     float64
		n     int
	}
	var styles []scored
	metric := func(r models.PostRecord) float64 { return PrimaryMetric(p, r.Metrics) }
	for style, group := range byStyle {
		if len(group) < minCohort {
			continue
		}
		styles = append(styles, scored{style: style, m: meanMetric(group, metric), n: len(group)})
	}
	if len(styles) < 2 {
		return nil
	}
	sort.Slice(styles, func(i, j int) bool { return styles[i].m > styles[j].m })

	best := styles[0]
	worst := styles[len(styles)-1]
	return []models.Finding{{
		Category: "hook_style",
		Insight:  fmt.Sprintf("%q hooks outperform %q", best.style, worst.style),
		Evidence: fmt.Sprintf("n=%d traced posts across %d hook styles; %q averaged %s %s (%d posts) vs %q at %s",
			styled, len(styles), best.style, fmtRate(best.m), primaryMetricName(p), best.n, worst.style, fmtRate(worst.m)),
		Confidence: confidence(styled, 0.85, 25),
		Field:      "visual.hook_style",
		Value:      best.style,
	}}
}

// analyzePromptKeywords finds prompt tokens that discriminate high-outcome
// posts from low-outcome ones. A token survives only if it appears in at
// least 30% of the high cohort, at least twice the low-cohort rate, and in
// at least 2 high-cohort posts; up to 5 are kept, ranked by rate gap.
func analyzePromptKeywords(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	traced := withTrace(posts)
	if len(traced) < minSample {
		return nil
	}

	high, low := splitAtMean(traced, func(r models.PostRecord) float64 { return PrimaryMetric(p, r.Metrics) })
	if len(high) < minCohort || len(low) < minCohort {
		return nil
	}

	highCount := tokenCounts(high)
	lowCount := tokenCounts(low)

	type scored struct {
		token string
		gap   float64
		rate  float64
	}
	var kept []scored
	for token, n := range highCount {
		if n < 2 {
			continue
		}
		highRate := float64(n) / float64(len(high))
		lowRate := float64(lowCount[token]) / float64(len(low))
		if highRate < 0.3 {
			continue
		}
		if lowRate > 0 && highRate < 2*lowRate {
			continue
		}
		kept = append(kept, scored{token: token, gap: highRate - lowRate, rate: highRate})
	}
	if len(kept) == 0 {
		return nil
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].gap != kept[j].gap {
			return kept[i].gap > kept[j].gap
		}
		return kept[i].token < kept[j].token
	})
	if len(kept) > 5 {
		kept = kept[:5]
	}

	tokens := make([]string, len(kept))
	for i, k := range kept {
		tokens[i] = k.token
	}

	n := len(traced)
	return []models.Finding{{
		Category: "prompt_keywords",
		Insight:  fmt.Sprintf("prompt words %s mark the winning posts", strings.Join(tokens, ", ")),
		Evidence: fmt.Sprintf("n=%d traced posts; %q appears in %.0f%% of the high cohort (%d posts) with a %.0f-point rate gap over the low cohort",
			n, kept[0].token, kept[0].rate*100, len(high), kept[0].gap*100),
		Confidence: confidence(n, 0.8, 30),
		Field:      "visual.prompt_keywords",
		Value:      tokens,
	}}
}

// tokenCounts counts, per token, how many posts' prompts contain it.
// Tokens must be longer than 3 characters.
func tokenCounts(posts []models.PostRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range posts {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(r.Trace.Prompt) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			counts[tok]++
		}
	}
	return counts
}

func tokenize(prompt string) []string {
	fields := strings.FieldsFunc(strings.ToLower(prompt), func(c rune) bool {
		return !('a' <= c && c <= 'z') && !('0' <= c && c <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) > 3 {
			out = append(out, f)
		}
	}
	return out
}

// analyzeAdherence compares posts that followed the pillar recommendation
// in effect at creation time against those that deviated. Informational.
func analyzeAdherence(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	var recommended []models.PostRecord
	for _, r := range withTrace(posts) {
		if r.Trace.RecommendedPillar != "" {
			recommended = append(recommended, r)
		}
	}
	if len(recommended) < minSample {
		return nil
	}

	var adherent, deviant []models.PostRecord
	for _, r := range recommended {
		if r.Pillar == r.Trace.RecommendedPillar {
			adherent = append(adherent, r)
		} else {
			deviant = append(deviant, r)
		}
	}
	if len(adherent) < minCohort || len(deviant) < minCohort {
		return nil
	}

	metric := func(r models.PostRecord) float64 { return PrimaryMetric(p, r.Metrics) }
	adhM := meanMetric(adherent, metric)
	devM := meanMetric(deviant, metric)

	insight := "following the pillar recommendation pays off"
	if devM > adhM {
		insight = "deviating from the pillar recommendation has outperformed it"
	}

	n := len(recommended)
	return []models.Finding{{
		Category: "recommendation_adherence",
		Insight:  insight,
		Evidence: fmt.Sprintf("n=%d recommended posts; adherent cohort (%d posts) averaged %s %s vs %s for deviations (%d posts)",
			n, len(adherent), fmtRate(adhM), primaryMetricName(p), fmtRate(devM), len(deviant)),
		Confidence: confidence(n, 0.7, 25),
	}}
}
