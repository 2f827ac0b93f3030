package analyzer

import (
	"fmt"
	"math"

	"github.com/Shawm69/fbigposter/internal/models"
)

func reelAnalyzers() []Analyzer {
	return []Analyzer{
		{Name: "retention", Run: analyzeRetention},
		{Name: "view_pattern", Run: analyzeViewPattern},
	}
}

// analyzeRetention looks at how long viewers actually stay and recommends a
// target duration near the watch time the winning cohort sustains.
func analyzeRetention(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	var watched []models.PostRecord
	for _, r := range posts {
		if r.Metrics.WatchTimeMs > 0 {
			watched = append(watched, r)
		}
	}
	if len(watched) < minSample {
		return nil
	}

	watch := func(r models.PostRecord) float64 { return r.Metrics.AvgWatchTime }
	high, low := splitAtMean(watched, watch)
	if len(high) < minCohort || len(low) < minCohort {
		return nil
	}

	highM := meanMetric(high, watch)
	lowM := meanMetric(low, watch)
	if pctGain(highM, lowM) < 0.20 {
		return nil
	}

	// Aim slightly past the retained watch time so the video does not end
	// before the loop point.
	duration := int(math.Round(highM * 2))
	if duration < 15 {
		duration = 15
	}
	if duration > 90 {
		duration = 90
	}

	n := len(watched)
	return []models.Finding{{
		Category: "retention",
		Insight:  fmt.Sprintf("viewers hold for ~%.1fs on the best reels; target ~%ds videos", highM, duration),
		Evidence: fmt.Sprintf("n=%d reels with watch data; top cohort (%d posts) averaged %.1fs watch time vs %.1fs",
			n, len(high), highM, lowM),
		Confidence: confidence(n, 0.8, 30),
		Field:      "visual.duration_secs",
		Value:      duration,
	}}
}

// analyzeViewPattern checks whether loop-heavy reels (rewatch ratio above
// the mean) outperform on engagement, and if so biases pacing toward loops.
func analyzeViewPattern(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	if len(posts) < minSample {
		return nil
	}

	high, low := splitAtMean(posts, func(r models.PostRecord) float64 { return r.Metrics.RewatchRatio })
	if len(high) < minCohort || len(low) < minCohort {
		return nil
	}

	eng := func(r models.PostRecord) float64 { return r.Metrics.EngagementRate }
	highM := meanMetric(high, eng)
	lowM := meanMetric(low, eng)
	if pctGain(highM, lowM) < 0.20 {
		return nil
	}

	rewatch := meanMetric(high, func(r models.PostRecord) float64 { return r.Metrics.RewatchRatio })
	n := len(posts)
	return []models.Finding{{
		Category: "view_pattern",
		Insight:  "loop-friendly reels win: rewatched posts engage better",
		Evidence: fmt.Sprintf("n=%d; high-rewatch cohort (%d posts, %.2fx rewatch) averaged %s engagement rate vs %s",
			n, len(high), rewatch, fmtRate(highM), fmtRate(lowM)),
		Confidence: confidence(n, 0.8, 30),
		Field:      "visual.pacing",
		Value:      "loop_friendly",
	}}
}
