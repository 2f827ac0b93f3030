package analyzer

import (
	"fmt"
	"math"

	"github.com/Shawm69/fbigposter/internal/models"
)

func imageAnalyzers() []Analyzer {
	return []Analyzer{
		{Name: "caption_reach", Run: analyzeCaptionReach},
		{Name: "hashtag_reach", Run: analyzeHashtagReach},
	}
}

// analyzeCaptionReach is the static-image angle on captions: instead of
// the engagement-side comparison the common analyzer makes, it asks which
// caption length actually reaches more unique viewers.
func analyzeCaptionReach(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	if len(posts) < minSample {
		return nil
	}

	long, short := splitAtMean(posts, func(r models.PostRecord) float64 { return float64(len(r.Caption)) })
	if len(long) < minCohort || len(short) < minCohort {
		return nil
	}

	viewers := func(r models.PostRecord) float64 { return float64(r.Metrics.Viewers) }
	longV := meanMetric(long, viewers)
	shortV := meanMetric(short, viewers)

	pref, winV, loseV := "long", longV, shortV
	if shortV > longV {
		pref, winV, loseV = "short", shortV, longV
	}
	if pctGain(winV, loseV) < 0.20 {
		return nil
	}

	n := len(posts)
	return []models.Finding{{
		Category: "caption_reach",
		Insight:  fmt.Sprintf("%s captions reach more unique viewers on images", pref),
		Evidence: fmt.Sprintf("n=%d images; %s-caption cohort averaged %.0f viewers vs %.0f",
			n, pref, winV, loseV),
		Confidence: confidence(n, 0.75, 30),
		Field:      "caption.length_preference",
		Value:      pref,
	}}
}

// analyzeHashtagReach is the static-image angle on hashtags: tag count
// compared on reach rather than engagement.
func analyzeHashtagReach(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	if len(posts) < minSample {
		return nil
	}

	count := func(r models.PostRecord) float64 { return float64(len(r.Hashtags)) }
	many, few := splitAtMean(posts, count)
	if len(many) < minCohort || len(few) < minCohort {
		return nil
	}

	viewers := func(r models.PostRecord) float64 { return float64(r.Metrics.Viewers) }
	manyV := meanMetric(many, viewers)
	fewV := meanMetric(few, viewers)

	winner, winV, loseV := many, manyV, fewV
	if fewV > manyV {
		winner, winV, loseV = few, fewV, manyV
	}
	if pctGain(winV, loseV) < 0.20 {
		return nil
	}

	optimal := int(math.Round(meanMetric(winner, count)))
	n := len(posts)
	return []models.Finding{{
		Category: "hashtag_reach",
		Insight:  fmt.Sprintf("around %d hashtags maximizes image reach", optimal),
		Evidence: fmt.Sprintf("n=%d images; winning cohort (%d posts, avg %d tags) reached %.0f viewers vs %.0f",
			n, len(winner), optimal, winV, loseV),
		Confidence: confidence(n, 0.75, 30),
		Field:      "hashtags.optimal_count",
		Value:      optimal,
	}}
}
