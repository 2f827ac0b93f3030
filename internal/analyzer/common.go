package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Shawm69/fbigposter/internal/models"
)

func commonAnalyzers() []Analyzer {
	return []Analyzer{
		{Name: "posting_times", Run: analyzePostingTimes},
		{Name: "caption_length", Run: analyzeCaptionLength},
		{Name: "hashtag_count", Run: analyzeHashtagCount},
		{Name: "hashtag_quality", Run: analyzeHashtagQuality},
		{Name: "version_trend", Run: analyzeVersionTrend},
		{Name: "pillar_ranking", Run: analyzePillarRanking},
		{Name: "engagement_profile", Run: analyzeEngagementProfile},
		{Name: "distribution_correlation", Run: AnalyzeDistribution},
		{Name: "hook_quality", Run: analyzeHookQuality},
	}
}

// analyzePostingTimes ranks hour-of-day slots by mean unique viewers.
// Reach is the one counter whose variance is attributable to timing, so
// slots are ranked by it rather than the pipeline primary metric.
func analyzePostingTimes(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	if len(posts) < minSample {
		return nil
	}

	byHour := make(map[int][]models.PostRecord)
	for _, r := range posts {
		byHour[r.PostedAt.Hour()] = append(byHour[r.PostedAt.Hour()], r)
	}

	type slot struct {
		hour    int
		viewers float64
		n       int
	}
	var slots []slot
	for h, group := range byHour {
		if len(group) < minCohort {
			continue
		}
		v := meanMetric(group, func(r models.PostRecord) float64 { return float64(r.Metrics.Viewers) })
		slots = append(slots, slot{hour: h, viewers: v, n: len(group)})
	}
	if len(slots) < 2 {
		return nil
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].viewers > slots[j].viewers })

	best := slots[0]
	worst := slots[len(slots)-1]
	// Only slots competitive with the best one are suggested; a slot that
	// clearly underperforms never rides along in the recommendation.
	top := make([]int, 0, 3)
	for _, s := range slots {
		if s.viewers < best.viewers*slotKeepRatio {
			break
		}
		top = append(top, s.hour)
		if len(top) == 3 {
			break
		}
	}

	n := len(posts)
	return []models.Finding{{
		Category: "posting_times",
		Insight:  fmt.Sprintf("posts at %02d:00 reach the most unique viewers", best.hour),
		Evidence: fmt.Sprintf("n=%d posts across %d time slots; %02d:00 averaged %.0f viewers vs %02d:00 at %.0f",
			n, len(slots), best.hour, best.viewers, worst.hour, worst.viewers),
		Confidence: confidence(n, 0.8, 30),
		Field:      "posting.best_slots",
		Value:      top,
	}}
}

// analyzeCaptionLength compares the primary metric between long- and
// short-caption cohorts split at the mean caption length.
func analyzeCaptionLength(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	if len(posts) < minSample {
		return nil
	}

	long, short := splitAtMean(posts, func(r models.PostRecord) float64 { return float64(len(r.Caption)) })
	if len(long) < minCohort || len(short) < minCohort {
		return nil
	}

	metric := func(r models.PostRecord) float64 { return PrimaryMetric(p, r.Metrics) }
	longM := meanMetric(long, metric)
	shortM := meanMetric(short, metric)

	pref, winM, loseM := "long", longM, shortM
	if shortM > longM {
		pref, winM, loseM = "short", shortM, longM
	}
	if pctGain(winM, loseM) < 0.20 {
		return nil
	}

	n := len(posts)
	return []models.Finding{{
		Category: "caption_length",
		Insight:  fmt.Sprintf("%s captions outperform on %s", pref, primaryMetricName(p)),
		Evidence: fmt.Sprintf("n=%d; %s-caption cohort (%d posts) averaged %s vs %s for the other cohort",
			n, pref, max(len(long), len(short)), fmtRate(winM), fmtRate(loseM)),
		Confidence: confidence(n, 0.7, 25),
		Field:      "caption.length_preference",
		Value:      pref,
	}}
}

// analyzeHashtagCount compares cohorts split at the mean hashtag count and
// recommends the winning cohort's average count.
func analyzeHashtagCount(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	if len(posts) < minSample {
		return nil
	}

	count := func(r models.PostRecord) float64 { return float64(len(r.Hashtags)) }
	many, few := splitAtMean(posts, count)
	if len(many) < minCohort || len(few) < minCohort {
		return nil
	}

	metric := func(r models.PostRecord) float64 { return PrimaryMetric(p, r.Metrics) }
	manyM := meanMetric(many, metric)
	fewM := meanMetric(few, metric)

	winner, winM, loseM := many, manyM, fewM
	if fewM > manyM {
		winner, winM, loseM = few, fewM, manyM
	}
	if pctGain(winM, loseM) < 0.20 {
		return nil
	}

	optimal := int(math.Round(meanMetric(winner, count)))
	n := len(posts)
	return []models.Finding{{
		Category: "hashtag_count",
		Insight:  fmt.Sprintf("around %d hashtags performs best", optimal),
		Evidence: fmt.Sprintf("n=%d; winning cohort (%d posts, avg %d tags) scored %s %s vs %s",
			n, len(winner), optimal, fmtRate(winM), primaryMetricName(p), fmtRate(loseM)),
		Confidence: confidence(n, 0.7, 25),
		Field:      "hashtags.optimal_count",
		Value:      optimal,
	}}
}

// analyzeHashtagQuality ranks individual hashtags by the mean primary
// metric of the posts carrying them and keeps clear outperformers.
func analyzeHashtagQuality(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	if len(posts) < minSample {
		return nil
	}

	metric := func(r models.PostRecord) float64 { return PrimaryMetric(p, r.Metrics) }
	overall := meanMetric(posts, metric)

	byTag := make(map[string][]models.PostRecord)
	for _, r := range posts {
		for _, tag := range r.Hashtags {
			t := strings.ToLower(strings.TrimPrefix(tag, "#"))
			if t == "" {
				continue
			}
			byTag[t] = append(byTag[t], r)
		}
	}

	type scored struct {
		tag string
		m   float64
		n   int
	}
	var proven []scored
	for tag, group := range byTag {
		if len(group) < minCohort {
			continue
		}
		if m := meanMetric(group, metric); m >= overall*1.2 {
			proven = append(proven, scored{tag: tag, m: m, n: len(group)})
		}
	}
	if len(proven) == 0 {
		return nil
	}
	sort.Slice(proven, func(i, j int) bool { return proven[i].m > proven[j].m })
	if len(proven) > 5 {
		proven = proven[:5]
	}

	tags := make([]string, len(proven))
	for i, s := range proven {
		tags[i] = s.tag
	}

	n := len(posts)
	return []models.Finding{{
		Category: "hashtag_quality",
		Insight:  fmt.Sprintf("hashtags %s consistently outperform", strings.Join(tags, ", ")),
		Evidence: fmt.Sprintf("n=%d; #%s averaged %s %s vs account mean %s across %d posts",
			n, proven[0].tag, fmtRate(proven[0].m), primaryMetricName(p), fmtRate(overall), proven[0].n),
		Confidence: confidence(n, 0.75, 30),
		Field:      "hashtags.proven_tags",
		Value:      tags,
	}}
}

// analyzeVersionTrend compares the latest tactics version's results against
// the previous version's. Informational: it carries no suggested field.
func analyzeVersionTrend(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	if len(posts) < minSample {
		return nil
	}

	byVersion := make(map[int][]models.PostRecord)
	for _, r := range posts {
		byVersion[r.TacticsVersion] = append(byVersion[r.TacticsVersion], r)
	}
	var versions []int
	for v, group := range byVersion {
		if len(group) >= minCohort {
			versions = append(versions, v)
		}
	}
	if len(versions) < 2 {
		return nil
	}
	sort.Ints(versions)

	latest := versions[len(versions)-1]
	prev := versions[len(versions)-2]
	metric := func(r models.PostRecord) float64 { return PrimaryMetric(p, r.Metrics) }
	latestM := meanMetric(byVersion[latest], metric)
	prevM := meanMetric(byVersion[prev], metric)

	gain := pctGain(latestM, prevM)
	direction := "improved"
	if gain < 0 {
		direction = "regressed"
	}

	n := len(byVersion[latest]) + len(byVersion[prev])
	return []models.Finding{{
		Category: "version_trend",
		Insight:  fmt.Sprintf("tactics v%d %s %.0f%% over v%d on %s", latest, direction, math.Abs(gain)*100, prev, primaryMetricName(p)),
		Evidence: fmt.Sprintf("n=%d; v%d (%d posts) averaged %s vs v%d (%d posts) at %s",
			n, latest, len(byVersion[latest]), fmtRate(latestM), prev, len(byVersion[prev]), fmtRate(prevM)),
		Confidence: confidence(n, 0.8, 20),
	}}
}

// analyzePillarRanking builds the pillar performance table (rate means,
// post count, trend) and suggests it as a tactics update.
func analyzePillarRanking(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	if len(posts) < minSample {
		return nil
	}

	byPillar := make(map[string][]models.PostRecord)
	for _, r := range posts {
		byPillar[r.Pillar] = append(byPillar[r.Pillar], r)
	}
	if len(byPillar) < 2 {
		return nil
	}

	var table []models.PillarStat
	for name, group := range byPillar {
		table = append(table, models.PillarStat{
			Name:           name,
			PostCount:      len(group),
			EngagementRate: meanMetric(group, func(r models.PostRecord) float64 { return r.Metrics.EngagementRate }),
			CommentRate:    meanMetric(group, func(r models.PostRecord) float64 { return r.Metrics.CommentRate }),
			HookRate:       meanMetric(group, func(r models.PostRecord) float64 { return r.Metrics.HookRate }),
			RewatchRatio:   meanMetric(group, func(r models.PostRecord) float64 { return r.Metrics.RewatchRatio }),
			AvgWatchTime:   meanMetric(group, func(r models.PostRecord) float64 { return r.Metrics.AvgWatchTime }),
			Trend:          classifyTrend(p, group),
		})
	}
	sort.Slice(table, func(i, j int) bool {
		return pillarPrimary(p, table[i]) > pillarPrimary(p, table[j])
	})

	top := table[0]
	n := len(posts)
	return []models.Finding{{
		Category: "pillar_ranking",
		Insight:  fmt.Sprintf("%q is the strongest pillar by %s (%s trend)", top.Name, primaryMetricName(p), top.Trend),
		Evidence: fmt.Sprintf("n=%d across %d pillars; %q averaged %s %s over %d posts",
			n, len(table), top.Name, fmtRate(pillarPrimary(p, top)), primaryMetricName(p), top.PostCount),
		Confidence: confidence(n, 0.9, 20),
		Field:      "pillars",
		Value:      table,
	}}
}

func pillarPrimary(p models.Pipeline, s models.PillarStat) float64 {
	if p == models.PipelineReel {
		return s.AvgWatchTime
	}
	return s.EngagementRate
}

// Reference rates used to normalize the engagement-profile classification.
var strengthBaselines = []struct {
	name     string
	baseline float64
	metric   func(models.EngagementProfile) float64
}{
	{"conversation_driver", 0.010, func(e models.EngagementProfile) float64 { return e.AvgComment }},
	{"scroll_stopper", 0.500, func(e models.EngagementProfile) float64 { return e.AvgHook }},
	{"rewatch_magnet", 1.000, func(e models.EngagementProfile) float64 { return e.AvgRewatch }},
	{"engagement_builder", 0.050, func(e models.EngagementProfile) float64 { return e.AvgEngagement }},
}

// analyzeEngagementProfile classifies the account's primary strength as the
// rate furthest above its reference baseline.
func analyzeEngagementProfile(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	if len(posts) < minSample {
		return nil
	}

	profile := models.EngagementProfile{
		AvgEngagement: meanMetric(posts, func(r models.PostRecord) float64 { return r.Metrics.EngagementRate }),
		AvgComment:    meanMetric(posts, func(r models.PostRecord) float64 { return r.Metrics.CommentRate }),
		AvgHook:       meanMetric(posts, func(r models.PostRecord) float64 { return r.Metrics.HookRate }),
		AvgRewatch:    meanMetric(posts, func(r models.PostRecord) float64 { return r.Metrics.RewatchRatio }),
		AvgWatchTime:  meanMetric(posts, func(r models.PostRecord) float64 { return r.Metrics.AvgWatchTime }),
	}

	best, bestRatio := "balanced_engagement", 0.0
	for _, s := range strengthBaselines {
		if ratio := s.metric(profile) / s.baseline; ratio > bestRatio {
			best, bestRatio = s.name, ratio
		}
	}
	profile.PrimaryStrength = best

	n := len(posts)
	return []models.Finding{{
		Category: "engagement_profile",
		Insight:  fmt.Sprintf("account's primary strength is %s", best),
		Evidence: fmt.Sprintf("n=%d; avg engagement %s, comments %s, hook %s, rewatch %s",
			n, fmtRate(profile.AvgEngagement), fmtRate(profile.AvgComment), fmtRate(profile.AvgHook), fmtRate(profile.AvgRewatch)),
		Confidence: confidence(n, 0.85, 25),
		Field:      "profile",
		Value:      profile,
	}}
}

// AnalyzeDistribution correlates the platform's algorithmic distribution
// score with the rate metrics. Exported because the context assembler
// surfaces these insights directly. Informational: no suggested field.
func AnalyzeDistribution(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	var scored []models.PostRecord
	for _, r := range posts {
		if r.Metrics.Distribution != nil {
			scored = append(scored, r)
		}
	}
	if len(scored) < minSample {
		return nil
	}

	dist := func(r models.PostRecord) float64 { return *r.Metrics.Distribution }
	high, low := splitAtMean(scored, dist)
	if len(high) < minCohort || len(low) < minCohort {
		return nil
	}

	n := len(scored)
	conf := confidence(n, 0.8, 30)
	angles := []struct {
		label  string
		metric func(models.PostRecord) float64
	}{
		{"hook rate", func(r models.PostRecord) float64 { return r.Metrics.HookRate }},
		{"engagement rate", func(r models.PostRecord) float64 { return r.Metrics.EngagementRate }},
		{"rewatch ratio", func(r models.PostRecord) float64 { return r.Metrics.RewatchRatio }},
	}

	var out []models.Finding
	for _, a := range angles {
		highM := meanMetric(high, a.metric)
		lowM := meanMetric(low, a.metric)
		gain := pctGain(highM, lowM)
		if math.Abs(gain) < 0.20 {
			continue
		}
		direction := "higher"
		if gain < 0 {
			direction = "lower"
		}
		out = append(out, models.Finding{
			Category: "distribution_correlation",
			Insight:  fmt.Sprintf("favorably distributed posts show %.0f%% %s %s", math.Abs(gain)*100, direction, a.label),
			Evidence: fmt.Sprintf("n=%d with distribution scores; high-distribution cohort (%d posts) averaged %s %s vs %s",
				n, len(high), fmtRate(highM), a.label, fmtRate(lowM)),
			Confidence: conf,
		})
		if len(out) == 3 {
			break
		}
	}
	return out
}

// analyzeHookQuality checks whether posts that stop the scroll (high hook
// rate) also convert to engagement. Informational.
func analyzeHookQuality(p models.Pipeline, posts []models.PostRecord) []models.Finding {
	var impressed []models.PostRecord
	for _, r := range posts {
		if r.Metrics.Impressions > 0 {
			impressed = append(impressed, r)
		}
	}
	if len(impressed) < minSample {
		return nil
	}

	high, low := splitAtMean(impressed, func(r models.PostRecord) float64 { return r.Metrics.HookRate })
	if len(high) < minCohort || len(low) < minCohort {
		return nil
	}

	eng := func(r models.PostRecord) float64 { return r.Metrics.EngagementRate }
	highM := meanMetric(high, eng)
	lowM := meanMetric(low, eng)
	gain := pctGain(highM, lowM)
	if math.Abs(gain) < 0.20 {
		return nil
	}

	insight := "strong hooks convert: high hook-rate posts also engage better"
	if gain < 0 {
		insight = "hooks are not converting: high hook-rate posts engage worse"
	}

	n := len(impressed)
	return []models.Finding{{
		Category: "hook_quality",
		Insight:  insight,
		Evidence: fmt.Sprintf("n=%d; high hook-rate cohort (%d posts) averaged %s engagement rate vs %s",
			n, len(high), fmtRate(highM), fmtRate(lowM)),
		Confidence: confidence(n, 0.75, 30),
	}}
}
