package analyzer

import (
	"testing"
	"time"

	"github.com/Shawm69/fbigposter/internal/metrics"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/testutil"
)

func reelPost(n int, postedAt time.Time, mutate func(*models.PostRecord)) models.PostRecord {
	rec := testutil.Post(models.PipelineReel, n, postedAt, mutate)
	rec.Metrics = metrics.Normalize(rec.Metrics)
	return rec
}

func TestRunBelowSampleFloor(t *testing.T) {
	now := time.Now()
	var posts []models.PostRecord
	for i := 0; i < minSample-1; i++ {
		posts = append(posts, reelPost(i, now.AddDate(0, 0, -i), nil))
	}

	if got := Run(models.PipelineReel, posts); len(got) != 0 {
		t.Errorf("expected no findings below the sample floor, got %d", len(got))
	}
}

func TestFilterDropsUnharvested(t *testing.T) {
	now := time.Now()
	posts := []models.PostRecord{
		reelPost(1, now, nil),
		testutil.Post(models.PipelineReel, 2, now, func(r *models.PostRecord) {
			r.Metrics = models.Metrics{} // never harvested, no viewer data
		}),
	}
	if got := Filter(posts); len(got) != 1 {
		t.Errorf("filtered len = %d, want 1", len(got))
	}
}

func TestAnalyzePostingTimes(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var posts []models.PostRecord
	n := 0
	// Three posts at 09:00 with strong reach, three at 21:00 with weak reach.
	for i := 0; i < 3; i++ {
		n++
		posts = append(posts, reelPost(n, base.AddDate(0, 0, i).Add(9*time.Hour), func(r *models.PostRecord) {
			r.Metrics.Viewers = 5000
		}))
		n++
		posts = append(posts, reelPost(n, base.AddDate(0, 0, i).Add(21*time.Hour), func(r *models.PostRecord) {
			r.Metrics.Viewers = 1000
		}))
	}

	findings := analyzePostingTimes(models.PipelineReel, posts)
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(findings))
	}
	f := findings[0]
	if f.Field != "posting.best_slots" {
		t.Errorf("field = %q", f.Field)
	}
	slots, ok := f.Value.([]int)
	if !ok || len(slots) == 0 {
		t.Fatalf("value = %#v", f.Value)
	}
	if slots[0] != 9 {
		t.Errorf("best slot = %d, want 9", slots[0])
	}
	for _, h := range slots {
		if h == 21 {
			t.Errorf("weak slot suggested alongside the best: %v", slots)
		}
	}
	if f.Confidence <= 0 || f.Confidence > 0.8 {
		t.Errorf("confidence = %v", f.Confidence)
	}
}

func TestAnalyzePostingTimesKeepsCompetitiveSlots(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var posts []models.PostRecord
	n := 0
	for i := 0; i < 3; i++ {
		n++
		posts = append(posts, reelPost(n, base.AddDate(0, 0, i).Add(9*time.Hour), func(r *models.PostRecord) {
			r.Metrics.Viewers = 5000
		}))
		n++
		posts = append(posts, reelPost(n, base.AddDate(0, 0, i).Add(18*time.Hour), func(r *models.PostRecord) {
			r.Metrics.Viewers = 4500
		}))
	}

	findings := analyzePostingTimes(models.PipelineReel, posts)
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(findings))
	}
	slots, ok := findings[0].Value.([]int)
	if !ok || len(slots) != 2 {
		t.Fatalf("slots = %#v, want both near-equal slots kept", findings[0].Value)
	}
	if slots[0] != 9 || slots[1] != 18 {
		t.Errorf("slots = %v, want [9 18]", slots)
	}
}

func TestAnalyzePostingTimesSingleSlot(t *testing.T) {
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	var posts []models.PostRecord
	for i := 0; i < 6; i++ {
		posts = append(posts, reelPost(i, base.AddDate(0, 0, i), nil))
	}
	if got := analyzePostingTimes(models.PipelineReel, posts); got != nil {
		t.Errorf("single slot should yield no finding, got %+v", got)
	}
}

func TestAnalyzeCaptionLengthRequiresGap(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	longCaption := "this is a deliberately much longer caption with plenty of words in it"

	build := func(watchHigh int64, watchLow int64) []models.PostRecord {
		var posts []models.PostRecord
		for i := 0; i < 3; i++ {
			posts = append(posts, reelPost(i, base.AddDate(0, 0, i), func(r *models.PostRecord) {
				r.Caption = longCaption
				r.Metrics.WatchTimeMs = watchHigh
			}))
			posts = append(posts, reelPost(10+i, base.AddDate(0, 0, i), func(r *models.PostRecord) {
				r.Caption = "short"
				r.Metrics.WatchTimeMs = watchLow
			}))
		}
		return posts
	}

	// Clear gap: long captions watched twice as long.
	findings := analyzeCaptionLength(models.PipelineReel, build(20_000_000, 10_000_000))
	if len(findings) != 1 || findings[0].Value != "long" {
		t.Fatalf("findings = %+v", findings)
	}

	// Sub-20% gap is noise, not a finding.
	if got := analyzeCaptionLength(models.PipelineReel, build(11_000_000, 10_000_000)); got != nil {
		t.Errorf("expected no finding for a small gap, got %+v", got)
	}
}

func TestStoryAnalyzersPaused(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var posts []models.PostRecord
	for i := 0; i < 20; i++ {
		rec := testutil.Post(models.PipelineStory, i, base.AddDate(0, 0, -i), nil)
		rec.Metrics = metrics.Normalize(rec.Metrics)
		posts = append(posts, rec)
	}

	if got := Run(models.PipelineStory, posts); len(got) != 0 {
		t.Errorf("story analyzers must stay paused, got %d findings", len(got))
	}
}

func TestSplitAtMeanTiesGoHigh(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	posts := []models.PostRecord{
		reelPost(1, base, func(r *models.PostRecord) { r.Metrics.Viewers = 100 }),
		reelPost(2, base, func(r *models.PostRecord) { r.Metrics.Viewers = 100 }),
		reelPost(3, base, func(r *models.PostRecord) { r.Metrics.Viewers = 100 }),
	}
	high, low := splitAtMean(posts, func(r models.PostRecord) float64 { return float64(r.Metrics.Viewers) })
	if len(high) != 3 || len(low) != 0 {
		t.Errorf("high=%d low=%d, want 3/0", len(high), len(low))
	}
}

func TestClassifyTrend(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	build := func(firstWatch, secondWatch int64) []models.PostRecord {
		var posts []models.PostRecord
		for i := 0; i < 2; i++ {
			posts = append(posts, reelPost(i, base.AddDate(0, 0, i), func(r *models.PostRecord) {
				r.Metrics.WatchTimeMs = firstWatch
			}))
		}
		for i := 2; i < 4; i++ {
			posts = append(posts, reelPost(i, base.AddDate(0, 0, i), func(r *models.PostRecord) {
				r.Metrics.WatchTimeMs = secondWatch
			}))
		}
		return posts
	}

	cases := []struct {
		name   string
		posts  []models.PostRecord
		want   string
	}{
		{"rising", build(10_000_000, 15_000_000), models.TrendRising},
		{"declining", build(15_000_000, 10_000_000), models.TrendDeclining},
		{"stable", build(10_000_000, 10_500_000), models.TrendStable},
		{"too few", build(10_000_000, 20_000_000)[:3], models.TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyTrend(models.PipelineReel, tc.posts); got != tc.want {
				t.Errorf("trend = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestConfidenceCapped(t *testing.T) {
	if got := confidence(1000, 0.8, 30); got != 0.8 {
		t.Errorf("confidence = %v, want cap 0.8", got)
	}
	if got := confidence(15, 0.8, 30); got != 0.5 {
		t.Errorf("confidence = %v, want 0.5", got)
	}
}

func TestFindingQualifies(t *testing.T) {
	cases := []struct {
		name string
		f    models.Finding
		want bool
	}{
		{"qualifying", models.Finding{Field: "caption.tone", Value: "warm", Confidence: 0.6}, true},
		{"at threshold", models.Finding{Field: "caption.tone", Value: "warm", Confidence: models.QualifyingConfidence}, true},
		{"low confidence", models.Finding{Field: "caption.tone", Value: "warm", Confidence: 0.4}, false},
		{"informational", models.Finding{Confidence: 0.9}, false},
		{"no value", models.Finding{Field: "caption.tone", Confidence: 0.9}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Qualifies(); got != tc.want {
				t.Errorf("Qualifies = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAnalyzeDistributionNeedsScoredPosts(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var posts []models.PostRecord
	for i := 0; i < 10; i++ {
		posts = append(posts, reelPost(i, base.AddDate(0, 0, -i), nil))
	}
	// No distribution scores anywhere.
	if got := AnalyzeDistribution(models.PipelineReel, posts); got != nil {
		t.Errorf("expected nil without distribution scores, got %+v", got)
	}

	for i := range posts {
		d := 0.5
		if i%2 == 0 {
			d = 2.0
		}
		dv := d
		posts[i].Metrics.Distribution = &dv
		posts[i].Metrics.HookRate = d / 2 // correlated
	}
	got := AnalyzeDistribution(models.PipelineReel, posts)
	if len(got) == 0 {
		t.Fatal("expected correlation findings")
	}
	for _, f := range got {
		if f.Field != "" {
			t.Errorf("distribution findings must be informational, got field %q", f.Field)
		}
	}
}
