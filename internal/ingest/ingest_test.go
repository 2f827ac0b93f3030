package ingest

import (
	"testing"
	"time"

	"github.com/Shawm69/fbigposter/internal/history"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/testutil"
)

func TestMatchScore(t *testing.T) {
	cases := []struct {
		name    string
		scraped string
		stored  string
		want    float64
	}{
		{"exact", "Start your morning right! Here's how.", "Start your morning right! Here's how.", 1.0},
		{"whitespace and case folded", "  START your   morning right! Here's how.", "start your morning right! here's how.", 1.0},
		{"truncated containment", "Start your morning right!", "Start your morning right! Here's how.", 0.8},
		{"empty", "", "anything", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchScore(tc.scraped, tc.stored); got != tc.want {
				t.Errorf("MatchScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchScoreUnrelatedBelowThreshold(t *testing.T) {
	got := MatchScore("Totally different topic today", "Start your morning right! Here's how.")
	if got >= minMatchScore {
		t.Errorf("unrelated captions scored %v, want < %v", got, minMatchScore)
	}
}

func TestScrapedPostPipeline(t *testing.T) {
	cases := []struct {
		snap ScrapedPost
		want models.Pipeline
	}{
		{ScrapedPost{PostType: "reel"}, models.PipelineReel},
		{ScrapedPost{PostType: "story"}, models.PipelineStory},
		{ScrapedPost{PostType: "post"}, models.PipelineImage},
		{ScrapedPost{PostType: "post", WatchTimeMs: 5000}, models.PipelineReel},
		{ScrapedPost{PostType: "story", WatchTimeMs: 5000}, models.PipelineStory},
	}
	for _, tc := range cases {
		if got := tc.snap.Pipeline(); got != tc.want {
			t.Errorf("Pipeline(%q, watch=%d) = %q, want %q", tc.snap.PostType, tc.snap.WatchTimeMs, got, tc.want)
		}
	}
}

func TestApplyMatchesAndNormalizes(t *testing.T) {
	_, store := testutil.TestWorkspace(t)
	db := testutil.TestDB(t)
	hist := history.NewStore(store, db)

	rec := testutil.Post(models.PipelineReel, 1, time.Now(), func(r *models.PostRecord) {
		r.Caption = "Start your morning right! Here's how."
		r.Metrics = models.Metrics{}
	})
	if err := hist.Append(rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	g := New(hist, db)
	res, err := g.Apply([]ScrapedPost{
		{
			Caption:     "Start your morning right! Here's how.",
			PostType:    "reel",
			Views:       1500,
			Viewers:     1000,
			Engagement:  50,
			Impressions: 2000,
			WatchTimeMs: 12_000_000,
		},
		{
			Caption:  "Completely unrelated scraped row",
			PostType: "reel",
		},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(res.Matched) != 1 || res.Matched[0].RecordID != rec.ID || res.Matched[0].Score != 1.0 {
		t.Fatalf("matched = %+v", res.Matched)
	}
	if len(res.Unmatched) != 1 {
		t.Fatalf("unmatched = %+v", res.Unmatched)
	}

	got, _ := hist.Get(rec.ID)
	if got.Metrics.HarvestCount != 1 {
		t.Errorf("harvest count = %d, want 1", got.Metrics.HarvestCount)
	}
	if !got.Metrics.Complete || got.Metrics.EngagementRate != 0.05 || got.Metrics.AvgWatchTime != 12 {
		t.Errorf("metrics not normalized: %+v", got.Metrics)
	}
}

func TestApplyConsumesRecordOnce(t *testing.T) {
	_, store := testutil.TestWorkspace(t)
	db := testutil.TestDB(t)
	hist := history.NewStore(store, db)

	rec := testutil.Post(models.PipelineImage, 1, time.Now(), func(r *models.PostRecord) {
		r.Caption = "Behind the scenes of our studio"
		r.Metrics = models.Metrics{}
	})
	_ = hist.Append(rec)

	g := New(hist, db)
	res, err := g.Apply([]ScrapedPost{
		{Caption: "Behind the scenes of our studio", PostType: "post", Viewers: 100},
		{Caption: "Behind the scenes of our studio", PostType: "post", Viewers: 200},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Matched) != 1 || len(res.Unmatched) != 1 {
		t.Errorf("matched=%d unmatched=%d, want 1/1", len(res.Matched), len(res.Unmatched))
	}
}
