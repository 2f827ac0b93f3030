package metrics

import (
	"reflect"
	"testing"

	"github.com/Shawm69/fbigposter/internal/models"
)

func TestNormalizeRates(t *testing.T) {
	m := Normalize(models.Metrics{
		Views:       1500,
		Viewers:     1000,
		Engagement:  50,
		Comments:    10,
		Impressions: 2000,
		WatchTimeMs: 12_000_000,
	})

	if m.EngagementRate != 0.05 {
		t.Errorf("EngagementRate = %v, want 0.05", m.EngagementRate)
	}
	if m.CommentRate != 0.01 {
		t.Errorf("CommentRate = %v, want 0.01", m.CommentRate)
	}
	if m.HookRate != 0.5 {
		t.Errorf("HookRate = %v, want 0.5", m.HookRate)
	}
	if m.RewatchRatio != 1.5 {
		t.Errorf("RewatchRatio = %v, want 1.5", m.RewatchRatio)
	}
	if m.AvgWatchTime != 12 {
		t.Errorf("AvgWatchTime = %v, want 12", m.AvgWatchTime)
	}
	if !m.Complete {
		t.Error("Complete not set")
	}
}

func TestNormalizeZeroImpressions(t *testing.T) {
	// Zero impressions means hook rate is explicitly 0, not NaN or a
	// carried-over stale value.
	m := Normalize(models.Metrics{Viewers: 500, Impressions: 0, HookRate: 0.9})
	if m.HookRate != 0 {
		t.Errorf("HookRate = %v, want 0", m.HookRate)
	}
}

func TestNormalizeLegacyReachFallback(t *testing.T) {
	m := Normalize(models.Metrics{
		Engagement:  30,
		Reach:       600,
		Impressions: 1200,
	})
	if m.EngagementRate != 0.05 {
		t.Errorf("EngagementRate = %v, want 0.05", m.EngagementRate)
	}
	if m.HookRate != 0.5 {
		t.Errorf("HookRate = %v, want 0.5", m.HookRate)
	}
}

func TestNormalizeZeroViewersFloor(t *testing.T) {
	m := Normalize(models.Metrics{Engagement: 7})
	if m.EngagementRate != 7 {
		t.Errorf("EngagementRate = %v, want 7 (denominator floored at 1)", m.EngagementRate)
	}
}

func TestNormalizeCompletionRateCarryover(t *testing.T) {
	// Old records stored an averaged seconds figure in completion_rate.
	m := Normalize(models.Metrics{Viewers: 100, CompletionRate: 9.5})
	if m.AvgWatchTime != 9.5 {
		t.Errorf("AvgWatchTime = %v, want 9.5", m.AvgWatchTime)
	}

	// Real watch time wins over the legacy figure.
	m = Normalize(models.Metrics{Viewers: 100, CompletionRate: 9.5, WatchTimeMs: 500_000})
	if m.AvgWatchTime != 5 {
		t.Errorf("AvgWatchTime = %v, want 5", m.AvgWatchTime)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first := Normalize(models.Metrics{
		Views:       1500,
		Viewers:     1000,
		Engagement:  50,
		Comments:    10,
		Impressions: 2000,
		WatchTimeMs: 12_000_000,
	})
	second := Normalize(first)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second normalization changed the block:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestBackfillPassthrough(t *testing.T) {
	complete := Normalize(models.Metrics{Viewers: 100, Engagement: 5})
	got := Backfill(complete)
	if !reflect.DeepEqual(complete, got) {
		t.Errorf("backfill mutated a complete block: %+v vs %+v", complete, got)
	}

	incomplete := models.Metrics{Viewers: 100, Engagement: 5}
	got = Backfill(incomplete)
	if !got.Complete || got.EngagementRate != 0.05 {
		t.Errorf("backfill did not normalize: %+v", got)
	}
}
