// Package metrics derives comparable rate metrics from raw per-post
// counters. All functions are pure and idempotent: the derived rates are a
// deterministic function of the raw fields, so recomputing an
// already-normalized block changes nothing.
package metrics

import "github.com/Shawm69/fbigposter/internal/models"

// denominator picks the unique-viewer basis for the viewer-scoped rates:
// the viewers counter, falling back to the legacy reach field, floored at 1
// to avoid division by zero.
func denominator(m models.Metrics) float64 {
	if m.Viewers > 0 {
		return float64(m.Viewers)
	}
	if m.Reach > 0 {
		return float64(m.Reach)
	}
	return 1
}

// Normalize recomputes every derived rate from the raw counters.
//
// Rates:
//   - engagement rate = engagement / viewers
//   - comment rate    = comments / viewers
//   - hook rate       = viewers / impressions (0 when impressions are 0)
//   - rewatch ratio   = views / viewers (may legitimately exceed 1.0)
//   - avg watch time  = watch-time seconds / viewers
//
// Viewer denominators fall back to legacy reach and are floored at 1.
// When watch time is absent, a legacy completion-rate figure (old records
// stored an averaged seconds value there) is carried through unchanged.
func Normalize(m models.Metrics) models.Metrics {
	denom := denominator(m)

	m.EngagementRate = float64(m.Engagement) / denom
	m.CommentRate = float64(m.Comments) / denom
	m.RewatchRatio = float64(m.Views) / denom

	if m.Impressions > 0 {
		viewers := m.Viewers
		if viewers == 0 {
			viewers = m.Reach
		}
		m.HookRate = float64(viewers) / float64(m.Impressions)
	} else {
		m.HookRate = 0
	}

	switch {
	case m.WatchTimeMs > 0:
		m.AvgWatchTime = float64(m.WatchTimeMs) / 1000 / denom
	case m.CompletionRate > 0:
		m.AvgWatchTime = m.CompletionRate
	default:
		m.AvgWatchTime = 0
	}

	m.Complete = true
	return m
}

// Backfill fills in derived rates for a record that is missing them
// (legacy records predating the rate fields, or records whose normalization
// was interrupted). Already-complete records pass through untouched, which
// is what makes repeated backfill byte-stable.
func Backfill(m models.Metrics) models.Metrics {
	if m.Complete {
		return m
	}
	return Normalize(m)
}
