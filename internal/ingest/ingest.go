// Package ingest matches scraped metric snapshots to post history records
// by fuzzy caption matching and applies the matched counters.
package ingest

import (
	"fmt"
	"strings"

	"github.com/Shawm69/fbigposter/internal/history"
	"github.com/Shawm69/fbigposter/internal/index"
	"github.com/Shawm69/fbigposter/internal/metrics"
	"github.com/Shawm69/fbigposter/internal/models"
)

// minMatchScore is the acceptance threshold for a caption match.
const minMatchScore = 0.5

// ScrapedPost is one metric snapshot from the dashboard scraper. PostType
// uses the scraper's vocabulary: "reel", "story", or "post" (static image).
type ScrapedPost struct {
	Caption      string   `json:"caption"`
	PostType     string   `json:"post_type"`
	PublishedAt  string   `json:"published_at,omitempty"` // raw dashboard string
	Views        int      `json:"views"`
	Viewers      int      `json:"viewers"`
	Engagement   int      `json:"engagement"`
	NetFollows   int      `json:"net_follows"`
	Impressions  int      `json:"impressions"`
	Comments     int      `json:"comments"`
	Distribution *float64 `json:"distribution"`
	WatchTimeMs  int64    `json:"watch_time_ms"`
}

// Pipeline maps the scraper's post type onto a pipeline. Snapshots with
// watch time and a non-story type are reels regardless of label.
func (s ScrapedPost) Pipeline() models.Pipeline {
	switch s.PostType {
	case "reel":
		return models.PipelineReel
	case "story":
		return models.PipelineStory
	default:
		if s.WatchTimeMs > 0 {
			return models.PipelineReel
		}
		return models.PipelineImage
	}
}

// Match is one accepted snapshot-to-record pairing.
type Match struct {
	RecordID string  `json:"record_id"`
	Caption  string  `json:"caption"`
	Score    float64 `json:"score"`
}

// Result reports the outcome of one ingestion call. Unmatched entries are
// reported back, never silently dropped.
type Result struct {
	Matched   []Match       `json:"matched"`
	Unmatched []ScrapedPost `json:"unmatched"`
}

// Ingester applies scraped snapshots to the post history.
type Ingester struct {
	hist *history.Store
	idx  index.PostIndex
}

// New creates an Ingester.
func New(hist *history.Store, idx index.PostIndex) *Ingester {
	return &Ingester{hist: hist, idx: idx}
}

// Apply matches each snapshot against the pipeline's history and updates
// the matched records' metrics. A history record is consumed by at most one
// snapshot per call; the highest-scoring unconsumed record wins.
func (g *Ingester) Apply(snapshots []ScrapedPost) (*Result, error) {
	res := &Result{Matched: []Match{}, Unmatched: []ScrapedPost{}}
	consumed := make(map[string]struct{})
	candidates := make(map[models.Pipeline][]index.PostRow)

	for _, snap := range snapshots {
		p := snap.Pipeline()
		rows, ok := candidates[p]
		if !ok {
			var err error
			rows, err = g.idx.Captions(p)
			if err != nil {
				return nil, fmt.Errorf("ingest: load candidates: %w", err)
			}
			candidates[p] = rows
		}

		bestID, bestScore := "", 0.0
		for _, row := range rows {
			if _, used := consumed[row.ID]; used {
				continue
			}
			if sc := MatchScore(snap.Caption, row.Caption); sc > bestScore {
				bestID, bestScore = row.ID, sc
			}
		}

		if bestID == "" || bestScore < minMatchScore {
			res.Unmatched = append(res.Unmatched, snap)
			continue
		}

		consumed[bestID] = struct{}{}
		if _, err := g.hist.UpdateMetrics(bestID, func(m *models.Metrics) {
			m.Views = snap.Views
			m.Viewers = snap.Viewers
			m.Engagement = snap.Engagement
			m.NetFollows = snap.NetFollows
			m.Impressions = snap.Impressions
			m.Comments = snap.Comments
			if snap.Distribution != nil {
				m.Distribution = snap.Distribution
			}
			m.WatchTimeMs = snap.WatchTimeMs
			m.HarvestCount++
			*m = metrics.Normalize(*m)
		}); err != nil {
			return nil, fmt.Errorf("ingest: update %s: %w", bestID, err)
		}
		res.Matched = append(res.Matched, Match{RecordID: bestID, Caption: snap.Caption, Score: bestScore})
	}

	return res, nil
}

// MatchScore scores a scraped caption against a stored one: exact match
// 1.0, substring containment 0.8 (dashboards truncate long captions),
// otherwise the shared-prefix length normalized by the longer caption.
func MatchScore(scraped, stored string) float64 {
	a := normalize(scraped)
	b := normalize(stored)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	shared := 0
	for shared < n && a[shared] == b[shared] {
		shared++
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	return float64(shared) / float64(longer)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
