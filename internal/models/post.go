// Package models holds the persisted document and record types shared
// across stores, analyzers, and the tool surfaces.
package models

import "time"

// Pipeline identifies one of the three independent content pipelines.
type Pipeline string

// The fixed pipeline set. Each pipeline owns its own tactics document and
// never shares learned state with the others.
const (
	PipelineReel  Pipeline = "reel"  // short video
	PipelineImage Pipeline = "image" // static image
	PipelineStory Pipeline = "story" // ephemeral
)

// AllPipelines lists every pipeline in canonical processing order.
var AllPipelines = []Pipeline{PipelineReel, PipelineImage, PipelineStory}

// Valid reports whether p is one of the known pipelines.
func (p Pipeline) Valid() bool {
	switch p {
	case PipelineReel, PipelineImage, PipelineStory:
		return true
	}
	return false
}

// PillarUncategorized is the pillar assigned to posts created without one.
const PillarUncategorized = "uncategorized"

// Metrics holds raw per-post counters and the rates derived from them.
// Raw counters come from the scraped dashboard; derived rates are computed
// by the metrics normalizer and are never silently recomputed from a
// different raw basis outside the explicit backfill path.
type Metrics struct {
	Views        int      `json:"views"`
	Viewers      int      `json:"viewers"` // unique reach
	Engagement   int      `json:"engagement"`
	Comments     int      `json:"comments"`
	NetFollows   int      `json:"net_follows"`
	Impressions  int      `json:"impressions"`
	Distribution *float64 `json:"distribution,omitempty"` // algorithmic favorability multiplier, nullable
	WatchTimeMs  int64    `json:"watch_time_ms"`

	// Legacy raw fields carried by old records.
	Reach          int     `json:"reach,omitempty"`           // pre-viewers unique reach
	CompletionRate float64 `json:"completion_rate,omitempty"` // pre-watch-time average seconds figure

	EngagementRate float64 `json:"engagement_rate"`
	CommentRate    float64 `json:"comment_rate"`
	HookRate       float64 `json:"hook_rate"`     // viewers / impressions
	RewatchRatio   float64 `json:"rewatch_ratio"` // views / viewers, may exceed 1.0
	AvgWatchTime   float64 `json:"avg_watch_time"` // seconds per viewer

	HarvestCount int  `json:"harvest_count"` // times metrics were ingested for this record
	Complete     bool `json:"complete"`      // derived rates have been computed
}

// HasViewerData reports whether any unique-viewer signal exists. Records
// with a zero harvest count and no viewer data are excluded from analysis.
func (m Metrics) HasViewerData() bool {
	return m.Viewers > 0 || m.Reach > 0
}

// TacticsSnapshot captures the strategy fields used to craft one piece of
// content, retained inside the generation trace for later correlation.
type TacticsSnapshot struct {
	VisualStyle   string `json:"visual_style,omitempty"`
	HookStyle     string `json:"hook_style,omitempty"`
	Pacing        string `json:"pacing,omitempty"`
	CaptionTone   string `json:"caption_tone,omitempty"`
	OpeningStyle  string `json:"opening_style,omitempty"`
	TacticsNotes  string `json:"tactics_notes,omitempty"`
}

// GenerationTrace is the snapshot of the prompt and strategy state used to
// create one post. Optional; older records do not carry it.
type GenerationTrace struct {
	Prompt            string          `json:"prompt"`
	Tactics           TacticsSnapshot `json:"tactics"`
	RecommendedPillar string          `json:"recommended_pillar,omitempty"`
	TopPillar         string          `json:"top_pillar,omitempty"`
}

// PostRecord is one entry in the append-only post history log: one content
// item on one destination platform. Created at publish time with empty
// metrics, mutated in place as metrics are ingested, never deleted.
type PostRecord struct {
	ID             string    `json:"id"`
	Platform       string    `json:"platform"`
	PlatformID     string    `json:"platform_id,omitempty"` // platform-assigned post id
	Pipeline       Pipeline  `json:"pipeline"`
	CreatedAt      time.Time `json:"created_at"`
	PostedAt       time.Time `json:"posted_at"`
	Caption        string    `json:"caption"`
	Hashtags       []string  `json:"hashtags,omitempty"`
	MediaRef       string    `json:"media_ref,omitempty"`
	Pillar         string    `json:"pillar"`
	SoulVersion    int       `json:"soul_version"`
	TacticsVersion int       `json:"tactics_version"`

	Trace *GenerationTrace `json:"trace,omitempty"`

	Metrics Metrics `json:"metrics"`
}

// Analyzable reports whether the record carries enough signal to enter any
// analyzer sample.
func (r PostRecord) Analyzable() bool {
	return r.Metrics.HarvestCount > 0 || r.Metrics.HasViewerData()
}
