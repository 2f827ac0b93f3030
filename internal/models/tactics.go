package models

import "time"

// Trend classifications for pillar performance.
const (
	TrendRising    = "rising"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// MaxLearnings caps the rolling learnings list on a tactics document.
const MaxLearnings = 20

// PostingStrategy is the learned posting-time recommendation.
type PostingStrategy struct {
	BestSlots  []int   `json:"best_slots"` // hours of day, best first
	Confidence float64 `json:"confidence"`
}

// VisualStrategy holds learned visual-style fields.
type VisualStrategy struct {
	Style          string   `json:"style,omitempty"`
	HookStyle      string   `json:"hook_style,omitempty"`
	Pacing         string   `json:"pacing,omitempty"`
	DurationSecs   int      `json:"duration_secs,omitempty"` // reels only
	PromptKeywords []string `json:"prompt_keywords,omitempty"`
}

// CaptionStrategy holds learned caption-pattern fields.
type CaptionStrategy struct {
	LengthPreference string `json:"length_preference,omitempty"` // "short" or "long"
	Tone             string `json:"tone,omitempty"`
	OpeningStyle     string `json:"opening_style,omitempty"`
	CTA              string `json:"cta,omitempty"`
}

// HashtagStrategy holds learned hashtag fields.
type HashtagStrategy struct {
	OptimalCount int      `json:"optimal_count,omitempty"`
	ProvenTags   []string `json:"proven_tags,omitempty"`
	AvoidTags    []string `json:"avoid_tags,omitempty"`
}

// PillarStat is one row of the content-pillar performance table.
type PillarStat struct {
	Name           string  `json:"name"`
	PostCount      int     `json:"post_count"`
	EngagementRate float64 `json:"engagement_rate"`
	CommentRate    float64 `json:"comment_rate"`
	HookRate       float64 `json:"hook_rate"`
	RewatchRatio   float64 `json:"rewatch_ratio"`
	AvgWatchTime   float64 `json:"avg_watch_time"`
	Trend          string  `json:"trend"` // rising / stable / declining
}

// EngagementProfile is the account-wide strength classification plus the
// averages supporting it.
type EngagementProfile struct {
	PrimaryStrength string  `json:"primary_strength,omitempty"`
	AvgEngagement   float64 `json:"avg_engagement_rate"`
	AvgComment      float64 `json:"avg_comment_rate"`
	AvgHook         float64 `json:"avg_hook_rate"`
	AvgRewatch      float64 `json:"avg_rewatch_ratio"`
	AvgWatchTime    float64 `json:"avg_watch_time"`
}

// Learning is one entry in the capped rolling learnings log. Every applied
// tactics field change appends exactly one.
type Learning struct {
	Date     time.Time `json:"date"`
	Insight  string    `json:"insight"`
	Evidence string    `json:"evidence"`
	Field    string    `json:"field"` // dot-path the learning updated
}

// TacticsDoc is the versioned, evidence-backed strategy document for one
// pipeline. Version increments by exactly 1 per applied update batch.
type TacticsDoc struct {
	Pipeline  Pipeline  `json:"pipeline"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`

	Posting  PostingStrategy   `json:"posting"`
	Visual   VisualStrategy    `json:"visual"`
	Caption  CaptionStrategy   `json:"caption"`
	Hashtags HashtagStrategy   `json:"hashtags"`
	Pillars  []PillarStat      `json:"pillars,omitempty"`
	Profile  EngagementProfile `json:"profile"`

	Learnings []Learning `json:"learnings,omitempty"`
}

// TacticsUpdate is one evidence-backed field mutation. A batch is rejected
// in full if any entry lacks a field, a value, or evidence.
type TacticsUpdate struct {
	Field    string `json:"field"` // dot-path from the closed setter set
	Value    any    `json:"value"`
	Evidence string `json:"evidence"`
	Insight  string `json:"insight,omitempty"` // optional free text for the learnings entry
}
