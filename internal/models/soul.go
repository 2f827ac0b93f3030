package models

import "time"

// ContentPillar is one brand content pillar with its planning weight.
// Weights are a planning target and are not required to sum to 1.
type ContentPillar struct {
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	TargetWeight float64 `json:"target_weight"`
}

// PlatformTweak is a per-platform creative adjustment.
type PlatformTweak struct {
	Platform string `json:"platform"`
	Note     string `json:"note"`
}

// CreativeDirection is the optional hands-on creative guidance block.
type CreativeDirection struct {
	ExamplePrompts    []string          `json:"example_prompts,omitempty"`
	ExampleCaptions   []string          `json:"example_captions,omitempty"`
	PillarThemes      map[string]string `json:"pillar_themes,omitempty"`
	NegativeGuidance  []string          `json:"negative_guidance,omitempty"`
	VideoDurationSecs int               `json:"video_duration_secs,omitempty"`
	VideoPacing       string            `json:"video_pacing,omitempty"`
	PlatformTweaks    []PlatformTweak   `json:"platform_tweaks,omitempty"`
}

// SoulChange is one entry of the identity change log. Every applied
// mutation appends exactly one.
type SoulChange struct {
	Date     time.Time `json:"date"`
	Field    string    `json:"field"`
	OldValue string    `json:"old_value"`
	NewValue string    `json:"new_value"`
	Reason   string    `json:"reason"`
}

// SoulDoc is the versioned brand-identity document. Mutable only through
// the human-approved proposal flow or a direct operator edit.
type SoulDoc struct {
	Version    int       `json:"version"`
	ModifiedAt time.Time `json:"modified_at"`

	Voice          string             `json:"voice"`
	Audience       string             `json:"audience"`
	Pillars        []ContentPillar    `json:"pillars,omitempty"`
	VisualIdentity string             `json:"visual_identity,omitempty"`
	Creative       *CreativeDirection `json:"creative,omitempty"`

	ChangeLog []SoulChange `json:"change_log,omitempty"`
}

// Proposal statuses.
const (
	ProposalPending  = "pending"
	ProposalApproved = "approved"
	ProposalRejected = "rejected"
)

// SoulProposal is an autonomously raised identity-change suggestion. It is
// never applied without explicit operator resolution.
type SoulProposal struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Field      string    `json:"field"`
	Value      string    `json:"value"`
	Reason     string    `json:"reason"`
	Evidence   string    `json:"evidence"`
	PostIDs    []string  `json:"post_ids,omitempty"` // supporting history records
	Status     string    `json:"status"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}
