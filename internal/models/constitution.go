package models

// ContentPolicy holds per-pipeline publishing constraints.
type ContentPolicy struct {
	DailyPostCap        int      `json:"daily_post_cap"`
	RequiredDisclosures []string `json:"required_disclosures,omitempty"`
	ForbiddenHashtags   []string `json:"forbidden_hashtags,omitempty"`
}

// ConstitutionDoc is the rules document. It is read-only to every automated
// component; only the operator write path may replace it.
type ConstitutionDoc struct {
	Version           int                        `json:"version"`
	BannedTopics      []string                   `json:"banned_topics,omitempty"`
	LegalRequirements []string                   `json:"legal_requirements,omitempty"`
	RedLines          []string                   `json:"red_lines,omitempty"`
	AIMediaRules      []string                   `json:"ai_media_rules,omitempty"`
	Policies          map[Pipeline]ContentPolicy `json:"policies"`
}

// PolicyFor returns the content policy for a pipeline, zero-valued when the
// document does not define one.
func (c ConstitutionDoc) PolicyFor(p Pipeline) ContentPolicy {
	return c.Policies[p]
}
