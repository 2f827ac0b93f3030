package mcpserver

import (
	"strings"

	"github.com/Shawm69/fbigposter/internal/tactics"
)

// UpdateContract describes the closed set of tactics fields that an
// evidence-backed update batch may touch, for LLM consumers driving the
// apply_tactics_updates tool.
func UpdateContract() string {
	var sb strings.Builder
	sb.WriteString(`# Tactics Update Contract

Every update in an apply_tactics_updates batch MUST carry:

- field: one of the dotted paths below (anything else is rejected)
- value: typed as listed for the field
- evidence: a non-empty sample-size statement (e.g. "12 posts over 30 days")
- insight: optional human-readable summary, kept in the learnings journal

The whole batch is validated before anything is applied. One invalid
update rejects the batch and the document version does not change.

## Mutable fields

` + "```" + `
posting.best_slots        []int    posting hours, best first
posting.confidence        float    0..1
visual.style              string
visual.hook_style         string
visual.pacing             string
visual.duration_secs      int      seconds
visual.prompt_keywords    []string
caption.length_preference string   short | medium | long
caption.tone              string
caption.opening_style     string
caption.cta               string
hashtags.optimal_count    int
hashtags.proven_tags      []string
hashtags.avoid_tags       []string
pillars                   pillar performance table
profile                   engagement profile
` + "```" + `

## Current field list (authoritative)

`)
	for _, f := range tactics.MutableFields() {
		sb.WriteString("- " + f + "\n")
	}
	return sb.String()
}
