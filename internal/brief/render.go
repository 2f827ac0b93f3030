package brief

import (
	"fmt"
	"strings"
)

// Render flattens the brief into the markdown block handed to the content
// generator.
func (b *Brief) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Generation brief — %s\n\n", b.Pipeline)

	sb.WriteString("## Hard rules (constitution)\n\n")
	for _, t := range b.Constitution.BannedTopics {
		fmt.Fprintf(&sb, "- never mention: %s\n", t)
	}
	for _, l := range b.Constitution.RedLines {
		fmt.Fprintf(&sb, "- red line: %s\n", l)
	}
	for _, r := range b.Constitution.LegalRequirements {
		fmt.Fprintf(&sb, "- legal: %s\n", r)
	}
	policy := b.Constitution.PolicyFor(b.Pipeline)
	if policy.DailyPostCap > 0 {
		fmt.Fprintf(&sb, "- at most %d posts per day on this pipeline\n", policy.DailyPostCap)
	}
	for _, d := range policy.RequiredDisclosures {
		fmt.Fprintf(&sb, "- caption must include: %s\n", d)
	}
	for _, h := range policy.ForbiddenHashtags {
		fmt.Fprintf(&sb, "- never use hashtag: %s\n", h)
	}

	sb.WriteString("\n## Brand identity\n\n")
	fmt.Fprintf(&sb, "Voice: %s\n\nAudience: %s\n", b.Soul.Voice, b.Soul.Audience)
	if b.Soul.VisualIdentity != "" {
		fmt.Fprintf(&sb, "\nVisual identity: %s\n", b.Soul.VisualIdentity)
	}
	if len(b.Soul.Pillars) > 0 {
		sb.WriteString("\nContent pillars:\n")
		for _, pillar := range b.Soul.Pillars {
			fmt.Fprintf(&sb, "- %s (target %.0f%%): %s\n", pillar.Name, pillar.TargetWeight*100, pillar.Description)
		}
	}

	sb.WriteString("\n## Current strategy (learned)\n\n")
	t := b.Tactics
	fmt.Fprintf(&sb, "Tactics v%d.\n", t.Version)
	if len(t.Posting.BestSlots) > 0 {
		fmt.Fprintf(&sb, "- best posting hours: %v (confidence %.2f)\n", t.Posting.BestSlots, t.Posting.Confidence)
	}
	if t.Visual.Style != "" {
		fmt.Fprintf(&sb, "- visual style: %s\n", t.Visual.Style)
	}
	if t.Visual.HookStyle != "" {
		fmt.Fprintf(&sb, "- hook style: %s\n", t.Visual.HookStyle)
	}
	if len(t.Visual.PromptKeywords) > 0 {
		fmt.Fprintf(&sb, "- proven prompt keywords: %s\n", strings.Join(t.Visual.PromptKeywords, ", "))
	}
	if t.Caption.LengthPreference != "" {
		fmt.Fprintf(&sb, "- caption length: %s\n", t.Caption.LengthPreference)
	}
	if t.Caption.Tone != "" {
		fmt.Fprintf(&sb, "- caption tone: %s\n", t.Caption.Tone)
	}
	if t.Hashtags.OptimalCount > 0 {
		fmt.Fprintf(&sb, "- hashtag count: ~%d\n", t.Hashtags.OptimalCount)
	}
	if len(t.Hashtags.ProvenTags) > 0 {
		fmt.Fprintf(&sb, "- proven hashtags: %s\n", strings.Join(t.Hashtags.ProvenTags, ", "))
	}

	if len(b.Learnings) > 0 {
		sb.WriteString("\nRecent learnings:\n")
		for _, l := range b.Learnings {
			fmt.Fprintf(&sb, "- %s (%s)\n", l.Insight, l.Evidence)
		}
	}

	if len(b.PillarTable) > 0 {
		sb.WriteString("\n## Pillar performance\n\n")
		for _, row := range b.PillarTable {
			fmt.Fprintf(&sb, "- %s: %d posts, engagement %.4f, trend %s\n", row.Name, row.PostCount, row.EngagementRate, row.Trend)
		}
		for _, w := range b.PillarWarnings {
			fmt.Fprintf(&sb, "- WARNING: %s\n", w)
		}
	}

	fmt.Fprintf(&sb, "\n## Engagement profile\n\n%s\n", b.ProfileReadout)

	if len(b.DistInsights) > 0 {
		sb.WriteString("\n## Algorithm signals\n\n")
		for _, ins := range b.DistInsights {
			fmt.Fprintf(&sb, "- %s\n", ins)
		}
	}

	if len(b.RecentPosts) > 0 {
		sb.WriteString("\n## Recent posts (avoid repeating)\n\n")
		for _, rp := range b.RecentPosts {
			line := fmt.Sprintf("- [%s] %s", rp.Pillar, rp.Caption)
			if rp.Distribution != nil {
				line += fmt.Sprintf(" (distribution %+.1fx", *rp.Distribution)
				if rp.HookStyle != "" {
					line += ", hook: " + rp.HookStyle
				}
				line += ")"
			} else if rp.HookStyle != "" {
				line += fmt.Sprintf(" (hook: %s)", rp.HookStyle)
			}
			sb.WriteString(line + "\n")
		}
	}

	if len(b.WhatWorked) > 0 {
		sb.WriteString("\n## What worked\n\n")
		for _, w := range b.WhatWorked {
			fmt.Fprintf(&sb, "- %+.1fx [%s] prompt: %s\n", w.Distribution, w.Pillar, w.Prompt)
		}
	}

	if b.Rotation != nil {
		fmt.Fprintf(&sb, "\n## Pillar rotation\n\nLean into %q next: target share %.0f%%, observed %.0f%%.\n",
			b.Rotation.Pillar, b.Rotation.TargetWeight*100, b.Rotation.ObservedShare*100)
	}

	if b.CreativeGuide != "" {
		fmt.Fprintf(&sb, "\n## Creative guidance\n\n%s\n", b.CreativeGuide)
	}

	return sb.String()
}
