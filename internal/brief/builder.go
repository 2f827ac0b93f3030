// Package brief assembles the three-tier generation context for one
// pipeline: constitution constraints + human-owned identity + learned
// tactics, grounded with recent post history.
package brief

import (
	"fmt"
	"sort"
	"time"

	"github.com/Shawm69/fbigposter/internal/analyzer"
	"github.com/Shawm69/fbigposter/internal/constitution"
	"github.com/Shawm69/fbigposter/internal/history"
	"github.com/Shawm69/fbigposter/internal/index"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/soul"
	"github.com/Shawm69/fbigposter/internal/tactics"
)

const (
	recentWindow   = 10 // records loaded for context
	renderedPosts  = 5  // rendered to discourage repetition
	renderedLearns = 5  // most recent learnings shown
	topTraces      = 3  // highest-distribution generation traces
)

// RecentPost is one rendered history entry.
type RecentPost struct {
	PostedAt     time.Time `json:"posted_at"`
	Caption      string    `json:"caption"`
	Pillar       string    `json:"pillar"`
	Distribution *float64  `json:"distribution,omitempty"`
	HookStyle    string    `json:"hook_style,omitempty"`
}

// TraceHighlight is one "what worked" generation trace.
type TraceHighlight struct {
	Caption      string  `json:"caption"`
	Pillar       string  `json:"pillar"`
	Distribution float64 `json:"distribution"`
	Prompt       string  `json:"prompt"`
	HookStyle    string  `json:"hook_style,omitempty"`
}

// Rotation is the pillar-rotation recommendation: the pillar with the
// largest shortfall between its target weight and its observed share of
// the full available history.
type Rotation struct {
	Pillar        string  `json:"pillar"`
	TargetWeight  float64 `json:"target_weight"`
	ObservedShare float64 `json:"observed_share"`
	Gap           float64 `json:"gap"`
}

// Brief is the assembled generation context for one pipeline.
type Brief struct {
	Pipeline    models.Pipeline `json:"pipeline"`
	GeneratedAt time.Time       `json:"generated_at"`

	Constitution *models.ConstitutionDoc `json:"constitution"`
	Soul         *models.SoulDoc         `json:"soul"`
	Tactics      *models.TacticsDoc      `json:"tactics"`
	Learnings    []models.Learning       `json:"learnings"`

	PillarTable    []models.PillarStat `json:"pillar_table"`
	PillarWarnings []string            `json:"pillar_warnings,omitempty"`
	ProfileReadout string              `json:"profile_readout"`
	DistInsights   []string            `json:"distribution_insights,omitempty"`
	RecentPosts    []RecentPost        `json:"recent_posts"`
	WhatWorked     []TraceHighlight    `json:"what_worked,omitempty"`
	Rotation       *Rotation           `json:"rotation,omitempty"`
	CreativeGuide  string              `json:"creative_guidance,omitempty"`
}

// Builder assembles briefs from the stores.
type Builder struct {
	consts  *constitution.Store
	souls   *soul.Store
	tactics *tactics.Store
	hist    *history.Store
	idx     index.PostIndex
	now     func() time.Time
}

// NewBuilder creates a brief builder.
func NewBuilder(c *constitution.Store, s *soul.Store, t *tactics.Store, h *history.Store, idx index.PostIndex) *Builder {
	return &Builder{consts: c, souls: s, tactics: t, hist: h, idx: idx, now: time.Now}
}

// Build assembles the generation brief for one pipeline. Missing
// constitution, soul, or tactics documents are fatal: there is no strategy
// to assemble without them.
func (b *Builder) Build(p models.Pipeline) (*Brief, error) {
	consts, err := b.consts.Load()
	if err != nil {
		return nil, err
	}
	soulDoc, err := b.souls.Load()
	if err != nil {
		return nil, err
	}
	tacDoc, err := b.tactics.Load(p)
	if err != nil {
		return nil, err
	}

	recent, err := b.hist.Recent(p, recentWindow)
	if err != nil {
		return nil, err
	}
	full, err := b.hist.List(p, time.Time{})
	if err != nil {
		return nil, err
	}

	out := &Brief{
		Pipeline:     p,
		GeneratedAt:  b.now(),
		Constitution: consts,
		Soul:         soulDoc,
		Tactics:      tacDoc,
	}

	out.Learnings = lastLearnings(tacDoc.Learnings, renderedLearns)
	out.PillarTable, out.PillarWarnings = rankedPillars(p, tacDoc.Pillars)
	out.ProfileReadout = readProfile(tacDoc.Profile)
	out.DistInsights = distributionInsights(p, full)
	out.RecentPosts = renderRecent(recent)
	out.WhatWorked = topPerformingTraces(full)
	out.Rotation = b.rotation(p, soulDoc.Pillars)
	out.CreativeGuide = creativeGuidance(p, soulDoc, tacDoc)

	return out, nil
}

func lastLearnings(all []models.Learning, n int) []models.Learning {
	if len(all) > n {
		all = all[len(all)-n:]
	}
	out := make([]models.Learning, len(all))
	copy(out, all)
	return out
}

// rankedPillars sorts the tactics pillar table by the pipeline's primary
// metric and collects warnings for declining pillars.
func rankedPillars(p models.Pipeline, table []models.PillarStat) ([]models.PillarStat, []string) {
	ranked := make([]models.PillarStat, len(table))
	copy(ranked, table)
	sort.Slice(ranked, func(i, j int) bool {
		return pillarPrimary(p, ranked[i]) > pillarPrimary(p, ranked[j])
	})

	var warnings []string
	for _, row := range ranked {
		if row.Trend == models.TrendDeclining {
			warnings = append(warnings, fmt.Sprintf("pillar %q is declining; refresh its angle before reusing it", row.Name))
		}
	}
	return ranked, warnings
}

func pillarPrimary(p models.Pipeline, s models.PillarStat) float64 {
	if p == models.PipelineReel {
		return s.AvgWatchTime
	}
	return s.EngagementRate
}

// readProfile translates the primary-strength classification for the
// generation prompt.
func readProfile(e models.EngagementProfile) string {
	switch e.PrimaryStrength {
	case "conversation_driver":
		return "the audience comments heavily: ask questions and leave hooks open for replies"
	case "scroll_stopper":
		return "first impressions win here: invest in the opening frame and thumbnail"
	case "rewatch_magnet":
		return "content gets rewatched: build loops and details worth a second look"
	case "engagement_builder":
		return "steady all-around engagement: keep the current mix and iterate"
	case "":
		return "no engagement profile learned yet"
	default:
		return "balanced engagement with no single dominant strength"
	}
}

func distributionInsights(p models.Pipeline, full []models.PostRecord) []string {
	findings := analyzer.AnalyzeDistribution(p, analyzer.Filter(full))
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Insight)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func renderRecent(recent []models.PostRecord) []RecentPost {
	if len(recent) > renderedPosts {
		recent = recent[:renderedPosts]
	}
	out := make([]RecentPost, 0, len(recent))
	for _, r := range recent {
		rp := RecentPost{
			PostedAt:     r.PostedAt,
			Caption:      r.Caption,
			Pillar:       r.Pillar,
			Distribution: r.Metrics.Distribution,
		}
		if r.Trace != nil {
			rp.HookStyle = r.Trace.Tactics.HookStyle
		}
		out = append(out, rp)
	}
	return out
}

// topPerformingTraces surfaces the generation traces of the posts the
// algorithm favored most.
func topPerformingTraces(full []models.PostRecord) []TraceHighlight {
	var traced []models.PostRecord
	for _, r := range full {
		if r.Trace != nil && r.Metrics.Distribution != nil {
			traced = append(traced, r)
		}
	}
	sort.Slice(traced, func(i, j int) bool {
		return *traced[i].Metrics.Distribution > *traced[j].Metrics.Distribution
	})
	if len(traced) > topTraces {
		traced = traced[:topTraces]
	}

	out := make([]TraceHighlight, 0, len(traced))
	for _, r := range traced {
		out = append(out, TraceHighlight{
			Caption:      r.Caption,
			Pillar:       r.Pillar,
			Distribution: *r.Metrics.Distribution,
			Prompt:       r.Trace.Prompt,
			HookStyle:    r.Trace.Tactics.HookStyle,
		})
	}
	return out
}

// rotation recommends the pillar most underserved relative to its target
// weight, using the full history as the observed-share denominator.
func (b *Builder) rotation(p models.Pipeline, pillars []models.ContentPillar) *Rotation {
	if len(pillars) == 0 {
		return nil
	}
	counts, err := b.idx.PillarCounts(p)
	if err != nil {
		return nil
	}
	total := 0
	for _, n := range counts {
		total += n
	}

	var best *Rotation
	for _, pillar := range pillars {
		share := 0.0
		if total > 0 {
			share = float64(counts[pillar.Name]) / float64(total)
		}
		gap := pillar.TargetWeight - share
		if best == nil || gap > best.Gap {
			best = &Rotation{
				Pillar:        pillar.Name,
				TargetWeight:  pillar.TargetWeight,
				ObservedShare: share,
				Gap:           gap,
			}
		}
	}
	return best
}

// creativeGuidance is pipeline-specific: duration and pacing defaults for
// reels, nothing for the other pipelines.
func creativeGuidance(p models.Pipeline, soulDoc *models.SoulDoc, tacDoc *models.TacticsDoc) string {
	if p != models.PipelineReel {
		return ""
	}

	duration := tacDoc.Visual.DurationSecs
	pacing := tacDoc.Visual.Pacing
	if soulDoc.Creative != nil {
		if duration == 0 {
			duration = soulDoc.Creative.VideoDurationSecs
		}
		if pacing == "" {
			pacing = soulDoc.Creative.VideoPacing
		}
	}

	switch {
	case duration > 0 && pacing != "":
		return fmt.Sprintf("target ~%ds videos with %s pacing", duration, pacing)
	case duration > 0:
		return fmt.Sprintf("target ~%ds videos", duration)
	case pacing != "":
		return fmt.Sprintf("use %s pacing", pacing)
	default:
		return "no duration or pacing preference learned yet"
	}
}
