// Package service is the tool-operation façade: one implementation of the
// exposed operations, shared by the HTTP and MCP surfaces.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shawm69/fbigposter/internal/analyzer"
	"github.com/Shawm69/fbigposter/internal/apperr"
	"github.com/Shawm69/fbigposter/internal/brief"
	"github.com/Shawm69/fbigposter/internal/constitution"
	"github.com/Shawm69/fbigposter/internal/events"
	"github.com/Shawm69/fbigposter/internal/history"
	"github.com/Shawm69/fbigposter/internal/ingest"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/orchestrator"
	"github.com/Shawm69/fbigposter/internal/soul"
	"github.com/Shawm69/fbigposter/internal/tactics"
)

// DefaultLookbackDays bounds analysis when the caller does not say
// otherwise.
const DefaultLookbackDays = 30

// Service coordinates the stores and the learning loop.
type Service struct {
	hist     *history.Store
	tactics  *tactics.Store
	consts   *constitution.Store
	souls    *soul.Store
	ingester *ingest.Ingester
	briefs   *brief.Builder
	orch     *orchestrator.Orchestrator
	queue    *events.Queue
	now      func() time.Time
}

// New creates the service façade.
func New(h *history.Store, t *tactics.Store, c *constitution.Store, s *soul.Store,
	g *ingest.Ingester, b *brief.Builder, o *orchestrator.Orchestrator, q *events.Queue) *Service {
	return &Service{
		hist: h, tactics: t, consts: c, souls: s,
		ingester: g, briefs: b, orch: o, queue: q,
		now: time.Now,
	}
}

// AnalysisResult is the outcome of one on-demand analysis run.
type AnalysisResult struct {
	Pipeline        models.Pipeline        `json:"pipeline"`
	LookbackDays    int                    `json:"lookback_days"`
	PostsAnalyzed   int                    `json:"posts_analyzed"`
	Findings        []models.Finding       `json:"findings"`
	ProposedUpdates []models.TacticsUpdate `json:"proposed_updates"`
}

// RunAnalysis runs every analyzer for a pipeline over a lookback window
// and returns the findings plus the updates that would qualify.
func (s *Service) RunAnalysis(_ context.Context, p models.Pipeline, lookbackDays int) (*AnalysisResult, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("service: %w: unknown pipeline %q", apperr.ErrValidation, p)
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	since := s.now().AddDate(0, 0, -lookbackDays)
	posts, err := s.hist.List(p, since)
	if err != nil {
		return nil, err
	}

	findings := analyzer.Run(p, posts)
	res := &AnalysisResult{
		Pipeline:        p,
		LookbackDays:    lookbackDays,
		PostsAnalyzed:   len(analyzer.Filter(posts)),
		Findings:        findings,
		ProposedUpdates: orchestrator.QualifyUpdates(findings),
	}
	if res.Findings == nil {
		res.Findings = []models.Finding{}
	}
	if res.ProposedUpdates == nil {
		res.ProposedUpdates = []models.TacticsUpdate{}
	}
	return res, nil
}

// UpdateResult reports an applied tactics batch.
type UpdateResult struct {
	Pipeline models.Pipeline `json:"pipeline"`
	Version  int             `json:"version"`
	Fields   []string        `json:"fields"`
}

// ApplyTacticsUpdates applies an explicit evidence-backed update batch.
func (s *Service) ApplyTacticsUpdates(_ context.Context, p models.Pipeline, updates []models.TacticsUpdate) (*UpdateResult, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("service: %w: unknown pipeline %q", apperr.ErrValidation, p)
	}
	version, fields, err := s.tactics.ApplyUpdates(p, updates)
	if err != nil {
		return nil, err
	}
	s.queue.Publish(events.TypeTacticsUpdated, p, fmt.Sprintf("tactics v%d: updated %v", version, fields))
	return &UpdateResult{Pipeline: p, Version: version, Fields: fields}, nil
}

// GetTactics returns one pipeline's tactics document.
func (s *Service) GetTactics(_ context.Context, p models.Pipeline) (*models.TacticsDoc, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("service: %w: unknown pipeline %q", apperr.ErrValidation, p)
	}
	return s.tactics.Load(p)
}

// BuildContext assembles the generation brief for a pipeline.
func (s *Service) BuildContext(_ context.Context, p models.Pipeline) (*brief.Brief, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("service: %w: unknown pipeline %q", apperr.ErrValidation, p)
	}
	return s.briefs.Build(p)
}

// IngestMetrics matches scraped snapshots to history and applies them.
func (s *Service) IngestMetrics(_ context.Context, snapshots []ingest.ScrapedPost) (*ingest.Result, error) {
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("service: %w: no snapshots", apperr.ErrValidation)
	}
	res, err := s.ingester.Apply(snapshots)
	if err != nil {
		return nil, err
	}
	s.queue.Publish(events.TypeIngestApplied, "",
		fmt.Sprintf("ingested %d snapshots: %d matched, %d unmatched", len(snapshots), len(res.Matched), len(res.Unmatched)))
	return res, nil
}

// RecordPostRequest creates a history record at publish time.
type RecordPostRequest struct {
	Pipeline   models.Pipeline         `json:"pipeline"`
	Platform   string                  `json:"platform"`
	PlatformID string                  `json:"platform_id,omitempty"`
	Caption    string                  `json:"caption"`
	Hashtags   []string                `json:"hashtags,omitempty"`
	MediaRef   string                  `json:"media_ref,omitempty"`
	Pillar     string                  `json:"pillar,omitempty"`
	Trace      *models.GenerationTrace `json:"trace,omitempty"`
}

// RecordPost appends a new post record stamped with the identity and
// tactics versions in effect right now. Metrics start empty and are filled
// by later ingestion.
func (s *Service) RecordPost(_ context.Context, req RecordPostRequest) (*models.PostRecord, error) {
	if !req.Pipeline.Valid() {
		return nil, fmt.Errorf("service: %w: unknown pipeline %q", apperr.ErrValidation, req.Pipeline)
	}
	if req.Caption == "" {
		return nil, fmt.Errorf("service: %w: caption is required", apperr.ErrValidation)
	}

	soulDoc, err := s.souls.Load()
	if err != nil {
		return nil, err
	}
	tacDoc, err := s.tactics.Load(req.Pipeline)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := models.PostRecord{
		ID:             uuid.NewString(),
		Platform:       req.Platform,
		PlatformID:     req.PlatformID,
		Pipeline:       req.Pipeline,
		CreatedAt:      now,
		PostedAt:       now,
		Caption:        req.Caption,
		Hashtags:       req.Hashtags,
		MediaRef:       req.MediaRef,
		Pillar:         req.Pillar,
		SoulVersion:    soulDoc.Version,
		TacticsVersion: tacDoc.Version,
		Trace:          req.Trace,
	}
	if err := s.hist.Append(rec); err != nil {
		return nil, err
	}
	s.queue.Publish(events.TypePostRecorded, req.Pipeline, fmt.Sprintf("recorded post %s", rec.ID))
	return &rec, nil
}

// ListPosts returns the most recent posts for a pipeline.
func (s *Service) ListPosts(_ context.Context, p models.Pipeline, limit int) ([]models.PostRecord, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("service: %w: unknown pipeline %q", apperr.ErrValidation, p)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.hist.Recent(p, limit)
}

// CheckConstitution validates candidate content against the rules
// document. An empty violation list means the content may be published.
func (s *Service) CheckConstitution(_ context.Context, p models.Pipeline, caption string, hashtags []string) ([]constitution.Violation, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("service: %w: unknown pipeline %q", apperr.ErrValidation, p)
	}
	v, err := s.consts.Check(p, caption, hashtags)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = []constitution.Violation{}
	}
	return v, nil
}

// GetConstitution returns the rules document.
func (s *Service) GetConstitution(_ context.Context) (*models.ConstitutionDoc, error) {
	return s.consts.Load()
}

// ReplaceConstitution is the operator-only write path for the rules
// document.
func (s *Service) ReplaceConstitution(_ context.Context, doc *models.ConstitutionDoc) error {
	if err := s.consts.OperatorReplace(doc); err != nil {
		return err
	}
	s.queue.Publish(events.TypeDocChanged, "", "constitution replaced by operator")
	return nil
}

// GetSoul returns the identity document.
func (s *Service) GetSoul(_ context.Context) (*models.SoulDoc, error) {
	return s.souls.Load()
}

// ProposeIdentityChange records a pending identity proposal; nothing is
// applied until an operator resolves it.
func (s *Service) ProposeIdentityChange(_ context.Context, field, value, reason, evidence string, postIDs []string) (*models.SoulProposal, error) {
	prop, err := s.souls.Propose(field, value, reason, evidence, postIDs)
	if err != nil {
		return nil, err
	}
	s.queue.Publish(events.TypeProposalRaised, "", fmt.Sprintf("identity proposal %s: %s", prop.ID, field))
	return prop, nil
}

// ListProposals returns identity proposals, optionally filtered by status.
func (s *Service) ListProposals(_ context.Context, status string) ([]models.SoulProposal, error) {
	props, err := s.souls.ListProposals(status)
	if err != nil {
		return nil, err
	}
	if props == nil {
		props = []models.SoulProposal{}
	}
	return props, nil
}

// ResolveProposal approves or rejects a pending proposal (operator only).
func (s *Service) ResolveProposal(_ context.Context, id string, approve bool) (*models.SoulProposal, error) {
	return s.souls.Resolve(id, approve)
}

// RunCycle executes the full nightly cycle immediately.
func (s *Service) RunCycle(ctx context.Context) *orchestrator.CycleResult {
	return s.orch.RunCycle(ctx)
}

// DrainEvents returns pending events and marks them consumed.
func (s *Service) DrainEvents(_ context.Context) []events.Event {
	return s.queue.Consume()
}
