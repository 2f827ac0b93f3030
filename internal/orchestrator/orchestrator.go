// Package orchestrator runs the nightly analysis → tactics-update →
// planning sequence, one isolated state machine per pipeline. A fault in
// one pipeline never touches another pipeline's documents or aborts its
// run.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Shawm69/fbigposter/internal/analyzer"
	"github.com/Shawm69/fbigposter/internal/apperr"
	"github.com/Shawm69/fbigposter/internal/brief"
	"github.com/Shawm69/fbigposter/internal/events"
	"github.com/Shawm69/fbigposter/internal/history"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/tactics"
)

// Pipeline cycle states.
const (
	StateSkipped  = "skipped"  // disabled in configuration; terminal, no error
	StateAnalyzed = "analyzed" // all analyzers ran, no qualifying update
	StateUpdated  = "updated"  // at least one qualifying finding was applied
	StateFailed   = "failed"   // isolated fault; siblings unaffected
)

// Planner receives the assembled brief after a pipeline's cycle. The
// actual content planning and publishing live outside the core.
type Planner interface {
	PlanContent(ctx context.Context, p models.Pipeline, b *brief.Brief) error
}

// PipelineResult is the outcome of one pipeline's nightly sequence.
type PipelineResult struct {
	Pipeline      models.Pipeline        `json:"pipeline"`
	State         string                 `json:"state"`
	Findings      []models.Finding       `json:"findings,omitempty"`
	Updates       []models.TacticsUpdate `json:"updates,omitempty"`
	AppliedFields []string               `json:"applied_fields,omitempty"`
	NewVersion    int                    `json:"new_version,omitempty"`
	Error         string                 `json:"error,omitempty"`
	PlanError     string                 `json:"plan_error,omitempty"`
}

// CycleResult is the outcome of one full nightly cycle.
type CycleResult struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Pipelines  []PipelineResult `json:"pipelines"`
}

// Orchestrator sequences the nightly cycle.
type Orchestrator struct {
	hist    *history.Store
	tactics *tactics.Store
	briefs  *brief.Builder
	queue   *events.Queue
	logger  *slog.Logger

	enabled    map[models.Pipeline]bool
	lookback   time.Duration
	planner    Planner
	concurrent bool
	now        func() time.Time
}

// Config carries orchestrator wiring.
type Config struct {
	Enabled      map[models.Pipeline]bool
	LookbackDays int
	Planner      Planner // optional
	Concurrent   bool    // run pipelines in parallel; isolation holds either way
}

// New creates an orchestrator.
func New(h *history.Store, t *tactics.Store, b *brief.Builder, q *events.Queue, logger *slog.Logger, cfg Config) *Orchestrator {
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 30
	}
	return &Orchestrator{
		hist:       h,
		tactics:    t,
		briefs:     b,
		queue:      q,
		logger:     logger,
		enabled:    cfg.Enabled,
		lookback:   time.Duration(lookback) * 24 * time.Hour,
		planner:    cfg.Planner,
		concurrent: cfg.Concurrent,
		now:        time.Now,
	}
}

// RunCycle executes the nightly sequence for every pipeline. Pipelines
// share no mutable state; each reads and writes only its own documents, so
// concurrent execution is an optimization, not a correctness concern.
func (o *Orchestrator) RunCycle(ctx context.Context) *CycleResult {
	res := &CycleResult{StartedAt: o.now()}
	o.queue.Publish(events.TypeCycleStarted, "", "nightly cycle started")

	results := make([]PipelineResult, len(models.AllPipelines))
	if o.concurrent {
		g, gCtx := errgroup.WithContext(ctx)
		for i, p := range models.AllPipelines {
			g.Go(func() error {
				results[i] = o.runPipeline(gCtx, p)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, p := range models.AllPipelines {
			results[i] = o.runPipeline(ctx, p)
		}
	}

	res.Pipelines = results
	res.FinishedAt = o.now()
	o.queue.Publish(events.TypeCycleFinished, "", summarize(results))
	return res
}

// runPipeline is the per-pipeline state machine. Any error or panic is
// absorbed into a Failed result for this pipeline alone.
func (o *Orchestrator) runPipeline(ctx context.Context, p models.Pipeline) (result PipelineResult) {
	result = PipelineResult{Pipeline: p}

	defer func() {
		if r := recover(); r != nil {
			result = o.fail(p, result, fmt.Errorf("panic: %v", r))
		}
	}()

	if !o.enabled[p] {
		result.State = StateSkipped
		o.logger.Info("pipeline skipped", slog.String("pipeline", string(p)))
		return result
	}

	since := o.now().Add(-o.lookback)
	posts, err := o.hist.List(p, since)
	if err != nil {
		return o.fail(p, result, fmt.Errorf("load history: %w", err))
	}

	result.Findings = analyzer.Run(p, posts)
	result.State = StateAnalyzed
	o.logger.Info("pipeline analyzed",
		slog.String("pipeline", string(p)),
		slog.Int("posts", len(posts)),
		slog.Int("findings", len(result.Findings)))

	result.Updates = QualifyUpdates(result.Findings)
	if len(result.Updates) > 0 {
		version, fields, err := o.tactics.ApplyUpdates(p, result.Updates)
		if err != nil {
			return o.fail(p, result, fmt.Errorf("apply updates: %w", err))
		}
		result.State = StateUpdated
		result.NewVersion = version
		result.AppliedFields = fields
		o.queue.Publish(events.TypeTacticsUpdated, p,
			fmt.Sprintf("tactics v%d: updated %v", version, fields))
	}

	// Hand off to content planning. A planner failure is recorded but does
	// not undo the applied tactics state.
	if o.planner != nil {
		briefDoc, err := o.briefs.Build(p)
		if err != nil {
			result.PlanError = err.Error()
			return result
		}
		if err := o.planner.PlanContent(ctx, p, briefDoc); err != nil {
			result.PlanError = err.Error()
		}
	}

	return result
}

// fail marks one pipeline's result failed. The error is tagged with the
// pipeline-fault sentinel; siblings keep running.
func (o *Orchestrator) fail(p models.Pipeline, result PipelineResult, err error) PipelineResult {
	err = fmt.Errorf("%w: %v", apperr.ErrPipelineFault, err)
	result.State = StateFailed
	result.Error = err.Error()
	o.logger.Error("pipeline cycle failed",
		slog.String("pipeline", string(p)), slog.String("error", err.Error()))
	o.queue.Publish(events.TypePipelineFailed, p, err.Error())
	return result
}

// QualifyUpdates converts findings into a tactics update batch: only
// findings with a suggested field and qualifying confidence pass, and when
// several target the same field the highest-confidence one wins.
func QualifyUpdates(findings []models.Finding) []models.TacticsUpdate {
	bestByField := make(map[string]models.Finding)
	var order []string
	for _, f := range findings {
		if !f.Qualifies() {
			continue
		}
		prev, seen := bestByField[f.Field]
		if !seen {
			order = append(order, f.Field)
		}
		if !seen || f.Confidence > prev.Confidence {
			bestByField[f.Field] = f
		}
	}

	out := make([]models.TacticsUpdate, 0, len(order))
	for _, field := range order {
		f := bestByField[field]
		out = append(out, models.TacticsUpdate{
			Field:    f.Field,
			Value:    f.Value,
			Evidence: f.Evidence,
			Insight:  f.Insight,
		})
	}
	return out
}

func summarize(results []PipelineResult) string {
	s := ""
	for i, r := range results {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%s", r.Pipeline, r.State)
	}
	return s
}
