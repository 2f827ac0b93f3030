// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Shawm69/fbigposter/internal/api"
	"github.com/Shawm69/fbigposter/internal/brief"
	"github.com/Shawm69/fbigposter/internal/constitution"
	"github.com/Shawm69/fbigposter/internal/events"
	"github.com/Shawm69/fbigposter/internal/history"
	"github.com/Shawm69/fbigposter/internal/index"
	"github.com/Shawm69/fbigposter/internal/ingest"
	"github.com/Shawm69/fbigposter/internal/mcpserver"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/orchestrator"
	"github.com/Shawm69/fbigposter/internal/scheduler"
	"github.com/Shawm69/fbigposter/internal/service"
	"github.com/Shawm69/fbigposter/internal/soul"
	"github.com/Shawm69/fbigposter/internal/storage"
	"github.com/Shawm69/fbigposter/internal/tactics"
)

// app holds the wired components shared by every run mode.
type app struct {
	cfg    *Config
	logger *slog.Logger
	store  storage.Provider
	db     *index.DB
	queue  *events.Queue
	svc    *service.Service
	orch   *orchestrator.Orchestrator
}

// build wires storage, index, stores, and the service façade.
func build(cfg *Config, logger *slog.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.Workspace.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Workspace.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	queue := events.NewQueue(store, logger, events.DefaultCapacity)

	hist := history.NewStore(store, db)
	tacs := tactics.NewStore(store)
	consts := constitution.NewStore(store, db, loc)
	souls := soul.NewStore(store)
	ingester := ingest.New(hist, db)
	briefs := brief.NewBuilder(consts, souls, tacs, hist, db)

	orch := orchestrator.New(hist, tacs, briefs, queue, logger, orchestrator.Config{
		Enabled:      cfg.Pipelines.Enabled,
		LookbackDays: cfg.Pipelines.LookbackDays,
		Concurrent:   cfg.Pipelines.Concurrent,
	})

	svc := service.New(hist, tacs, consts, souls, ingester, briefs, orch, queue)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		db:     db,
		queue:  queue,
		svc:    svc,
		orch:   orch,
	}, nil
}

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the HTTP server, the workspace watcher, and the nightly
// scheduler with the given options.
func Run(ctx context.Context, opts ...Option) error {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := a.config

	logger := newLogger(cfg)
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workspace_path", cfg.Workspace.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("schedule", cfg.Schedule.TimeOfDay+" "+cfg.Schedule.Timezone),
		slog.String("log_level", cfg.App.LogLevel.String()))

	wired, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer wired.db.Close()

	sched, err := scheduler.New(cfg.Schedule.TimeOfDay, cfg.Schedule.Timezone)
	if err != nil {
		return err
	}

	apiRouter := api.NewRouter(wired.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, cfg.Auth.OperatorToken)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Workspace watcher: operator document edits and external post-log
	// rewrites.
	g.Go(func() error {
		return index.Watch(gCtx, wired.db, wired.store, cfg.Workspace.Path, logger, func(name string) {
			wired.queue.Publish(events.TypeDocChanged, "", fmt.Sprintf("%s changed on disk", name))
		})
	})

	// Nightly cycle scheduler.
	g.Go(func() error {
		sched.Run(gCtx, scheduler.RealClock(), logger, func(cycleCtx context.Context) {
			res := wired.orch.RunCycle(cycleCtx)
			logger.Info("nightly cycle finished",
				slog.Time("started_at", res.StartedAt),
				slog.Time("finished_at", res.FinishedAt))
		})
		return nil
	})

	// HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the tool operations over MCP stdio instead of HTTP.
func RunMCP(_ context.Context, cfg *Config) error {
	// MCP owns stdout; keep logs on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	wired, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer wired.db.Close()

	logger.Info("MCP server starting (stdio)")
	return mcpserver.New(wired.svc).ServeStdio()
}

// RunCycleOnce executes one full nightly cycle and exits.
func RunCycleOnce(ctx context.Context, cfg *Config) error {
	logger := newLogger(cfg)

	wired, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer wired.db.Close()

	res := wired.orch.RunCycle(ctx)
	for _, pr := range res.Pipelines {
		attrs := []any{
			slog.String("pipeline", string(pr.Pipeline)),
			slog.String("state", pr.State),
		}
		if pr.Error != "" {
			attrs = append(attrs, slog.String("error", pr.Error))
		}
		logger.Info("pipeline result", attrs...)
	}
	return nil
}

// Bootstrap writes initial constitution, identity, and tactics documents
// where missing. It touches only the workspace files, never the index.
func Bootstrap(cfg *Config) error {
	logger := newLogger(cfg)

	if err := os.MkdirAll(cfg.Workspace.Path, 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Workspace.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	consts := constitution.NewStore(store, nil, nil)
	if err := consts.Bootstrap(defaultConstitution()); err != nil {
		return fmt.Errorf("bootstrap constitution: %w", err)
	}

	souls := soul.NewStore(store)
	if err := souls.Bootstrap(defaultSoul()); err != nil {
		return fmt.Errorf("bootstrap soul: %w", err)
	}

	tacs := tactics.NewStore(store)
	for _, p := range models.AllPipelines {
		if err := tacs.Bootstrap(p); err != nil {
			return fmt.Errorf("bootstrap tactics %s: %w", p, err)
		}
	}

	logger.Info("workspace bootstrapped", slog.String("path", cfg.Workspace.Path))
	return nil
}

func defaultConstitution() *models.ConstitutionDoc {
	return &models.ConstitutionDoc{
		Version:           1,
		BannedTopics:      []string{},
		LegalRequirements: []string{},
		RedLines:          []string{},
		AIMediaRules:      []string{},
		Policies: map[models.Pipeline]models.ContentPolicy{
			models.PipelineReel:  {DailyPostCap: 2},
			models.PipelineImage: {DailyPostCap: 2},
			models.PipelineStory: {DailyPostCap: 5},
		},
	}
}

func defaultSoul() *models.SoulDoc {
	return &models.SoulDoc{
		Version:  1,
		Voice:    "friendly and direct",
		Audience: "general",
		Pillars: []models.ContentPillar{
			{Name: models.PillarUncategorized, Description: "general content", TargetWeight: 1.0},
		},
	}
}
