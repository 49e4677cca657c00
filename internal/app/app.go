package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"JobRadar/internal/config"
	"JobRadar/internal/geo"
	"JobRadar/internal/infrastructure/api"
	"JobRadar/internal/infrastructure/export"
	"JobRadar/internal/infrastructure/ml"
	"JobRadar/internal/infrastructure/scheduler"
	"JobRadar/internal/infrastructure/storage"
	"JobRadar/internal/logging"
	"JobRadar/internal/ports"
	"JobRadar/internal/source"
	"JobRadar/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	db       *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := source.NewRegistry()
	registry.Register(api.NewReedSource(cfg.Sources.Reed.APIKey,
		baseLogger.With("component", "source.reed")))
	registry.Register(api.NewAdzunaSource(cfg.Sources.Adzuna.AppID, cfg.Sources.Adzuna.APIKey,
		cfg.Sources.Adzuna.Country, baseLogger.With("component", "source.adzuna")))
	registry.Register(api.NewJoobleSource(cfg.Sources.Jooble.APIKey,
		baseLogger.With("component", "source.jooble")))
	if cfg.Sources.Remotive.IsEnabled() {
		registry.Register(api.NewRemotiveSource(baseLogger.With("component", "source.remotive")))
	}

	var postcodes *geo.PostcodeIndex
	if path := cfg.Geo.PostcodeTablePath; path != "" {
		index, err := geo.LoadPostcodes(path)
		if err != nil {
			baseLogger.Warn("postcode table unavailable, offline lookups disabled", "error", err)
		} else {
			postcodes = index
			baseLogger.Info("postcode table loaded", "entries", index.Len())
		}
	}

	resolver := geo.NewResolver(geo.Options{
		Postcodes:     postcodes,
		Endpoint:      cfg.Geo.NominatimURL,
		UserAgent:     cfg.Geo.UserAgent,
		ChainFallback: cfg.Geo.ChainFallback,
		Logger:        baseLogger.With("component", "geo"),
	})

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database DSN is not configured")
	}
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repository := storage.NewPostgresRepository(db, baseLogger.With("component", "storage"))

	var predictor ports.SalaryPredictor
	if cfg.Predictor.URL != "" {
		predictor = ml.NewClient(cfg.Predictor.URL, cfg.Predictor.APIKey)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:         registry,
		Repository:      repository,
		Geocoder:        resolver,
		Predictor:       predictor,
		Exporter:        export.NewCSVExporter(cfg.Export.Dir),
		Queries:         cfg.Search.Queries,
		Locations:       cfg.Search.Locations,
		ExcludeKeywords: cfg.Filters.ExcludeKeywords,
		Logger:          baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline, db: db}, nil
}

// Run executes a single pipeline run, or keeps running on the configured
// cron expression until interrupted.
func (a *Application) Run(ctx context.Context) error {
	if a.db != nil {
		defer a.db.Close()
	}

	if a.cfg.Scheduler.CronExpression == "" {
		now := time.Now().In(a.cfg.Scheduler.Location())
		return a.pipeline.ProcessRun(ctx, now)
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	runner := usecase.NewScheduler(driver, a.pipeline)
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case <-stop:
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return runner.Stop(stopCtx)
}
