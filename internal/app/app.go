// Package app wires the stores, adapters and use cases shared by the
// worker, the read API and briefctl.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	pgRepo "newsbrief/internal/infra/adapter/persistence/postgres"
	sqliteRepo "newsbrief/internal/infra/adapter/persistence/sqlite"
	"newsbrief/internal/infra/db"
	"newsbrief/internal/infra/fetcher"
	"newsbrief/internal/infra/generation"
	"newsbrief/internal/infra/mailer"
	"newsbrief/internal/infra/notifier"
	"newsbrief/internal/infra/scraper"
	"newsbrief/internal/pkg/config"
	"newsbrief/internal/repository"
	"newsbrief/internal/usecase/brief"
	"newsbrief/internal/usecase/digest"
	"newsbrief/internal/usecase/ingest"
	"newsbrief/internal/usecase/process"
)

// DefaultSourcesPath is read when NEWSBRIEF_SOURCES is unset.
const DefaultSourcesPath = "configs/sources.yaml"

// LoadDotenv loads .env files into the environment. Missing files are
// ignored; variables already set win.
func LoadDotenv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to load env file", slog.String("file", f), slog.Any("error", err))
		}
	}
}

// Options tunes New.
type Options struct {
	Logger *slog.Logger
	// Registerer receives config and generation metrics. Nil uses the
	// default registry.
	Registerer prometheus.Registerer
	// Component prefixes the config metrics, e.g. "worker".
	Component string
	// Migrate applies pending migrations after connecting.
	Migrate bool
}

// App holds the wired components. Close releases the database.
type App struct {
	DB      *sql.DB
	Driver  string
	Store   repository.Store
	Ingest  *ingest.Service
	Process *process.Orchestrator
	Digest  *digest.Service
	Sources []ingest.SourceConfig
	// Fetchers is the scraper registry keyed by source kind.
	Fetchers map[string]ingest.Fetcher

	// MailerConfigured is false when SMTP_SERVER is unset; Send then fails.
	MailerConfigured bool
	Warnings         []string
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// New reads the environment and builds every component.
func New(ctx context.Context, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	component := opts.Component
	if component == "" {
		component = "newsbrief"
	}
	loader := config.NewLoader(logger, config.NewConfigMetrics(component, opts.Registerer))

	dbCfg := db.LoadConfigFromEnv(loader)
	conn, err := db.Open(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	a := &App{DB: conn, Driver: dbCfg.Driver}
	if opts.Migrate {
		version, err := db.MigrateUp(conn, dbCfg.Driver)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		logger.Info("database migrated", slog.Uint64("version", uint64(version)))
	}
	a.Store = NewStore(dbCfg.Driver, conn)

	fetchCfg := fetcher.LoadConfig(loader)
	pages := fetcher.NewPageFetcher(fetchCfg, nil)
	body := fetcher.NewBodyFetcher(pages, fetcher.NewExtractor(nil, nil, fetchCfg.ReadabilityFallback))

	sourcesPath := loader.String("NEWSBRIEF_SOURCES", DefaultSourcesPath, nil)
	a.Sources, err = scraper.LoadSources(sourcesPath)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("load sources %s: %w", sourcesPath, err)
	}
	feedClient := &http.Client{Timeout: fetchCfg.Timeout}
	a.Fetchers = scraper.NewRegistry(pages, feedClient)
	a.Ingest = ingest.NewService(a.Fetchers, a.Sources,
		ingest.NewDeduplicator(a.Store, time.Now))

	policy, briefCfg, err := newPolicy(ctx, loader, logger, opts.Registerer)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a.Process = process.NewOrchestrator(a.Store, body,
		brief.NewSummarizer(policy, briefCfg), brief.NewAggregator(policy), process.LoadConfig(loader))

	var m digest.Mailer
	if mailCfg := mailer.LoadConfig(loader); mailCfg.Enabled() {
		m = mailer.New(mailCfg, logger)
		a.MailerConfigured = true
	}
	announcers := notifier.Announcers(notifier.LoadConfig(loader))
	a.Digest = digest.NewService(a.Store, m, digest.LoadConfig(loader), digest.WithAnnouncers(announcers...))

	loader.Finish()
	a.Warnings = loader.Warnings()
	logger.Info("application wired",
		slog.String("driver", dbCfg.Driver),
		slog.Int("sources", len(a.Sources)),
		slog.String("model", briefCfg.Model),
		slog.Bool("mailer", a.MailerConfigured),
		slog.Int("announcers", len(announcers)),
		slog.Int("config_warnings", len(a.Warnings)))
	return a, nil
}

// NewStore picks the persistence adapter for driver.
func NewStore(driver string, conn *sql.DB) repository.Store {
	if driver == db.DriverSQLite {
		return sqliteRepo.NewStore(conn)
	}
	return pgRepo.NewStore(conn)
}

// newPolicy builds the generation policy. A missing credential is not
// fatal: the policy then answers every call with the missing-key text.
func newPolicy(ctx context.Context, loader *config.Loader, logger *slog.Logger, reg prometheus.Registerer) (*brief.Policy, brief.Config, error) {
	genCfg := generation.LoadConfig(loader)
	briefCfg := brief.LoadConfig(loader)
	if os.Getenv("GENERATOR_MODEL") == "" {
		briefCfg.Model = generation.DefaultModel(genCfg.Provider)
	}

	gen, err := generation.New(ctx, genCfg)
	switch {
	case errors.Is(err, brief.ErrMissingCredential):
		logger.Warn("generation credential missing, summaries will carry the missing-key text",
			slog.String("provider", genCfg.Provider))
		gen = nil
	case err != nil:
		return nil, briefCfg, fmt.Errorf("generation client: %w", err)
	}

	policy := brief.NewPolicy(gen, briefCfg,
		brief.WithLogger(logger),
		brief.WithMetrics(brief.NewMetrics(reg)))
	return policy, briefCfg, nil
}
