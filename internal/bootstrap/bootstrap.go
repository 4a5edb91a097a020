package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/genequery/atlas-assistant/internal/config"
	"github.com/genequery/atlas-assistant/internal/core/ports"
	"github.com/genequery/atlas-assistant/internal/core/usecase"
	"github.com/genequery/atlas-assistant/internal/core/vocab"
	"github.com/genequery/atlas-assistant/internal/infrastructure/archive"
	"github.com/genequery/atlas-assistant/internal/infrastructure/atlas"
	natsqueue "github.com/genequery/atlas-assistant/internal/infrastructure/queue/nats"
	"github.com/genequery/atlas-assistant/internal/infrastructure/repository/postgres"
	"github.com/genequery/atlas-assistant/internal/infrastructure/resilience"
	"github.com/genequery/atlas-assistant/internal/infrastructure/storage/localfs"
)

// App wires the full assistant: catalog access, dialog, archive downloads,
// and the NATS download queue. The api and worker binaries share it.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Dialog    ports.Conversationalist
	Finder    ports.ExperimentFinder
	Files     ports.FileServicer
	Downloads ports.DownloadRequester
	Queue     ports.DownloadQueue

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	parts, err := newComponents(cfg, logger)
	if err != nil {
		return nil, err
	}

	// The snapshot store is optional: without Postgres the index still
	// serves from memory and from the live catalog.
	var snapshots ports.CatalogSnapshotStore
	closeDB := func() {}
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewCatalogRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		snapshots = repo
		closeDB = func() { _ = db.Close() }
	}

	index := usecase.NewCatalogIndex(
		parts.gateway,
		snapshots,
		time.Duration(cfg.CatalogTTLMinutes)*time.Minute,
		logger,
	)

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, logger, natsqueue.Options{
		ResilienceExecutor: parts.executor,
	})
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("init download queue: %w", err)
	}

	downloads := usecase.NewDownloadRequest(queue, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Dialog:    usecase.NewDialog(parts.tables, index, downloads, logger),
		Finder:    usecase.NewFinder(index),
		Files:     usecase.NewFileService(parts.browser, parts.browser, parts.store, logger),
		Downloads: downloads,
		Queue:     queue,

		closeFn: func() {
			queue.Close()
			closeDB()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Tooling is the queue-free subset of the wiring: catalog search and
// synchronous archive downloads. The mcp binary uses it directly so it can
// run without NATS or Postgres.
type Tooling struct {
	Finder ports.ExperimentFinder
	Files  ports.FileServicer
}

func NewTooling(cfg config.Config, logger *slog.Logger) (*Tooling, error) {
	parts, err := newComponents(cfg, logger)
	if err != nil {
		return nil, err
	}

	index := usecase.NewCatalogIndex(parts.gateway, nil, time.Duration(cfg.CatalogTTLMinutes)*time.Minute, logger)

	return &Tooling{
		Finder: usecase.NewFinder(index),
		Files:  usecase.NewFileService(parts.browser, parts.browser, parts.store, logger),
	}, nil
}

type components struct {
	tables   *vocab.Tables
	executor *resilience.Executor
	gateway  *atlas.Client
	browser  *archive.Browser
	store    *localfs.Store
}

func newComponents(cfg config.Config, logger *slog.Logger) (*components, error) {
	tables, err := vocab.Load(cfg.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	gateway := atlas.New(cfg.AtlasBaseURL, atlas.Options{
		Timeout:            time.Duration(cfg.AtlasTimeoutSeconds) * time.Second,
		RateLimitRPS:       cfg.AtlasRateLimitRPS,
		ResilienceExecutor: executor,
	})

	browser := archive.New(cfg.AtlasArchiveURL, logger, archive.Options{
		Timeout:            time.Duration(cfg.AtlasTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	})

	store, err := localfs.New(cfg.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("init download store: %w", err)
	}

	return &components{
		tables:   tables,
		executor: executor,
		gateway:  gateway,
		browser:  browser,
		store:    store,
	}, nil
}
