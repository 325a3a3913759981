package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/tilawa/internal/adapter"
	"github.com/mmcdole/tilawa/internal/adapter/source"
	"github.com/mmcdole/tilawa/internal/audio"
	"github.com/mmcdole/tilawa/internal/library"
	"github.com/mmcdole/tilawa/internal/populate"
	"github.com/mmcdole/tilawa/internal/progress"
	"github.com/mmcdole/tilawa/internal/search"
	"github.com/mmcdole/tilawa/internal/store"
)

// App holds the wired services. Content services need credentials and are
// built on first use, so offline commands work without them.
type App struct {
	cfg    *adapter.Config
	logger *slog.Logger
	store  *store.Store

	Audio    *audio.Cache
	Progress *progress.Service

	source   *source.Source
	library  *library.Service
	queries  *library.Queries
	populate *populate.Orchestrator
	search   *search.Service
}

// NewApp loads configuration, opens the store and wires the offline services.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := adapter.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	st, err := store.Open(ctx, cfg.DatabasePath(store.DefaultPath))
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  st,
		Audio: audio.NewCache(st, audio.Options{
			CDNURL:         cfg.Audio.CDNURL,
			Dir:            cfg.Audio.CacheDir,
			MaxBytes:       cfg.Audio.MaxBytes,
			PreloadWorkers: cfg.Audio.PreloadWorkers,
		}, logger),
		Progress: progress.NewService(st, logger),
	}
	logger.Debug("tilawa started", "version", Version, "api", cfg.API.BaseURL)
	return a, nil
}

// Content returns the implicitly populating read API.
func (a *App) Content() (*library.Queries, error) {
	if err := a.connect(); err != nil {
		return nil, err
	}
	return a.queries, nil
}

// Populator returns the bulk population orchestrator.
func (a *App) Populator() (*populate.Orchestrator, error) {
	if err := a.connect(); err != nil {
		return nil, err
	}
	return a.populate, nil
}

// Search returns the catalog search service.
func (a *App) Search() (*search.Service, error) {
	if err := a.connect(); err != nil {
		return nil, err
	}
	return a.search, nil
}

// Source returns the content API client and token manager.
func (a *App) Source() (*source.Source, error) {
	if err := a.connect(); err != nil {
		return nil, err
	}
	return a.source, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) connect() error {
	if a.source != nil {
		return nil
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	src, err := source.NewSource(a.cfg, a.store, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create content client: %w", err)
	}

	a.source = src
	a.library = library.NewService(src.Client, a.store, a.cfg.Content.PerPage, a.logger)
	a.queries = library.NewQueries(a.library, a.store)
	a.populate = populate.New(a.library, a.store, a.Audio, a.logger)
	a.search = search.NewService(a.queries, a.logger)
	return nil
}

// Status reads the population ledger without touching the network.
func (a *App) Status(ctx context.Context) ([]statusRow, error) {
	statuses, err := a.store.PopulationStatuses(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]statusRow, len(statuses))
	for i, s := range statuses {
		rows[i] = statusRow{
			Kind:         string(s.Kind),
			Populated:    s.IsPopulated,
			TotalRecords: s.TotalRecords,
			LastUpdated:  s.LastUpdated,
		}
	}
	return rows, nil
}
