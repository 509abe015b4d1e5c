package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/clean-dependency-project/peardb/internal/appledb"
	"github.com/clean-dependency-project/peardb/internal/cache"
	"github.com/clean-dependency-project/peardb/internal/config"
	"github.com/clean-dependency-project/peardb/internal/fetch"
	"github.com/clean-dependency-project/peardb/internal/logger"
	"github.com/clean-dependency-project/peardb/internal/query"
	"github.com/clean-dependency-project/peardb/internal/storage"
)

// session holds the components a command works with, wired from configuration.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *storage.DB
	client  appledb.Client
	store   *cache.Store
	fetcher *fetch.Service
	catalog *query.Catalog
}

// newLogger creates the command logger from the global flags. Logs go to the
// app's error writer so command output stays clean.
func newLogger(c *cli.Context) (*slog.Logger, error) {
	return logger.New(c.String("log-level"), c.String("log-format"), c.App.ErrWriter)
}

// openSession loads configuration and opens the database, cache store, fetch
// service and query layer. Callers must Close the session.
func openSession(c *cli.Context) (*session, error) {
	log, err := newLogger(c)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		log.Error("failed to load config", "error", err)
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := appledb.NewClientFactory().CreateClient(appledb.ClientConfig{
		Provider:  cfg.Catalog.Provider,
		BaseURL:   cfg.Catalog.BaseURL,
		UserAgent: cfg.Catalog.UserAgent,
		Timeout:   cfg.Catalog.GetTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}

	db, err := storage.InitDB(storage.Config{
		DatabasePath: cfg.Storage.DatabasePath,
		LogLevel:     cfg.Storage.LogLevel,
		SyncHook:     logSyncHook(log),
		Logger:       log,
	})
	if err != nil {
		log.Error("failed to initialize database", "path", cfg.Storage.DatabasePath, "error", err)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	s, err := wire(cfg, client, db, log)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn("failed to close database", "error", closeErr)
		}
		return nil, err
	}
	return s, nil
}

func wire(cfg *config.Config, client appledb.Client, db *storage.DB, log *slog.Logger) (*session, error) {
	urls, err := cfg.Catalog.ResourceURLs()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog resources: %w", err)
	}

	store, err := cache.New(cache.Config{
		Dir:         cfg.Catalog.CacheDir,
		Resources:   urls,
		Interval:    cfg.Catalog.GetRefreshInterval(),
		Concurrency: cfg.Catalog.Concurrency,
		Fetcher:     client,
		Settings:    db.Settings(),
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}

	return &session{
		cfg:     cfg,
		logger:  log,
		db:      db,
		client:  client,
		store:   store,
		fetcher: fetch.New(store, client, log),
		catalog: query.NewCatalog(store, log),
	}, nil
}

// Close releases the database.
func (s *session) Close() error {
	return s.db.Close()
}

// closeSession closes s and logs a failure; used in defers.
func closeSession(s *session) {
	if err := s.Close(); err != nil {
		// Log close error but don't fail - we're in cleanup
		s.logger.Warn("failed to close database", "error", err)
	}
}

// ensureCatalog refreshes a stale snapshot and loads both collections. A failed
// refresh is logged and the existing snapshot is used.
func (s *session) ensureCatalog(c *cli.Context) {
	if err := s.fetcher.EnsureFresh(c.Context); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Warn("catalog refresh cancelled", "error", err)
		} else {
			s.logger.Warn("catalog refresh failed, using local snapshot", "error", err)
		}
	}
	s.catalog.LoadAll()
}

// logSyncHook records local hardware changes. There is no remote sync target
// in the CLI, so changes are only logged.
func logSyncHook(log *slog.Logger) storage.SyncHook {
	return storage.SyncHookFunc(func(change storage.Change) error {
		log.Debug("hardware changed", "op", change.Op, "id", change.Hardware.ID, "device", change.Hardware.DeviceName)
		return nil
	})
}
