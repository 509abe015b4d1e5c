// Package cache owns the on-disk catalog snapshot: one JSON file per named
// resource plus a last-refresh timestamp kept in a settings store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clean-dependency-project/peardb/internal/catalog"
)

const (
	// DefaultInterval is how long a full refresh stays fresh
	DefaultInterval = 24 * time.Hour

	// DefaultConcurrency bounds parallel resource downloads
	DefaultConcurrency = 4

	// TimestampKey is the settings key of the last successful full refresh
	TimestampKey = "catalog.last_refresh"

	fileExt = ".json"
)

var (
	// ErrNoResources indicates a store configured without any resources
	ErrNoResources = errors.New("no resources configured")

	// ErrInvalidResourceName indicates a resource name that cannot be a file name
	ErrInvalidResourceName = errors.New("invalid resource name")
)

// Fetcher downloads a named remote resource.
type Fetcher interface {
	Fetch(ctx context.Context, resource, rawURL string) ([]byte, error)
}

// Settings is the key-value store that holds the refresh timestamp.
type Settings interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// ProgressFunc is called after each resource is written. Calls are serialized
// and done increases by one per call.
type ProgressFunc func(done, total int, resource string)

// Config holds configuration for a Store
type Config struct {
	Dir         string
	Resources   map[string]string // resource name -> absolute URL
	Interval    time.Duration
	Concurrency int
	Fetcher     Fetcher
	Settings    Settings
	Logger      *slog.Logger
	Now         func() time.Time
}

// Store manages the snapshot directory and the staleness decision.
// RefreshAll and PurgeAll are the only operations that write; they are serialized.
type Store struct {
	dir         string
	resources   map[string]string
	names       []string
	interval    time.Duration
	concurrency int
	fetcher     Fetcher
	settings    Settings
	logger      *slog.Logger
	now         func() time.Time

	mu sync.Mutex
}

// New creates a Store. The snapshot directory is created on the first refresh.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("cache directory must not be empty")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("fetcher must not be nil")
	}
	if cfg.Settings == nil {
		return nil, errors.New("settings store must not be nil")
	}
	if len(cfg.Resources) == 0 {
		return nil, ErrNoResources
	}

	resources := make(map[string]string, len(cfg.Resources))
	names := make([]string, 0, len(cfg.Resources))
	for name, u := range cfg.Resources {
		if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidResourceName, name)
		}
		resources[name] = u
		names = append(names, name)
	}
	sort.Strings(names)

	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Store{
		dir:         cfg.Dir,
		resources:   resources,
		names:       names,
		interval:    cfg.Interval,
		concurrency: cfg.Concurrency,
		fetcher:     cfg.Fetcher,
		settings:    cfg.Settings,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}, nil
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string {
	return s.dir
}

// Resources returns the configured resource names in sorted order.
func (s *Store) Resources() []string {
	return append([]string(nil), s.names...)
}

// Path returns the on-disk path of a resource.
func (s *Store) Path(name string) (string, error) {
	if _, ok := s.resources[name]; !ok {
		return "", fmt.Errorf("%w: %s", catalog.ErrUnknownResource, name)
	}
	return filepath.Join(s.dir, name+fileExt), nil
}

// LastRefresh returns the time of the last successful full refresh.
func (s *Store) LastRefresh() (time.Time, bool, error) {
	raw, ok, err := s.settings.Get(TimestampKey)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse %s: %w", TimestampKey, err)
	}
	return ts, true, nil
}

// ShouldRefresh reports whether no full refresh has succeeded yet or the last
// one is older than the interval. An unreadable timestamp counts as absent.
func (s *Store) ShouldRefresh() bool {
	last, ok, err := s.LastRefresh()
	if err != nil {
		s.logger.Warn("failed to read refresh timestamp", "error", err)
		return true
	}
	if !ok {
		return true
	}
	return s.now().Sub(last) > s.interval
}

// RefreshAll downloads every resource and writes each one atomically. The
// timestamp advances only when all of them succeed. Files written before a
// failure stay on disk.
func (s *Store) RefreshAll(ctx context.Context, progress ProgressFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &catalog.FilesystemError{Op: "create", Path: s.dir, Err: err}
	}

	start := s.now()
	total := len(s.names)
	var (
		pmu  sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, name := range s.names {
		name := name // per-iteration copy (go1.21 loop semantics)
		g.Go(func() error {
			if err := s.refreshOne(gctx, name); err != nil {
				return err
			}
			pmu.Lock()
			defer pmu.Unlock()
			done++
			s.logger.Debug("resource cached", "resource", name, "done", done, "total", total)
			if progress != nil {
				progress(done, total, name)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn("catalog refresh failed", "error", err, "completed", done, "total", total)
		return err
	}

	now := s.now()
	if err := s.settings.Set(TimestampKey, now.UTC().Format(time.RFC3339Nano)); err != nil {
		return &catalog.FilesystemError{Op: "persist", Path: TimestampKey, Err: err}
	}
	s.logger.Info("catalog refresh complete", "resources", total, "duration", now.Sub(start))
	return nil
}

func (s *Store) refreshOne(ctx context.Context, name string) error {
	data, err := s.fetcher.Fetch(ctx, name, s.resources[name])
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return &catalog.DecodeError{Document: name, Index: -1, Raw: data, Err: errors.New("response is not valid JSON")}
	}
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// Load returns the cached bytes of a resource. It never touches the network.
func (s *Store) Load(name string) ([]byte, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, name)
		}
		return nil, &catalog.FilesystemError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// PurgeAll deletes everything under the snapshot directory and clears the
// timestamp. Every deletion is attempted; failures are joined into the result.
func (s *Store) PurgeAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	entries, err := os.ReadDir(s.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, &catalog.FilesystemError{Op: "read", Path: s.dir, Err: err})
	}
	for _, entry := range entries {
		path := filepath.Join(s.dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, &catalog.FilesystemError{Op: "delete", Path: path, Err: err})
		}
	}

	if err := s.settings.Delete(TimestampKey); err != nil {
		errs = append(errs, &catalog.FilesystemError{Op: "clear", Path: TimestampKey, Err: err})
	}

	if len(errs) > 0 {
		s.logger.Error("catalog purge incomplete", "failures", len(errs))
		return errors.Join(errs...)
	}
	s.logger.Info("catalog purged", "files", len(entries))
	return nil
}
