// Package fetch is the entry point consumers call before reading catalog data.
// It refreshes the cache only when it is stale and runs at most one refresh
// pass at a time; concurrent callers join the pass already in flight.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/clean-dependency-project/peardb/internal/cache"
	"github.com/clean-dependency-project/peardb/internal/catalog"
)

const refreshKey = "refresh"

// ErrNoDetailSource indicates the service was built without a device detail client
var ErrNoDetailSource = errors.New("no device detail source configured")

// Refresher is the part of the cache store the service drives.
type Refresher interface {
	Resources() []string
	ShouldRefresh() bool
	RefreshAll(ctx context.Context, progress cache.ProgressFunc) error
}

// DeviceFetcher downloads single device detail documents.
type DeviceFetcher interface {
	FetchDevice(ctx context.Context, key string) ([]byte, error)
}

// Progress is the state of the current or last refresh pass.
type Progress struct {
	Done     int
	Total    int
	Resource string
	Fraction float64
	Active   bool
	Err      error
}

// Service wraps a cache store with a fetch-if-stale policy and progress reporting.
type Service struct {
	store   Refresher
	devices DeviceFetcher
	logger  *slog.Logger

	group singleflight.Group

	mu        sync.Mutex
	progress  Progress
	observers map[int]func(Progress)
	nextID    int
}

// New creates a Service. devices may be nil when detail fetches are not needed.
func New(store Refresher, devices DeviceFetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		devices:   devices,
		logger:    logger,
		observers: make(map[int]func(Progress)),
	}
}

// EnsureFresh refreshes the cache if it is stale. It returns immediately when
// the cache is fresh. A call that arrives while a pass is running waits for
// that pass and returns its result. The context of the caller that started the
// pass governs the pass itself; other callers stop waiting when their own
// context is done.
func (s *Service) EnsureFresh(ctx context.Context) error {
	if !s.store.ShouldRefresh() {
		return nil
	}
	return s.run(ctx, false)
}

// Refresh runs a refresh pass regardless of staleness, joining one already in flight.
func (s *Service) Refresh(ctx context.Context) error {
	return s.run(ctx, true)
}

func (s *Service) run(ctx context.Context, force bool) error {
	ch := s.group.DoChan(refreshKey, func() (interface{}, error) {
		// a pass may have completed between the staleness check and here
		if !force && !s.store.ShouldRefresh() {
			return nil, nil
		}
		return nil, s.refresh(ctx)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("joined in-flight catalog refresh")
		}
		return res.Err
	}
}

func (s *Service) refresh(ctx context.Context) error {
	s.publish(Progress{Total: len(s.store.Resources()), Active: true})

	err := s.store.RefreshAll(ctx, func(done, total int, resource string) {
		s.publish(Progress{
			Done:     done,
			Total:    total,
			Resource: resource,
			Fraction: float64(done) / float64(total),
			Active:   true,
		})
	})

	final := s.Progress()
	final.Active = false
	final.Err = err
	if err == nil {
		final.Fraction = 1
		final.Done = final.Total
	}
	s.publish(final)

	if err != nil {
		s.logger.Error("catalog refresh failed", "error", err)
	}
	return err
}

// Progress returns the latest progress snapshot.
func (s *Service) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Subscribe registers fn for progress updates and returns a function that removes it.
// fn is called synchronously from the refreshing goroutine.
func (s *Service) Subscribe(fn func(Progress)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Service) publish(p Progress) {
	s.mu.Lock()
	s.progress = p
	observers := make([]func(Progress), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(p)
	}
}

// Detail fetches and decodes the detail document of a single device. Details are not cached.
func (s *Service) Detail(ctx context.Context, key string) (catalog.DeviceRecord, error) {
	if s.devices == nil {
		return catalog.DeviceRecord{}, ErrNoDetailSource
	}
	data, err := s.devices.FetchDevice(ctx, key)
	if err != nil {
		return catalog.DeviceRecord{}, err
	}
	return catalog.DecodeDevice("device/"+key, data)
}
