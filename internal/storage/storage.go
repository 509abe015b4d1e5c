// Package storage persists local state using GORM and SQLite: the settings
// key-value table and the owned hardware records.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Sentinel errors following Dave Cheney's principle: define errors as values
var (
	ErrNilHardware     = errors.New("hardware cannot be nil")
	ErrNotFound        = errors.New("hardware not found")
	ErrEmptyDeviceName = errors.New("device name cannot be empty")
	ErrEmptyID         = errors.New("hardware id cannot be empty")
	ErrEmptyKey        = errors.New("setting key cannot be empty")
)

// DB wraps gorm.DB with settings and hardware operations
type DB struct {
	db     *gorm.DB
	hook   SyncHook
	logger *slog.Logger

	mu        sync.Mutex
	observers map[int]func()
	nextID    int
}

// Config holds database configuration
type Config struct {
	DatabasePath string
	LogLevel     string // silent, error, warn, info

	// SyncHook is called after every local hardware mutation. Nil disables sync.
	SyncHook SyncHook
	Logger   *slog.Logger
}

// InitDB initializes the database connection and runs migrations
func InitDB(cfg Config) (*DB, error) {
	logLevel := logger.Silent
	switch cfg.LogLevel {
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate schema
	if err := db.AutoMigrate(&Setting{}, &Hardware{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &DB{
		db:        db,
		hook:      cfg.SyncHook,
		logger:    cfg.Logger,
		observers: make(map[int]func()),
	}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// Subscribe registers fn to be called whenever the hardware table changes,
// locally or through a merge. It returns a function that removes fn.
func (d *DB) Subscribe(fn func()) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.observers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

func (d *DB) notify() {
	d.mu.Lock()
	observers := make([]func(), 0, len(d.observers))
	for _, fn := range d.observers {
		observers = append(observers, fn)
	}
	d.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}
