// Package config provides YAML configuration for the catalog client: where the
// catalog comes from, where it is cached and where local state is stored.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clean-dependency-project/peardb/internal/appledb"
	"github.com/clean-dependency-project/peardb/internal/cache"
	"github.com/clean-dependency-project/peardb/internal/catalog"
	"github.com/clean-dependency-project/peardb/internal/upstream"
)

// Sentinel errors for configuration validation
var (
	ErrVersionRequired      = errors.New("version is required")
	ErrUnsupportedProvider  = errors.New("catalog.provider must be appledb or mock")
	ErrNoResources          = errors.New("at least one catalog resource must be configured")
	ErrCacheDirRequired     = errors.New("catalog.cache_dir is required")
	ErrDatabasePathRequired = errors.New("storage.database_path is required")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrInvalidImageExt      = errors.New("catalog.image_extension must be png or webp")
	ErrNegativeConcurrency  = errors.New("catalog.concurrency cannot be negative")
)

const defaultDirName = "peardb"

// Config represents the top-level configuration structure.
type Config struct {
	Version  string         `yaml:"version"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Storage  StorageConfig  `yaml:"storage"`
	Upstream UpstreamConfig `yaml:"upstream"`
}

// CatalogConfig represents the remote catalog and its local snapshot.
type CatalogConfig struct {
	Provider        string            `yaml:"provider"`
	BaseURL         string            `yaml:"base_url"`
	ImageBaseURL    string            `yaml:"image_base_url"`
	ImageExtension  string            `yaml:"image_extension"`
	UserAgent       string            `yaml:"user_agent"`
	Timeout         string            `yaml:"timeout"`
	RefreshInterval string            `yaml:"refresh_interval"`
	CacheDir        string            `yaml:"cache_dir"`
	Concurrency     int               `yaml:"concurrency"`
	Resources       map[string]string `yaml:"resources"` // name -> path under base_url, or absolute URL
}

// StorageConfig represents the local database.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	LogLevel     string `yaml:"log_level"` // silent, error, warn, info
}

// UpstreamConfig represents the catalog's source repository.
type UpstreamConfig struct {
	GitHubRepository string `yaml:"github_repository"` // Repository in "owner/repo" format
	Branch           string `yaml:"branch"`
}

// GetTimeout parses and returns the per-request timeout
func (c *CatalogConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, appledb.DefaultTimeout)
}

// GetRefreshInterval parses and returns the staleness interval
func (c *CatalogConfig) GetRefreshInterval() time.Duration {
	return parseDurationOr(c.RefreshInterval, cache.DefaultInterval)
}

// GetImageExtension returns the configured image extension, png by default
func (c *CatalogConfig) GetImageExtension() string {
	if c.ImageExtension == "" {
		return "png"
	}
	return c.ImageExtension
}

// ImageURL derives the image address of a device key
func (c *CatalogConfig) ImageURL(key string) string {
	return catalog.ImageURL(c.ImageBaseURL, key, c.GetImageExtension())
}

// ResourceURLs resolves every configured resource against the base URL.
func (c *CatalogConfig) ResourceURLs() (map[string]string, error) {
	base := c.BaseURL
	if base == "" {
		base = appledb.DefaultBaseURL
	}
	urls := make(map[string]string, len(c.Resources))
	for name, ref := range c.Resources {
		u, err := appledb.ResolveURL(base, ref)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
		urls[name] = u
	}
	return urls, nil
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoadConfig loads and parses the configuration from a YAML file.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}
	// unset keys keep their defaults; a resources block replaces the default set
	config := DefaultConfig()
	defaults := config.Catalog.Resources
	config.Catalog.Resources = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}
	if config.Catalog.Resources == nil {
		config.Catalog.Resources = defaults
	}
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadOrDefault loads filePath, falling back to DefaultConfig when the file does not exist.
func LoadOrDefault(filePath string) (*Config, error) {
	if filePath == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadConfig(filePath)
}

// Validate validates the configuration structure and required fields.
func (c *Config) Validate() error {
	if c.Version == "" {
		return ErrVersionRequired
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if strings.TrimSpace(c.Storage.DatabasePath) == "" {
		return ErrDatabasePathRequired
	}
	return nil
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	switch c.Provider {
	case "", "appledb", "mock":
	default:
		return fmt.Errorf("%w: got %s", ErrUnsupportedProvider, c.Provider)
	}
	if len(c.Resources) == 0 {
		return ErrNoResources
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		return ErrCacheDirRequired
	}
	for field, raw := range map[string]string{"timeout": c.Timeout, "refresh_interval": c.RefreshInterval} {
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err != nil || d <= 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidDuration, field, raw)
		}
	}
	switch c.ImageExtension {
	case "", "png", "webp":
	default:
		return fmt.Errorf("%w: got %s", ErrInvalidImageExt, c.ImageExtension)
	}
	if c.Concurrency < 0 {
		return ErrNegativeConcurrency
	}
	if _, err := c.ResourceURLs(); err != nil {
		return err
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Catalog: CatalogConfig{
			Provider:        "appledb",
			BaseURL:         appledb.DefaultBaseURL,
			ImageBaseURL:    catalog.DefaultImageBase,
			ImageExtension:  "png",
			UserAgent:       appledb.DefaultUserAgent,
			Timeout:         appledb.DefaultTimeout.String(),
			RefreshInterval: cache.DefaultInterval.String(),
			CacheDir:        filepath.Join(userDir(os.UserCacheDir), defaultDirName, "catalog"),
			Concurrency:     cache.DefaultConcurrency,
			Resources:       appledb.DefaultResources(),
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(userDir(os.UserConfigDir), defaultDirName, "peardb.db"),
			LogLevel:     "silent",
		},
		Upstream: UpstreamConfig{
			GitHubRepository: upstream.DefaultRepository,
			Branch:           upstream.DefaultBranch,
		},
	}
}

func userDir(lookup func() (string, error)) string {
	dir, err := lookup()
	if err != nil || dir == "" {
		return os.TempDir()
	}
	return dir
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filePath, err)
	}
	return nil
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return filepath.Join(userDir(os.UserConfigDir), defaultDirName, "config.yaml")
}
