package config

import (
	"errors"
	"fmt"

	"wikimdb/internal/media"
)

// ErrMissingCredentials is returned when the configured provider has no API key.
// It is fatal for a run: nothing is resolved without credentials.
var ErrMissingCredentials = errors.New("missing provider credentials")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}
	if c.Scheduler.MaxParallel < 1 || c.Scheduler.MaxParallel > maxParallelCeiling {
		return fmt.Errorf("scheduler.max_parallel must be between 1 and %d", maxParallelCeiling)
	}
	if c.Scheduler.RequestTimeout < 0 {
		return errors.New("scheduler.request_timeout must be >= 0")
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateProvider() error {
	switch c.Provider.Name {
	case ProviderOMDb:
		if c.OMDb.APIKey == "" {
			return fmt.Errorf("%w: omdb.api_key (or OMDB_API_KEY) is required", ErrMissingCredentials)
		}
		if c.Provider.Strategy != StrategyLinks {
			return fmt.Errorf("provider.strategy %q is not supported by omdb; use %q", c.Provider.Strategy, StrategyLinks)
		}
	case ProviderTMDB:
		if c.TMDB.APIKey == "" {
			return fmt.Errorf("%w: tmdb.api_key (or TMDB_API_KEY) is required", ErrMissingCredentials)
		}
		if c.Provider.Strategy != StrategyLinks && c.Provider.Strategy != StrategyWikidata {
			return fmt.Errorf("provider.strategy: unsupported value %q", c.Provider.Strategy)
		}
	default:
		return fmt.Errorf("provider.name: unsupported value %q", c.Provider.Name)
	}
	if _, err := media.ParseKinds(c.Provider.MediaKinds); err != nil {
		return fmt.Errorf("provider.media_kinds: %w", err)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.FormatKey == "" {
		return errors.New("cache.format_key must not be empty")
	}
	switch c.Cache.Backend {
	case CacheBackendFile:
		if c.Cache.Dir == "" {
			return errors.New("cache.dir must be set for the file backend")
		}
	case CacheBackendSQLite:
		if c.Cache.SQLitePath == "" {
			return errors.New("cache.sqlite_path must be set for the sqlite backend")
		}
	case CacheBackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr must be set for the redis backend")
		}
	case CacheBackendPostgres:
		if c.Cache.PostgresDSN == "" {
			return errors.New("cache.postgres_dsn (or WIKIMDB_POSTGRES_DSN) must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("cache.backend: unsupported value %q", c.Cache.Backend)
	}
	return nil
}
