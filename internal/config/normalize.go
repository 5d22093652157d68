package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeProvider()
	c.normalizeCredentials()
	c.normalizeWikipedia()
	if c.Scheduler.MaxParallel == 0 {
		c.Scheduler.MaxParallel = defaultMaxParallel
	}
	if err := c.normalizeCache(); err != nil {
		return err
	}
	if err := c.normalizeBlacklist(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeProvider() {
	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
	if c.Provider.Name == "" {
		c.Provider.Name = defaultProvider
	}
	c.Provider.Strategy = strings.ToLower(strings.TrimSpace(c.Provider.Strategy))
	if c.Provider.Strategy == "" {
		switch c.Provider.Name {
		case ProviderOMDb:
			c.Provider.Strategy = defaultStrategyForOMDb
		case ProviderTMDB:
			c.Provider.Strategy = defaultStrategyForTMDB
		}
	}
	kinds := make([]string, 0, len(c.Provider.MediaKinds))
	seen := make(map[string]struct{}, len(c.Provider.MediaKinds))
	for _, kind := range c.Provider.MediaKinds {
		normalized := strings.ToLower(strings.TrimSpace(kind))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		kinds = append(kinds, normalized)
	}
	if len(kinds) == 0 {
		kinds = append(kinds, defaultMediaKinds...)
	}
	c.Provider.MediaKinds = kinds
}

func (c *Config) normalizeCredentials() {
	c.OMDb.APIKey = strings.TrimSpace(c.OMDb.APIKey)
	if c.OMDb.APIKey == "" {
		if value, ok := os.LookupEnv("OMDB_API_KEY"); ok {
			c.OMDb.APIKey = strings.TrimSpace(value)
		}
	}
	c.OMDb.BaseURL = strings.TrimSpace(c.OMDb.BaseURL)
	if c.OMDb.BaseURL == "" {
		c.OMDb.BaseURL = defaultOMDbBaseURL
	}

	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
}

func (c *Config) normalizeWikipedia() {
	c.Wikipedia.Language = strings.ToLower(strings.TrimSpace(c.Wikipedia.Language))
	if c.Wikipedia.Language == "" {
		c.Wikipedia.Language = defaultWikiLanguage
	}
	c.Wikipedia.BaseURL = strings.TrimSpace(c.Wikipedia.BaseURL)
	c.Wikipedia.UserAgent = strings.TrimSpace(c.Wikipedia.UserAgent)
	if c.Wikipedia.UserAgent == "" {
		c.Wikipedia.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeCache() error {
	var err error
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	if strings.TrimSpace(c.Cache.Dir) == "" {
		c.Cache.Dir = defaultCacheDir()
	}
	if c.Cache.Dir, err = expandPath(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	if strings.TrimSpace(c.Cache.SQLitePath) == "" {
		c.Cache.SQLitePath = filepath.Join(c.Cache.Dir, defaultSQLiteFileName)
	}
	if c.Cache.SQLitePath, err = expandPath(c.Cache.SQLitePath); err != nil {
		return fmt.Errorf("cache.sqlite_path: %w", err)
	}
	c.Cache.RedisAddr = strings.TrimSpace(c.Cache.RedisAddr)
	c.Cache.PostgresDSN = strings.TrimSpace(c.Cache.PostgresDSN)
	if c.Cache.PostgresDSN == "" {
		if value, ok := os.LookupEnv("WIKIMDB_POSTGRES_DSN"); ok {
			c.Cache.PostgresDSN = strings.TrimSpace(value)
		}
	}
	c.Cache.FormatKey = strings.TrimSpace(c.Cache.FormatKey)
	if c.Cache.FormatKey == "" {
		c.Cache.FormatKey = defaultCacheFormatKey
	}
	return nil
}

func (c *Config) normalizeBlacklist() error {
	var err error
	if c.Blacklist.Path, err = expandPath(strings.TrimSpace(c.Blacklist.Path)); err != nil {
		return fmt.Errorf("blacklist.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	var err error
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
