package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"wikimdb/internal/media"
)

//go:embed sample_config.toml
var sampleConfig string

// Provider selects the rating backend and how subjects are mapped to it.
type Provider struct {
	Name       string   `toml:"name"`     // "omdb" or "tmdb"
	Strategy   string   `toml:"strategy"` // "links" or "wikidata"; empty picks the provider default
	MediaKinds []string `toml:"media_kinds"`
}

// OMDb contains configuration for the OMDb rating API.
type OMDb struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Wikipedia contains configuration for the encyclopedia API.
type Wikipedia struct {
	Language  string `toml:"language"`
	BaseURL   string `toml:"base_url"` // overrides the language-derived endpoint
	UserAgent string `toml:"user_agent"`
}

// Scheduler bounds concurrent network work.
type Scheduler struct {
	MaxParallel    int `toml:"max_parallel"`
	RequestTimeout int `toml:"request_timeout"` // seconds, 0 disables the client timeout
}

// Cache selects and configures the durable cache backend.
type Cache struct {
	Backend     string `toml:"backend"` // file, sqlite, redis, postgres
	Dir         string `toml:"dir"`
	SQLitePath  string `toml:"sqlite_path"`
	RedisAddr   string `toml:"redis_addr"`
	RedisDB     int    `toml:"redis_db"`
	PostgresDSN string `toml:"postgres_dsn"`
	FormatKey   string `toml:"format_key"`
}

// Blacklist points at an optional pattern file overriding the bundled list.
type Blacklist struct {
	Path string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for wikimdb.
type Config struct {
	Provider  Provider  `toml:"provider"`
	OMDb      OMDb      `toml:"omdb"`
	TMDB      TMDB      `toml:"tmdb"`
	Wikipedia Wikipedia `toml:"wikipedia"`
	Scheduler Scheduler `toml:"scheduler"`
	Cache     Cache     `toml:"cache"`
	Blacklist Blacklist `toml:"blacklist"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("wikimdb.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnabledKinds returns the media kinds the provider may surface. Validate
// guarantees the list parses.
func (c *Config) EnabledKinds() media.Kinds {
	kinds, err := media.ParseKinds(c.Provider.MediaKinds)
	if err != nil {
		return media.NewKinds(media.KindMovie, media.KindTV)
	}
	return kinds
}

// RequestTimeout returns the HTTP client timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.Scheduler.RequestTimeout <= 0 {
		return 0
	}
	return time.Duration(c.Scheduler.RequestTimeout) * time.Second
}

// WikipediaEndpoint returns the api.php URL for the configured language.
func (c *Config) WikipediaEndpoint() string {
	if base := strings.TrimSpace(c.Wikipedia.BaseURL); base != "" {
		return base
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", c.Wikipedia.Language)
}

// EnsureDirectories creates the directories the configured cache backend writes to.
func (c *Config) EnsureDirectories() error {
	switch c.Cache.Backend {
	case CacheBackendFile:
		if err := os.MkdirAll(c.Cache.Dir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", c.Cache.Dir, err)
		}
	case CacheBackendSQLite:
		if err := os.MkdirAll(filepath.Dir(c.Cache.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("create cache directory for %q: %w", c.Cache.SQLitePath, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "wikimdb")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/wikimdb"
	}
	return filepath.Join(home, ".cache", "wikimdb")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the config as TOML. Credentials are redacted.
func (c *Config) Encode() ([]byte, error) {
	clone := *c
	clone.OMDb.APIKey = redact(clone.OMDb.APIKey)
	clone.TMDB.APIKey = redact(clone.TMDB.APIKey)
	clone.Cache.PostgresDSN = redact(clone.Cache.PostgresDSN)
	return toml.Marshal(clone)
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}
