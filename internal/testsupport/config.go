package testsupport

import (
	"path/filepath"
	"testing"

	"wikimdb/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config with credentials for both providers and a file
// cache rooted in a per-test temp directory. Options are applied in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Provider.Name = config.ProviderTMDB
	cfgVal.Provider.Strategy = config.StrategyWikidata
	cfgVal.OMDb.APIKey = "omdb-test"
	cfgVal.TMDB.APIKey = "tmdb-test"
	cfgVal.Cache.Backend = config.CacheBackendFile
	cfgVal.Cache.Dir = filepath.Join(base, "cache")
	cfgVal.Cache.SQLitePath = filepath.Join(base, "cache", "cache.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProvider selects the rating provider and its default strategy.
func WithProvider(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Provider.Name = name
		if name == config.ProviderOMDb {
			b.cfg.Provider.Strategy = config.StrategyLinks
		} else {
			b.cfg.Provider.Strategy = config.StrategyWikidata
		}
	}
}

// WithStrategy overrides the identifier strategy.
func WithStrategy(strategy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Provider.Strategy = strategy
	}
}

// WithUpstream points every remote API at one fake server: the encyclopedia
// at /w/api.php, OMDb at /omdb/, and TMDB under /tmdb.
func WithUpstream(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Wikipedia.BaseURL = baseURL + "/w/api.php"
		b.cfg.OMDb.BaseURL = baseURL + "/omdb/"
		b.cfg.TMDB.BaseURL = baseURL + "/tmdb"
	}
}

// WithMediaKinds replaces the enabled media kinds.
func WithMediaKinds(kinds ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Provider.MediaKinds = append([]string(nil), kinds...)
	}
}

// WithoutCredentials clears both provider API keys.
func WithoutCredentials() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OMDb.APIKey = ""
		b.cfg.TMDB.APIKey = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Cache.Dir)
}
