package config

import "path/filepath"

const (
	ProviderOMDb = "omdb"
	ProviderTMDB = "tmdb"

	StrategyLinks    = "links"
	StrategyWikidata = "wikidata"

	CacheBackendFile     = "file"
	CacheBackendSQLite   = "sqlite"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
)

const (
	defaultConfigPath      = "~/.config/wikimdb/config.toml"
	defaultProvider        = ProviderTMDB
	defaultOMDbBaseURL     = "https://www.omdbapi.com/"
	defaultTMDBBaseURL     = "https://api.themoviedb.org/3"
	defaultTMDBLanguage    = "en-US"
	defaultWikiLanguage    = "en"
	defaultUserAgent       = "wikimdb/dev (+https://github.com/wikimdb/wikimdb)"
	defaultMaxParallel     = 15
	maxParallelCeiling     = 64
	defaultRequestTimeout  = 20
	defaultCacheBackend    = CacheBackendFile
	defaultCacheFormatKey  = "wikimdb_cache_v_0_7_0"
	defaultRedisAddr       = "127.0.0.1:6379"
	defaultLogFormat       = "auto"
	defaultLogLevel        = "info"
	defaultSQLiteFileName  = "cache.db"
	defaultStrategyForOMDb = StrategyLinks
	defaultStrategyForTMDB = StrategyWikidata
)

// Seasons, episodes, and people are opt-in.
var defaultMediaKinds = []string{"movies", "tv"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	cacheDir := defaultCacheDir()
	return Config{
		Provider: Provider{
			Name:       defaultProvider,
			MediaKinds: append([]string(nil), defaultMediaKinds...),
		},
		OMDb: OMDb{
			BaseURL: defaultOMDbBaseURL,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Wikipedia: Wikipedia{
			Language:  defaultWikiLanguage,
			UserAgent: defaultUserAgent,
		},
		Scheduler: Scheduler{
			MaxParallel:    defaultMaxParallel,
			RequestTimeout: defaultRequestTimeout,
		},
		Cache: Cache{
			Backend:    defaultCacheBackend,
			Dir:        cacheDir,
			SQLitePath: filepath.Join(cacheDir, defaultSQLiteFileName),
			RedisAddr:  defaultRedisAddr,
			FormatKey:  defaultCacheFormatKey,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
