// Package config loads, normalizes, and validates wikimdb configuration.
//
// Configuration is read from TOML (--config, ~/.config/wikimdb/config.toml,
// or ./wikimdb.toml, in that order). Provider credentials fall back to the
// OMDB_API_KEY and TMDB_API_KEY environment variables. Validation rejects a
// run whose selected provider has no credentials, since nothing can be
// resolved without them.
package config
