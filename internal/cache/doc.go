// Package cache implements the session cache shared by every resolution.
//
// The store is a flat string-keyed map of JSON values holding two
// namespaces: subject records ({"tt": ...} or {"tmdbId": ...}, null for a
// negative result) and rating values under "rating_" keys. The whole map is
// persisted as one blob named by the cache-format key and is rewritten on
// every mutation. Backends cover a local JSON file (default), SQLite, Redis,
// and Postgres.
package cache
