// Package tmdb is a small client for The Movie Database API covering the
// two calls rating resolution needs: finding resources by Wikidata id and
// fetching a resource's vote average or popularity.
//
// Requests go through a Fetcher so they share the run's concurrency budget.
// Status codes that change resolver behaviour map to sentinel errors:
// ErrRateLimited (429), ErrUnauthorized (401), and ErrNotFound (404).
package tmdb
