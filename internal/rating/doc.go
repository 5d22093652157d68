// Package rating resolves external ids to display ratings.
//
// IMDb codes are rated through OMDb, TMDB refs through TMDB details (or the
// rating the find lookup already carried). Quota exhaustion and rejected
// keys block the backend for the rest of the run through provider.State;
// once blocked, lookups for that backend return nil without a request.
package rating
