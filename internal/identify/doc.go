// Package identify maps page subjects to provider ids.
//
// Two strategies exist. LinkStrategy reads the page's external links and
// takes the first IMDb or TMDB link. WikidataStrategy reads the page's
// Wikidata item and asks TMDB's find endpoint for it, taking the first
// populated bucket in movie, tv, season, episode, person order among the
// enabled kinds.
//
// ErrNoMatch is definitive and cached by callers; ErrProviderBlocked and
// transport errors are not.
package identify
