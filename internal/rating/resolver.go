package rating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"wikimdb/internal/cache"
	"wikimdb/internal/logging"
	"wikimdb/internal/media"
	"wikimdb/internal/omdb"
	"wikimdb/internal/provider"
	"wikimdb/internal/tmdb"
)

// ErrProviderBlocked means the backend for the id is blocked for the run.
// Nothing is cached for such ids.
var ErrProviderBlocked = errors.New("rating provider blocked")

// OMDbRater fetches IMDb ratings by code.
type OMDbRater interface {
	Rating(ctx context.Context, code media.IMDbCode) (string, error)
}

// DetailsFetcher fetches TMDB resource details.
type DetailsFetcher interface {
	Details(ctx context.Context, kind media.Kind, id int64) (*tmdb.Details, error)
}

type call struct {
	done   chan struct{}
	rating *string
	err    error
}

// Resolver turns external ids into display ratings. Results, including
// "no rating", are memoised in the cache's rating namespace, and concurrent
// requests for one id share a single lookup.
type Resolver struct {
	store  *cache.Store
	omdb   OMDbRater
	tmdb   DetailsFetcher
	state  *provider.State
	logger *slog.Logger

	mu    sync.Mutex
	calls map[string]*call
}

// NewResolver wires the backends. Either backend may be nil when the run
// does not use it.
func NewResolver(store *cache.Store, omdbClient OMDbRater, tmdbClient DetailsFetcher, state *provider.State, logger *slog.Logger) *Resolver {
	if state == nil {
		state = &provider.State{}
	}
	return &Resolver{
		store:  store,
		omdb:   omdbClient,
		tmdb:   tmdbClient,
		state:  state,
		logger: logging.NewComponentLogger(logger, "rating"),
		calls:  make(map[string]*call),
	}
}

// Resolve returns the rating for id, or nil when there is none. A non-nil
// error means the outcome was not cached (blocked provider or transport
// failure); the rating is nil in that case too.
func (r *Resolver) Resolve(ctx context.Context, id media.ExternalID) (*string, error) {
	if id == nil {
		return nil, errors.New("external id required")
	}
	key := id.RatingKey()
	if rating, found := r.store.LookupRating(key); found {
		return rating, nil
	}

	r.mu.Lock()
	if c, ok := r.calls[key]; ok {
		r.mu.Unlock()
		<-c.done
		return c.rating, c.err
	}
	// Re-check under the lock: a call may have finished between the
	// lookup above and acquiring mu.
	if rating, found := r.store.LookupRating(key); found {
		r.mu.Unlock()
		return rating, nil
	}
	c := &call{done: make(chan struct{})}
	r.calls[key] = c
	r.mu.Unlock()

	c.rating, c.err = r.lookup(ctx, id)

	r.mu.Lock()
	delete(r.calls, key)
	r.mu.Unlock()
	close(c.done)

	return c.rating, c.err
}

func (r *Resolver) lookup(ctx context.Context, id media.ExternalID) (*string, error) {
	switch v := id.(type) {
	case media.IMDbCode:
		return r.lookupOMDb(ctx, v)
	case media.TMDBRef:
		return r.lookupTMDB(ctx, v)
	default:
		return nil, fmt.Errorf("unsupported external id %T", id)
	}
}

func (r *Resolver) lookupOMDb(ctx context.Context, code media.IMDbCode) (*string, error) {
	if r.state.Blocked(provider.OMDb) {
		return nil, ErrProviderBlocked
	}
	if r.omdb == nil {
		return nil, errors.New("omdb client not configured")
	}

	value, err := r.omdb.Rating(ctx, code)
	switch {
	case err == nil:
		return r.remember(ctx, code, &value), nil
	case errors.Is(err, omdb.ErrRequestLimit), errors.Is(err, omdb.ErrUnauthorized):
		r.block(provider.OMDb, code, err)
		return nil, ErrProviderBlocked
	case errors.Is(err, omdb.ErrUnavailable), errors.Is(err, omdb.ErrNotFound):
		return r.remember(ctx, code, nil), nil
	case errors.Is(err, omdb.ErrMalformed):
		r.warnMalformed(code, err)
		return r.remember(ctx, code, nil), nil
	default:
		return nil, fmt.Errorf("omdb rating %s: %w", code, err)
	}
}

func (r *Resolver) lookupTMDB(ctx context.Context, ref media.TMDBRef) (*string, error) {
	if ref.Rating != nil {
		return r.remember(ctx, ref, ref.Rating), nil
	}
	if r.state.Blocked(provider.TMDB) {
		return nil, ErrProviderBlocked
	}
	if r.tmdb == nil {
		return nil, errors.New("tmdb client not configured")
	}

	details, err := r.tmdb.Details(ctx, ref.Kind, ref.ID)
	switch {
	case err == nil:
		return r.remember(ctx, ref, details.Rating(ref.Kind)), nil
	case errors.Is(err, tmdb.ErrRateLimited), errors.Is(err, tmdb.ErrUnauthorized):
		r.block(provider.TMDB, ref, err)
		return nil, ErrProviderBlocked
	case errors.Is(err, tmdb.ErrNotFound), errors.Is(err, tmdb.ErrUnsupportedKind):
		return r.remember(ctx, ref, nil), nil
	case errors.Is(err, tmdb.ErrMalformed):
		r.warnMalformed(ref, err)
		return r.remember(ctx, ref, nil), nil
	default:
		return nil, fmt.Errorf("tmdb rating %s: %w", ref, err)
	}
}

// remember caches rating under id's key. A failed flush is logged; the
// in-memory entry still serves the rest of the run.
func (r *Resolver) remember(ctx context.Context, id media.ExternalID, rating *string) *string {
	if err := r.store.StoreRating(ctx, id.RatingKey(), rating); err != nil {
		logging.WarnWithContext(r.logger, "failed to persist rating", "cache_write_failed",
			logging.String("external_id", id.String()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the cache backend"),
			logging.String(logging.FieldImpact, "the rating will be looked up again next run"))
	}
	return rating
}

func (r *Resolver) block(name provider.Name, id media.ExternalID, err error) {
	if !r.state.Block(name) {
		return
	}
	logging.WarnWithContext(r.logger, string(name)+" blocked for the rest of the run", "provider_blocked",
		logging.String(logging.FieldProvider, string(name)),
		logging.String("external_id", id.String()),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "wait for the quota window or check the api key"),
		logging.String(logging.FieldImpact, "remaining subjects resolve without ratings"))
}

func (r *Resolver) warnMalformed(id media.ExternalID, err error) {
	logging.WarnWithContext(r.logger, "malformed rating response", "rating_malformed",
		logging.String("external_id", id.String()),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the id is cached as unrated"))
}

// Badge renders a rating the way it is shown next to a link.
func Badge(rating string) string {
	return rating + "⭐"
}
