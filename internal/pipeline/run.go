package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"wikimdb/internal/blacklist"
	"wikimdb/internal/cache"
	"wikimdb/internal/config"
	"wikimdb/internal/identify"
	"wikimdb/internal/logging"
	"wikimdb/internal/omdb"
	"wikimdb/internal/provider"
	"wikimdb/internal/rating"
	"wikimdb/internal/scheduler"
	"wikimdb/internal/subject"
	"wikimdb/internal/tmdb"
	"wikimdb/internal/wikipedia"
)

// Run is the state shared by every resolution in one session: the config
// snapshot, cache, scheduler, provider flags, blacklist, and logger.
type Run struct {
	ID        string
	Config    *config.Config
	Cache     *cache.Store
	Scheduler *scheduler.Scheduler
	Providers *provider.State
	Blacklist *blacklist.Filter
	Wiki      *wikipedia.Client
	Logger    *slog.Logger

	provider provider.Name
	idField  cache.IDField
	strategy identify.Strategy
	ratings  *rating.Resolver

	mu       sync.Mutex
	inflight map[subject.Subject]*resolution
}

type options struct {
	doer      scheduler.Doer
	logger    *slog.Logger
	blacklist *blacklist.Filter
	runID     string
}

// Option customises New.
type Option func(*options)

// WithDoer overrides the HTTP transport used by the scheduler.
func WithDoer(doer scheduler.Doer) Option {
	return func(o *options) { o.doer = doer }
}

// WithLogger sets the base logger; the run id is attached to it.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBlacklist replaces the filter loaded from cfg.Blacklist.Path.
func WithBlacklist(filter *blacklist.Filter) Option {
	return func(o *options) { o.blacklist = filter }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// New assembles a run. Missing credentials for the configured provider are
// fatal here, before any work is scheduled.
func New(cfg *config.Config, store *cache.Store, opts ...Option) (*Run, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if store == nil {
		return nil, errors.New("cache store required")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	name, err := provider.ParseName(cfg.Provider.Name)
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldRunID, o.runID))

	doer := o.doer
	if doer == nil {
		doer = &http.Client{Timeout: cfg.RequestTimeout()}
	}
	sched := scheduler.New(doer, cfg.Scheduler.MaxParallel, logger, scheduler.WithUserAgent(cfg.Wikipedia.UserAgent))

	filter := o.blacklist
	if filter == nil {
		filter = blacklist.Load(cfg.Blacklist.Path, logger)
	}

	wiki, err := wikipedia.New(cfg.WikipediaEndpoint(), sched)
	if err != nil {
		return nil, err
	}

	state := &provider.State{}
	run := &Run{
		ID:        o.runID,
		Config:    cfg,
		Cache:     store,
		Scheduler: sched,
		Providers: state,
		Blacklist: filter,
		Wiki:      wiki,
		Logger:    logging.NewComponentLogger(logger, "pipeline"),
		provider:  name,
		inflight:  make(map[subject.Subject]*resolution),
	}

	switch name {
	case provider.OMDb:
		if strings.TrimSpace(cfg.OMDb.APIKey) == "" {
			return nil, fmt.Errorf("%w: omdb.api_key (or OMDB_API_KEY) is not set", config.ErrMissingCredentials)
		}
		client, err := omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL, sched)
		if err != nil {
			return nil, err
		}
		run.idField = cache.FieldIMDb
		run.ratings = rating.NewResolver(store, client, nil, state, logger)
		run.strategy, err = identify.New(cfg, wiki, nil, state, logger)
		if err != nil {
			return nil, err
		}
	case provider.TMDB:
		if strings.TrimSpace(cfg.TMDB.APIKey) == "" {
			return nil, fmt.Errorf("%w: tmdb.api_key (or TMDB_API_KEY) is not set", config.ErrMissingCredentials)
		}
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, sched)
		if err != nil {
			return nil, err
		}
		run.idField = cache.FieldTMDB
		run.ratings = rating.NewResolver(store, nil, client, state, logger)
		run.strategy, err = identify.New(cfg, wiki, client, state, logger)
		if err != nil {
			return nil, err
		}
	}

	run.Logger.Debug("run initialised",
		logging.String(logging.FieldProvider, string(name)),
		logging.String("strategy", cfg.Provider.Strategy),
		logging.String("media_kinds", cfg.EnabledKinds().String()),
		logging.Int("max_parallel", sched.Limit()),
		logging.Int("blacklist_patterns", filter.Len()),
		logging.Int("cache_entries", store.Len()))

	return run, nil
}

// Provider returns the rating backend this run uses.
func (r *Run) Provider() provider.Name { return r.provider }
