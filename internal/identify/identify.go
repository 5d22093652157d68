package identify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wikimdb/internal/config"
	"wikimdb/internal/media"
	"wikimdb/internal/provider"
	"wikimdb/internal/subject"
	"wikimdb/internal/tmdb"
)

var (
	// ErrNoMatch is a definitive miss; callers cache it as a negative entry.
	ErrNoMatch = errors.New("no external id for subject")
	// ErrProviderBlocked means the provider was blocked for the run; the
	// miss is not cached.
	ErrProviderBlocked = errors.New("provider blocked")
)

// Strategy maps a subject to its external id. Errors other than ErrNoMatch
// are transient and must not be cached.
type Strategy interface {
	Resolve(ctx context.Context, subj subject.Subject) (media.ExternalID, error)
}

// LinkSource lists a page's external links.
type LinkSource interface {
	ExternalLinks(ctx context.Context, page subject.Subject) ([]string, error)
}

// ItemSource returns a page's Wikidata item id.
type ItemSource interface {
	WikidataItem(ctx context.Context, page subject.Subject) (string, error)
}

// Finder queries TMDB by Wikidata id.
type Finder interface {
	Find(ctx context.Context, wikidataID string) (*tmdb.FindResponse, error)
}

// Encyclopedia is the union of what both strategies read from the wiki.
type Encyclopedia interface {
	LinkSource
	ItemSource
}

// New selects the strategy configured in cfg.Provider.
func New(cfg *config.Config, wiki Encyclopedia, finder Finder, state *provider.State, logger *slog.Logger) (Strategy, error) {
	name, err := provider.ParseName(cfg.Provider.Name)
	if err != nil {
		return nil, err
	}
	kinds := cfg.EnabledKinds()

	strategy := cfg.Provider.Strategy
	if strategy == "" {
		strategy = config.StrategyLinks
		if name == provider.TMDB {
			strategy = config.StrategyWikidata
		}
	}

	switch strategy {
	case config.StrategyLinks:
		return NewLinkStrategy(wiki, name, kinds, logger), nil
	case config.StrategyWikidata:
		if name != provider.TMDB {
			return nil, fmt.Errorf("strategy %q requires provider %q", config.StrategyWikidata, provider.TMDB)
		}
		if finder == nil {
			return nil, errors.New("wikidata strategy requires a tmdb client")
		}
		return NewWikidataStrategy(wiki, finder, kinds, state, logger), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}
