package identify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wikimdb/internal/logging"
	"wikimdb/internal/media"
	"wikimdb/internal/provider"
	"wikimdb/internal/subject"
	"wikimdb/internal/tmdb"
)

// WikidataStrategy maps a subject to TMDB through its Wikidata item.
type WikidataStrategy struct {
	wiki   ItemSource
	finder Finder
	kinds  media.Kinds
	state  *provider.State
	logger *slog.Logger
}

// NewWikidataStrategy builds the indirection strategy.
func NewWikidataStrategy(wiki ItemSource, finder Finder, kinds media.Kinds, state *provider.State, logger *slog.Logger) *WikidataStrategy {
	if state == nil {
		state = &provider.State{}
	}
	return &WikidataStrategy{
		wiki:   wiki,
		finder: finder,
		kinds:  kinds,
		state:  state,
		logger: logging.NewComponentLogger(logger, "identify"),
	}
}

// Resolve looks up the item id, then picks the first populated enabled
// bucket in priority order. A match whose payload has no rating counts as
// no match.
func (s *WikidataStrategy) Resolve(ctx context.Context, subj subject.Subject) (media.ExternalID, error) {
	if s.state.Blocked(provider.TMDB) {
		return nil, ErrProviderBlocked
	}

	item, err := s.wiki.WikidataItem(ctx, subj)
	if err != nil {
		return nil, classifyWikiError(ctx, s.logger, subj, err)
	}

	// The flag may have flipped while the wiki call was queued.
	if s.state.Blocked(provider.TMDB) {
		return nil, ErrProviderBlocked
	}

	found, err := s.finder.Find(ctx, item)
	if err != nil {
		return nil, s.classifyFindError(subj, item, err)
	}

	for _, kind := range media.PriorityOrder {
		if !s.kinds.Has(kind) {
			continue
		}
		bucket := found.Bucket(kind)
		if len(bucket) == 0 {
			continue
		}
		match := bucket[0]
		rating := match.Rating(kind)
		if rating == nil {
			s.logger.DebugContext(ctx, "match has no rating",
				logging.String(logging.FieldSubject, string(subj)),
				logging.String("kind", kind.String()),
				logging.Int64("tmdb_id", match.ID))
			return nil, ErrNoMatch
		}
		return media.TMDBRef{ID: match.ID, Kind: kind, Rating: rating}, nil
	}
	return nil, ErrNoMatch
}

func (s *WikidataStrategy) classifyFindError(subj subject.Subject, item string, err error) error {
	switch {
	case errors.Is(err, tmdb.ErrRateLimited), errors.Is(err, tmdb.ErrUnauthorized):
		if s.state.Block(provider.TMDB) {
			logging.WarnWithContext(s.logger, "tmdb blocked for the rest of the run", "provider_blocked",
				logging.String(logging.FieldProvider, string(provider.TMDB)),
				logging.String(logging.FieldSubject, string(subj)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "wait for the quota window or check tmdb.api_key"),
				logging.String(logging.FieldImpact, "remaining subjects resolve without ratings"))
		}
		return ErrProviderBlocked
	case errors.Is(err, tmdb.ErrNotFound):
		return ErrNoMatch
	case errors.Is(err, tmdb.ErrMalformed):
		logging.WarnWithContext(s.logger, "malformed tmdb find response", "tmdb_malformed",
			logging.String(logging.FieldSubject, string(subj)),
			logging.String("wikidata_id", item),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the subject is cached as unrated"))
		return ErrNoMatch
	default:
		return fmt.Errorf("tmdb find %s: %w", item, err)
	}
}
