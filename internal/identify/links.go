package identify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"wikimdb/internal/logging"
	"wikimdb/internal/media"
	"wikimdb/internal/provider"
	"wikimdb/internal/subject"
	"wikimdb/internal/wikipedia"
)

var (
	imdbLinkPattern = regexp.MustCompile(`imdb\.com/title/(tt\d{7,})`)
	tmdbLinkPattern = regexp.MustCompile(`themoviedb\.org/(movie|tv|person)/(\d+)`)
)

// LinkStrategy scans a page's external links for the first one that names
// an id on the target provider.
type LinkStrategy struct {
	wiki   LinkSource
	target provider.Name
	kinds  media.Kinds
	logger *slog.Logger
}

// NewLinkStrategy builds a direct-link strategy. kinds only filters TMDB
// links; IMDb title codes carry no kind.
func NewLinkStrategy(wiki LinkSource, target provider.Name, kinds media.Kinds, logger *slog.Logger) *LinkStrategy {
	return &LinkStrategy{
		wiki:   wiki,
		target: target,
		kinds:  kinds,
		logger: logging.NewComponentLogger(logger, "identify"),
	}
}

// Resolve returns the id from the first matching link.
func (s *LinkStrategy) Resolve(ctx context.Context, subj subject.Subject) (media.ExternalID, error) {
	links, err := s.wiki.ExternalLinks(ctx, subj)
	if err != nil {
		return nil, classifyWikiError(ctx, s.logger, subj, err)
	}
	for _, link := range links {
		if id, ok := s.match(link); ok {
			s.logger.DebugContext(ctx, "external id found in links",
				logging.String(logging.FieldSubject, string(subj)),
				logging.String("external_id", id.String()))
			return id, nil
		}
	}
	return nil, ErrNoMatch
}

func (s *LinkStrategy) match(link string) (media.ExternalID, bool) {
	switch s.target {
	case provider.OMDb:
		m := imdbLinkPattern.FindStringSubmatch(link)
		if m == nil {
			return nil, false
		}
		return media.IMDbCode(m[1]), true
	case provider.TMDB:
		m := tmdbLinkPattern.FindStringSubmatch(link)
		if m == nil {
			return nil, false
		}
		kind, err := media.ParseKind(m[1])
		if err != nil || !s.kinds.Has(kind) {
			return nil, false
		}
		id, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil || id <= 0 {
			return nil, false
		}
		return media.TMDBRef{ID: id, Kind: kind}, true
	default:
		return nil, false
	}
}

// classifyWikiError turns definitive wiki misses into ErrNoMatch and passes
// transport problems through.
func classifyWikiError(ctx context.Context, logger *slog.Logger, subj subject.Subject, err error) error {
	switch {
	case errors.Is(err, wikipedia.ErrNotFound):
		return ErrNoMatch
	case errors.Is(err, wikipedia.ErrMalformed):
		logging.WarnWithContext(logger, "malformed encyclopedia response", "wikipedia_malformed",
			logging.String(logging.FieldSubject, string(subj)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the subject is cached as unrated"))
		return ErrNoMatch
	default:
		logger.DebugContext(ctx, "encyclopedia lookup failed",
			logging.String(logging.FieldSubject, string(subj)),
			logging.Error(err))
		return fmt.Errorf("encyclopedia lookup: %w", err)
	}
}
