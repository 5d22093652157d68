package identify

import (
	"context"
	"errors"
	"testing"

	"wikimdb/internal/config"
	"wikimdb/internal/media"
	"wikimdb/internal/provider"
	"wikimdb/internal/subject"
	"wikimdb/internal/tmdb"
	"wikimdb/internal/wikipedia"
)

type stubWiki struct {
	links     map[subject.Subject][]string
	items     map[subject.Subject]string
	err       error
	itemCalls int
}

func (s *stubWiki) ExternalLinks(_ context.Context, page subject.Subject) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	links, ok := s.links[page]
	if !ok {
		return nil, wikipedia.ErrNotFound
	}
	return links, nil
}

func (s *stubWiki) WikidataItem(_ context.Context, page subject.Subject) (string, error) {
	s.itemCalls++
	if s.err != nil {
		return "", s.err
	}
	item, ok := s.items[page]
	if !ok {
		return "", wikipedia.ErrNotFound
	}
	return item, nil
}

type stubFinder struct {
	responses map[string]*tmdb.FindResponse
	err       error
	calls     int
}

func (s *stubFinder) Find(_ context.Context, id string) (*tmdb.FindResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if resp, ok := s.responses[id]; ok {
		return resp, nil
	}
	return &tmdb.FindResponse{}, nil
}

func f64(v float64) *float64 { return &v }

func TestLinkStrategyOMDbTakesFirstIMDbLink(t *testing.T) {
	wiki := &stubWiki{links: map[subject.Subject][]string{
		"Inception": {
			"https://example.com/review",
			"https://www.imdb.com/title/tt1375666/",
			"https://www.imdb.com/title/tt0000001/",
		},
	}}
	strategy := NewLinkStrategy(wiki, provider.OMDb, media.NewKinds(media.KindMovie), nil)

	id, err := strategy.Resolve(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != media.IMDbCode("tt1375666") {
		t.Fatalf("expected first imdb code, got %v", id)
	}

	if _, err := strategy.Resolve(context.Background(), "Missing"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for missing page, got %v", err)
	}
}

func TestLinkStrategyTMDBHonoursKinds(t *testing.T) {
	wiki := &stubWiki{links: map[subject.Subject][]string{
		"Christopher Nolan": {"https://www.themoviedb.org/person/525-christopher-nolan"},
		"Inception":         {"https://www.themoviedb.org/person/1", "https://www.themoviedb.org/movie/27205"},
	}}
	strategy := NewLinkStrategy(wiki, provider.TMDB, media.NewKinds(media.KindMovie, media.KindTV), nil)

	if _, err := strategy.Resolve(context.Background(), "Christopher Nolan"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected disabled person link to be ignored, got %v", err)
	}

	id, err := strategy.Resolve(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	ref, ok := id.(media.TMDBRef)
	if !ok || ref.ID != 27205 || ref.Kind != media.KindMovie || ref.Rating != nil {
		t.Fatalf("unexpected ref %#v", id)
	}
}

func TestLinkStrategyTransportErrorIsNotNoMatch(t *testing.T) {
	wiki := &stubWiki{err: errors.New("dial tcp: connection refused")}
	strategy := NewLinkStrategy(wiki, provider.OMDb, media.NewKinds(media.KindMovie), nil)
	_, err := strategy.Resolve(context.Background(), "Inception")
	if err == nil || errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected transient error, got %v", err)
	}

	wiki.err = wikipedia.ErrMalformed
	if _, err := strategy.Resolve(context.Background(), "Inception"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected malformed body to count as no match, got %v", err)
	}
}

func TestWikidataStrategyPicksFirstEnabledBucket(t *testing.T) {
	wiki := &stubWiki{items: map[subject.Subject]string{"Doctor Who": "Q34316", "Jodie": "Q5"}}
	finder := &stubFinder{responses: map[string]*tmdb.FindResponse{
		"Q34316": {
			MovieResults:  nil,
			TVResults:     []tmdb.Match{{ID: 57243, VoteAverage: f64(7.46)}},
			PersonResults: []tmdb.Match{{ID: 9, Popularity: f64(50)}},
		},
		"Q5": {PersonResults: []tmdb.Match{{ID: 66431, Popularity: f64(23.4)}}},
	}}
	strategy := NewWikidataStrategy(wiki, finder, media.NewKinds(media.KindMovie, media.KindTV), nil, nil)

	id, err := strategy.Resolve(context.Background(), "Doctor Who")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	ref := id.(media.TMDBRef)
	if ref.ID != 57243 || ref.Kind != media.KindTV || ref.Rating == nil || *ref.Rating != "7.5" {
		t.Fatalf("unexpected ref %#v", ref)
	}

	if _, err := strategy.Resolve(context.Background(), "Jodie"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected person-only match with people disabled to be no match, got %v", err)
	}

	withPeople := NewWikidataStrategy(wiki, finder, media.NewKinds(media.KindPerson), nil, nil)
	id, err = withPeople.Resolve(context.Background(), "Jodie")
	if err != nil {
		t.Fatalf("Resolve with people: %v", err)
	}
	if ref := id.(media.TMDBRef); ref.Kind != media.KindPerson || *ref.Rating != "2.3" {
		t.Fatalf("unexpected person ref %#v", ref)
	}
}

func TestWikidataStrategyUnratedMatchIsNoMatch(t *testing.T) {
	wiki := &stubWiki{items: map[subject.Subject]string{"Obscure": "Q1"}}
	finder := &stubFinder{responses: map[string]*tmdb.FindResponse{
		"Q1": {
			MovieResults: []tmdb.Match{{ID: 1, VoteAverage: f64(0)}},
			TVResults:    []tmdb.Match{{ID: 2, VoteAverage: f64(8)}},
		},
	}}
	strategy := NewWikidataStrategy(wiki, finder, media.NewKinds(media.KindMovie, media.KindTV), nil, nil)
	if _, err := strategy.Resolve(context.Background(), "Obscure"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected unrated first bucket to be no match, got %v", err)
	}
}

func TestWikidataStrategyBlocksOnRateLimit(t *testing.T) {
	wiki := &stubWiki{items: map[subject.Subject]string{"A": "Q1", "B": "Q2"}}
	finder := &stubFinder{err: tmdb.ErrRateLimited}
	state := &provider.State{}
	strategy := NewWikidataStrategy(wiki, finder, media.NewKinds(media.KindMovie), state, nil)

	if _, err := strategy.Resolve(context.Background(), "A"); !errors.Is(err, ErrProviderBlocked) {
		t.Fatalf("expected ErrProviderBlocked, got %v", err)
	}
	if !state.Blocked(provider.TMDB) {
		t.Fatal("expected tmdb to be blocked")
	}

	if _, err := strategy.Resolve(context.Background(), "B"); !errors.Is(err, ErrProviderBlocked) {
		t.Fatalf("expected ErrProviderBlocked, got %v", err)
	}
	if finder.calls != 1 || wiki.itemCalls != 1 {
		t.Fatalf("expected no calls once blocked, got find=%d wiki=%d", finder.calls, wiki.itemCalls)
	}
}

func TestNewSelectsConfiguredStrategy(t *testing.T) {
	cfg := config.Default()
	wiki := &stubWiki{}

	strategy, err := New(&cfg, wiki, &stubFinder{}, &provider.State{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := strategy.(*WikidataStrategy); !ok {
		t.Fatalf("expected wikidata strategy for tmdb default, got %T", strategy)
	}

	cfg.Provider.Name = config.ProviderOMDb
	cfg.Provider.Strategy = config.StrategyLinks
	strategy, err = New(&cfg, wiki, nil, &provider.State{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := strategy.(*LinkStrategy); !ok {
		t.Fatalf("expected link strategy, got %T", strategy)
	}

	cfg.Provider.Strategy = config.StrategyWikidata
	if _, err := New(&cfg, wiki, nil, &provider.State{}, nil); err == nil {
		t.Fatal("expected omdb with wikidata strategy to be rejected")
	}
}
