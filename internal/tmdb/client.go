package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"wikimdb/internal/media"
	"wikimdb/internal/scheduler"
)

var (
	// ErrRateLimited is returned for HTTP 429; the caller should stop using TMDB.
	ErrRateLimited = errors.New("tmdb rate limit reached")
	// ErrUnauthorized is returned for HTTP 401 (missing or revoked key).
	ErrUnauthorized = errors.New("tmdb rejected api key")
	// ErrNotFound is returned for HTTP 404.
	ErrNotFound = errors.New("tmdb resource not found")
	// ErrMalformed is returned when a body is not the expected JSON.
	ErrMalformed = errors.New("tmdb response malformed")
	// ErrUnsupportedKind is returned by Details for kinds without a
	// standalone resource endpoint.
	ErrUnsupportedKind = errors.New("tmdb details unsupported for media kind")
)

// StatusError reports a non-2xx status without a dedicated sentinel.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s returned %d", e.Endpoint, e.StatusCode)
}

// Match is one candidate in a find bucket.
type Match struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title,omitempty"`
	Name        string   `json:"name,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
	Popularity  *float64 `json:"popularity,omitempty"`
}

// Rating returns the display rating for a match of the given kind, or nil
// when the payload carries none.
func (m Match) Rating(kind media.Kind) *string {
	return FormatRating(kind, m.VoteAverage, m.Popularity)
}

// FindResponse models /find results bucketed by media kind.
type FindResponse struct {
	MovieResults     []Match `json:"movie_results"`
	TVResults        []Match `json:"tv_results"`
	TVSeasonResults  []Match `json:"tv_season_results"`
	TVEpisodeResults []Match `json:"tv_episode_results"`
	PersonResults    []Match `json:"person_results"`
}

// Bucket returns the results for kind.
func (f *FindResponse) Bucket(kind media.Kind) []Match {
	if f == nil {
		return nil
	}
	switch kind {
	case media.KindMovie:
		return f.MovieResults
	case media.KindTV:
		return f.TVResults
	case media.KindSeason:
		return f.TVSeasonResults
	case media.KindEpisode:
		return f.TVEpisodeResults
	case media.KindPerson:
		return f.PersonResults
	default:
		return nil
	}
}

// Details models the rating-bearing fields of a movie, tv, or person resource.
type Details struct {
	ID            int64    `json:"id"`
	VoteAverage   *float64 `json:"vote_average,omitempty"`
	Popularity    *float64 `json:"popularity,omitempty"`
	StatusCode    int      `json:"status_code,omitempty"`
	StatusMessage string   `json:"status_message,omitempty"`
}

// Rating returns the display rating for a resource of the given kind.
func (d Details) Rating(kind media.Kind) *string {
	return FormatRating(kind, d.VoteAverage, d.Popularity)
}

// Fetcher executes GET requests. *scheduler.Scheduler satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req scheduler.Request) (scheduler.Response, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	fetcher  Fetcher
}

// New creates a TMDB client that issues its requests through fetcher.
func New(apiKey, baseURL, language string, fetcher Fetcher) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	if fetcher == nil {
		return nil, errors.New("tmdb fetcher required")
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: strings.TrimSpace(language),
		fetcher:  fetcher,
	}, nil
}

// Find looks up TMDB resources by Wikidata item id (e.g. "Q25188").
func (c *Client) Find(ctx context.Context, wikidataID string) (*FindResponse, error) {
	wikidataID = strings.TrimSpace(wikidataID)
	if wikidataID == "" {
		return nil, errors.New("wikidata id must not be empty")
	}
	params := url.Values{}
	params.Set("external_source", "wikidata_id")

	var payload FindResponse
	if err := c.get(ctx, "find", "/find/"+url.PathEscape(wikidataID), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Details fetches the resource for kind and id. Seasons and episodes are
// addressed through their show and are not supported.
func (c *Client) Details(ctx context.Context, kind media.Kind, id int64) (*Details, error) {
	if id <= 0 {
		return nil, errors.New("tmdb id must be positive")
	}
	var segment string
	switch kind {
	case media.KindMovie:
		segment = "movie"
	case media.KindTV:
		segment = "tv"
	case media.KindPerson:
		segment = "person"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	var payload Details
	if err := c.get(ctx, segment+" details", fmt.Sprintf("/%s/%d", segment, id), url.Values{}, &payload); err != nil {
		return nil, err
	}
	if err := payload.statusErr(); err != nil {
		return nil, err
	}
	return &payload, nil
}

// TMDB error codes that can arrive in a 200 body.
const (
	statusAuthFailed  = 3
	statusInvalidKey  = 7
	statusRateLimited = 25
	statusNotFound    = 34
)

func (d Details) statusErr() error {
	switch d.StatusCode {
	case statusRateLimited:
		return fmt.Errorf("%w: %s", ErrRateLimited, d.StatusMessage)
	case statusAuthFailed, statusInvalidKey:
		return fmt.Errorf("%w: %s", ErrUnauthorized, d.StatusMessage)
	case statusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, d.StatusMessage)
	default:
		return nil
	}
}

func (c *Client) get(ctx context.Context, endpointName, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	resp, err := c.fetcher.Fetch(ctx, scheduler.Request{URL: endpoint.String()})
	if err != nil {
		return fmt.Errorf("tmdb %s: %w", endpointName, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case !resp.OK():
		return &StatusError{Endpoint: endpointName, StatusCode: resp.StatusCode}
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformed, endpointName, err)
	}
	return nil
}
