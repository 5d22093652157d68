// Package omdb fetches IMDb ratings from the OMDb API.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"wikimdb/internal/media"
	"wikimdb/internal/scheduler"
)

var (
	// ErrUnavailable means the title exists but has no rating ("N/A").
	ErrUnavailable = errors.New("omdb rating unavailable")
	// ErrRequestLimit means the daily quota for the key is exhausted.
	ErrRequestLimit = errors.New("omdb request limit reached")
	// ErrUnauthorized means the key was rejected.
	ErrUnauthorized = errors.New("omdb rejected api key")
	// ErrNotFound covers every other error payload, e.g. unknown ids.
	ErrNotFound = errors.New("omdb title not found")
	// ErrMalformed means the body was not the expected JSON.
	ErrMalformed = errors.New("omdb response malformed")
)

const notAvailable = "N/A"

type payload struct {
	Response   string `json:"Response"`
	Title      string `json:"Title"`
	IMDbRating string `json:"imdbRating"`
	Error      string `json:"Error"`
}

// Fetcher executes GET requests. *scheduler.Scheduler satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req scheduler.Request) (scheduler.Response, error)
}

// Client queries OMDb by IMDb code.
type Client struct {
	apiKey  string
	baseURL string
	fetcher Fetcher
}

// New creates an OMDb client.
func New(apiKey, baseURL string, fetcher Fetcher) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	if fetcher == nil {
		return nil, errors.New("omdb fetcher required")
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, fetcher: fetcher}, nil
}

// Rating returns the pre-formatted imdbRating for code, e.g. "8.8".
func (c *Client) Rating(ctx context.Context, code media.IMDbCode) (string, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse omdb url: %w", err)
	}
	params := endpoint.Query()
	params.Set("apikey", c.apiKey)
	params.Set("i", string(code))
	endpoint.RawQuery = params.Encode()

	resp, err := c.fetcher.Fetch(ctx, scheduler.Request{URL: endpoint.String()})
	if err != nil {
		return "", fmt.Errorf("omdb lookup %s: %w", code, err)
	}

	// OMDb reports quota and key problems in the body, sometimes alongside
	// a 401, so the body is decoded before the status is considered.
	var body payload
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		if !resp.OK() {
			return "", fmt.Errorf("omdb lookup %s returned %d", code, resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg := strings.TrimSpace(body.Error); msg != "" {
		return "", classify(msg)
	}
	if !resp.OK() {
		return "", fmt.Errorf("omdb lookup %s returned %d", code, resp.StatusCode)
	}

	rating := strings.TrimSpace(body.IMDbRating)
	if rating == "" || rating == notAvailable {
		return "", ErrUnavailable
	}
	return rating, nil
}

func classify(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "limit"):
		return fmt.Errorf("%w: %s", ErrRequestLimit, msg)
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "no api key"):
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	default:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
}
