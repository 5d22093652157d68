package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"wikimdb/internal/scheduler"
	"wikimdb/internal/subject"
)

var (
	// ErrNotFound means the page or the requested field does not exist.
	ErrNotFound = errors.New("wikipedia page data not found")
	// ErrMalformed means the body was not the expected JSON.
	ErrMalformed = errors.New("wikipedia response malformed")
)

// StatusError reports a non-2xx status from the API.
type StatusError struct {
	Action     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wikipedia %s returned %d", e.Action, e.StatusCode)
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type parseResponse struct {
	Parse *struct {
		Title         string   `json:"title"`
		ExternalLinks []string `json:"externallinks"`
		Text          *string  `json:"text"`
	} `json:"parse"`
	Error *apiError `json:"error"`
}

type queryResponse struct {
	Query *struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			PageProps struct {
				WikibaseItem string `json:"wikibase_item"`
			} `json:"pageprops"`
		} `json:"pages"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

// Fetcher executes GET requests. *scheduler.Scheduler satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req scheduler.Request) (scheduler.Response, error)
}

// Client talks to one wiki's action API endpoint.
type Client struct {
	endpoint string
	fetcher  Fetcher
}

// New creates a client for endpoint, e.g. "https://en.wikipedia.org/w/api.php".
func New(endpoint string, fetcher Fetcher) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("wikipedia endpoint required")
	}
	if fetcher == nil {
		return nil, errors.New("wikipedia fetcher required")
	}
	return &Client{endpoint: endpoint, fetcher: fetcher}, nil
}

// ExternalLinks returns the rendered external links of page in page order.
func (c *Client) ExternalLinks(ctx context.Context, page subject.Subject) ([]string, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", string(page))
	params.Set("prop", "externallinks")

	var body parseResponse
	if err := c.get(ctx, "parse", params, &body); err != nil {
		return nil, err
	}
	if err := body.Error.asError(); err != nil {
		return nil, err
	}
	if body.Parse == nil || body.Parse.ExternalLinks == nil {
		return nil, fmt.Errorf("%w: parse.externallinks missing", ErrMalformed)
	}
	return body.Parse.ExternalLinks, nil
}

// WikidataItem returns the structured-data item id (e.g. "Q25188") linked
// to page, following redirects.
func (c *Client) WikidataItem(ctx context.Context, page subject.Subject) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", string(page))
	params.Set("prop", "pageprops")
	params.Set("redirects", "1")

	var body queryResponse
	if err := c.get(ctx, "query", params, &body); err != nil {
		return "", err
	}
	if err := body.Error.asError(); err != nil {
		return "", err
	}
	if body.Query == nil || len(body.Query.Pages) == 0 {
		return "", fmt.Errorf("%w: query.pages missing", ErrMalformed)
	}

	ids := make([]string, 0, len(body.Query.Pages))
	for id := range body.Query.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if item := strings.TrimSpace(body.Query.Pages[id].PageProps.WikibaseItem); item != "" {
			return item, nil
		}
	}
	return "", fmt.Errorf("%w: no wikibase_item for %q", ErrNotFound, page)
}

// ArticleHTML returns the rendered body HTML of page.
func (c *Client) ArticleHTML(ctx context.Context, page subject.Subject) ([]byte, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", string(page))
	params.Set("prop", "text")
	params.Set("formatversion", "2")
	params.Set("redirects", "1")

	var body parseResponse
	if err := c.get(ctx, "parse", params, &body); err != nil {
		return nil, err
	}
	if err := body.Error.asError(); err != nil {
		return nil, err
	}
	if body.Parse == nil || body.Parse.Text == nil {
		return nil, fmt.Errorf("%w: parse.text missing", ErrMalformed)
	}
	return []byte(*body.Parse.Text), nil
}

func (c *Client) get(ctx context.Context, action string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("parse wikipedia url: %w", err)
	}
	params.Set("format", "json")
	params.Set("origin", "*")
	endpoint.RawQuery = params.Encode()

	resp, err := c.fetcher.Fetch(ctx, scheduler.Request{URL: endpoint.String()})
	if err != nil {
		return fmt.Errorf("wikipedia %s: %w", action, err)
	}
	if !resp.OK() {
		return &StatusError{Action: action, StatusCode: resp.StatusCode}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (e *apiError) asError() error {
	if e == nil {
		return nil
	}
	switch e.Code {
	case "missingtitle", "invalidtitle", "nosuchpageid":
		return fmt.Errorf("%w: %s", ErrNotFound, e.Info)
	default:
		return fmt.Errorf("wikipedia api error %s: %s", e.Code, e.Info)
	}
}
