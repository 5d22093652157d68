package wikipedia_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wikimdb/internal/scheduler"
	"wikimdb/internal/wikipedia"
)

func newClient(t *testing.T, handler http.HandlerFunc) *wikipedia.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := wikipedia.New(server.URL+"/w/api.php", scheduler.New(server.Client(), 2, nil))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestExternalLinks(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "parse" || q.Get("page") != "Inception" || q.Get("prop") != "externallinks" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if q.Get("format") != "json" || q.Get("origin") != "*" {
			t.Errorf("missing format/origin in %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"parse":{"title":"Inception","externallinks":["https://www.imdb.com/title/tt1375666/","https://example.com"]}}`))
	})

	links, err := client.ExternalLinks(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("ExternalLinks returned error: %v", err)
	}
	if len(links) != 2 || links[0] != "https://www.imdb.com/title/tt1375666/" {
		t.Fatalf("unexpected links %v", links)
	}
}

func TestExternalLinksMissingPage(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"missingtitle","info":"The page you specified doesn't exist."}}`))
	})
	if _, err := client.ExternalLinks(context.Background(), "Nope"); !errors.Is(err, wikipedia.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWikidataItem(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("titles") != "Inception" || q.Get("prop") != "pageprops" || q.Get("redirects") != "1" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"query":{"pages":{"22190658":{"title":"Inception","pageprops":{"wikibase_item":"Q25188"}}}}}`))
	})

	item, err := client.WikidataItem(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("WikidataItem returned error: %v", err)
	}
	if item != "Q25188" {
		t.Fatalf("unexpected item %q", item)
	}
}

func TestWikidataItemErrors(t *testing.T) {
	missing := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"pages":{"-1":{"title":"Nope","missing":""}}}}`))
	})
	if _, err := missing.WikidataItem(context.Background(), "Nope"); !errors.Is(err, wikipedia.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	malformed := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	if _, err := malformed.WikidataItem(context.Background(), "Nope"); !errors.Is(err, wikipedia.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}

	unavailable := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := unavailable.WikidataItem(context.Background(), "Nope")
	var statusErr *wikipedia.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError, got %v", err)
	}
}

func TestArticleHTML(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("formatversion") != "2" {
			t.Errorf("expected formatversion=2, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"parse":{"title":"Inception","text":"<p><a href=\"/wiki/Christopher_Nolan\">Nolan</a></p>"}}`))
	})

	html, err := client.ArticleHTML(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("ArticleHTML returned error: %v", err)
	}
	if string(html) != `<p><a href="/wiki/Christopher_Nolan">Nolan</a></p>` {
		t.Fatalf("unexpected html %q", html)
	}
}
