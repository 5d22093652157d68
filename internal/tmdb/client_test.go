package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wikimdb/internal/media"
	"wikimdb/internal/scheduler"
	"wikimdb/internal/tmdb"
)

func newClient(t *testing.T, handler http.HandlerFunc) *tmdb.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := tmdb.New("key", server.URL, "en-US", scheduler.New(server.Client(), 4, nil))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US", scheduler.New(nil, 1, nil)); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestFindSuccess(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/find/Q25188" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "key" || q.Get("external_source") != "wikidata_id" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"movie_results":[{"id":27205,"title":"Inception","vote_average":8.369}],"tv_results":[],"person_results":[]}`))
	})

	resp, err := client.Find(context.Background(), "Q25188")
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	movies := resp.Bucket(media.KindMovie)
	if len(movies) != 1 || movies[0].ID != 27205 {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if rating := movies[0].Rating(media.KindMovie); rating == nil || *rating != "8.4" {
		t.Fatalf("unexpected rating %v", rating)
	}
	if len(resp.Bucket(media.KindPerson)) != 0 {
		t.Fatal("expected empty person bucket")
	}
}

func TestStatusCodesMapToSentinels(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, tmdb.ErrRateLimited},
		{http.StatusUnauthorized, tmdb.ErrUnauthorized},
		{http.StatusNotFound, tmdb.ErrNotFound},
	}
	for _, tc := range cases {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"status_code":7}`))
		})
		if _, err := client.Details(context.Background(), media.KindMovie, 1); !errors.Is(err, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.Details(context.Background(), media.KindTV, 1)
	var statusErr *tmdb.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected StatusError, got %v", err)
	}
}

func TestDetailsPersonUsesPopularity(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/person/525" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":525,"popularity":45.67}`))
	})

	details, err := client.Details(context.Background(), media.KindPerson, 525)
	if err != nil {
		t.Fatalf("Details returned error: %v", err)
	}
	if rating := details.Rating(media.KindPerson); rating == nil || *rating != "4.6" {
		t.Fatalf("unexpected person rating %v", rating)
	}
}

func TestDetailsBodyStatusCodesMapToSentinels(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"rate limited", `{"status_code":25,"status_message":"Your request count is over the allowed limit."}`, tmdb.ErrRateLimited},
		{"invalid key", `{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`, tmdb.ErrUnauthorized},
		{"not found", `{"status_code":34,"status_message":"The resource you requested could not be found."}`, tmdb.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})
			details, err := client.Details(context.Background(), media.KindMovie, 27205)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if details != nil {
				t.Fatalf("expected no details, got %+v", details)
			}
		})
	}
}

func TestDetailsRejectsMalformedAndUnsupported(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})
	if _, err := client.Details(context.Background(), media.KindMovie, 1); !errors.Is(err, tmdb.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := client.Details(context.Background(), media.KindSeason, 1); !errors.Is(err, tmdb.ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestFormatRating(t *testing.T) {
	vote := 7.26
	zero := 0.0
	pop := 123.0
	if got := tmdb.FormatRating(media.KindTV, &vote, nil); got == nil || *got != "7.3" {
		t.Fatalf("unexpected tv rating %v", got)
	}
	if got := tmdb.FormatRating(media.KindMovie, &zero, &pop); got != nil {
		t.Fatalf("expected zero vote average to be unrated, got %v", *got)
	}
	if got := tmdb.FormatRating(media.KindMovie, nil, &pop); got != nil {
		t.Fatalf("expected missing vote average to be unrated, got %v", *got)
	}
	if got := tmdb.FormatRating(media.KindPerson, &vote, &pop); got == nil || *got != "12.3" {
		t.Fatalf("unexpected person rating %v", got)
	}
}
