package omdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wikimdb/internal/omdb"
	"wikimdb/internal/scheduler"
)

func newClient(t *testing.T, status int, body string) *omdb.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "secret" {
			t.Errorf("expected apikey query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("i") != "tt1375666" {
			t.Errorf("expected i query parameter, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := omdb.New("secret", server.URL+"/", scheduler.New(server.Client(), 2, nil))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestRatingSuccess(t *testing.T) {
	client := newClient(t, http.StatusOK, `{"Title":"Inception","imdbRating":"8.8","Response":"True"}`)
	rating, err := client.Rating(context.Background(), "tt1375666")
	if err != nil {
		t.Fatalf("Rating returned error: %v", err)
	}
	if rating != "8.8" {
		t.Fatalf("unexpected rating %q", rating)
	}
}

func TestRatingErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not available", http.StatusOK, `{"imdbRating":"N/A","Response":"True"}`, omdb.ErrUnavailable},
		{"request limit", http.StatusUnauthorized, `{"Response":"False","Error":"Request limit reached!"}`, omdb.ErrRequestLimit},
		{"invalid key", http.StatusUnauthorized, `{"Response":"False","Error":"Invalid API key!"}`, omdb.ErrUnauthorized},
		{"unknown id", http.StatusOK, `{"Response":"False","Error":"Incorrect IMDb ID."}`, omdb.ErrNotFound},
		{"malformed", http.StatusOK, `<html>`, omdb.ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(t, tc.status, tc.body)
			if _, err := client.Rating(context.Background(), "tt1375666"); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := omdb.New(" ", "https://www.omdbapi.com/", scheduler.New(nil, 1, nil)); err == nil {
		t.Fatal("expected error when api key missing")
	}
}
