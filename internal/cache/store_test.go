package cache_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"wikimdb/internal/cache"
	"wikimdb/internal/media"
	"wikimdb/internal/subject"
)

const formatKey = "wikimdb_cache_v_0_7_0"

func strptr(s string) *string { return &s }

func newFileStore(t *testing.T, dir string) *cache.Store {
	t.Helper()
	backend, err := cache.NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	store := cache.New(backend, formatKey, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorePersistsEveryMutation(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store := newFileStore(t, dir)

	if err := store.StoreID(ctx, "Inception", cache.FieldIMDb, media.IMDbCode("tt1375666")); err != nil {
		t.Fatalf("StoreID: %v", err)
	}
	if err := store.StoreRating(ctx, "rating_tt1375666", strptr("8.8")); err != nil {
		t.Fatalf("StoreRating: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, formatKey+".json"))
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	want := `{"Inception":{"tt":"tt1375666"},"rating_tt1375666":"8.8"}`
	if string(data) != want {
		t.Fatalf("unexpected blob:\n got %s\nwant %s", data, want)
	}

	reopened := newFileStore(t, dir)
	id, found := reopened.LookupID("Inception", cache.FieldIMDb)
	if !found || id != media.IMDbCode("tt1375666") {
		t.Fatalf("expected persisted id, got %v found=%v", id, found)
	}
	rating, found := reopened.LookupRating("rating_tt1375666")
	if !found || rating == nil || *rating != "8.8" {
		t.Fatalf("expected persisted rating, got %v found=%v", rating, found)
	}
}

func TestStoreRecordShapes(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemoryBackend()
	store := cache.New(backend, formatKey, nil)

	ref := media.TMDBRef{ID: 27205, Kind: media.KindMovie, Rating: strptr("8.4")}
	if err := store.StoreID(ctx, "Inception", cache.FieldTMDB, ref); err != nil {
		t.Fatalf("StoreID: %v", err)
	}
	if err := store.StoreID(ctx, "Nothing", cache.FieldTMDB, nil); err != nil {
		t.Fatalf("StoreID negative: %v", err)
	}
	if err := store.StoreRating(ctx, "rating_person_42", nil); err != nil {
		t.Fatalf("StoreRating: %v", err)
	}

	data, err := backend.Read(ctx, formatKey)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := `{"Inception":{"tmdbId":{"id":27205,"type":"movie","rating":"8.4"}},"Nothing":{"tmdbId":null},"rating_person_42":null}`
	if string(data) != want {
		t.Fatalf("unexpected blob:\n got %s\nwant %s", data, want)
	}

	got, found := store.LookupID("Inception", cache.FieldTMDB)
	gotRef, ok := got.(media.TMDBRef)
	if !found || !ok || gotRef.ID != 27205 || gotRef.Kind != media.KindMovie || gotRef.Rating == nil || *gotRef.Rating != "8.4" {
		t.Fatalf("unexpected tmdb record %#v found=%v", got, found)
	}

	got, found = store.LookupID("Nothing", cache.FieldTMDB)
	if !found || got != nil {
		t.Fatalf("expected negative entry, got %#v found=%v", got, found)
	}

	// A record written for one provider is invisible to the other.
	if _, found := store.LookupID("Inception", cache.FieldIMDb); found {
		t.Fatal("expected tmdb record to be ignored for imdb lookups")
	}

	rating, found := store.LookupRating("rating_person_42")
	if !found || rating != nil {
		t.Fatalf("expected stored null rating, got %v found=%v", rating, found)
	}
	if _, found := store.LookupRating("rating_movie_1"); found {
		t.Fatal("expected absent rating")
	}
}

func TestStoreIDKeepsOtherProviderField(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemoryBackend()
	store := cache.New(backend, formatKey, nil)

	if err := store.StoreID(ctx, "Inception", cache.FieldIMDb, media.IMDbCode("tt1375666")); err != nil {
		t.Fatalf("StoreID imdb: %v", err)
	}
	if err := store.StoreID(ctx, "Inception", cache.FieldTMDB, nil); err != nil {
		t.Fatalf("StoreID tmdb: %v", err)
	}

	data, err := backend.Read(ctx, formatKey)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := `{"Inception":{"tmdbId":null,"tt":"tt1375666"}}`
	if string(data) != want {
		t.Fatalf("unexpected blob:\n got %s\nwant %s", data, want)
	}

	id, found := store.LookupID("Inception", cache.FieldIMDb)
	if !found || id != media.IMDbCode("tt1375666") {
		t.Fatalf("imdb id lost after storing tmdb field: %v found=%v", id, found)
	}
	id, found = store.LookupID("Inception", cache.FieldTMDB)
	if !found || id != nil {
		t.Fatalf("expected tmdb negative entry, got %#v found=%v", id, found)
	}

	// A negative never replaces an id already cached under the same field.
	if err := store.StoreID(ctx, "Inception", cache.FieldIMDb, nil); err != nil {
		t.Fatalf("StoreID imdb negative: %v", err)
	}
	id, found = store.LookupID("Inception", cache.FieldIMDb)
	if !found || id != media.IMDbCode("tt1375666") {
		t.Fatalf("negative overwrote cached imdb id: %v found=%v", id, found)
	}

	if stats := store.Stats(); stats.Subjects != 1 || stats.Negatives != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestStoreLoadStartsEmptyOnCorruptBlob(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemoryBackend()
	if err := backend.Write(ctx, formatKey, []byte("{not json")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	store := cache.New(backend, formatKey, nil)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load should tolerate corrupt blobs, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Len())
	}

	if err := store.StoreRating(ctx, "rating_tt0000001", strptr("5.0")); err != nil {
		t.Fatalf("StoreRating: %v", err)
	}
	data, _ := backend.Read(ctx, formatKey)
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected store to overwrite corrupt blob with valid JSON: %v", err)
	}
}

func TestStoreStatsDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := cache.New(cache.NewMemoryBackend(), formatKey, nil)

	mustStoreID(t, store, "Inception", media.IMDbCode("tt1375666"))
	mustStoreID(t, store, "The Matrix", media.IMDbCode("tt0133093"))
	mustStoreID(t, store, "Paris", nil)
	if err := store.StoreRating(ctx, "rating_tt1375666", strptr("8.8")); err != nil {
		t.Fatal(err)
	}
	if err := store.StoreRating(ctx, "rating_tt0133093", nil); err != nil {
		t.Fatal(err)
	}

	stats := store.Stats()
	if stats.Subjects != 2 || stats.Negatives != 1 || stats.Ratings != 1 || stats.Unrated != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	keys := store.Keys()
	if len(keys) != 5 || keys[0] != "Inception" {
		t.Fatalf("unexpected keys %v", keys)
	}

	removed, err := store.Delete(ctx, "Paris")
	if err != nil || !removed {
		t.Fatalf("Delete returned %v, %v", removed, err)
	}
	if removed, _ := store.Delete(ctx, "Paris"); removed {
		t.Fatal("expected second delete to report missing key")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store after clear, got %d", store.Len())
	}
}

func TestStoreConcurrentWritesKeepEveryKey(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := newFileStore(t, dir)

	var wg sync.WaitGroup
	titles := []subject.Subject{"A", "B", "C", "D", "E", "F", "G", "H"}
	for _, title := range titles {
		wg.Add(1)
		go func(title subject.Subject) {
			defer wg.Done()
			if err := store.StoreID(ctx, title, cache.FieldIMDb, nil); err != nil {
				t.Errorf("StoreID(%s): %v", title, err)
			}
		}(title)
	}
	wg.Wait()

	reopened := newFileStore(t, dir)
	if reopened.Len() != len(titles) {
		t.Fatalf("expected %d persisted keys, got %d", len(titles), reopened.Len())
	}
}

func mustStoreID(t *testing.T, store *cache.Store, subj subject.Subject, id media.ExternalID) {
	t.Helper()
	if err := store.StoreID(context.Background(), subj, cache.FieldIMDb, id); err != nil {
		t.Fatalf("StoreID(%s): %v", subj, err)
	}
}
