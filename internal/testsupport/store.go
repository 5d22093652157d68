package testsupport

import (
	"context"
	"testing"

	"wikimdb/internal/cache"
	"wikimdb/internal/config"
)

// MustOpenStore opens the configured cache store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *cache.Store {
	t.Helper()

	store, err := cache.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewMemoryStore returns a store backed by process memory along with its
// backend, so tests can inspect the persisted blob.
func NewMemoryStore(name string) (*cache.Store, *cache.MemoryBackend) {
	backend := cache.NewMemoryBackend()
	return cache.New(backend, name, nil), backend
}
