package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"wikimdb/internal/config"
	"wikimdb/internal/logging"
)

// Backend persists named blobs. Read returns nil data and a nil error when
// nothing has been written under name yet.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Close() error
}

// OpenBackend constructs the backend selected by cfg.Cache.Backend.
func OpenBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendFile:
		return NewFileBackend(cfg.Cache.Dir)
	case config.CacheBackendSQLite:
		return OpenSQLite(ctx, cfg.Cache.SQLitePath)
	case config.CacheBackendRedis:
		return OpenRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
	case config.CacheBackendPostgres:
		return OpenPostgres(ctx, cfg.Cache.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Open opens the configured backend and loads the store from it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s cache backend: %w", cfg.Cache.Backend, err)
	}
	store := New(backend, cfg.Cache.FormatKey, logger)
	if err := store.Load(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}
	logging.NewComponentLogger(logger, "cache").Debug("cache backend ready",
		logging.String("backend", cfg.Cache.Backend),
		logging.Int("entry_count", store.Len()))
	return store, nil
}

// MemoryBackend keeps blobs in process memory only.
type MemoryBackend struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string][]byte)}
}

func (m *MemoryBackend) Read(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) Write(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
