package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"wikimdb/internal/logging"
)

// RatingPrefix marks keys in the rating namespace.
const RatingPrefix = "rating_"

// Stats summarises the cache contents.
type Stats struct {
	Subjects  int `json:"subjects"`
	Negatives int `json:"negatives"`
	Ratings   int `json:"ratings"`
	Unrated   int `json:"unrated"`
}

// Store is the in-memory key/value cache backed by a single durable blob.
// Every mutation rewrites the whole blob before returning.
type Store struct {
	backend Backend
	name    string
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[string]json.RawMessage

	// flushMu orders snapshots and writes so a slower flush never replaces a
	// newer one.
	flushMu sync.Mutex
}

// New creates an empty store that persists under name through backend.
// Call Load to populate it.
func New(backend Backend, name string, logger *slog.Logger) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Store{
		backend: backend,
		name:    name,
		logger:  logging.NewComponentLogger(logger, "cache"),
		entries: make(map[string]json.RawMessage),
	}
}

// Name returns the cache-format key the blob is stored under.
func (s *Store) Name() string { return s.name }

// Load replaces the in-memory contents with the durable blob. A blob that
// does not parse leaves the store empty and is not an error; a backend that
// cannot be read is.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.backend.Read(ctx, s.name)
	if err != nil {
		return fmt.Errorf("read cache %q: %w", s.name, err)
	}

	entries := make(map[string]json.RawMessage)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			logging.WarnWithContext(s.logger, "cache blob unreadable, starting empty", "cache_parse_failed",
				logging.Error(err),
				logging.String("cache", s.name),
				logging.String(logging.FieldErrorHint, "run `wikimdb cache clear` if this persists"),
				logging.String(logging.FieldImpact, "previously cached ratings will be looked up again"))
			entries = make(map[string]json.RawMessage)
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Debug("loaded cache",
		logging.Int("entry_count", len(entries)),
		logging.String("cache", s.name))
	return nil
}

// Get returns the raw JSON stored at key. A stored null is returned as the
// literal "null" and reported as present.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	return value, ok
}

// Set stores value at key and flushes the whole store. The in-memory value is
// kept even when the flush fails.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	s.mu.Lock()
	s.entries[key] = raw
	s.mu.Unlock()

	return s.flush(ctx)
}

// update replaces the value at key with the result of fn, applied under the
// write lock. fn receives nil when key is absent; a nil result leaves the
// store untouched.
func (s *Store) update(ctx context.Context, key string, fn func(json.RawMessage) (json.RawMessage, error)) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}

	s.mu.Lock()
	raw, err := fn(s.entries[key])
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if raw == nil {
		s.mu.Unlock()
		return nil
	}
	s.entries[key] = raw
	s.mu.Unlock()

	return s.flush(ctx)
}

// Delete removes key and flushes. It reports whether the key existed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, s.flush(ctx)
}

// Clear empties the store and flushes.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]json.RawMessage)
	s.mu.Unlock()
	return s.flush(ctx)
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats counts subjects, negative subjects, and ratings.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	for key, raw := range s.entries {
		if strings.HasPrefix(key, RatingPrefix) {
			if isNull(raw) {
				stats.Unrated++
			} else {
				stats.Ratings++
			}
			continue
		}
		if isNegativeRecord(raw) {
			stats.Negatives++
		} else {
			stats.Subjects++
		}
	}
	return stats
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.RLock()
	data, err := json.Marshal(s.entries)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	if err := s.backend.Write(ctx, s.name, data); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
