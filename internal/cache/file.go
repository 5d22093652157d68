package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 25 * time.Millisecond

// FileBackend stores each blob as <dir>/<name>.json. A lock file in dir
// serialises access across processes so concurrent runs never interleave
// partial writes.
type FileBackend struct {
	dir  string
	lock *flock.Flock
	mu   sync.Mutex
}

// NewFileBackend creates dir if needed and returns a backend rooted there.
func NewFileBackend(dir string) (*FileBackend, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileBackend{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".wikimdb.lock")),
	}, nil
}

// Path returns the file a blob named name is stored in.
func (f *FileBackend) Path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(f.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	return data, nil
}

// Write replaces the blob atomically via a temp file and rename.
func (f *FileBackend) Write(ctx context.Context, name string, data []byte) error {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	path := f.Path(name)
	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (f *FileBackend) Close() error {
	return nil
}

func (f *FileBackend) acquire(ctx context.Context) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	f.mu.Lock()
	ok, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		f.mu.Unlock()
		return nil, errors.New("cache lock is held by another process")
	}
	return func() {
		_ = f.lock.Unlock()
		f.mu.Unlock()
	}, nil
}
