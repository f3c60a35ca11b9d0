package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
)

// File stores every document as <dir>/<name>.json. Writes go to a temp file
// in the same directory which is synced and renamed over the target.
type File struct {
	dir   string
	mu    sync.Mutex
	locks map[Document]*sync.Mutex
}

// NewFile prepares dir and returns a file backend rooted there.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir %s: %w", dir, err)
	}
	return &File{dir: dir, locks: make(map[Document]*sync.Mutex)}, nil
}

func (f *File) lock(doc Document) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[doc]
	if !ok {
		l = &sync.Mutex{}
		f.locks[doc] = l
	}
	return l
}

func (f *File) path(doc Document) string {
	return filepath.Join(f.dir, string(doc)+".json")
}

// Read returns the document bytes, or nil when the file does not exist.
func (f *File) Read(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := f.lock(doc)
	l.Lock()
	defer l.Unlock()
	return f.readLocked(doc)
}

func (f *File) readLocked(doc Document) ([]byte, error) {
	data, err := os.ReadFile(f.path(doc))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Update serializes writers of the same document behind a per-document mutex.
func (f *File) Update(ctx context.Context, doc Document, fn UpdateFunc) error {
	l := f.lock(doc)
	l.Lock()
	defer l.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := f.readLocked(doc)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := writeAtomic(f.path(doc), next); err != nil {
		logger.STORE.Error("write failed",
			slog.String("event", "store.write"),
			slog.String("doc", string(doc)),
			slog.String("err", err.Error()),
		)
		return err
	}
	if logger.ShouldSampleDebug() {
		logger.STORE.Debug("document written",
			slog.String("event", "store.write"),
			slog.String("doc", string(doc)),
			slog.Int("bytes", len(next)),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Ping checks that the directory is still reachable.
func (f *File) Ping(context.Context) error {
	_, err := os.Stat(f.dir)
	return err
}

// Close is a no-op; files are not kept open.
func (f *File) Close() error { return nil }
