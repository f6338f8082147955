package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const filePerm = 0o644

// FileStore is a Store backed by a JSON file.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu     sync.RWMutex
	doc    *Document
	sum    [sha256.Size]byte // checksum of the bytes last read or written
	closed bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// Option configures a FileStore.
type Option func(*options)

type options struct {
	watch bool
}

// WithWatch reloads the document when the file changes on disk.
func WithWatch(enabled bool) Option {
	return func(o *options) { o.watch = enabled }
}

// Open loads the document at path, creating the file with empty
// collections when it does not exist.
func Open(ctx context.Context, path string, logger *zap.Logger, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &FileStore{
		path:   path,
		logger: logger.Named("store"),
		done:   make(chan struct{}),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		s.doc = NewDocument()
		if err := s.persist(s.doc); err != nil {
			return nil, err
		}
		s.logger.Info("created database", zap.String("path", path))
	case err != nil:
		return nil, fmt.Errorf("failed to read database %s: %w", path, err)
	default:
		doc, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load database %s: %w", path, err)
		}
		s.doc = doc
		s.sum = sha256.Sum256(data)
		s.logger.Info("loaded database",
			zap.String("path", path),
			zap.Int("items", len(doc.Items)),
			zap.Int("lists", len(doc.Lists)))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if o.watch {
		if err := s.startWatch(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the database file path.
func (s *FileStore) Path() string {
	return s.path
}

// View implements Store.
func (s *FileStore) View(ctx context.Context, fn func(doc *Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	snapshot := s.doc.Clone()
	s.mu.RUnlock()
	return fn(snapshot)
}

// Update implements Store. The new document is committed only after it has
// been written to disk.
func (s *FileStore) Update(ctx context.Context, fn func(doc *Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	next := s.doc.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.persist(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

// persist writes doc and records its checksum. Callers hold mu.
func (s *FileStore) persist(doc *Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(s.path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write database: %w", err)
	}
	s.sum = sha256.Sum256(data)
	return nil
}

// Reload re-reads the file. It is a no-op when the content is unchanged,
// which is the case for the store's own writes. On a parse error the
// current state is kept.
func (s *FileStore) Reload() (bool, error) {
	// Update holds mu across write and swap, so the read happens under it too.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, fmt.Errorf("failed to read database: %w", err)
	}
	sum := sha256.Sum256(data)
	if sum == s.sum {
		return false, nil
	}
	doc, err := Decode(data)
	if err != nil {
		return false, fmt.Errorf("failed to parse database: %w", err)
	}
	s.doc = doc
	s.sum = sum
	return true, nil
}

func (s *FileStore) startWatch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: atomic renames replace the file's inode.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = w

	s.wg.Add(1)
	go s.watchLoop()
	s.logger.Info("watching database for changes", zap.String("path", s.path))
	return nil
}

func (s *FileStore) watchLoop() {
	defer s.wg.Done()
	name := filepath.Clean(s.path)
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			changed, err := s.Reload()
			switch {
			case errors.Is(err, ErrClosed):
				return
			case errors.Is(err, fs.ErrNotExist):
				// Mid-rename; the Create event for the new file follows.
			case err != nil:
				s.logger.Warn("ignoring external database change", zap.Error(err))
			case changed:
				s.logger.Info("reloaded database after external change", zap.String("op", ev.Op.String()))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("database watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher.
func (s *FileStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	var err error
	if s.watcher != nil {
		err = s.watcher.Close()
	}
	s.wg.Wait()
	return err
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
