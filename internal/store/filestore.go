// Package store persists the whole data file as one JSON document. Every
// mutation runs as a whole read-modify-write cycle under the store mutex, so
// at most one cycle is in flight at a time and the engine packages can treat
// the loaded structure as exclusively owned.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/models"
)

// ErrPersistence marks read/write failures of the data file. Handlers map it
// to a server error; a failed write means the in-memory mutation was never
// committed.
var ErrPersistence = errors.New("data file persistence failure")

// DefaultSlowWriteThreshold is how long a save may take before it is logged
// as slow. Slow writes are observability only, never aborted.
const DefaultSlowWriteThreshold = 500 * time.Millisecond

// FileStore is a whole-file JSON store for one DataFile.
type FileStore struct {
	path               string
	logger             *zap.Logger
	slowWriteThreshold time.Duration

	mu sync.Mutex // held for a whole read-modify-write cycle
}

// New creates a store for the given data file path.
func New(path string, logger *zap.Logger) *FileStore {
	return &FileStore{
		path:               path,
		logger:             logger,
		slowWriteThreshold: DefaultSlowWriteThreshold,
	}
}

// SetSlowWriteThreshold overrides the slow-write logging threshold.
func (s *FileStore) SetSlowWriteThreshold(d time.Duration) {
	if d > 0 {
		s.slowWriteThreshold = d
	}
}

// Path returns the data file path.
func (s *FileStore) Path() string { return s.path }

// View runs fn against a freshly loaded data file without persisting.
func (s *FileStore) View(fn func(*models.DataFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	return fn(f)
}

// Update runs fn against the current data file and persists the result when
// fn succeeds. An error from fn aborts the cycle without writing; later
// cycles never observe the abandoned in-memory mutation.
func (s *FileStore) Update(fn func(*models.DataFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		return err
	}
	return s.save(f)
}

// load reads the data file. A missing file yields an empty structure, not an
// error.
func (s *FileStore) load() (*models.DataFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewDataFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, s.path, err)
	}

	f := models.NewDataFile()
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrPersistence, s.path, err)
	}
	return f, nil
}

// save writes the whole structure atomically: encode, write a temp file in
// the same directory, rename over the target.
func (s *FileStore) save(f *models.DataFile) error {
	start := time.Now()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".taskdeck-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %v", ErrPersistence, dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		if closeErr := tmp.Close(); closeErr != nil {
			_ = closeErr
		}
		if rmErr := os.Remove(tmpName); rmErr != nil {
			_ = rmErr
		}
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil {
			_ = rmErr
		}
		return fmt.Errorf("%w: close %s: %v", ErrPersistence, tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil {
			_ = rmErr
		}
		return fmt.Errorf("%w: rename %s: %v", ErrPersistence, s.path, err)
	}

	if elapsed := time.Since(start); elapsed > s.slowWriteThreshold {
		s.logger.Warn("slow_data_file_write",
			zap.Int64("duration_ms", elapsed.Milliseconds()),
			zap.Int("bytes", len(data)),
			zap.String("path", s.path),
		)
	}
	return nil
}

// HealthCheck verifies the data file location is usable: the directory must
// exist and the file, if present, must be a regular file.
func (s *FileStore) HealthCheck() error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("data directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", dir)
	}
	if info, err := os.Stat(s.path); err == nil && info.IsDir() {
		return fmt.Errorf("data file %s is a directory", s.path)
	}
	return nil
}
