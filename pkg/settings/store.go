package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	fileio "github.com/matzehuels/orgchart/pkg/io"
)

// Store persists the settings document.
type Store interface {
	// Load returns the stored settings merged over [Defaults]. A store with
	// nothing saved returns the defaults.
	Load(ctx context.Context) (Settings, error)

	// Save replaces the stored document.
	Save(ctx context.Context, s Settings) error

	Close() error
}

// FileStore keeps settings in a JSON file.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the settings file.
func (s *FileStore) Load(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("read settings: %w", err)
	}
	return Decode(data)
}

// Save writes the settings file atomically.
func (s *FileStore) Save(ctx context.Context, st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fileio.WriteJSON(s.path, st)
}

func (s *FileStore) Close() error { return nil }

// Path returns the settings file path.
func (s *FileStore) Path() string { return s.path }

var _ Store = (*FileStore)(nil)

// MemoryStore keeps settings in memory. It is used when no backend is
// configured and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	saved *Settings
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Load(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.saved == nil {
		return Defaults(), nil
	}
	return s.saved.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := st.Clone()
	s.saved = &c
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

// Update loads the current settings, merges patch over them, validates the
// result and saves it.
func Update(ctx context.Context, store Store, patch []byte) (Settings, error) {
	current, err := store.Load(ctx)
	if err != nil {
		return current, err
	}
	next, err := Merge(current, patch)
	if err != nil {
		return current, err
	}
	if err := next.Validate(); err != nil {
		return current, err
	}
	if err := store.Save(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

// Reset replaces the stored settings with the defaults.
func Reset(ctx context.Context, store Store) (Settings, error) {
	d := Defaults()
	if err := store.Save(ctx, d); err != nil {
		return Settings{}, err
	}
	return d, nil
}
