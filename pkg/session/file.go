package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	fileio "github.com/matzehuels/orgchart/pkg/io"
)

// FileStore keeps one JSON file per session in a directory. It suits a
// single server process; several processes sharing the directory may race
// on Cleanup.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore opens dir, creating it with owner-only permissions. An
// empty dir selects orgchart/sessions under the user config directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		dir = filepath.Join(base, "orgchart", "sessions")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the session directory.
func (s *FileStore) Path() string { return s.dir }

func (s *FileStore) file(id string) string { return filepath.Join(s.dir, id+".json") }

// load reads one session file. Expired sessions are removed and reported
// as absent.
func (s *FileStore) load(path string) (*Session, error) {
	var sess Session
	found, err := fileio.ReadJSON(path, &sess)
	if err != nil || !found {
		return nil, err
	}
	if sess.IsExpired() {
		return nil, fileio.Remove(path)
	}
	return &sess, nil
}

func (s *FileStore) Get(_ context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, err := s.load(s.file(id))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return sess, nil
}

func (s *FileStore) Set(_ context.Context, sess *Session) error {
	if !ValidID(sess.ID) {
		return fmt.Errorf("invalid session id %q", sess.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fileio.WriteJSON(s.file(sess.ID), sess)
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	if !ValidID(id) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fileio.Remove(s.file(id))
}

// Cleanup removes expired and unreadable session files.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}
	var errs []error
	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if _, err := s.load(path); err != nil {
			errs = append(errs, fileio.Remove(path))
		}
	}
	return errors.Join(errs...)
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
