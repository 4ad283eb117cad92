// Package prefs stores per-viewer preferences: the hidden-node overlay and
// the local overrides of the compact-teams and profile-image toggles.
//
// Values are strings under fixed keys, the way a browser keeps them in local
// storage, so a preferences file can be exchanged with the web client.
// Malformed values are ignored and read as unset.
package prefs

import (
	"sync"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/orgchart/pkg/core/chart/visibility"
	fileio "github.com/matzehuels/orgchart/pkg/io"
	"github.com/matzehuels/orgchart/pkg/settings"
)

// Storage keys.
const (
	KeyHiddenNodes       = "hiddenNodeIds"
	KeyCompactLargeTeams = "orgChart.compactLargeTeams"
	KeyShowProfileImages = "orgChart.showProfileImages"
)

// Store is a string key-value store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Memory is an in-memory [Store].
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FileStore is a [Store] persisted as a flat JSON object. Every change is
// written through.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// Open loads the preferences file at path. A missing file is an empty store;
// an unreadable or malformed file is reported and the store starts empty.
func Open(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string]string)}
	var raw map[string]any
	if _, err := fileio.ReadJSON(path, &raw); err != nil {
		return s, err
	}
	for k, v := range raw {
		// Older files stored the hidden list as an array, not a string.
		switch val := v.(type) {
		case string:
			s.values[k] = val
		case []any, bool:
			if b, err := json.Marshal(val); err == nil {
				s.values[k] = string(b)
			}
		}
	}
	return s, nil
}

// Path returns the preferences file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return fileio.WriteJSON(s.path, s.values)
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return fileio.WriteJSON(s.path, s.values)
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*FileStore)(nil)
)

// LoadOverlay returns the stored hidden-node overlay. A missing or
// malformed value yields an empty overlay.
func LoadOverlay(s Store) *visibility.Overlay {
	o := visibility.New()
	raw, ok := s.Get(KeyHiddenNodes)
	if !ok || raw == "" {
		return o
	}
	if err := json.Unmarshal([]byte(raw), o); err != nil {
		return visibility.New()
	}
	return o
}

// SaveOverlay stores the hidden ids of o. An empty overlay removes the key.
func SaveOverlay(s Store, o *visibility.Overlay) error {
	if o == nil || o.Len() == 0 {
		return s.Remove(KeyHiddenNodes)
	}
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return s.Set(KeyHiddenNodes, string(data))
}

// Preference reads a tri-state toggle override.
func Preference(s Store, key string) settings.Preference {
	v, _ := s.Get(key)
	return settings.ParsePreference(v)
}

// SetPreference stores a toggle override. Inherited removes the key.
func SetPreference(s Store, key string, p settings.Preference) error {
	if !p.Set() {
		return s.Remove(key)
	}
	return s.Set(key, p.String())
}
