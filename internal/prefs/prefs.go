package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Preferences are the user choices remembered between runs.
type Preferences struct {
	Model string `yaml:"model,omitempty"`
}

// Store keeps preferences in a YAML file and caches them in memory.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache *Preferences
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the stored preferences. A missing file yields zero values.
func (s *Store) Load() (Preferences, error) {
	s.mu.RLock()
	if s.cache != nil {
		defer s.mu.RUnlock()
		return *s.cache, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		return *s.cache, nil
	}

	var p Preferences
	data, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return Preferences{}, fmt.Errorf("failed to read preferences file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Preferences{}, fmt.Errorf("failed to parse preferences file: %w", err)
		}
	}

	s.cache = &p
	return p, nil
}

// Save writes p to the preferences file.
func (s *Store) Save(p Preferences) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	data, err := yaml.Marshal(&p)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preferences file: %w", err)
	}
	s.cache = &p
	return nil
}

// Model returns the preferred chat model, empty when none was chosen or the
// file cannot be read.
func (s *Store) Model() string {
	p, err := s.Load()
	if err != nil {
		return ""
	}
	return p.Model
}

func (s *Store) SetModel(id string) error {
	p, err := s.Load()
	if err != nil {
		p = Preferences{}
	}
	p.Model = id
	return s.Save(p)
}
