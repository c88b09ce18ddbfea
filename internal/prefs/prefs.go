// Package prefs persists the handful of process-wide UI preferences. The
// file is read once at start and rewritten on every change.
package prefs

import (
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// fileData is the on-disk shape. Keys are fixed; unknown keys survive a
// round-trip only if added here.
type fileData struct {
	SidebarVisible bool `json:"sidebarVisible"`
}

// Store holds the loaded preferences and writes changes back to disk.
type Store struct {
	mu   sync.Mutex
	path string
	data fileData
}

// Load reads preferences from path. A missing file yields defaults
// (sidebar visible); a corrupt file is logged and replaced on next write.
func Load(path string) *Store {
	s := &Store{path: path, data: fileData{SidebarVisible: true}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read preferences, using defaults")
		}
		return s
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Corrupt preferences file, using defaults")
		s.data = fileData{SidebarVisible: true}
	}
	return s
}

// SidebarVisible reports whether the list panel is shown.
func (s *Store) SidebarVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SidebarVisible
}

// SetSidebarVisible updates the flag and writes the file. Write failures
// are logged, not surfaced; the in-memory value stands either way.
func (s *Store) SetSidebarVisible(visible bool) {
	s.mu.Lock()
	s.data.SidebarVisible = visible
	data := s.data
	path := s.path
	s.mu.Unlock()

	if err := write(path, data); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write preferences")
	}
}

func write(path string, data fileData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
