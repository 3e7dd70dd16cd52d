package search

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oyakomap/spotfinder/internal/geo"
)

// SnapshotStore persists the last-used search center so a fresh session
// without URL coordinates can resume where the user left off.
type SnapshotStore interface {
	Load() (geo.Coordinate, bool)
	Save(c geo.Coordinate) error
}

var (
	_ SnapshotStore = (*FileSnapshot)(nil)
	_ SnapshotStore = (*MemorySnapshot)(nil)
)

// FileSnapshot keeps the coordinate pair in a small JSON file.
type FileSnapshot struct {
	path string
	mu   sync.Mutex
}

func NewFileSnapshot(path string) *FileSnapshot {
	return &FileSnapshot{path: path}
}

func (s *FileSnapshot) Load() (geo.Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return geo.Coordinate{}, false
	}
	var c geo.Coordinate
	if err := json.Unmarshal(data, &c); err != nil {
		return geo.Coordinate{}, false
	}
	return c, true
}

func (s *FileSnapshot) Save(c geo.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// MemorySnapshot is the test double.
type MemorySnapshot struct {
	mu    sync.Mutex
	coord geo.Coordinate
	set   bool
}

func NewMemorySnapshot() *MemorySnapshot {
	return &MemorySnapshot{}
}

func (s *MemorySnapshot) Load() (geo.Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coord, s.set
}

func (s *MemorySnapshot) Save(c geo.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord = c
	s.set = true
	return nil
}
