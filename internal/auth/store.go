package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oyakomap/spotfinder/internal/types"
)

// TokenStore persists the access/refresh token pair. Implementations are
// injected wherever tokens are read or written so tests can substitute an
// in-memory store; there is no ambient global.
type TokenStore interface {
	// Tokens returns the stored pair and whether one exists.
	Tokens() (types.TokenPair, bool)
	Save(pair types.TokenPair) error
	Clear() error
}

var (
	_ TokenStore = (*FileStore)(nil)
	_ TokenStore = (*MemoryStore)(nil)
)

// FileStore keeps the token pair in a JSON file, the durable local storage
// of the client. Reads and writes are serialized; writes go through a temp
// file and rename so a crash never leaves a torn file.
type FileStore struct {
	path string

	mu sync.Mutex
}

// NewFileStore creates a file-backed token store at path. The parent
// directory is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Tokens() (types.TokenPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return types.TokenPair{}, false
	}
	var pair types.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return types.TokenPair{}, false
	}
	if pair.AccessToken == "" && pair.RefreshToken == "" {
		return types.TokenPair{}, false
	}
	return pair, true
}

func (s *FileStore) Save(pair types.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// MemoryStore holds the pair in memory only. Used by tests and by sessions
// that should not outlive the process.
type MemoryStore struct {
	mu   sync.Mutex
	pair types.TokenPair
	set  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Tokens() (types.TokenPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair, s.set
}

func (s *MemoryStore) Save(pair types.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.set = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = types.TokenPair{}
	s.set = false
	return nil
}
