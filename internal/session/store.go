package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store persists the terminal's claim.
//
// Load returns (nil, nil) when nothing is stored and an error wrapping
// [ErrCorruptClaim] when the stored record is unreadable.
type Store interface {
	Load() (*Claim, error)
	Save(c Claim) error
	Delete() error
}

// FileStore keeps the claim in a small YAML file, keyed by [StorageKey].
//
// Writes are atomic: the file is written to a temp path and renamed.
type FileStore struct {
	path string
}

// NewFileStore creates a [FileStore] writing to path. The parent directory is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store writes to.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the claim from disk.
func (s *FileStore) Load() (*Claim, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read claim: %w", err)
	}

	var doc map[string]Claim
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptClaim, err)
	}

	c, ok := doc[StorageKey]
	if !ok {
		return nil, nil
	}
	if !c.valid() {
		return nil, fmt.Errorf("%w: missing fields", ErrCorruptClaim)
	}
	return &c, nil
}

// Save replaces the stored claim.
func (s *FileStore) Save(c Claim) error {
	data, err := yaml.Marshal(map[string]Claim{StorageKey: c})
	if err != nil {
		return fmt.Errorf("failed to marshal claim: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to write claim: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write claim: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write claim: %w", err)
	}

	return nil
}

// Delete removes the claim file. Deleting a missing file is not an error.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete claim: %w", err)
	}
	return nil
}

// MemoryStore keeps the claim in memory. Used for tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.Mutex
	claim *Claim
}

// Load returns the stored claim, if any.
func (s *MemoryStore) Load() (*Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claim == nil {
		return nil, nil
	}
	c := *s.claim
	return &c, nil
}

// Save replaces the stored claim.
func (s *MemoryStore) Save(c Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claim = &c
	return nil
}

// Delete clears the stored claim.
func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claim = nil
	return nil
}
