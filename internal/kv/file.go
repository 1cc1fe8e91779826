package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements Store as a single JSON settings file on disk. Writes
// rewrite the whole file through a temporary rename so a crash never leaves a
// partially written state behind.
type FileStore struct {
	path string

	mu     sync.Mutex
	loaded bool
	data   map[string][]byte
}

// NewFileStore constructs a file-backed Store at the supplied path. The file
// is created lazily on first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("kv: file store path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("kv: create store directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Set stores the value and flushes the file immediately.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}

	s.data[key] = append([]byte(nil), value...)
	return s.flushLocked()
}

// Get retrieves a value by key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, false, err
	}

	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Delete removes keys and flushes the file.
func (s *FileStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}

	for _, key := range keys {
		delete(s.data, key)
	}
	return s.flushLocked()
}

func (s *FileStore) loadLocked() error {
	if s.loaded {
		return nil
	}

	s.data = make(map[string][]byte)

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("kv: read store file: %w", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return fmt.Errorf("kv: decode store file: %w", err)
		}
	}

	s.loaded = true
	return nil
}

func (s *FileStore) flushLocked() error {
	encoded, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("kv: encode store file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o600); err != nil {
		return fmt.Errorf("kv: write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("kv: replace store file: %w", err)
	}
	return nil
}
