// Package storage persists guidechat state as JSON documents under the data
// directory, one file per storage key.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned by Load when the document does not exist yet.
var ErrNotFound = errors.New("document not found")

// DocumentStore reads and writes named JSON documents. Writes are atomic
// (temp file + rename) so a concurrent reader never observes a torn
// document.
type DocumentStore struct {
	dir string

	mu         sync.Mutex
	selfWrites map[string]int
}

// NewDocumentStore ensures dir exists and returns a store rooted there.
func NewDocumentStore(dir string) (*DocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &DocumentStore{
		dir:        dir,
		selfWrites: make(map[string]int),
	}, nil
}

// Dir returns the directory the store writes into.
func (s *DocumentStore) Dir() string {
	return s.dir
}

// Load unmarshals the named document into v. Returns ErrNotFound when the
// document has never been written.
func (s *DocumentStore) Load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Save marshals v and atomically replaces the named document.
func (s *DocumentStore) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", name, err)
	}

	s.mu.Lock()
	s.selfWrites[name]++
	s.mu.Unlock()

	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpPath)
		s.mu.Lock()
		s.selfWrites[name]--
		s.mu.Unlock()
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// consumeSelfWrite reports whether a watch event for name was caused by this
// process's own Save and should be suppressed.
func (s *DocumentStore) consumeSelfWrite(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selfWrites[name] > 0 {
		s.selfWrites[name]--
		return true
	}
	return false
}

func isTempFile(path string) bool {
	return strings.HasSuffix(path, ".tmp")
}
