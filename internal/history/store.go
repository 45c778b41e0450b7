package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DefaultFile is the history location used when none is configured.
const DefaultFile = "data/.history.json"

// ErrNotFound is returned by Store.Get for an unknown id.
var ErrNotFound = errors.New("history entry not found")

// Store is a file-backed list of entries. Every mutation rewrites the whole
// file. The mutex serialises read-modify-write cycles within one process.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore returns a Store backed by path, creating the directory and an
// empty history file when they do not exist.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		logger: slog.Default().With("component", "history", "file", path),
	}
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) ensure() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return s.write([]Entry{})
	} else if err != nil {
		return fmt.Errorf("failed to stat history file %s: %w", s.path, err)
	}
	return nil
}

// load reads every entry. A missing or unparsable file reads as empty.
func (s *Store) load() []Entry {
	// #nosec G304 -- The history path comes from trusted configuration.
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("could not read history, starting empty", "error", err)
		return []Entry{}
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("could not decode history, starting empty", "error", err)
		return []Entry{}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries
}

func (s *Store) write(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write history file %s: %w", s.path, err)
	}
	return nil
}

// Append adds an entry to the end of the history.
func (s *Store) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.load(), e)
	if err := s.write(entries); err != nil {
		return err
	}
	s.logger.Debug("history entry added", "id", e.ID, "type", e.Type, "status", e.Status)
	return nil
}

// List returns all entries, newest first. Entries with equal dates keep
// their file order.
func (s *Store) List() []Entry {
	s.mu.Lock()
	entries := s.load()
	s.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
	return entries
}

// Get returns the entry with the given id or ErrNotFound.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.load() {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the entry with the given id and reports whether it existed.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	kept := entries[:0:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return false, nil
	}
	return true, s.write(kept)
}

// Update replaces the entry with the given id and reports whether it existed.
func (s *Store) Update(id string, e Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	for i := range entries {
		if entries[i].ID == id {
			entries[i] = e
			return true, s.write(entries)
		}
	}
	return false, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write([]Entry{})
}
