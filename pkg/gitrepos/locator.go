// Package gitrepos discovers git repositories below one or more root directories.
package gitrepos

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultMarker is the metadata directory that identifies a repository root.
const DefaultMarker = ".git"

// Locator walks directory trees looking for repository roots.
type Locator struct {
	// Marker is the name of the metadata directory. Defaults to DefaultMarker.
	Marker string
	Logger *slog.Logger
}

// NewLocator returns a Locator using the default marker and logger.
func NewLocator() *Locator {
	return &Locator{
		Marker: DefaultMarker,
		Logger: slog.Default().With("component", "gitrepos"),
	}
}

// Locate returns every directory under root (root included) that contains a
// marker directory, in lexical pre-order. Marker directories themselves are
// never descended into, but the remaining children of a repository are, so
// nested repositories are reported as well.
//
// Subdirectories that cannot be read are logged and skipped. A root that does
// not exist or is not a directory is an error.
func (l *Locator) Locate(root string) ([]string, error) {
	marker := l.marker()
	logger := l.logger()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %q: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat repository root %q: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %q is not a directory", absRoot)
	}

	var repos []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			logger.Warn("skipping unreadable directory", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == marker && path != absRoot {
			return fs.SkipDir
		}
		if hasMarker(path, marker) {
			repos = append(repos, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to scan %q: %w", absRoot, walkErr)
	}
	return repos, nil
}

// LocateAll runs Locate for each root in order and concatenates the results.
// A repository reachable from more than one root is reported once.
func (l *Locator) LocateAll(roots []string) ([]string, error) {
	if len(roots) == 0 {
		return nil, errors.New("no repository roots configured")
	}
	seen := make(map[string]bool)
	var all []string
	for _, root := range roots {
		repos, err := l.Locate(root)
		if err != nil {
			return nil, err
		}
		for _, repo := range repos {
			if seen[repo] {
				continue
			}
			seen[repo] = true
			all = append(all, repo)
		}
	}
	return all, nil
}

func hasMarker(dir, marker string) bool {
	info, err := os.Stat(filepath.Join(dir, marker))
	return err == nil && info.IsDir()
}

func (l *Locator) marker() string {
	if l.Marker == "" {
		return DefaultMarker
	}
	return l.Marker
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
