// Package gitcontributors tallies commit authors across local repositories
// for the same windows the log aggregation uses.
package gitcontributors

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Stone-IT-Cloud/devsummary/pkg/gitlogs"
)

// Contributor holds aggregated information about a single author.
type Contributor struct {
	Name            string
	Email           string
	Commits         int
	FirstCommitDate time.Time
	LastCommitDate  time.Time
	// Repositories lists the base names of the repositories the author
	// committed to, sorted.
	Repositories []string
}

// Counter runs git to count commits per author.
type Counter struct {
	IncludeMergeCommits bool
	// Git is the git executable, "git" when empty.
	Git    string
	Now    func() time.Time
	Logger *slog.Logger
}

// NewCounter returns a Counter that excludes merge commits.
func NewCounter() *Counter {
	return &Counter{
		Git:    "git",
		Now:    time.Now,
		Logger: slog.Default().With("component", "gitcontributors"),
	}
}

// Repository returns the authors of one repository within the window, sorted
// by name then email.
func (c *Counter) Repository(ctx context.Context, repoPath string, window gitlogs.Window) ([]Contributor, error) {
	absRepoPath, err := validateRepoPath(repoPath)
	if err != nil {
		return nil, err
	}
	since, until, err := window.Bounds(c.now())
	if err != nil {
		return nil, err
	}

	const sep = "|"
	args := []string{
		"log",
		"--branches",
		"--pretty=format:%aN" + sep + "%aE" + sep + "%aI",
		"--since=" + since.Format(time.RFC3339),
		"--until=" + until.Format(time.RFC3339),
	}
	if !c.IncludeMergeCommits {
		args = append(args, "--no-merges")
	}
	args = append(args, "--")

	cmd := exec.CommandContext(ctx, c.git(), args...) // #nosec G204 -- fixed git arguments
	cmd.Dir = absRepoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := stderr.String()
		if strings.Contains(stderrStr, "does not have any commits") ||
			strings.Contains(stderrStr, "bad default revision 'HEAD'") {
			return []Contributor{}, nil
		}
		return nil, &gitlogs.ExtractionError{Repo: absRepoPath, Stderr: stderrStr, Err: err}
	}

	byKey := make(map[string]*Contributor)
	repoName := filepath.Base(absRepoPath)
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, sep, 3)
		if len(parts) != 3 {
			c.logger().Warn("malformed git log line", "repo", absRepoPath, "line", line)
			continue
		}
		name := strings.TrimSpace(parts[0])
		email := strings.TrimSpace(parts[1])
		if name == "" && email == "" {
			continue
		}
		when, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[2]))
		if err != nil {
			c.logger().Warn("unparseable commit date", "repo", absRepoPath, "line", line)
			continue
		}
		add(byKey, Contributor{
			Name:            name,
			Email:           email,
			Commits:         1,
			FirstCommitDate: when,
			LastCommitDate:  when,
			Repositories:    []string{repoName},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading git log output: %w", err)
	}
	return collect(byKey), nil
}

// Across tallies every repository and merges authors that appear in more
// than one. The first failing repository aborts the tally.
func (c *Counter) Across(ctx context.Context, repos []string, window gitlogs.Window) ([]Contributor, error) {
	var lists [][]Contributor
	for _, repo := range repos {
		list, err := c.Repository(ctx, repo, window)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return Merge(lists...), nil
}

// Merge combines contributor lists, matching authors case-insensitively by
// name and email.
func Merge(lists ...[]Contributor) []Contributor {
	byKey := make(map[string]*Contributor)
	for _, list := range lists {
		for _, ct := range list {
			add(byKey, ct)
		}
	}
	return collect(byKey)
}

func add(byKey map[string]*Contributor, ct Contributor) {
	key := strings.ToLower(ct.Name + "<" + ct.Email + ">")
	agg, ok := byKey[key]
	if !ok {
		cp := ct
		cp.Repositories = append([]string(nil), ct.Repositories...)
		byKey[key] = &cp
		return
	}
	agg.Commits += ct.Commits
	if ct.FirstCommitDate.Before(agg.FirstCommitDate) {
		agg.FirstCommitDate = ct.FirstCommitDate
	}
	if ct.LastCommitDate.After(agg.LastCommitDate) {
		agg.LastCommitDate = ct.LastCommitDate
	}
	for _, repo := range ct.Repositories {
		if !contains(agg.Repositories, repo) {
			agg.Repositories = append(agg.Repositories, repo)
		}
	}
}

func collect(byKey map[string]*Contributor) []Contributor {
	out := make([]Contributor, 0, len(byKey))
	for _, ct := range byKey {
		ct.FirstCommitDate = ct.FirstCommitDate.UTC()
		ct.LastCommitDate = ct.LastCommitDate.UTC()
		sort.Strings(ct.Repositories)
		out = append(out, *ct)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return strings.ToLower(out[i].Email) < strings.ToLower(out[j].Email)
	})
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func validateRepoPath(repoPath string) (string, error) {
	if repoPath == "" {
		return "", fmt.Errorf("repository path cannot be empty")
	}
	absRepoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %q: %w", repoPath, err)
	}
	info, err := os.Stat(absRepoPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("repository path %q does not exist", absRepoPath)
		}
		return "", fmt.Errorf("failed to stat repository path %q: %w", absRepoPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %q is not a git repository (not a directory)", absRepoPath)
	}
	if _, err := os.Stat(filepath.Join(absRepoPath, ".git")); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path %q is not a git repository (missing .git directory)", absRepoPath)
		}
		return "", fmt.Errorf("failed to stat .git directory in %q: %w", absRepoPath, err)
	}
	return absRepoPath, nil
}

func (c *Counter) git() string {
	if c.Git == "" {
		return "git"
	}
	return c.Git
}

func (c *Counter) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Counter) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
