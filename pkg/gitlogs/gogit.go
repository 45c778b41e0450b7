package gitlogs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// GoGitSource reads commit logs in-process with go-git instead of spawning git.
// It produces the same layout as ExecSource's built-in query.
type GoGitSource struct {
	Now    func() time.Time
	Logger *slog.Logger
}

// NewGoGitSource returns a GoGitSource with the default clock and logger.
func NewGoGitSource() *GoGitSource {
	return &GoGitSource{
		Now:    time.Now,
		Logger: slog.Default().With("component", "gitlogs"),
	}
}

// ByDays implements Source.
func (s *GoGitSource) ByDays(ctx context.Context, repoPath string, days int) (string, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	tr, err := daysRange(now, days)
	if err != nil {
		return "", err
	}
	return s.log(ctx, repoPath, tr)
}

// ByDateRange implements Source.
func (s *GoGitSource) ByDateRange(ctx context.Context, repoPath, startDate, endDate string) (string, error) {
	tr, err := dateRange(startDate, endDate)
	if err != nil {
		return "", err
	}
	return s.log(ctx, repoPath, tr)
}

type branchCommit struct {
	branch string
	commit *object.Commit
}

func (s *GoGitSource) log(ctx context.Context, repoPath string, tr timeRange) (string, error) {
	absRepoPath, err := validateRepoPath(repoPath)
	if err != nil {
		return "", &ExtractionError{Repo: repoPath, Err: err}
	}

	commits, err := s.collect(ctx, absRepoPath, tr)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("log retrieval failed", "repo", absRepoPath, "error", err)
		}
		return "", &ExtractionError{Repo: absRepoPath, Err: err}
	}
	if len(commits) == 0 {
		return "", nil
	}

	// Newest first, like git log.
	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].commit.Committer.When.After(commits[j].commit.Committer.When)
	})

	lines := make([]string, 0, len(commits)+1)
	lines = append(lines, header(absRepoPath))
	for _, bc := range commits {
		lines = append(lines, formatCommit(bc.branch, bc.commit))
	}
	return strings.Join(lines, "\n"), nil
}

// collect walks every local branch and returns the non-merge commits inside
// the range. A commit reachable from several branches is attributed to the
// first branch in name order.
func (s *GoGitSource) collect(ctx context.Context, absRepoPath string, tr timeRange) ([]branchCommit, error) {
	repo, err := git.PlainOpen(absRepoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	var branches []*plumbing.Reference
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, ref)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	sort.Slice(branches, func(i, j int) bool {
		return branches[i].Name().Short() < branches[j].Name().Short()
	})

	since, until := tr.since, tr.until
	seen := make(map[plumbing.Hash]bool)
	var result []branchCommit
	for _, ref := range branches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		commitIter, err := repo.Log(&git.LogOptions{From: ref.Hash(), Since: &since, Until: &until})
		if err != nil {
			return nil, fmt.Errorf("failed to read log of branch %s: %w", ref.Name().Short(), err)
		}
		err = commitIter.ForEach(func(c *object.Commit) error {
			if seen[c.Hash] || c.NumParents() > 1 {
				return nil
			}
			seen[c.Hash] = true
			result = append(result, branchCommit{branch: ref.Name().Short(), commit: c})
			return nil
		})
		commitIter.Close()
		if err != nil && !errors.Is(err, storer.ErrStop) {
			return nil, fmt.Errorf("failed to walk branch %s: %w", ref.Name().Short(), err)
		}
	}
	return result, nil
}

func formatCommit(branch string, c *object.Commit) string {
	hash := c.Hash.String()
	if len(hash) > 7 {
		hash = hash[:7]
	}
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return fmt.Sprintf("%s | %s | %s | %s | %s",
		hash, branch, c.Author.Name, c.Author.When.Format(time.RFC3339), subject)
}

var _ Source = (*GoGitSource)(nil)
