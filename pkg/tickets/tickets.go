// Package tickets imports issue tracker tickets and renders them as the
// ticket text of a sprint review.
package tickets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	giturls "github.com/whilp/git-urls"
)

// Issue is a ticket from an issue tracker.
type Issue struct {
	Number    int
	Title     string
	Body      string
	State     string
	URL       string
	Labels    []string
	CreatedAt time.Time
	UpdatedAt time.Time
	Comments  []Comment
}

// Comment is a comment on an issue.
type Comment struct {
	Author    string
	Body      string
	CreatedAt time.Time
}

// RepoMetadata identifies a hosted repository.
type RepoMetadata struct {
	Owner    string
	RepoName string
}

func (m RepoMetadata) String() string {
	return m.Owner + "/" + m.RepoName
}

// Provider lists the issues of a hosted repository.
type Provider interface {
	// Issues returns the issues updated at or after since, excluding pull
	// requests. A zero since returns every issue.
	Issues(ctx context.Context, repo RepoMetadata, since time.Time) ([]Issue, error)
}

// ParseRepo accepts "owner/repo" or any git remote URL (https, ssh, scp-like).
func ParseRepo(s string) (RepoMetadata, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RepoMetadata{}, fmt.Errorf("repository cannot be empty")
	}

	path := s
	if strings.Contains(s, "://") || strings.Contains(s, "@") || strings.Contains(s, ":") {
		u, err := giturls.Parse(s)
		if err != nil {
			return RepoMetadata{}, fmt.Errorf("invalid remote URL %q: %w", s, err)
		}
		path = u.Path
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoMetadata{}, fmt.Errorf("could not extract owner/repo from %q", s)
	}
	return RepoMetadata{Owner: parts[0], RepoName: parts[1]}, nil
}

// RemoteRepo reads the URL of a remote of the local repository at repoPath
// and parses it with ParseRepo.
func RemoteRepo(repoPath, remote string) (RepoMetadata, error) {
	if remote == "" {
		remote = git.DefaultRemoteName
	}
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return RepoMetadata{}, fmt.Errorf("failed to open repository %s: %w", repoPath, err)
	}
	r, err := repo.Remote(remote)
	if err != nil {
		return RepoMetadata{}, fmt.Errorf("failed to get git remote %q for %s: %w", remote, repoPath, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return RepoMetadata{}, fmt.Errorf("remote %q of %s has no URL", remote, repoPath)
	}
	return ParseRepo(urls[0])
}

// FormatTickets renders issues as the ticket text of a sprint-review prompt,
// one block per issue separated by a blank line.
func FormatTickets(issues []Issue) string {
	blocks := make([]string, 0, len(issues))
	for _, issue := range issues {
		var b strings.Builder
		fmt.Fprintf(&b, "#%d [%s] %s", issue.Number, issue.State, issue.Title)
		if len(issue.Labels) > 0 {
			fmt.Fprintf(&b, "\nLabels: %s", strings.Join(issue.Labels, ", "))
		}
		if body := strings.TrimSpace(issue.Body); body != "" {
			b.WriteString("\n" + truncate(body, maxBodyChars))
		}
		for _, c := range issue.Comments {
			fmt.Fprintf(&b, "\n> %s: %s", c.Author, truncate(strings.TrimSpace(c.Body), maxCommentChars))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

const (
	maxBodyChars    = 600
	maxCommentChars = 200
)

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
