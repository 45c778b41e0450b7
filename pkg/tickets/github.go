package tickets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v71/github"
)

// GitHubSource lists issues through the GitHub REST API.
type GitHubSource struct {
	client *github.Client
	// WithComments also fetches the comments of every issue.
	WithComments bool
	logger       *slog.Logger
}

// NewGitHubSource creates a GitHubSource. A non-empty token is verified by
// fetching the authenticated user; without a token only public repositories
// are readable. httpClient may be nil.
func NewGitHubSource(ctx context.Context, token string, httpClient *http.Client) (*GitHubSource, error) {
	client := github.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
		if _, _, err := client.Users.Get(ctx, ""); err != nil {
			return nil, fmt.Errorf("failed to verify GitHub authentication: %w", err)
		}
	}
	return &GitHubSource{
		client: client,
		logger: slog.Default().With("component", "tickets"),
	}, nil
}

// Issues implements Provider, following pagination to the last page.
func (gh *GitHubSource) Issues(ctx context.Context, repo RepoMetadata, since time.Time) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var issues []Issue
	for {
		ghIssues, resp, err := gh.client.Issues.ListByRepo(ctx, repo.Owner, repo.RepoName, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list GitHub issues of %s: %w", repo, err)
		}
		for _, ghIssue := range ghIssues {
			if ghIssue.IsPullRequest() {
				continue
			}
			issue := Issue{
				Number:    ghIssue.GetNumber(),
				Title:     ghIssue.GetTitle(),
				Body:      ghIssue.GetBody(),
				State:     ghIssue.GetState(),
				URL:       ghIssue.GetHTMLURL(),
				CreatedAt: ghIssue.GetCreatedAt().Time,
				UpdatedAt: ghIssue.GetUpdatedAt().Time,
			}
			for _, label := range ghIssue.Labels {
				issue.Labels = append(issue.Labels, label.GetName())
			}
			if gh.WithComments && ghIssue.GetComments() > 0 {
				if issue.Comments, err = gh.comments(ctx, repo, issue.Number); err != nil {
					return nil, err
				}
			}
			issues = append(issues, issue)
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	gh.logger.Info("imported GitHub issues", "repo", repo.String(), "issues", len(issues))
	return issues, nil
}

func (gh *GitHubSource) comments(ctx context.Context, repo RepoMetadata, number int) ([]Comment, error) {
	ghComments, _, err := gh.client.Issues.ListComments(ctx, repo.Owner, repo.RepoName, number, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments of issue #%d: %w", number, err)
	}
	comments := make([]Comment, 0, len(ghComments))
	for _, c := range ghComments {
		comments = append(comments, Comment{
			Author:    c.GetUser().GetLogin(),
			Body:      c.GetBody(),
			CreatedAt: c.GetCreatedAt().Time,
		})
	}
	return comments, nil
}

var _ Provider = (*GitHubSource)(nil)
