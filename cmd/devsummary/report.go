package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Stone-IT-Cloud/devsummary"
	"github.com/Stone-IT-Cloud/devsummary/pkg/gitlogs"
	"github.com/Stone-IT-Cloud/devsummary/pkg/tickets"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := c.app.Server(cmd.Context())
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context())
		},
	}
}

func newEODCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "eod",
		Short: "Generate an end-of-day summary of recent commits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reporter, err := c.app.Reporter(cmd.Context())
			if err != nil {
				return err
			}
			text, err := reporter.EndOfDay(withProgress(cmd))
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), "End of day summary", text)
			return nil
		},
	}
}

type sprintFlags struct {
	start       string
	end         string
	tickets     string
	ticketsFile string
	githubRepo  string
	comments    bool
}

func newSprintReviewCmd(c *cli) *cobra.Command {
	var f sprintFlags

	cmd := &cobra.Command{
		Use:   "sprint-review",
		Short: "Generate a sprint review relating commits to tickets",
		Long: "Generate a sprint review for the commits between --start and --end. Ticket text comes " +
			"from --tickets, --tickets-file, or the GitHub issues of --github-repo updated since the start date. " +
			"--github-repo accepts owner/repo, a remote URL or the path of a local clone.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ticketText, err := c.ticketText(cmd.Context(), f)
			if err != nil {
				return err
			}
			reporter, err := c.app.Reporter(cmd.Context())
			if err != nil {
				return err
			}
			text, err := reporter.SprintReview(withProgress(cmd), devsummary.SprintRequest{
				StartDate: f.start,
				EndDate:   f.end,
				Tickets:   ticketText,
			})
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), fmt.Sprintf("Sprint review %s to %s", f.start, f.end), text)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.start, "start", "", "first day of the sprint, "+gitlogs.DateLayout)
	flags.StringVar(&f.end, "end", "", "last day of the sprint, "+gitlogs.DateLayout)
	flags.StringVar(&f.tickets, "tickets", "", "ticket text")
	flags.StringVar(&f.ticketsFile, "tickets-file", "", "file holding the ticket text, - for stdin")
	flags.StringVar(&f.githubRepo, "github-repo", "", "import tickets from the issues of this GitHub repository")
	flags.BoolVar(&f.comments, "github-comments", false, "also import issue comments (overrides github.comments)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	cmd.MarkFlagsMutuallyExclusive("tickets", "tickets-file", "github-repo")
	return cmd
}

func (c *cli) ticketText(ctx context.Context, f sprintFlags) (string, error) {
	switch {
	case f.tickets != "":
		return f.tickets, nil
	case f.ticketsFile == "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read tickets from stdin: %w", err)
		}
		return string(b), nil
	case f.ticketsFile != "":
		b, err := os.ReadFile(f.ticketsFile)
		if err != nil {
			return "", fmt.Errorf("failed to read tickets file: %w", err)
		}
		return string(b), nil
	}

	repoArg := f.githubRepo
	if repoArg == "" {
		repoArg = c.app.Config.GitHub.Repo
	}
	if repoArg == "" {
		return "", nil
	}
	if f.comments {
		c.app.Config.GitHub.Comments = true
	}
	return c.importIssues(ctx, repoArg, f.start)
}

func (c *cli) importIssues(ctx context.Context, repoArg, start string) (string, error) {
	since, err := gitlogs.ParseDate(start)
	if err != nil {
		return "", err
	}

	var repo tickets.RepoMetadata
	if info, statErr := os.Stat(repoArg); statErr == nil && info.IsDir() {
		repo, err = tickets.RemoteRepo(repoArg, "origin")
	} else {
		repo, err = tickets.ParseRepo(repoArg)
	}
	if err != nil {
		return "", err
	}

	provider, err := c.app.Tickets(ctx)
	if err != nil {
		return "", err
	}
	issues, err := provider.Issues(ctx, repo, since)
	if err != nil {
		return "", fmt.Errorf("failed to import issues of %s: %w", repo, err)
	}
	return tickets.FormatTickets(issues), nil
}

// withProgress sends report progress lines to stderr.
func withProgress(cmd *cobra.Command) context.Context {
	w := cmd.ErrOrStderr()
	return devsummary.WithProgress(cmd.Context(), func(line string) {
		fmt.Fprintln(w, progressStyle.Render(line))
	})
}

func printReport(w io.Writer, title, text string) {
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, strings.TrimRight(text, "\n"))
}
