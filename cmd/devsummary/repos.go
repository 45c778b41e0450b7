package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Stone-IT-Cloud/devsummary/pkg/gitcontributors"
	"github.com/Stone-IT-Cloud/devsummary/pkg/gitlogs"
)

func newReposCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List the git repositories found under the configured roots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repos, err := c.app.Locator.LocateAll(c.app.Config.Repositories.Roots)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(repos) == 0 {
				fmt.Fprintln(out, "No repositories found.")
				return nil
			}
			for _, repo := range repos {
				fmt.Fprintf(out, "%s  %s\n", headerStyle.Render(filepath.Base(repo)), repo)
			}
			return nil
		},
	}
}

func newContributorsCmd(c *cli) *cobra.Command {
	var (
		window        gitlogs.Window
		includeMerges bool
	)

	cmd := &cobra.Command{
		Use:   "contributors",
		Short: "Count commits per author across the configured repositories",
		Long: "Count commits per author across every repository under the configured roots, " +
			"for the trailing --days or between --start and --end.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !window.IsRange() && window.Days <= 0 {
				window.Days = c.app.Config.Repositories.EODDays
			}
			repos, err := c.app.Locator.LocateAll(c.app.Config.Repositories.Roots)
			if err != nil {
				return err
			}

			counter := gitcontributors.NewCounter()
			counter.IncludeMergeCommits = includeMerges
			list, err := counter.Across(cmd.Context(), repos, window)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Contributors, "+window.String()))
			if len(list) == 0 {
				fmt.Fprintln(out, "  No commits found.")
				return nil
			}
			fmt.Fprintf(out, "  %7s | %-10s | %-10s | %s\n", "Commits", "First", "Last", "Author")
			for _, ct := range list {
				fmt.Fprintf(out, "  %7d | %s | %s | %s <%s> %s\n",
					ct.Commits,
					ct.FirstCommitDate.Format(gitlogs.DateLayout),
					ct.LastCommitDate.Format(gitlogs.DateLayout),
					ct.Name, ct.Email,
					idStyle.Render("("+strings.Join(ct.Repositories, ", ")+")"),
				)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&window.Days, "days", 0, "trailing days to count, the EOD window when unset")
	flags.StringVar(&window.StartDate, "start", "", "first day, "+gitlogs.DateLayout)
	flags.StringVar(&window.EndDate, "end", "", "last day, "+gitlogs.DateLayout)
	flags.BoolVarP(&includeMerges, "merges", "m", false, "include merge commits")
	cmd.MarkFlagsRequiredTogether("start", "end")
	cmd.MarkFlagsMutuallyExclusive("days", "start")
	return cmd
}
