package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage recorded report runs",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recorded runs, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				entries := c.app.History.List()
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No history entries.")
					return nil
				}
				for _, e := range entries {
					fmt.Fprintf(out, "%s  %-13s  %s  %s\n",
						idStyle.Render(e.ID),
						e.Type,
						e.Date,
						statusStyle(string(e.Status)).Render(string(e.Status)),
					)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print the report or error message of a run",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := c.app.History.Get(args[0])
				if err != nil {
					return err
				}
				title := fmt.Sprintf("%s %s (%s)", e.Type, e.Date, e.Status)
				printReport(cmd.OutOrStdout(), title, e.Response)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a run",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ok, err := c.app.History.Delete(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("entry %s not found", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Entry deleted successfully")
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every run",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := c.app.History.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared successfully")
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the location of the history file",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), c.app.History.Path())
			},
		},
	)
	return cmd
}
