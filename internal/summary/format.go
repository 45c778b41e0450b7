package summary

import "strings"

// NoSprintReview is rendered in place of an empty sprint review.
const NoSprintReview = "No sprint review summary generated."

const ticketSeparator = "------------"

// FormatDaily renders a DailySummary as indented text. Repositories are
// separated by a blank line and there is no trailing blank line.
func FormatDaily(s DailySummary) string {
	lines := []string{"- Date: " + s.Date, ""}
	for _, repo := range s.Repositories {
		lines = append(lines, "  - Repository Name: "+repo.Name)
		for _, branch := range repo.Branches {
			lines = append(lines, "    - Branch: "+branch.Name)
			for _, c := range branch.Commits {
				line := "      - (" + c.Scope + ") " + c.Description
				if c.Purpose != "" {
					line += " " + c.Purpose
				}
				lines = append(lines, line)
			}
		}
		lines = append(lines, "")
	}
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// FormatSprintReview renders one three-line block per ticket, separated by
// a dashed line. An empty review renders as NoSprintReview.
func FormatSprintReview(s SprintReviewSummary) string {
	if len(s.Tickets) == 0 {
		return NoSprintReview
	}
	lines := make([]string, 0, len(s.Tickets)*4)
	for i, t := range s.Tickets {
		if i > 0 {
			lines = append(lines, ticketSeparator)
		}
		lines = append(lines,
			"- Ticket ID: "+t.TicketID,
			"- Branch Name: "+t.BranchName,
			"- Summary: "+t.Summary,
		)
	}
	return strings.Join(lines, "\n")
}
