// Package summary turns aggregated commit logs into structured summaries
// with the help of a language model, and renders those summaries as text.
package summary

// Schema names, used in prompts, errors and logs.
const (
	DailySchema        = "DailySummary"
	SprintReviewSchema = "SprintReviewSummary"
)

// CommitSummary is one summarised commit. Purpose is optional.
type CommitSummary struct {
	Scope       string `json:"scope"`
	Description string `json:"description"`
	Purpose     string `json:"purpose"`
}

// BranchSummary groups the commits of a branch.
type BranchSummary struct {
	Name    string          `json:"name"`
	Commits []CommitSummary `json:"commits"`
}

// RepositorySummary groups the branches of a repository.
type RepositorySummary struct {
	Name     string          `json:"name"`
	Branches []BranchSummary `json:"branches"`
}

// DailySummary is the structured end-of-day report.
type DailySummary struct {
	Date         string              `json:"date"`
	Repositories []RepositorySummary `json:"repositories"`
}

// TicketSummary is the business-facing summary of the work done for a ticket.
type TicketSummary struct {
	TicketID   string `json:"ticket_id"`
	BranchName string `json:"branch_name"`
	Summary    string `json:"summary"`
}

// SprintReviewSummary is the structured sprint-review report.
type SprintReviewSummary struct {
	Tickets []TicketSummary `json:"tickets"`
}
