package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedOutput is wrapped by every decoding failure.
var ErrMalformedOutput = errors.New("malformed model output")

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// The raw types mirror the schemas with pointer fields so that a missing
// field can be told apart from an empty one.
type rawCommit struct {
	Scope       *string `json:"scope"`
	Description *string `json:"description"`
	Purpose     *string `json:"purpose"`
}

type rawBranch struct {
	Name    *string      `json:"name"`
	Commits *[]rawCommit `json:"commits"`
}

type rawRepository struct {
	Name     *string      `json:"name"`
	Branches *[]rawBranch `json:"branches"`
}

type rawDaily struct {
	Date         *string          `json:"date"`
	Repositories *[]rawRepository `json:"repositories"`
}

type rawTicket struct {
	TicketID   *string `json:"ticket_id"`
	BranchName *string `json:"branch_name"`
	Summary    *string `json:"summary"`
}

type rawSprintReview struct {
	Tickets *[]rawTicket `json:"tickets"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedOutput, fmt.Sprintf(format, args...))
}

func required(path string) error {
	return malformed("%s is required", path)
}

// extractJSON returns text from the first JSON object onwards, without
// reasoning blocks or markdown code fences.
func extractJSON(text string) (string, error) {
	text = thinkBlock.ReplaceAllString(text, "")
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	start := strings.Index(text, "{")
	if start < 0 {
		return "", malformed("no JSON object found in response")
	}
	return text[start:], nil
}

// decodeRaw decodes the first JSON object of text; prose after it is ignored.
func decodeRaw(text string, into any) error {
	body, err := extractJSON(text)
	if err != nil {
		return err
	}
	if err := json.NewDecoder(strings.NewReader(body)).Decode(into); err != nil {
		return malformed("invalid JSON: %v", err)
	}
	return nil
}

// DecodeDaily parses model output into a DailySummary and checks that
// every required field is present.
func DecodeDaily(text string) (*DailySummary, error) {
	var raw rawDaily
	if err := decodeRaw(text, &raw); err != nil {
		return nil, err
	}
	if raw.Date == nil {
		return nil, required("date")
	}
	if raw.Repositories == nil {
		return nil, required("repositories")
	}

	out := &DailySummary{Date: *raw.Date, Repositories: make([]RepositorySummary, 0, len(*raw.Repositories))}
	for i, repo := range *raw.Repositories {
		path := fmt.Sprintf("repositories[%d]", i)
		if repo.Name == nil {
			return nil, required(path + ".name")
		}
		if repo.Branches == nil {
			return nil, required(path + ".branches")
		}
		rs := RepositorySummary{Name: *repo.Name, Branches: make([]BranchSummary, 0, len(*repo.Branches))}
		for j, branch := range *repo.Branches {
			bpath := fmt.Sprintf("%s.branches[%d]", path, j)
			if branch.Name == nil {
				return nil, required(bpath + ".name")
			}
			if branch.Commits == nil {
				return nil, required(bpath + ".commits")
			}
			bs := BranchSummary{Name: *branch.Name, Commits: make([]CommitSummary, 0, len(*branch.Commits))}
			for k, commit := range *branch.Commits {
				cpath := fmt.Sprintf("%s.commits[%d]", bpath, k)
				if commit.Scope == nil {
					return nil, required(cpath + ".scope")
				}
				if commit.Description == nil {
					return nil, required(cpath + ".description")
				}
				cs := CommitSummary{Scope: *commit.Scope, Description: *commit.Description}
				if commit.Purpose != nil {
					cs.Purpose = *commit.Purpose
				}
				bs.Commits = append(bs.Commits, cs)
			}
			rs.Branches = append(rs.Branches, bs)
		}
		out.Repositories = append(out.Repositories, rs)
	}
	return out, nil
}

// DecodeSprintReview parses model output into a SprintReviewSummary. Every
// ticket must carry a non-empty summary.
func DecodeSprintReview(text string) (*SprintReviewSummary, error) {
	var raw rawSprintReview
	if err := decodeRaw(text, &raw); err != nil {
		return nil, err
	}
	if raw.Tickets == nil {
		return nil, required("tickets")
	}

	out := &SprintReviewSummary{Tickets: make([]TicketSummary, 0, len(*raw.Tickets))}
	for i, ticket := range *raw.Tickets {
		path := fmt.Sprintf("tickets[%d]", i)
		switch {
		case ticket.TicketID == nil:
			return nil, required(path + ".ticket_id")
		case ticket.BranchName == nil:
			return nil, required(path + ".branch_name")
		case ticket.Summary == nil:
			return nil, required(path + ".summary")
		case strings.TrimSpace(*ticket.Summary) == "":
			return nil, malformed("%s.summary must not be empty", path)
		}
		out.Tickets = append(out.Tickets, TicketSummary{
			TicketID:   *ticket.TicketID,
			BranchName: *ticket.BranchName,
			Summary:    *ticket.Summary,
		})
	}
	return out, nil
}
