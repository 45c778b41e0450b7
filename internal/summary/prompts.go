package summary

import (
	"strings"

	"github.com/Stone-IT-Cloud/devsummary/internal/llm"
)

// Template placeholders.
const (
	VarCollectedCommits   = "collected_commits"
	VarTickets            = "tickets"
	VarFormatInstructions = "format_instructions"
)

const eodSystemPrompt = `
You are an AI assistant that generates structured EOD summaries from Git commits.
Your response must be valid JSON that can be parsed into the following structure:
- date (string, YYYY-MM-DD format)
- repositories (list of repository objects)
  - name (string)
  - branches (list of branch objects)
    - name (string)
    - commits (list of commit objects)
      - scope (string, extracted from commit message)
      - description (string, what changed)
      - purpose (string, optional context)

{format_instructions}

Follow these rules:
1. Output only JSON, no other text
2. Ensure all required fields are present
3. Use consistent date format
4. Extract scopes from commits
5. Keep descriptions concise but clear
`

const eodHumanPrompt = `
Generate a structured summary of the following commits:
{collected_commits}

The response should be a valid JSON object matching this structure:
{{
    "date": "YYYY-MM-DD",
    "repositories": [
        {{
            "name": "repo-name",
            "branches": [
                {{
                    "name": "branch-name",
                    "commits": [
                        {{
                            "scope": "area",
                            "description": "what changed",
                            "purpose": "why it changed (optional)"
                        }}
                    ]
                }}
            ]
        }}
    ]
}}
`

const sprintReviewSystemPrompt = `
You are an AI assistant that generates business-focused sprint review summaries.
Your response must be valid JSON conforming to the following structure:
{format_instructions}

Each ticket summary object within the 'tickets' list **MUST** contain:
- ticket_id (string)
- branch_name (string)
- summary (string) - **This field is mandatory and must contain a non-empty string summarizing the work.**

Follow these rules:
1. Output only the JSON object, with no other text before or after it.
2. **Crucially, include the ` + "`summary`" + ` field for every ticket.** Generate a meaningful, business-focused summary for each ticket based on the provided commits and ticket information.
3. Focus on business value and outcomes.
4. Avoid technical jargon.
5. Keep summaries concise but informative.
6. Emphasize user impact and benefits.
`

const sprintReviewHumanPrompt = `
Generate a structured summary of the sprint work using these commits and tickets:
Commits: {collected_commits}
Tickets: {tickets}

The response should be a valid JSON object matching this structure:
{{
    "tickets": [
        {{
            "ticket_id": "TICKET-123",
            "branch_name": "feat/TICKET-123",
            "summary": "Business-focused description of completed work"
        }}
    ]
}}
`

const formatPreamble = `The output should be formatted as a JSON instance that conforms to the JSON schema below.

As an example, for the schema {"properties": {"foo": {"title": "Foo", "description": "a list of strings", "type": "array", "items": {"type": "string"}}}, "required": ["foo"]}
the object {"foo": ["bar", "baz"]} is a well-formatted instance of the schema. The object {"properties": {"foo": ["bar", "baz"]}} is not well-formatted.

Here is the output schema:
` + "```\n"

const dailyJSONSchema = `{"properties": {"date": {"description": "Date in YYYY-MM-DD format", "type": "string"}, "repositories": {"description": "List of repositories with commits", "type": "array", "items": {"$ref": "#/$defs/RepositorySummary"}}}, "required": ["date", "repositories"], "$defs": {"RepositorySummary": {"properties": {"name": {"description": "Name of the repository", "type": "string"}, "branches": {"description": "List of branches with commits", "type": "array", "items": {"$ref": "#/$defs/BranchSummary"}}}, "required": ["name", "branches"], "type": "object"}, "BranchSummary": {"properties": {"name": {"description": "Name of the branch", "type": "string"}, "commits": {"description": "List of commits in this branch", "type": "array", "items": {"$ref": "#/$defs/CommitSummary"}}}, "required": ["name", "commits"], "type": "object"}, "CommitSummary": {"properties": {"scope": {"description": "Area of focus extracted from commit message", "type": "string"}, "description": {"description": "Brief description of the change", "type": "string"}, "purpose": {"default": "", "description": "Optional purpose or rationale for the change", "type": "string"}}, "required": ["scope", "description"], "type": "object"}}}`

const sprintReviewJSONSchema = `{"properties": {"tickets": {"description": "List of summaries for each ticket", "type": "array", "items": {"$ref": "#/$defs/TicketSummary"}}}, "required": ["tickets"], "$defs": {"TicketSummary": {"properties": {"ticket_id": {"description": "Ticket identifier (e.g., TICKET-123)", "type": "string"}, "branch_name": {"description": "Name of the Git branch", "type": "string"}, "summary": {"description": "Business-focused summary of completed work", "type": "string"}}, "required": ["ticket_id", "branch_name", "summary"], "type": "object"}}}`

// FormatInstructions returns the schema description appended to the system
// prompt for the named schema, or an empty string for an unknown name.
func FormatInstructions(schema string) string {
	var body string
	switch schema {
	case DailySchema:
		body = dailyJSONSchema
	case SprintReviewSchema:
		body = sprintReviewJSONSchema
	default:
		return ""
	}
	return formatPreamble + body + "\n```"
}

// Render substitutes {name} placeholders with vars and unescapes doubled
// braces in a single pass, so substituted values are never re-expanded.
// Placeholders without a value are left as they are.
func Render(template string, vars map[string]string) string {
	pairs := []string{"{{", "{", "}}", "}"}
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// DailyPrompt composes the end-of-day prompt for the collected commits.
func DailyPrompt(commits string) llm.Prompt {
	return llm.Prompt{
		System: Render(eodSystemPrompt, map[string]string{VarFormatInstructions: FormatInstructions(DailySchema)}),
		Human:  Render(eodHumanPrompt, map[string]string{VarCollectedCommits: commits}),
	}
}

// SprintReviewPrompt composes the sprint-review prompt for the collected
// commits and ticket text.
func SprintReviewPrompt(commits, tickets string) llm.Prompt {
	return llm.Prompt{
		System: Render(sprintReviewSystemPrompt, map[string]string{VarFormatInstructions: FormatInstructions(SprintReviewSchema)}),
		Human: Render(sprintReviewHumanPrompt, map[string]string{
			VarCollectedCommits: commits,
			VarTickets:          tickets,
		}),
	}
}
