package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stone-IT-Cloud/devsummary/internal/llm"
)

type fakeClient struct {
	response string
	err      error
	prompts  []llm.Prompt
}

func (f *fakeClient) Generate(_ context.Context, p llm.Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.response, f.err
}

func (f *fakeClient) Name() string { return "fake/model" }

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		expected string
	}{
		{"substitutes", "Commits: {collected_commits}", map[string]string{"collected_commits": "abc"}, "Commits: abc"},
		{"unescapes braces", `{{"a": 1}}`, nil, `{"a": 1}`},
		{"escaped placeholder stays literal", "{{collected_commits}}", map[string]string{"collected_commits": "x"}, "{collected_commits}"},
		{"values are not re-expanded", "{tickets}", map[string]string{"tickets": "{{collected_commits}}", "collected_commits": "x"}, "{{collected_commits}}"},
		{"unknown placeholder kept", "{other}", nil, "{other}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Render(tc.template, tc.vars))
		})
	}
}

func TestPrompts(t *testing.T) {
	daily := DailyPrompt("abc123 | main | Jane | 2024-03-15 | fix: login")
	assert.Contains(t, daily.System, FormatInstructions(DailySchema))
	assert.NotContains(t, daily.System, "{format_instructions}")
	assert.Contains(t, daily.Human, "abc123 | main | Jane | 2024-03-15 | fix: login")
	assert.Contains(t, daily.Human, `"date": "YYYY-MM-DD"`)

	review := SprintReviewPrompt("commit text", "TICKET-1: login page")
	assert.Contains(t, review.System, FormatInstructions(SprintReviewSchema))
	assert.Contains(t, review.Human, "Commits: commit text")
	assert.Contains(t, review.Human, "Tickets: TICKET-1: login page")

	assert.Empty(t, FormatInstructions("Unknown"))
}

func TestGeneratorDaily(t *testing.T) {
	client := &fakeClient{response: dailyJSON}
	g := NewGenerator(client)

	got, err := g.Daily(context.Background(), "A-log")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", got.Date)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0].Human, "A-log")
}

func TestGeneratorSprintReviewMalformed(t *testing.T) {
	client := &fakeClient{response: `{"tickets": [{"ticket_id": "A", "branch_name": "a"}]}`}
	g := NewGenerator(client)

	_, err := g.SprintReview(context.Background(), "commits", "tickets")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, SprintReviewSchema, genErr.Schema)
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.EqualError(t, err, "failed to generate SprintReviewSummary: malformed model output: tickets[0].summary is required")
}

func TestGeneratorInvocationFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	g := NewGenerator(&fakeClient{err: boom})

	_, err := g.Daily(context.Background(), "commits")
	assert.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "failed to generate DailySummary: quota exceeded")
}

func TestGeneratorWithoutLogger(t *testing.T) {
	g := &Generator{Client: &fakeClient{response: dailyJSON}}
	got, err := g.Daily(context.Background(), "commits")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", got.Date)

	g = &Generator{Client: &fakeClient{err: errors.New("boom")}}
	_, err = g.SprintReview(context.Background(), "commits", "tickets")
	assert.ErrorContains(t, err, "boom")
}
