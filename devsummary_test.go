package devsummary_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stone-IT-Cloud/devsummary"
	"github.com/Stone-IT-Cloud/devsummary/internal/history"
	"github.com/Stone-IT-Cloud/devsummary/internal/llm"
	"github.com/Stone-IT-Cloud/devsummary/internal/summary"
	"github.com/Stone-IT-Cloud/devsummary/pkg/gitlogs"
)

type fakeLogs struct {
	text    string
	err     error
	windows []gitlogs.Window
}

func (f *fakeLogs) Collect(_ context.Context, w gitlogs.Window) (string, error) {
	f.windows = append(f.windows, w)
	return f.text, f.err
}

type fakeLLM struct {
	response string
	err      error
	prompts  []llm.Prompt
}

func (f *fakeLLM) Generate(_ context.Context, p llm.Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.response, f.err
}

func (f *fakeLLM) Name() string { return "fake" }

type failingHistory struct {
	calls int
}

func (f *failingHistory) Append(history.Entry) error {
	f.calls++
	return errors.New("disk full")
}

type recordingObserver struct {
	observed []string
}

func (o *recordingObserver) ObserveReport(reportType, status string, _ time.Duration) {
	o.observed = append(o.observed, reportType+"/"+status)
}

func newStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.NewStore(filepath.Join(t.TempDir(), ".history.json"))
	require.NoError(t, err)
	return store
}

func newReporter(t *testing.T, logs devsummary.LogCollector, client llm.Client, rec devsummary.HistoryRecorder, obs devsummary.Observer) *devsummary.Reporter {
	t.Helper()
	r, err := devsummary.New(devsummary.Options{
		Logs:       logs,
		Summarizer: summary.NewGenerator(client),
		History:    rec,
		Observer:   obs,
	})
	require.NoError(t, err)
	return r
}

const dailyResponse = `{"date": "2024-03-15", "repositories": [
  {"name": "api", "branches": [{"name": "main", "commits": [
    {"scope": "auth", "description": "add token refresh", "purpose": "fewer logouts"}
  ]}]}
]}`

func TestEndOfDaySuccessRecordsFormattedReport(t *testing.T) {
	logs := &fakeLogs{text: "A-log" + gitlogs.Separator + "B-log"}
	client := &fakeLLM{response: dailyResponse}
	store := newStore(t)
	obs := &recordingObserver{}
	r := newReporter(t, logs, client, store, obs)

	var progress []string
	ctx := devsummary.WithProgress(context.Background(), func(line string) { progress = append(progress, line) })

	text, err := r.EndOfDay(ctx)
	require.NoError(t, err)

	expected, err := summary.DecodeDaily(dailyResponse)
	require.NoError(t, err)
	assert.Equal(t, summary.FormatDaily(*expected), text)

	entries := store.List()
	require.Len(t, entries, 1)
	assert.Equal(t, history.StatusPassed, entries[0].Status)
	assert.Equal(t, history.TypeEOD, entries[0].Type)
	assert.Equal(t, text, entries[0].Response)

	assert.Equal(t, []gitlogs.Window{{Days: devsummary.DefaultEODDays}}, logs.windows)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0].Human, "A-log\n\n---\n\nB-log")
	assert.Equal(t, []string{"EOD/passed"}, obs.observed)
	assert.Contains(t, progress, "Generating end-of-day summary...")
	assert.Contains(t, progress, "Saving to history...")
}

func TestSprintReviewMalformedOutputRecordsError(t *testing.T) {
	logs := &fakeLogs{text: "commits"}
	client := &fakeLLM{response: `{"tickets": [
		{"ticket_id": "TICKET-1", "branch_name": "feature/TICKET-1", "summary": "Done."},
		{"ticket_id": "TICKET-2", "branch_name": "feature/TICKET-2"}
	]}`}
	store := newStore(t)
	obs := &recordingObserver{}
	r := newReporter(t, logs, client, store, obs)

	text, err := r.SprintReview(context.Background(), devsummary.SprintRequest{
		StartDate: "2024-03-01", EndDate: "2024-03-14", Tickets: "TICKET-1, TICKET-2",
	})
	assert.Empty(t, text)
	require.Error(t, err)
	assert.ErrorIs(t, err, summary.ErrMalformedOutput)
	assert.Contains(t, err.Error(), "tickets[1].summary is required")

	entries := store.List()
	require.Len(t, entries, 1)
	assert.Equal(t, history.StatusError, entries[0].Status)
	assert.Equal(t, history.TypeSprintReview, entries[0].Type)
	assert.Equal(t, err.Error(), entries[0].Response)

	assert.Equal(t, []gitlogs.Window{{StartDate: "2024-03-01", EndDate: "2024-03-14"}}, logs.windows)
	assert.Contains(t, client.prompts[0].Human, "Tickets: TICKET-1, TICKET-2")
	assert.Equal(t, []string{"SPRINT_REVIEW/error"}, obs.observed)
}

func TestSprintReviewEmptyTickets(t *testing.T) {
	store := newStore(t)
	r := newReporter(t, &fakeLogs{text: "commits"}, &fakeLLM{response: `{"tickets": []}`}, store, nil)

	text, err := r.SprintReview(context.Background(), devsummary.SprintRequest{StartDate: "2024-03-01", EndDate: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, summary.NoSprintReview, text)
	assert.Len(t, store.List(), 1)
}

func TestSprintReviewInvalidDates(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{"missing", "", "2024-03-14"},
		{"bad format", "03/01/2024", "2024-03-14"},
		{"reversed", "2024-03-14", "2024-03-01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logs := &fakeLogs{}
			store := newStore(t)
			r := newReporter(t, logs, &fakeLLM{}, store, nil)

			_, err := r.SprintReview(context.Background(), devsummary.SprintRequest{StartDate: tc.start, EndDate: tc.end})
			assert.ErrorIs(t, err, devsummary.ErrInvalidDate)
			assert.Empty(t, logs.windows)

			entries := store.List()
			require.Len(t, entries, 1)
			assert.Equal(t, history.StatusError, entries[0].Status)
		})
	}
}

func TestEndOfDayExtractionFailure(t *testing.T) {
	boom := &gitlogs.ExtractionError{Repo: "/src/api", Stderr: "fatal: not a git repository", Err: errors.New("exit status 128")}
	client := &fakeLLM{}
	store := newStore(t)
	r := newReporter(t, &fakeLogs{err: boom}, client, store, nil)

	_, err := r.EndOfDay(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, client.prompts)

	entries := store.List()
	require.Len(t, entries, 1)
	assert.Equal(t, history.StatusError, entries[0].Status)
	assert.Contains(t, entries[0].Response, "fatal: not a git repository")
}

func TestSecondaryHistoryFailureDoesNotMaskError(t *testing.T) {
	rec := &failingHistory{}
	r := newReporter(t, &fakeLogs{text: "commits"}, &fakeLLM{err: errors.New("quota exceeded")}, rec, nil)

	_, err := r.EndOfDay(context.Background())
	assert.EqualError(t, err, "failed to generate DailySummary: quota exceeded")
	assert.Equal(t, 1, rec.calls)
}

func TestHistoryWriteFailureOnSuccessIsReported(t *testing.T) {
	rec := &failingHistory{}
	r := newReporter(t, &fakeLogs{text: "commits"}, &fakeLLM{response: dailyResponse}, rec, nil)

	_, err := r.EndOfDay(context.Background())
	assert.ErrorContains(t, err, "failed to save report to history: disk full")
	assert.Equal(t, 2, rec.calls)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := devsummary.New(devsummary.Options{})
	assert.Error(t, err)
}
