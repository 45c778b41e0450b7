package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", ".history.json"))
	require.NoError(t, err)
	return s
}

func at(minute int) time.Time {
	return time.Date(2024, 3, 15, 10, minute, 0, 0, time.Local)
}

func TestNewStoreCreatesFile(t *testing.T) {
	s := newTestStore(t)
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
	assert.Empty(t, s.List())
}

func TestEntryMapRoundTrip(t *testing.T) {
	for _, typ := range []ReportType{TypeEOD, TypeSprintReview} {
		for _, status := range []Status{StatusPassed, StatusError} {
			e := NewEntry(typ, "line one\nline two", status, at(1))
			got, err := EntryFromMap(e.ToMap())
			require.NoError(t, err)
			assert.Equal(t, e, got)
		}
	}
}

func TestEntryFromMapErrors(t *testing.T) {
	_, err := EntryFromMap(map[string]any{"id": "x"})
	assert.ErrorContains(t, err, `missing "type"`)

	m := NewEntry(TypeEOD, "r", StatusPassed, at(1)).ToMap()
	m["status"] = 3
	_, err = EntryFromMap(m)
	assert.ErrorContains(t, err, `field "status" is int`)
}

func TestNewEntry(t *testing.T) {
	e := NewEntry(TypeEOD, "report", StatusPassed, time.Date(2024, 3, 15, 9, 5, 7, 123456000, time.Local))
	assert.Equal(t, "2024-03-15T09:05:07.123456", e.Date)
	assert.Len(t, e.ID, 36)
	assert.NotEqual(t, e.ID, NewEntry(TypeEOD, "report", StatusPassed, at(1)).ID)
}

func TestListSortedNewestFirst(t *testing.T) {
	s := newTestStore(t)
	for _, minute := range []int{5, 1, 9, 3} {
		require.NoError(t, s.Append(NewEntry(TypeEOD, fmt.Sprint(minute), StatusPassed, at(minute))))
	}

	entries := s.List()
	require.Len(t, entries, 4)
	var order []string
	for _, e := range entries {
		order = append(order, e.Response)
	}
	assert.Equal(t, []string{"9", "5", "3", "1"}, order)
}

func TestGetDeleteUpdate(t *testing.T) {
	s := newTestStore(t)
	a := NewEntry(TypeEOD, "a", StatusPassed, at(1))
	b := NewEntry(TypeSprintReview, "b", StatusError, at(2))
	require.NoError(t, s.Append(a))
	require.NoError(t, s.Append(b))

	got, err := s.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := s.Delete("missing")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, s.List(), 2)

	removed, err = s.Delete(a.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Len(t, s.List(), 1)

	updated := b
	updated.Response = "b2"
	found, err := s.Update(b.ID, updated)
	require.NoError(t, err)
	assert.True(t, found)
	got, err = s.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "b2", got.Response)

	found, err = s.Update("missing", updated)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(NewEntry(TypeEOD, "a", StatusPassed, at(1))))
	require.NoError(t, s.Clear())
	assert.Empty(t, s.List())
}

func TestCorruptFileReadsAsEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))
	assert.Empty(t, s.List())

	require.NoError(t, s.Append(NewEntry(TypeEOD, "a", StatusPassed, at(1))))
	assert.Len(t, s.List(), 1)
}

func TestFileFormat(t *testing.T) {
	s := newTestStore(t)
	e := Entry{ID: "1", Type: TypeEOD, Date: "2024-03-15T10:00:00.000000", Response: "r", Status: StatusPassed}
	require.NoError(t, s.Append(e))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, `[
  {
    "id": "1",
    "type": "EOD",
    "date": "2024-03-15T10:00:00.000000",
    "response": "r",
    "status": "passed"
  }
]`, string(data))
}

func TestWriteFailurePropagates(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	s := newTestStore(t)
	require.NoError(t, os.Chmod(s.Path(), 0o400))

	err := s.Append(NewEntry(TypeEOD, "a", StatusPassed, at(1)))
	assert.ErrorContains(t, err, "failed to write history file")
}
