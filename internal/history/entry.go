// Package history persists one record per report generation attempt in a
// JSON file.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportType identifies the kind of report an entry belongs to.
type ReportType string

const (
	TypeEOD          ReportType = "EOD"
	TypeSprintReview ReportType = "SPRINT_REVIEW"
)

// Status is the outcome of a generation attempt.
type Status string

const (
	StatusPassed Status = "passed"
	StatusError  Status = "error"
)

// DateLayout is a fixed-width local ISO-8601 timestamp, so entries sort
// correctly by string comparison.
const DateLayout = "2006-01-02T15:04:05.000000"

// Entry is one recorded generation attempt. Response holds the formatted
// report or the error message.
type Entry struct {
	ID       string     `json:"id"`
	Type     ReportType `json:"type"`
	Date     string     `json:"date"`
	Response string     `json:"response"`
	Status   Status     `json:"status"`
}

// NewEntry returns an entry with a fresh id, stamped with now.
func NewEntry(typ ReportType, response string, status Status, now time.Time) Entry {
	return Entry{
		ID:       uuid.NewString(),
		Type:     typ,
		Date:     now.Format(DateLayout),
		Response: response,
		Status:   status,
	}
}

// ToMap returns the entry as a generic record.
func (e Entry) ToMap() map[string]any {
	return map[string]any{
		"id":       e.ID,
		"type":     string(e.Type),
		"date":     e.Date,
		"response": e.Response,
		"status":   string(e.Status),
	}
}

// EntryFromMap rebuilds an entry from a generic record. Every field must be
// present and a string.
func EntryFromMap(m map[string]any) (Entry, error) {
	fields := make(map[string]string, 5)
	for _, key := range []string{"id", "type", "date", "response", "status"} {
		v, ok := m[key]
		if !ok {
			return Entry{}, fmt.Errorf("history record is missing %q", key)
		}
		s, ok := v.(string)
		if !ok {
			return Entry{}, fmt.Errorf("history record field %q is %T, want string", key, v)
		}
		fields[key] = s
	}
	return Entry{
		ID:       fields["id"],
		Type:     ReportType(fields["type"]),
		Date:     fields["date"],
		Response: fields["response"],
		Status:   Status(fields["status"]),
	}, nil
}
