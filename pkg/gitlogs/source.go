// Package gitlogs retrieves commit history text from local git repositories
// and aggregates it across every repository found under the configured roots.
package gitlogs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the layout accepted for explicit date ranges (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Source returns the raw commit log text of a single repository for a time window.
type Source interface {
	// ByDays returns the commits of the trailing days up to now.
	ByDays(ctx context.Context, repoPath string, days int) (string, error)
	// ByDateRange returns the commits between two calendar dates, both inclusive.
	ByDateRange(ctx context.Context, repoPath, startDate, endDate string) (string, error)
}

// Window selects the period a log is retrieved for. A Window with a StartDate
// or EndDate is a date range, otherwise Days is used.
type Window struct {
	Days      int
	StartDate string
	EndDate   string
}

// IsRange reports whether the window is an explicit date range.
func (w Window) IsRange() bool {
	return w.StartDate != "" || w.EndDate != ""
}

func (w Window) String() string {
	if w.IsRange() {
		return fmt.Sprintf("%s..%s", w.StartDate, w.EndDate)
	}
	return fmt.Sprintf("last %d day(s)", w.Days)
}

// Bounds returns the concrete [since, until] interval of the window, relative
// to now for a Days window.
func (w Window) Bounds(now time.Time) (since, until time.Time, err error) {
	var tr timeRange
	if w.IsRange() {
		tr, err = dateRange(w.StartDate, w.EndDate)
	} else {
		tr, err = daysRange(now, w.Days)
	}
	return tr.since, tr.until, err
}

// ExtractionError is returned when the log of a repository could not be retrieved.
type ExtractionError struct {
	Repo   string
	Stderr string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("failed to read git log of %s: %v", e.Repo, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// timeRange is the concrete [since, until] interval of a query.
type timeRange struct {
	since time.Time
	until time.Time
}

// daysRange returns the interval covering the trailing days up to now.
func daysRange(now time.Time, days int) (timeRange, error) {
	if days <= 0 {
		return timeRange{}, fmt.Errorf("days must be positive, got %d", days)
	}
	return timeRange{since: now.Add(-time.Duration(days) * 24 * time.Hour), until: now}, nil
}

// dateRange parses two YYYY-MM-DD dates into an interval running from the
// start of startDate to the end of endDate in local time.
func dateRange(startDate, endDate string) (timeRange, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return timeRange{}, err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return timeRange{}, err
	}
	if end.Before(start) {
		return timeRange{}, fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}
	return timeRange{since: start, until: end.Add(24*time.Hour - time.Second)}, nil
}

// ParseDate parses a YYYY-MM-DD date in local time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected format %s: %w", s, DateLayout, err)
	}
	return t, nil
}

// validateRepoPath checks if the path is a git working tree and returns the absolute path.
func validateRepoPath(repoPath string) (string, error) {
	if repoPath == "" {
		return "", fmt.Errorf("repository path cannot be empty")
	}
	absRepoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %q: %w", repoPath, err)
	}
	info, err := os.Stat(absRepoPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("repository path %q does not exist", absRepoPath)
		}
		return "", fmt.Errorf("failed to stat repository path %q: %w", absRepoPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("repository path %q is not a directory", absRepoPath)
	}
	return absRepoPath, nil
}

// header returns the line that introduces the log of a repository.
func header(repoPath string) string {
	return "Repository: " + filepath.Base(repoPath)
}
