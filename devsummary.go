// Package devsummary generates end-of-day and sprint-review reports from the
// git history of local repositories and records every attempt in a history
// log.
package devsummary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Stone-IT-Cloud/devsummary/internal/history"
	"github.com/Stone-IT-Cloud/devsummary/internal/summary"
	"github.com/Stone-IT-Cloud/devsummary/pkg/gitlogs"
)

// DefaultEODDays is the trailing window of an end-of-day report.
const DefaultEODDays = 2

// ErrInvalidDate is returned when a sprint-review date range is unusable.
var ErrInvalidDate = errors.New("invalid sprint date range")

// LogCollector returns the aggregated commit log for a window.
type LogCollector interface {
	Collect(ctx context.Context, w gitlogs.Window) (string, error)
}

// Summarizer turns commit logs into structured summaries.
type Summarizer interface {
	Daily(ctx context.Context, commits string) (*summary.DailySummary, error)
	SprintReview(ctx context.Context, commits, tickets string) (*summary.SprintReviewSummary, error)
}

// HistoryRecorder persists generation attempts.
type HistoryRecorder interface {
	Append(e history.Entry) error
}

// Observer is told about every finished attempt.
type Observer interface {
	ObserveReport(reportType, status string, duration time.Duration)
}

// Options configures a Reporter.
type Options struct {
	Logs       LogCollector
	Summarizer Summarizer
	History    HistoryRecorder
	// Observer is optional.
	Observer Observer
	// EODDays defaults to DefaultEODDays.
	EODDays int
	Logger  *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Reporter runs the report use cases. Every call records exactly one
// history entry, whatever the outcome.
type Reporter struct {
	logs       LogCollector
	summarizer Summarizer
	history    HistoryRecorder
	observer   Observer
	eodDays    int
	logger     *slog.Logger
	now        func() time.Time
}

// SprintRequest selects the period and tickets of a sprint review.
type SprintRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Tickets   string `json:"tickets"`
}

// New returns a Reporter. Logs, Summarizer and History are required.
func New(opts Options) (*Reporter, error) {
	if opts.Logs == nil || opts.Summarizer == nil || opts.History == nil {
		return nil, fmt.Errorf("log collector, summarizer and history are required")
	}
	r := &Reporter{
		logs:       opts.Logs,
		summarizer: opts.Summarizer,
		history:    opts.History,
		observer:   opts.Observer,
		eodDays:    opts.EODDays,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if r.eodDays <= 0 {
		r.eodDays = DefaultEODDays
	}
	if r.logger == nil {
		r.logger = slog.Default().With("component", "reporter")
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// EndOfDay summarises the commits of the trailing EOD window.
func (r *Reporter) EndOfDay(ctx context.Context) (string, error) {
	return r.run(ctx, history.TypeEOD, func(ctx context.Context) (string, error) {
		Progress(ctx, "Collecting git logs for the last %d day(s)...", r.eodDays)
		commits, err := r.logs.Collect(ctx, gitlogs.Window{Days: r.eodDays})
		if err != nil {
			return "", err
		}

		Progress(ctx, "Generating end-of-day summary...")
		daily, err := r.summarizer.Daily(ctx, commits)
		if err != nil {
			return "", err
		}

		Progress(ctx, "Formatting report...")
		return summary.FormatDaily(*daily), nil
	})
}

// SprintReview summarises the commits between two dates against the given
// ticket text.
func (r *Reporter) SprintReview(ctx context.Context, req SprintRequest) (string, error) {
	return r.run(ctx, history.TypeSprintReview, func(ctx context.Context) (string, error) {
		if err := validateRange(req.StartDate, req.EndDate); err != nil {
			return "", err
		}

		Progress(ctx, "Collecting git logs from %s to %s...", req.StartDate, req.EndDate)
		commits, err := r.logs.Collect(ctx, gitlogs.Window{StartDate: req.StartDate, EndDate: req.EndDate})
		if err != nil {
			return "", err
		}

		Progress(ctx, "Generating sprint review summary...")
		review, err := r.summarizer.SprintReview(ctx, commits, req.Tickets)
		if err != nil {
			return "", err
		}

		Progress(ctx, "Formatting report...")
		return summary.FormatSprintReview(*review), nil
	})
}

// run executes fn and records its outcome. A failure to record a failed
// attempt is logged; the original error is returned.
func (r *Reporter) run(ctx context.Context, typ history.ReportType, fn func(context.Context) (string, error)) (string, error) {
	started := r.now()
	log := r.logger.With("type", typ)
	log.Info("starting report generation")

	text, err := fn(ctx)
	if err == nil {
		Progress(ctx, "Saving to history...")
		if herr := r.history.Append(history.NewEntry(typ, text, history.StatusPassed, r.now())); herr != nil {
			err = fmt.Errorf("failed to save report to history: %w", herr)
		}
	}
	if err != nil {
		log.Error("report generation failed", "error", err)
		if herr := r.history.Append(history.NewEntry(typ, err.Error(), history.StatusError, r.now())); herr != nil {
			log.Error("failed to record error in history", "error", herr)
		}
		r.observe(typ, history.StatusError, started)
		return "", err
	}
	r.observe(typ, history.StatusPassed, started)
	log.Info("report generated", "chars", len(text), "duration", r.now().Sub(started))
	return text, nil
}

func (r *Reporter) observe(typ history.ReportType, status history.Status, started time.Time) {
	if r.observer != nil {
		r.observer.ObserveReport(string(typ), string(status), r.now().Sub(started))
	}
}

func validateRange(startDate, endDate string) error {
	if startDate == "" || endDate == "" {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidDate)
	}
	start, err := gitlogs.ParseDate(startDate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	end, err := gitlogs.ParseDate(endDate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidDate, endDate, startDate)
	}
	return nil
}
