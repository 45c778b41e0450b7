package gitlogs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Separator joins the logs of consecutive repositories.
const Separator = "\n\n---\n\n"

// Locator finds the repositories below a set of roots.
type Locator interface {
	LocateAll(roots []string) ([]string, error)
}

// Aggregator collects the logs of every repository under Roots into one corpus.
type Aggregator struct {
	Roots   []string
	Locator Locator
	Source  Source
	Logger  *slog.Logger
}

// NewAggregator returns an Aggregator reading repositories below roots.
func NewAggregator(roots []string, locator Locator, source Source) *Aggregator {
	return &Aggregator{
		Roots:   roots,
		Locator: locator,
		Source:  source,
		Logger:  slog.Default().With("component", "gitlogs"),
	}
}

// Collect locates the repositories, extracts each log for the window in
// locator order and joins the non-empty results with Separator.
//
// The first repository that fails aborts the whole collection.
func (a *Aggregator) Collect(ctx context.Context, w Window) (string, error) {
	repos, err := a.Locator.LocateAll(a.Roots)
	if err != nil {
		return "", fmt.Errorf("failed to locate repositories: %w", err)
	}
	a.logger().Info("collecting git logs", "repositories", len(repos), "window", w.String())

	var blocks []string
	for _, repo := range repos {
		var text string
		if w.IsRange() {
			text, err = a.Source.ByDateRange(ctx, repo, w.StartDate, w.EndDate)
		} else {
			text, err = a.Source.ByDays(ctx, repo, w.Days)
		}
		if err != nil {
			return "", err
		}
		if text == "" {
			a.logger().Debug("no commits in window", "repo", repo)
			continue
		}
		blocks = append(blocks, text)
	}
	return strings.Join(blocks, Separator), nil
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
