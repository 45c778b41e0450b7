package gitlogs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// commitFormat renders one commit per line: hash | ref | author | date | subject.
const commitFormat = "%h | %S | %an | %ad | %s"

// ExecSource shells out to retrieve commit logs.
//
// When Command is empty the built-in `git log` invocation is used. Otherwise
// Command is an external connector invoked as
//
//	<Command> --path <repo> --days <N>
//	<Command> --path <repo> --start-date <YYYY-MM-DD> --end-date <YYYY-MM-DD>
//
// which must print the log on stdout and exit nonzero on failure.
type ExecSource struct {
	Command string
	// Git is the git executable, "git" when empty.
	Git    string
	Now    func() time.Time
	Logger *slog.Logger
}

// NewExecSource returns an ExecSource using the given external connector, or
// plain git when command is empty.
func NewExecSource(command string) *ExecSource {
	return &ExecSource{
		Command: command,
		Git:     "git",
		Now:     time.Now,
		Logger:  slog.Default().With("component", "gitlogs"),
	}
}

// ByDays implements Source.
func (s *ExecSource) ByDays(ctx context.Context, repoPath string, days int) (string, error) {
	absRepoPath, err := validateRepoPath(repoPath)
	if err != nil {
		return "", &ExtractionError{Repo: repoPath, Err: err}
	}
	if s.Command != "" {
		if days <= 0 {
			return "", fmt.Errorf("days must be positive, got %d", days)
		}
		return s.run(ctx, absRepoPath, s.Command, []string{"--path", absRepoPath, "--days", strconv.Itoa(days)})
	}

	tr, err := daysRange(s.now(), days)
	if err != nil {
		return "", err
	}
	return s.gitLog(ctx, absRepoPath, tr)
}

// ByDateRange implements Source.
func (s *ExecSource) ByDateRange(ctx context.Context, repoPath, startDate, endDate string) (string, error) {
	absRepoPath, err := validateRepoPath(repoPath)
	if err != nil {
		return "", &ExtractionError{Repo: repoPath, Err: err}
	}
	tr, err := dateRange(startDate, endDate)
	if err != nil {
		return "", err
	}
	if s.Command != "" {
		return s.run(ctx, absRepoPath, s.Command, []string{"--path", absRepoPath, "--start-date", startDate, "--end-date", endDate})
	}
	return s.gitLog(ctx, absRepoPath, tr)
}

// gitLog runs the built-in git log query and prefixes non-empty output with
// the repository header.
func (s *ExecSource) gitLog(ctx context.Context, absRepoPath string, tr timeRange) (string, error) {
	if _, err := os.Stat(filepath.Join(absRepoPath, ".git")); err != nil {
		return "", &ExtractionError{
			Repo: absRepoPath,
			Err:  fmt.Errorf("path %q is not a git repository (missing .git directory)", absRepoPath),
		}
	}

	args := []string{
		"log",
		"--branches",
		"--no-merges",
		"--source",
		"--date=iso-strict",
		"--since=" + tr.since.Format(time.RFC3339),
		"--until=" + tr.until.Format(time.RFC3339),
		"--pretty=format:" + commitFormat,
		"--",
	}
	out, err := s.run(ctx, absRepoPath, s.git(), args)
	if err != nil || out == "" {
		return out, err
	}

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.Replace(line, " | refs/heads/", " | ", 1)
	}
	return header(absRepoPath) + "\n" + strings.Join(lines, "\n"), nil
}

func (s *ExecSource) run(ctx context.Context, dir, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- command comes from local configuration
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.logger().Error("log retrieval failed",
			"repo", dir,
			"command", name,
			"error", err,
			"stderr", strings.TrimSpace(stderr.String()),
		)
		return "", &ExtractionError{Repo: dir, Stderr: stderr.String(), Err: err}
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (s *ExecSource) git() string {
	if s.Git == "" {
		return "git"
	}
	return s.Git
}

func (s *ExecSource) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *ExecSource) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

var _ Source = (*ExecSource)(nil)
