package gitlogs_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	author1Name  = "Alice Alpha"
	author1Email = "alice@example.com"
	author2Name  = "Bob Bravo"
	author2Email = "bob@example.com"
	mergerName   = "Core Maintainer"
	mergerEmail  = "core@example.com"
)

func setupGitRepo(t *testing.T) string {
	t.Helper()
	repoPath := t.TempDir()
	runGitCommand(t, repoPath, "init", "-b", "main")
	runGitCommand(t, repoPath, "config", "user.name", "Test User")
	runGitCommand(t, repoPath, "config", "user.email", "test@example.com")
	runGitCommand(t, repoPath, "config", "commit.gpgsign", "false")
	return repoPath
}

func runGitCommand(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git command failed (args: %v): %v\nOutput:\n%s", args, err, string(output))
	}
}

func gitEnv(name, email string, when time.Time) []string {
	isoDate := when.Format(time.RFC3339)
	return append(os.Environ(),
		"GIT_AUTHOR_NAME="+name,
		"GIT_AUTHOR_EMAIL="+email,
		"GIT_AUTHOR_DATE="+isoDate,
		"GIT_COMMITTER_NAME="+name,
		"GIT_COMMITTER_EMAIL="+email,
		"GIT_COMMITTER_DATE="+isoDate,
	)
}

func gitCommit(t *testing.T, repoPath, message, authorName, authorEmail string, commitDate time.Time) {
	t.Helper()

	file := filepath.Join(repoPath, fmt.Sprintf("file-%d.txt", time.Now().UnixNano()))
	if err := os.WriteFile(file, []byte(message+"\n"+authorName), 0o644); err != nil {
		t.Fatalf("Failed to write file for commit: %v", err)
	}
	runGitCommand(t, repoPath, "add", file)

	cmd := exec.Command("git", "commit", "-m", message)
	cmd.Dir = repoPath
	cmd.Env = gitEnv(authorName, authorEmail, commitDate)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git commit failed for %q: %v\nOutput: %s", message, err, string(output))
	}
}

func gitMerge(t *testing.T, repoPath, branch string, when time.Time) {
	t.Helper()
	cmd := exec.Command("git", "merge", "--no-ff", "-m", "Merge branch '"+branch+"'", branch)
	cmd.Dir = repoPath
	cmd.Env = gitEnv(mergerName, mergerEmail, when)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git merge failed: %v\nOutput: %s", err, string(output))
	}
}

func testTime(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, time.UTC)
}

// commitLines drops the repository header and returns the commit lines.
func commitLines(t *testing.T, out string) []string {
	t.Helper()
	if out == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "Repository: ") {
		t.Fatalf("missing repository header in %q", out)
	}
	return lines[1:]
}

// historyRepo builds main + feature history used by the source tests:
//
//	2023-03-01 "Commit Before"   main
//	2023-03-15 "Commit During"   main
//	2023-03-16 "Feature Work"    feature/TICKET-1
//	2023-03-17 merge of feature  main (excluded)
//	2023-03-30 "Commit After"    main
func historyRepo(t *testing.T) string {
	t.Helper()
	repo := setupGitRepo(t)
	gitCommit(t, repo, "Commit Before", author1Name, author1Email, testTime(2023, 3, 1, 10, 0, 0))
	gitCommit(t, repo, "Commit During", author2Name, author2Email, testTime(2023, 3, 15, 12, 0, 0))
	runGitCommand(t, repo, "checkout", "-b", "feature/TICKET-1")
	gitCommit(t, repo, "Feature Work", author1Name, author1Email, testTime(2023, 3, 16, 12, 0, 0))
	runGitCommand(t, repo, "checkout", "main")
	gitMerge(t, repo, "feature/TICKET-1", testTime(2023, 3, 17, 12, 0, 0))
	gitCommit(t, repo, "Commit After", author1Name, author1Email, testTime(2023, 3, 30, 14, 0, 0))
	return repo
}
