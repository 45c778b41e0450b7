package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"REPO_PATHS", "GIT_LOG_BACKEND", "GIT_LOG_COMMAND", "EOD_DAYS", "HISTORY_FILE",
	"LLM_PROVIDER", "LLM_TEMPERATURE", "GEMINI_MODEL", "GEMINI_API_KEY", "GOOGLE_APPLICATION_CREDENTIALS",
	"OPENAI_MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL", "LISTEN_ADDRESS", "STATIC_DIR",
	"LOG_LEVEL", "LOG_FORMAT", "GITHUB_TOKEN", "GITHUB_REPO", "GITHUB_COMMENTS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "devsummary.yaml", `
repositories:
  roots: [/src/work, /src/oss]
  backend: gogit
  eod_days: 3
llm:
  provider: openai
  openai:
    model: llama3
    base_url: http://localhost:11434/v1/
history:
  file: /tmp/history.json
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/work", "/src/oss"}, cfg.Repositories.Roots)
	assert.Equal(t, BackendGoGit, cfg.Repositories.Backend)
	assert.Equal(t, 3, cfg.Repositories.EODDays)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "http://localhost:11434/v1/", cfg.LLM.OpenAI.BaseURL)
	assert.Equal(t, "/tmp/history.json", cfg.History.File)
	// untouched defaults survive
	assert.Equal(t, ":5001", cfg.Server.Address)
	assert.Equal(t, "gemini-1.5-flash", cfg.LLM.Gemini.Model)
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "devsummary.toml", `
[repositories]
roots = ["/src"]
command = "./git_connector.sh"

[server]
address = "127.0.0.1:8080"

[metrics]
enabled = false
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/src"}, cfg.Repositories.Roots)
	assert.Equal(t, "./git_connector.sh", cfg.Repositories.Command)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 2, cfg.Repositories.EODDays)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "devsummary.yaml", "repositories:\n  roots: [/from/file]\n")
	t.Setenv("REPO_PATHS", "/a, /b,,")
	t.Setenv("EOD_DAYS", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Repositories.Roots)
	assert.Equal(t, 5, cfg.Repositories.EODDays)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMalformedEnv(t *testing.T) {
	tests := []struct {
		key, value, errMsg string
	}{
		{"EOD_DAYS", "two", `EOD_DAYS must be an integer, got "two"`},
		{"LLM_TEMPERATURE", "warm", `LLM_TEMPERATURE must be a number, got "warm"`},
		{"GITHUB_COMMENTS", "sometimes", `GITHUB_COMMENTS must be true or false, got "sometimes"`},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("REPO_PATHS", "/src")
			t.Setenv(tc.key, tc.value)
			_, err := Load("", "")
			assert.EqualError(t, err, tc.errMsg)
		})
	}
}

func TestLoadTypedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPO_PATHS", "/src")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("GITHUB_COMMENTS", "true")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.True(t, cfg.GitHub.Comments)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("REPO_PATHS"))
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))
	envFile := writeFile(t, ".env", "REPO_PATHS=/from/dotenv\nGEMINI_API_KEY=secret\n")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"/from/dotenv"}, cfg.Repositories.Roots)
	assert.Equal(t, "secret", cfg.LLM.Gemini.APIKey)
}

func TestLoadMissingEnvFileIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPO_PATHS", "/src")
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.ErrorContains(t, err, "config file not found")

	_, err = Load(writeFile(t, "cfg.json", "{}"), "")
	assert.ErrorContains(t, err, `unsupported config file extension ".json"`)

	_, err = Load(writeFile(t, "cfg.yaml", "repositories: [oops"), "")
	assert.ErrorContains(t, err, "failed to unmarshal config YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"no roots", func(c *Config) { c.Repositories.Roots = nil }, "at least one repository root"},
		{"zero days", func(c *Config) { c.Repositories.EODDays = 0 }, "eod_days must be positive"},
		{"bad backend", func(c *Config) { c.Repositories.Backend = "svn" }, `unknown repositories.backend "svn"`},
		{"no history file", func(c *Config) { c.History.File = "" }, "history.file cannot be empty"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "bedrock" }, `unknown llm.provider "bedrock"`},
		{"no gemini model", func(c *Config) { c.LLM.Gemini.Model = "" }, "llm.gemini.model cannot be empty"},
		{"no openai model", func(c *Config) { c.LLM.Provider = "openai"; c.LLM.OpenAI.Model = "" }, "llm.openai.model cannot be empty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Repositories.Roots = []string{"/src"}
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.errMsg)
		})
	}

	cfg := Default()
	cfg.Repositories.Roots = []string{"/src"}
	assert.NoError(t, cfg.Validate())
}
