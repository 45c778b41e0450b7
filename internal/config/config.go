// Package config loads devsummary settings from a YAML or TOML file, an
// optional .env file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Log backends.
const (
	BackendExec  = "exec"
	BackendGoGit = "gogit"
)

// Config holds every setting of the application.
type Config struct {
	Repositories RepositoriesConfig `yaml:"repositories" toml:"repositories"`
	History      HistoryConfig      `yaml:"history" toml:"history"`
	LLM          LLMConfig          `yaml:"llm" toml:"llm"`
	Server       ServerConfig       `yaml:"server" toml:"server"`
	Log          LogConfig          `yaml:"log" toml:"log"`
	Metrics      MetricsConfig      `yaml:"metrics" toml:"metrics"`
	GitHub       GitHubConfig       `yaml:"github" toml:"github"`
}

// RepositoriesConfig selects where and how commit logs are read.
type RepositoriesConfig struct {
	Roots []string `yaml:"roots" toml:"roots"`
	// Backend is "exec" (git CLI or Command) or "gogit".
	Backend string `yaml:"backend" toml:"backend"`
	// Command is an external log connector used instead of git log.
	Command string `yaml:"command" toml:"command"`
	EODDays int    `yaml:"eod_days" toml:"eod_days"`
}

// HistoryConfig locates the history file.
type HistoryConfig struct {
	File string `yaml:"file" toml:"file"`
}

// LLMConfig selects the language model backend.
type LLMConfig struct {
	Provider    string       `yaml:"provider" toml:"provider"`
	Temperature float64      `yaml:"temperature" toml:"temperature"`
	Gemini      GeminiConfig `yaml:"gemini" toml:"gemini"`
	OpenAI      OpenAIConfig `yaml:"openai" toml:"openai"`
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	Model           string `yaml:"model" toml:"model"`
	APIKey          string `yaml:"api_key" toml:"api_key"`
	CredentialsFile string `yaml:"credentials_file" toml:"credentials_file"`
}

// OpenAIConfig configures the OpenAI-compatible backend.
type OpenAIConfig struct {
	Model   string `yaml:"model" toml:"model"`
	APIKey  string `yaml:"api_key" toml:"api_key"`
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address                string `yaml:"address" toml:"address"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
	StaticDir              string `yaml:"static_dir" toml:"static_dir"`
}

// LogConfig configures the default slog logger.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// GitHubConfig configures ticket import for sprint reviews.
type GitHubConfig struct {
	Token string `yaml:"token" toml:"token"`
	// Repo is the default "owner/repo" or remote URL to import issues from.
	Repo string `yaml:"repo" toml:"repo"`
	// Comments also imports the comments of every issue.
	Comments bool `yaml:"comments" toml:"comments"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Repositories: RepositoriesConfig{
			Backend: BackendExec,
			EODDays: 2,
		},
		History: HistoryConfig{File: "data/.history.json"},
		LLM: LLMConfig{
			Provider:    "gemini",
			Temperature: 0.2,
			Gemini:      GeminiConfig{Model: "gemini-1.5-flash"},
			OpenAI:      OpenAIConfig{Model: "gpt-4o-mini"},
		},
		Server: ServerConfig{
			Address:                ":5001",
			ShutdownTimeoutSeconds: 10,
		},
		Log:     LogConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true, Namespace: "devsummary"},
	}
}

// Load builds the configuration. A missing envFile is ignored; a non-empty
// path must exist and is decoded by its extension.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	cleanedPath := filepath.Clean(path)
	if _, err := os.Stat(cleanedPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at path: %s", cleanedPath)
	}

	// #nosec G304 -- User provides the config path via flag, accept the risk for CLI tool.
	data, err := os.ReadFile(cleanedPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cleanedPath, err)
	}

	switch ext := strings.ToLower(filepath.Ext(cleanedPath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to unmarshal config YAML from %s: %w", cleanedPath, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to unmarshal config TOML from %s: %w", cleanedPath, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("REPO_PATHS"); v != "" {
		c.Repositories.Roots = splitList(v)
	}
	setString(&c.Repositories.Backend, "GIT_LOG_BACKEND")
	setString(&c.Repositories.Command, "GIT_LOG_COMMAND")
	if err := setInt(&c.Repositories.EODDays, "EOD_DAYS"); err != nil {
		return err
	}
	setString(&c.History.File, "HISTORY_FILE")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	if err := setFloat(&c.LLM.Temperature, "LLM_TEMPERATURE"); err != nil {
		return err
	}
	setString(&c.LLM.Gemini.Model, "GEMINI_MODEL")
	setString(&c.LLM.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.LLM.Gemini.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.LLM.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.LLM.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.LLM.OpenAI.BaseURL, "OPENAI_BASE_URL")

	setString(&c.Server.Address, "LISTEN_ADDRESS")
	setString(&c.Server.StaticDir, "STATIC_DIR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.GitHub.Token, "GITHUB_TOKEN")
	setString(&c.GitHub.Repo, "GITHUB_REPO")
	return setBool(&c.GitHub.Comments, "GITHUB_COMMENTS")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.Repositories.Roots) == 0 {
		return fmt.Errorf("at least one repository root is required (repositories.roots or REPO_PATHS)")
	}
	if c.Repositories.EODDays <= 0 {
		return fmt.Errorf("repositories.eod_days must be positive, got %d", c.Repositories.EODDays)
	}
	switch c.Repositories.Backend {
	case BackendExec, BackendGoGit:
	default:
		return fmt.Errorf("unknown repositories.backend %q (want %q or %q)", c.Repositories.Backend, BackendExec, BackendGoGit)
	}
	if c.History.File == "" {
		return fmt.Errorf("history.file cannot be empty")
	}
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.Gemini.Model == "" {
			return fmt.Errorf("llm.gemini.model cannot be empty")
		}
	case "openai":
		if c.LLM.OpenAI.Model == "" {
			return fmt.Errorf("llm.openai.model cannot be empty")
		}
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds must be positive")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("%s must be a number, got %q", key, v)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s must be true or false, got %q", key, v)
	}
	*dst = b
	return nil
}
