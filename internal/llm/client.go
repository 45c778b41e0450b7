// Package llm defines the language-model collaborator used to summarise
// commit logs, with Gemini and OpenAI-compatible implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Prompt is a composed system + human message pair.
type Prompt struct {
	System string
	Human  string
}

// Client sends a prompt to a language model and returns its text response.
type Client interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
	// Name identifies the backend and model for logs and metrics.
	Name() string
}

var (
	// ErrEmptyResponse is returned when the model answered without any text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrNoCredentials is returned when no authentication method is available.
	ErrNoCredentials = errors.New("no credentials configured")
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config selects and configures a backend.
type Config struct {
	Provider    string
	Model       string
	Temperature float64

	// Gemini
	CredentialsFile string
	APIKey          string

	// OpenAI-compatible
	BaseURL string
}

// New returns the Client for cfg.Provider.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
