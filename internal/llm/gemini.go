package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// #nosec G101 -- This is the name of an environment variable, not a credential itself.
const apiKeyEnvVar = "VERTEX_AI_API_KEY" // Environment variable for the API key

// #nosec G101 -- This is the name of an environment variable, not a credential itself.
const credentialsFileEnvVar = "GOOGLE_APPLICATION_CREDENTIALS" // Environment variable for credentials file

// GeminiClient talks to Gemini through the generative-ai-go SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

// NewGeminiClient authenticates and returns a GeminiClient.
//
// Authentication is resolved in order: cfg.CredentialsFile, the
// GOOGLE_APPLICATION_CREDENTIALS environment variable, cfg.APIKey and finally
// the VERTEX_AI_API_KEY environment variable.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	clientOpts, err := geminiAuth(cfg)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini AI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
		logger:      slog.Default().With("component", "llm", "provider", ProviderGemini),
	}, nil
}

func geminiAuth(cfg Config) ([]option.ClientOption, error) {
	if cfg.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, nil
	}
	if credentialsPath := os.Getenv(credentialsFileEnvVar); credentialsPath != "" {
		return []option.ClientOption{option.WithCredentialsFile(credentialsPath)}, nil
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(apiKeyEnvVar)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: neither a credentials file in config/environment nor %s is set", ErrNoCredentials, apiKeyEnvVar)
	}
	return []option.ClientOption{option.WithAPIKey(apiKey)}, nil
}

// Generate implements Client. The system prompt is sent as the model's system
// instruction and JSON output is requested.
func (g *GeminiClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(prompt.System))
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(g.temperature)

	g.logger.Debug("sending prompt to Gemini", "model", g.model, "prompt_chars", len(prompt.System)+len(prompt.Human))
	resp, err := model.GenerateContent(ctx, genai.Text(prompt.Human))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := extractTextFromResponse(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Name implements Client.
func (g *GeminiClient) Name() string {
	return ProviderGemini + "/" + g.model
}

// Close releases the underlying SDK client.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// extractTextFromResponse safely extracts the text content from the Gemini response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	if resp == nil {
		return ""
	}

	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if textPart, ok := part.(genai.Text); ok {
					builder.WriteString(string(textPart))
				}
			}
		}
	}

	return builder.String()
}

var _ Client = (*GeminiClient)(nil)
