package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// ErrAPIKeyNotSet is returned when neither an API key nor a base URL is configured.
var ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

// OpenAIClient talks to the OpenAI chat completions API or any server
// implementing it (Ollama, vLLM, ...) when BaseURL is set.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *slog.Logger
}

// NewOpenAIClient returns an OpenAIClient. A local BaseURL does not need an API key.
func NewOpenAIClient(cfg Config, extra ...option.RequestOption) (*OpenAIClient, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, ErrAPIKeyNotSet
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		logger:      slog.Default().With("component", "llm", "provider", ProviderOpenAI),
	}, nil
}

// Generate implements Client.
func (c *OpenAIClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.Human),
		},
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	}

	c.logger.Debug("sending prompt to OpenAI", "model", c.model, "prompt_chars", len(prompt.System)+len(prompt.Human))
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	c.logger.Debug("received completion", "model", completion.Model, "tokens", completion.Usage.TotalTokens)
	return content, nil
}

// Name implements Client.
func (c *OpenAIClient) Name() string {
	return ProviderOpenAI + "/" + c.model
}

var _ Client = (*OpenAIClient)(nil)
