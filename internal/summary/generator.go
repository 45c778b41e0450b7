package summary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Stone-IT-Cloud/devsummary/internal/llm"
)

// GenerationError reports a failed model invocation or an unusable response
// for the named schema.
type GenerationError struct {
	Schema string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate %s: %v", e.Schema, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Generator asks a language model for structured summaries.
type Generator struct {
	Client llm.Client
	Logger *slog.Logger
}

// NewGenerator returns a Generator backed by client.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{
		Client: client,
		Logger: slog.Default().With("component", "summary"),
	}
}

// Daily summarises commits into a DailySummary.
func (g *Generator) Daily(ctx context.Context, commits string) (*DailySummary, error) {
	text, err := g.invoke(ctx, DailySchema, DailyPrompt(commits))
	if err != nil {
		return nil, err
	}
	out, err := DecodeDaily(text)
	if err != nil {
		g.logger().Error("could not decode model output", "schema", DailySchema, "error", err)
		return nil, &GenerationError{Schema: DailySchema, Err: err}
	}
	g.logger().Info("generated summary", "schema", DailySchema, "repositories", len(out.Repositories))
	return out, nil
}

// SprintReview summarises commits against the given ticket text.
func (g *Generator) SprintReview(ctx context.Context, commits, tickets string) (*SprintReviewSummary, error) {
	text, err := g.invoke(ctx, SprintReviewSchema, SprintReviewPrompt(commits, tickets))
	if err != nil {
		return nil, err
	}
	out, err := DecodeSprintReview(text)
	if err != nil {
		g.logger().Error("could not decode model output", "schema", SprintReviewSchema, "error", err)
		return nil, &GenerationError{Schema: SprintReviewSchema, Err: err}
	}
	g.logger().Info("generated summary", "schema", SprintReviewSchema, "tickets", len(out.Tickets))
	return out, nil
}

func (g *Generator) invoke(ctx context.Context, schema string, prompt llm.Prompt) (string, error) {
	g.logger().Info("sending request to model", "schema", schema, "model", g.Client.Name())
	text, err := g.Client.Generate(ctx, prompt)
	if err != nil {
		g.logger().Error("model invocation failed", "schema", schema, "error", err)
		return "", &GenerationError{Schema: schema, Err: err}
	}
	return text, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}
