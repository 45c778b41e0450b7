// Package app wires the devsummary components together from a Config.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Stone-IT-Cloud/devsummary"
	"github.com/Stone-IT-Cloud/devsummary/internal/config"
	"github.com/Stone-IT-Cloud/devsummary/internal/history"
	"github.com/Stone-IT-Cloud/devsummary/internal/llm"
	"github.com/Stone-IT-Cloud/devsummary/internal/metrics"
	"github.com/Stone-IT-Cloud/devsummary/internal/server"
	"github.com/Stone-IT-Cloud/devsummary/internal/summary"
	"github.com/Stone-IT-Cloud/devsummary/pkg/gitlogs"
	"github.com/Stone-IT-Cloud/devsummary/pkg/gitrepos"
	"github.com/Stone-IT-Cloud/devsummary/pkg/tickets"
)

// App holds the long-lived components. The language model client is created
// on first use so that commands which never generate a report do not need
// credentials.
type App struct {
	Config  *config.Config
	Locator *gitrepos.Locator
	Logs    *gitlogs.Aggregator
	History *history.Store
	Metrics *metrics.Collector

	// NewLLM builds the model client, llm.New by default.
	NewLLM func(ctx context.Context, cfg llm.Config) (llm.Client, error)
	// HTTPClient is used for ticket import, http.DefaultClient when nil.
	HTTPClient *http.Client

	mu       sync.Mutex
	client   llm.Client
	reporter *devsummary.Reporter
	logger   *slog.Logger
}

// New builds every component that does not need network credentials.
func New(cfg *config.Config) (*App, error) {
	store, err := history.NewStore(cfg.History.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	locator := gitrepos.NewLocator()
	return &App{
		Config:  cfg,
		Locator: locator,
		Logs:    gitlogs.NewAggregator(cfg.Repositories.Roots, locator, newSource(cfg.Repositories)),
		History: store,
		Metrics: metrics.NewCollector(metrics.Config{
			Enabled:   cfg.Metrics.Enabled,
			Namespace: cfg.Metrics.Namespace,
		}, nil),
		NewLLM: llm.New,
		logger: slog.Default().With("component", "app"),
	}, nil
}

func newSource(cfg config.RepositoriesConfig) gitlogs.Source {
	if cfg.Backend == config.BackendGoGit {
		return gitlogs.NewGoGitSource()
	}
	return gitlogs.NewExecSource(cfg.Command)
}

// LLMConfig maps the configuration of the selected provider.
func LLMConfig(cfg config.LLMConfig) llm.Config {
	out := llm.Config{Provider: cfg.Provider, Temperature: cfg.Temperature}
	switch cfg.Provider {
	case llm.ProviderOpenAI:
		out.Model = cfg.OpenAI.Model
		out.APIKey = cfg.OpenAI.APIKey
		out.BaseURL = cfg.OpenAI.BaseURL
	default:
		out.Model = cfg.Gemini.Model
		out.APIKey = cfg.Gemini.APIKey
		out.CredentialsFile = cfg.Gemini.CredentialsFile
	}
	return out
}

// Reporter returns the report orchestrator, creating the model client on
// the first call.
func (a *App) Reporter(ctx context.Context) (*devsummary.Reporter, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reporter != nil {
		return a.reporter, nil
	}
	client, err := a.NewLLM(ctx, LLMConfig(a.Config.LLM))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", a.Config.LLM.Provider, err)
	}
	a.logger.Info("language model ready", "model", client.Name())

	reporter, err := devsummary.New(devsummary.Options{
		Logs:       a.Logs,
		Summarizer: summary.NewGenerator(client),
		History:    a.History,
		Observer:   a.Metrics,
		EODDays:    a.Config.Repositories.EODDays,
	})
	if err != nil {
		return nil, err
	}
	a.client = client
	a.reporter = reporter
	return reporter, nil
}

// Tickets returns a GitHub issue source authenticated with the configured
// token, importing comments when github.comments is set.
func (a *App) Tickets(ctx context.Context) (tickets.Provider, error) {
	src, err := tickets.NewGitHubSource(ctx, a.Config.GitHub.Token, a.HTTPClient)
	if err != nil {
		return nil, err
	}
	src.WithComments = a.Config.GitHub.Comments
	return src, nil
}

// Server builds the HTTP server around the reporter and history store.
func (a *App) Server(ctx context.Context) (*server.Server, error) {
	reporter, err := a.Reporter(ctx)
	if err != nil {
		return nil, err
	}
	cfg := server.Config{
		Address:         a.Config.Server.Address,
		ShutdownTimeout: time.Duration(a.Config.Server.ShutdownTimeoutSeconds) * time.Second,
		StaticDir:       a.Config.Server.StaticDir,
	}
	if a.Config.Metrics.Enabled {
		cfg.Metrics = a.Metrics.Handler()
		cfg.Observer = a.Metrics
	}
	return server.New(cfg, reporter, a.History), nil
}

// Close releases the model client if it holds resources.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
