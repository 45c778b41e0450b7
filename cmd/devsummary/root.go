package main

import (
	"github.com/spf13/cobra"

	"github.com/Stone-IT-Cloud/devsummary/internal/app"
	"github.com/Stone-IT-Cloud/devsummary/internal/config"
	"github.com/Stone-IT-Cloud/devsummary/internal/logging"
)

// cli carries the global flags and the application built from them.
type cli struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string

	newApp func(*config.Config) (*app.App, error)
	app    *app.App
}

func newRootCmd(newApp func(*config.Config) (*app.App, error)) *cobra.Command {
	c := &cli{newApp: newApp}

	cmd := &cobra.Command{
		Use:   "devsummary",
		Short: "Summarise git activity into end-of-day and sprint-review reports",
		Long: "devsummary collects the git history of every repository under the configured roots " +
			"and asks a language model for an end-of-day or sprint-review summary. Every attempt is " +
			"recorded in a local history file.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "path to a YAML or TOML config file")
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")
	flags.StringVar(&c.logFormat, "log-format", "", "log format: json or text (overrides config)")

	cmd.AddCommand(
		newServeCmd(c),
		newEODCmd(c),
		newSprintReviewCmd(c),
		newReposCmd(c),
		newContributorsCmd(c),
		newHistoryCmd(c),
	)
	return cmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath, c.envFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	logCfg := logging.DefaultConfig()
	logCfg.Output = cmd.ErrOrStderr()
	if cfg.Log.Level != "" {
		if logCfg.Level, err = logging.ParseLevel(cfg.Log.Level); err != nil {
			return err
		}
	}
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	logging.New(logCfg)

	c.app, err = c.newApp(cfg)
	return err
}
