package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/config"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/logger"
)

// cli is the state shared by the subcommands once the root command has
// loaded the configuration.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg     *config.Config
	logData *logger.LogData
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "repokit",
		Short: "Products sample for the repokit repositories",
		Long: `repokit runs the products sample against PostgreSQL, SQLite,
SurrealDB or MongoDB through the same repository contracts.

Commands:
  serve    - Serve the products HTTP API
  migrate  - Create the schema on relational backends
  seed     - Insert sample products in one unit of work`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.logData == nil {
				return nil
			}
			return c.logData.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (overrides REPOKIT_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "log format: json or console")

	cmd.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newSeedCmd(c),
	)
	return cmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}

	logData, err := logger.New().
		FromBuffer(cmd.OutOrStdout()).
		FromPath(cfg.Log.Path).
		WithLevel(cfg.Log.Level).
		WithFormat(cfg.Log.Format).
		Make()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	c.cfg = cfg
	c.logData = logData
	c.log = logData.Logger.With().Str("backend", cfg.Backend).Logger()
	return nil
}
