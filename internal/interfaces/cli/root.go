// Package cli defines the esg-dashboard command tree. The binary is an ops
// tool: serve runs the API server, migrate applies schema migrations, and
// warm-rankings rebuilds the ranking index once.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecometric/esg-dashboard/internal/config"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type rootOptions struct {
	ConfigPath string
}

// NewRootCommand builds the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "esg-dashboard",
		Short:         "ESG dashboard backend: portfolio scoring, rankings, and analytics",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: environment only)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newWarmCmd(opts),
	)
	return cmd
}

// Execute runs the command tree.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig reads the config file when one was given, otherwise falls back
// to environment variables.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	return config.LoadFromEnv()
}

// newLogger builds the process logger from config and installs it as the
// package default.
func newLogger(cfg *config.Config) (logging.Logger, error) {
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	logging.SetDefault(logger)
	return logger, nil
}
