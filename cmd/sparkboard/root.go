package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/sparkboard/internal/config"
	"github.com/example/sparkboard/internal/logging"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sparkboard",
		Short:         "Badge tracker and Spark Moments booking API for the bootcamp",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newUserCommand())
	root.AddCommand(newKeysCommand())
	root.AddCommand(newEnvCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// loadRuntime reads the environment and builds the process logger.
func loadRuntime(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel), nil
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables sparkboard reads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Usage(cmd.OutOrStdout())
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sparkboard %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}
