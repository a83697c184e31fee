package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/config"
	"github.com/threedrepo/repo-backend/internal/logging"
)

const serviceName = "repo-backend"

var (
	rootCmd = &cobra.Command{
		Use:           "repo-api",
		Short:         "Teamspace, project and model permission API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", serviceName, cfg.App.Version)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(versionCmd, serveCmd, ensureIndexesCmd)
}

// setup loads the configuration and the process logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log.With(zap.String("service", serviceName)), nil
}
