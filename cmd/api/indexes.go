package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/internal/bootstrap"
	"github.com/threedrepo/repo-backend/internal/metrics"
	"github.com/threedrepo/repo-backend/internal/projects/repository"
	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
)

var (
	indexAccounts []string

	ensureIndexesCmd = &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create the unique project name index in teamspace databases",
		Long:  "Create the unique project name index. Without --account every non-system database is treated as a teamspace.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			conns, err := bootstrap.OpenMongo(cmd.Context(), bootstrap.DBOptions{Mongo: cfg.Mongo}, log)
			if err != nil {
				return err
			}
			defer func() { _ = conns.Close(context.Background()) }()

			return ensureIndexes(cmd.Context(), conns, log, metrics.New(), indexAccounts)
		},
	}
)

func init() {
	ensureIndexesCmd.Flags().StringSliceVar(&indexAccounts, "account", nil, "teamspace to index (repeatable)")
}

// ensureIndexes indexes accounts, or every teamspace database when none
// are given. Failures are collected so one broken database does not stop
// the rest.
func ensureIndexes(ctx context.Context, conns *mongodb.ConnectionManager, log *zap.Logger, m *metrics.Metrics, accounts []string) error {
	if len(accounts) == 0 {
		var err error
		if accounts, err = conns.ListDatabases(ctx); err != nil {
			return err
		}
	}

	repo := repository.NewProjectRepository(mongodb.NewStore(conns, log, m))

	var errs []error
	for _, account := range accounts {
		if err := repo.EnsureIndexes(ctx, account); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", account, err))
			continue
		}
		log.Info("project indexes ensured", zap.String("account", account))
	}
	return errors.Join(errs...)
}
