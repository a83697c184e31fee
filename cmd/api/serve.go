package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/internal/bootstrap"
	"github.com/threedrepo/repo-backend/internal/metrics"
)

var (
	serveEnsureIndexes bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().BoolVar(&serveEnsureIndexes, "ensure-indexes", false, "create missing project indexes in every teamspace before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := bootstrap.DBOptions{Mongo: cfg.Mongo, Redis: cfg.Redis}

	conns, err := bootstrap.OpenMongo(ctx, opts, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := conns.Close(context.Background()); err != nil {
			log.Warn("closing database connections", zap.Error(err))
		}
	}()

	rdb, err := bootstrap.OpenRedis(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	m := metrics.New()

	if serveEnsureIndexes {
		if err := ensureIndexes(ctx, conns, log, m, nil); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: bootstrap.BuildRouter(bootstrap.RouterDeps{
			ServiceName:    serviceName,
			Version:        cfg.App.Version,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Auth:           cfg.Auth,
			Log:            log,
			Metrics:        m,
			Conns:          conns,
			Redis:          rdb,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Environment))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
