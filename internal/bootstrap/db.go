package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/config"
	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
)

type DBOptions struct {
	Mongo  config.MongoConfig
	Redis  config.RedisConfig
	PingTO time.Duration
}

// OpenMongo returns a connection manager and checks the admin connection.
func OpenMongo(ctx context.Context, opt DBOptions, log *zap.Logger) (*mongodb.ConnectionManager, error) {
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}

	conns := mongodb.NewConnectionManager(opt.Mongo, log)

	pctx, cancel := context.WithTimeout(ctx, opt.PingTO)
	defer cancel()

	if err := conns.Ping(pctx); err != nil {
		_ = conns.Close(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return conns, nil
}

// OpenRedis connects the session store.
func OpenRedis(ctx context.Context, opt DBOptions) (*redis.Client, error) {
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opt.Redis.Addr,
		Password: opt.Redis.Password,
		DB:       opt.Redis.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, opt.PingTO)
	defer cancel()

	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
