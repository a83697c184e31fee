// Package mongodbtest wires a mongodb.Store to an mtest mock deployment.
package mongodbtest

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/threedrepo/repo-backend/config"
	"github.com/threedrepo/repo-backend/internal/metrics"
	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
)

// NewStore returns a store whose every database resolves to the mock
// client of mt. Queue replies with mt.AddMockResponses before each call.
func NewStore(mt *mtest.T) *mongodb.Store {
	conns := mongodb.NewConnectionManager(
		config.MongoConfig{Host: "localhost", Port: 27017},
		nil,
		mongodb.WithDialer(func(context.Context, string) (*mongo.Client, error) {
			return mt.Client, nil
		}),
	)
	return mongodb.NewStore(conns, nil, metrics.New())
}

// MockOptions selects the mock deployment.
func MockOptions() *mtest.Options {
	return mtest.NewOptions().ClientType(mtest.Mock)
}
