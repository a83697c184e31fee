package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/internal/metrics"
)

// Store runs queries against collections resolved through a
// ConnectionManager. Every error it returns matches ErrDatabase.
type Store struct {
	conns   *ConnectionManager
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewStore(conns *ConnectionManager, log *zap.Logger, m *metrics.Metrics) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{conns: conns, log: log, metrics: m}
}

// Connections exposes the manager the store resolves through.
func (s *Store) Connections() *ConnectionManager {
	return s.conns
}

// Collection resolves a collection, opening the database connection if needed.
func (s *Store) Collection(ctx context.Context, database, collection string) (*mongo.Collection, error) {
	conn, err := s.conns.Open(ctx, database)
	if err != nil {
		return nil, err
	}
	return conn.DB.Collection(collection), nil
}

// Do resolves the collection and runs fn on it. The outcome is recorded
// under op and any error is wrapped. mongo.ErrNoDocuments still counts as a
// successful call.
func (s *Store) Do(ctx context.Context, op, database, collection string, fn func(*mongo.Collection) error) error {
	start := time.Now()

	coll, err := s.Collection(ctx, database, collection)
	if err == nil {
		err = fn(coll)
	}

	observed := err
	if errors.Is(err, mongo.ErrNoDocuments) {
		observed = nil
	}
	s.metrics.ObserveStoreOp(op, time.Since(start).Seconds(), observed)

	return Wrap(op, err)
}

// FilterColl returns every document matching filter. A nil projection
// returns whole documents. Order is unspecified.
func (s *Store) FilterColl(ctx context.Context, database, collection string, filter, projection any) ([]bson.M, error) {
	return s.find(ctx, "filter", database, collection, filter, projection, options.Find())
}

// GetLatest returns at most one document: the match with the greatest
// timestamp.
func (s *Store) GetLatest(ctx context.Context, database, collection string, filter, projection any) ([]bson.M, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(1)
	return s.find(ctx, "latest", database, collection, filter, projection, opts)
}

func (s *Store) find(ctx context.Context, op, database, collection string, filter, projection any, opts *options.FindOptions) ([]bson.M, error) {
	if filter == nil {
		filter = bson.M{}
	}
	if projection != nil {
		opts.SetProjection(projection)
	}

	s.log.Debug("querying collection",
		zap.String("op", op),
		zap.String("database", database),
		zap.String("collection", collection),
		zap.Any("filter", filter),
		zap.Any("projection", projection),
	)

	var docs []bson.M
	err := s.Do(ctx, op, database, collection, func(c *mongo.Collection) error {
		cur, err := c.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []bson.M{}
	}

	s.log.Debug("query finished", zap.String("op", op), zap.Int("results", len(docs)))
	return docs, nil
}
