package mongodb

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/config"
)

// Dialer opens a driver client for a connection string.
type Dialer func(ctx context.Context, uri string) (*mongo.Client, error)

// Conn is one open connection bound to a logical database.
type Conn struct {
	Name   string
	Client *mongo.Client
	DB     *mongo.Database
}

// Close disconnects the underlying client.
func (c *Conn) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}

// ConnectionManager opens connections per database name and keeps them
// for the lifetime of the manager.
type ConnectionManager struct {
	cfg  config.MongoConfig
	dial Dialer
	log  *zap.Logger

	mu    sync.Mutex
	conns map[string]*Conn
}

type Option func(*ConnectionManager)

// WithDialer replaces the driver dialer.
func WithDialer(d Dialer) Option {
	return func(m *ConnectionManager) {
		m.dial = d
	}
}

func NewConnectionManager(cfg config.MongoConfig, log *zap.Logger, opts ...Option) *ConnectionManager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &ConnectionManager{
		cfg:   cfg,
		log:   log,
		conns: make(map[string]*Conn),
	}
	m.dial = m.defaultDial
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ConnectionManager) defaultDial(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	if m.cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(m.cfg.ConnectTimeout)
	}
	return mongo.Connect(ctx, opts)
}

// Open returns the cached connection for database, dialing and caching a
// new one on first use.
func (m *ConnectionManager) Open(ctx context.Context, database string) (*Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.conns[database]; ok {
		return c, nil
	}

	c, err := m.connect(ctx, database, m.cfg.Username, m.cfg.Password)
	if err != nil {
		return nil, err
	}
	m.conns[database] = c
	return c, nil
}

// OpenUncached dials a connection that is not remembered. The caller owns
// it and must close it.
func (m *ConnectionManager) OpenUncached(ctx context.Context, database string) (*Conn, error) {
	return m.connect(ctx, database, m.cfg.Username, m.cfg.Password)
}

func (m *ConnectionManager) connect(ctx context.Context, database, username, password string) (*Conn, error) {
	client, err := m.dial(ctx, URI(&m.cfg, database, username, password))
	if err != nil {
		return nil, Wrap("connect "+database, err)
	}
	m.log.Debug("opened database connection", zap.String("database", database))
	return &Conn{Name: database, Client: client, DB: client.Database(database)}, nil
}

// AuthenticateUser checks credentials against the admin database on a
// dedicated connection that is closed before returning.
func (m *ConnectionManager) AuthenticateUser(ctx context.Context, username, password string) error {
	conn, err := m.connect(ctx, AdminDatabase, username, password)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
			m.log.Warn("failed to close authentication connection", zap.Error(err))
		}
	}()

	m.log.Info("authenticating user", zap.String("user", username))

	if err := conn.Client.Ping(ctx, readpref.Primary()); err != nil {
		return Wrap("authenticate", err)
	}
	return nil
}

// Ping checks the admin connection.
func (m *ConnectionManager) Ping(ctx context.Context) error {
	conn, err := m.Open(ctx, AdminDatabase)
	if err != nil {
		return err
	}
	return Wrap("ping", conn.Client.Ping(ctx, readpref.Primary()))
}

// systemDatabases never hold teamspace data.
var systemDatabases = []string{AdminDatabase, "local", "config"}

// ListDatabases names every database except the server's own.
func (m *ConnectionManager) ListDatabases(ctx context.Context) ([]string, error) {
	conn, err := m.Open(ctx, AdminDatabase)
	if err != nil {
		return nil, err
	}
	names, err := conn.Client.ListDatabaseNames(ctx, bson.D{{Key: "name", Value: bson.D{{Key: "$nin", Value: systemDatabases}}}})
	if err != nil {
		return nil, Wrap("list databases", err)
	}
	return names, nil
}

// Cached reports whether a connection for database is held.
func (m *ConnectionManager) Cached(database string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.conns[database]
	return ok
}

// Close disconnects every cached connection.
func (m *ConnectionManager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, c := range m.conns {
		if err := c.Close(ctx); err != nil {
			errs = append(errs, Wrap("disconnect "+name, err))
		}
		delete(m.conns, name)
	}
	return errors.Join(errs...)
}
