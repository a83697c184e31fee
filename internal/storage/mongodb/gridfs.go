package mongodb

import (
	"bytes"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrFileNotFound is the GridFS error for a missing file name.
var ErrFileNotFound = gridfs.ErrFileNotFound

// GetGridFSFile reads fileName in full from the GridFS bucket rooted at
// collection.
func (s *Store) GetGridFSFile(ctx context.Context, database, collection, fileName string) ([]byte, error) {
	const op = "gridfs.read"
	start := time.Now()

	data, err := s.readFile(ctx, database, collection, fileName)
	s.metrics.ObserveStoreOp(op, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, Wrap(op, err)
	}

	s.log.Debug("read gridfs file",
		zap.String("database", database),
		zap.String("bucket", collection),
		zap.String("file", fileName),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

func (s *Store) readFile(ctx context.Context, database, collection, fileName string) ([]byte, error) {
	conn, err := s.conns.Open(ctx, database)
	if err != nil {
		return nil, err
	}

	bucket, err := gridfs.NewBucket(conn.DB, options.GridFSBucket().SetName(collection))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := bucket.DownloadToStreamByName(fileName, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
