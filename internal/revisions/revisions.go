// Package revisions reads the revision history and stored files of a model.
package revisions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
)

var (
	ErrRevisionNotFound = errors.New("revision not found")
	ErrFileNotFound     = errors.New("file not found")
)

// Revision is one entry of a model's history collection.
type Revision struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Author    string             `json:"author" bson:"author"`
	Tag       string             `json:"tag,omitempty" bson:"tag,omitempty"`
	Desc      string             `json:"desc,omitempty" bson:"desc,omitempty"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
}

// HistoryCollection names the history collection of model. Its GridFS
// bucket shares the name.
func HistoryCollection(model string) string {
	return model + ".history"
}

var (
	completeOnly = bson.M{"incomplete": bson.M{"$exists": false}}
	summary      = bson.M{"_id": 1, "author": 1, "tag": 1, "desc": 1, "timestamp": 1}
)

type Service struct {
	store *mongodb.Store
	log   *zap.Logger
}

func NewService(store *mongodb.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// Latest returns the newest complete revision of model.
func (s *Service) Latest(ctx context.Context, account, model string) (*Revision, error) {
	docs, err := s.store.GetLatest(ctx, account, HistoryCollection(model), completeOnly, summary)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrRevisionNotFound
	}
	var rev Revision
	if err := decode(docs[0], &rev); err != nil {
		return nil, err
	}
	return &rev, nil
}

// List returns the complete revisions of model, newest first.
func (s *Service) List(ctx context.Context, account, model string) ([]Revision, error) {
	docs, err := s.store.FilterColl(ctx, account, HistoryCollection(model), completeOnly, summary)
	if err != nil {
		return nil, err
	}
	out := make([]Revision, len(docs))
	for i, doc := range docs {
		if err := decode(doc, &out[i]); err != nil {
			return nil, err
		}
	}
	slices.SortFunc(out, func(a, b Revision) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out, nil
}

// File reads a stored file of model in full.
func (s *Service) File(ctx context.Context, account, model, file string) ([]byte, error) {
	if strings.TrimSpace(file) == "" {
		return nil, ErrFileNotFound
	}
	data, err := s.store.GetGridFSFile(ctx, account, HistoryCollection(model), file)
	if errors.Is(err, mongodb.ErrFileNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	s.log.Debug("served model file", zap.String("account", account), zap.String("model", model), zap.String("file", file))
	return data, nil
}

func decode(doc bson.M, out *Revision) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode revision: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode revision: %w", err)
	}
	return nil
}
