package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/threedrepo/repo-backend/internal/projects/domain"
	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
)

// Collection holds the projects of one teamspace, in the teamspace's own
// database.
const Collection = "projects"

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	store *mongodb.Store
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(store *mongodb.Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

func (r *ProjectRepository) do(ctx context.Context, op, account string, fn func(*mongo.Collection) error) error {
	return r.store.Do(ctx, "projects."+op, account, Collection, fn)
}

// EnsureIndexes creates the unique name index of account.
func (r *ProjectRepository) EnsureIndexes(ctx context.Context, account string) error {
	return r.do(ctx, "ensure_indexes", account, func(c *mongo.Collection) error {
		_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		return err
	})
}

// FindByName returns the project called name.
func (r *ProjectRepository) FindByName(ctx context.Context, account, name string) (*domain.Project, error) {
	return r.findOne(ctx, "find_by_name", account, bson.M{"name": name})
}

func (r *ProjectRepository) findOne(ctx context.Context, op, account string, filter bson.M) (*domain.Project, error) {
	var p domain.Project
	err := r.do(ctx, op, account, func(c *mongo.Collection) error {
		return c.FindOne(ctx, filter).Decode(&p)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Account = account
	return &p, nil
}

// List returns every project of account ordered by name.
func (r *ProjectRepository) List(ctx context.Context, account string) ([]domain.Project, error) {
	out := make([]domain.Project, 0, 16)
	err := r.do(ctx, "list", account, func(c *mongo.Collection) error {
		cur, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Account = account
	}
	return out, nil
}

// Insert stores a new project, assigning its id when unset.
func (r *ProjectRepository) Insert(ctx context.Context, p *domain.Project) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	normalize(p)
	err := r.do(ctx, "insert", p.Account, func(c *mongo.Collection) error {
		_, err := c.InsertOne(ctx, p)
		return err
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrProjectExists
	}
	return err
}

// Replace overwrites the stored document of p.
func (r *ProjectRepository) Replace(ctx context.Context, p *domain.Project) error {
	normalize(p)
	var matched int64
	err := r.do(ctx, "replace", p.Account, func(c *mongo.Collection) error {
		res, err := c.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
		if err != nil {
			return err
		}
		matched = res.MatchedCount
		return nil
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrProjectExists
	}
	if err != nil {
		return err
	}
	if matched == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// DeleteByName removes the project called name and returns it.
func (r *ProjectRepository) DeleteByName(ctx context.Context, account, name string) (*domain.Project, error) {
	var p domain.Project
	err := r.do(ctx, "delete", account, func(c *mongo.Collection) error {
		return c.FindOneAndDelete(ctx, bson.M{"name": name}).Decode(&p)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Account = account
	return &p, nil
}

// PullModel removes model from every project of account.
func (r *ProjectRepository) PullModel(ctx context.Context, account, model string) error {
	return r.do(ctx, "pull_model", account, func(c *mongo.Collection) error {
		_, err := c.UpdateMany(ctx, bson.M{"models": model}, bson.M{"$pull": bson.M{"models": model}})
		return err
	})
}

func normalize(p *domain.Project) {
	if p.Models == nil {
		p.Models = []string{}
	}
	if p.Permissions == nil {
		p.Permissions = []domain.PermissionEntry{}
	}
}
