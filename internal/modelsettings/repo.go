package modelsettings

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
)

// Repo reads and writes the settings collection of a teamspace.
type Repo struct {
	store *mongodb.Store
}

func NewRepo(store *mongodb.Store) *Repo {
	return &Repo{store: store}
}

func (r *Repo) do(ctx context.Context, op, account string, fn func(*mongo.Collection) error) error {
	return r.store.Do(ctx, "settings."+op, account, Collection, fn)
}

// Find returns the settings matching filter. A nil filter matches all.
func (r *Repo) Find(ctx context.Context, account string, filter any) ([]ModelSetting, error) {
	if filter == nil {
		filter = bson.M{}
	}
	out := []ModelSetting{}
	err := r.do(ctx, "find", account, func(c *mongo.Collection) error {
		cur, err := c.Find(ctx, filter)
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the settings of model.
func (r *Repo) FindByID(ctx context.Context, account, model string) (*ModelSetting, error) {
	var s ModelSetting
	err := r.do(ctx, "find_by_id", account, func(c *mongo.Collection) error {
		return c.FindOne(ctx, bson.M{"_id": model}).Decode(&s)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ChangePermissions replaces the permission list of model.
func (r *Repo) ChangePermissions(ctx context.Context, account, model string, perms []ModelPermission) error {
	if perms == nil {
		perms = []ModelPermission{}
	}
	var matched int64
	err := r.do(ctx, "change_permissions", account, func(c *mongo.Collection) error {
		res, err := c.UpdateOne(ctx, bson.M{"_id": model}, bson.M{"$set": bson.M{"permissions": perms}})
		if err != nil {
			return err
		}
		matched = res.MatchedCount
		return nil
	})
	if err != nil {
		return err
	}
	if matched == 0 {
		return ErrModelNotFound
	}
	return nil
}

// Delete removes the settings of model.
func (r *Repo) Delete(ctx context.Context, account, model string) error {
	var deleted int64
	err := r.do(ctx, "delete", account, func(c *mongo.Collection) error {
		res, err := c.DeleteOne(ctx, bson.M{"_id": model})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrModelNotFound
	}
	return nil
}

// StripUser removes every permission entry of user from the listed models.
// Models that do not exist or hold no entry for user are left alone.
func (r *Repo) StripUser(ctx context.Context, account string, models []string, user string) error {
	if len(models) == 0 {
		return nil
	}
	return r.do(ctx, "strip_user", account, func(c *mongo.Collection) error {
		_, err := c.UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": models}},
			bson.M{"$pull": bson.M{"permissions": bson.M{"user": user}}},
		)
		return err
	})
}
