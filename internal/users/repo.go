package users

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/threedrepo/repo-backend/internal/permissions"
	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
)

const collection = "users"

// Repo reads and updates user records in the admin database.
type Repo struct {
	store *mongodb.Store
}

func NewRepo(store *mongodb.Store) *Repo {
	return &Repo{store: store}
}

func (r *Repo) do(ctx context.Context, op string, fn func(*mongo.Collection) error) error {
	return r.store.Do(ctx, "users."+op, mongodb.AdminDatabase, collection, fn)
}

// FindByUserName loads a user (or teamspace) record.
func (r *Repo) FindByUserName(ctx context.Context, user string) (*User, error) {
	var u User
	err := r.do(ctx, "find", func(c *mongo.Collection) error {
		return c.FindOne(ctx, bson.M{"_id": user}).Decode(&u)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// TeamspacePermissions returns the permissions user holds on account.
func (r *Repo) TeamspacePermissions(ctx context.Context, account, user string) ([]string, error) {
	teamspace, err := r.FindByUserName(ctx, account)
	if err != nil {
		return nil, err
	}
	return teamspace.TeamspacePermissionsOf(user), nil
}

// AddProject registers a project back-reference on user.
func (r *Repo) AddProject(ctx context.Context, user, account string, project primitive.ObjectID) error {
	return r.updateOne(ctx, "add_project", user, bson.M{
		"$addToSet": bson.M{"projects": ProjectRef{Account: account, Project: project}},
	})
}

// RemoveProject drops a project back-reference from user. A user without a
// record has nothing to drop.
func (r *Repo) RemoveProject(ctx context.Context, user, account string, project primitive.ObjectID) error {
	return r.do(ctx, "remove_project", func(c *mongo.Collection) error {
		_, err := c.UpdateOne(ctx, bson.M{"_id": user}, bson.M{
			"$pull": bson.M{"projects": bson.M{"account": account, "project": project}},
		})
		return err
	})
}

// RemoveProjectFromAllUsers drops the project back-reference from every
// user holding it.
func (r *Repo) RemoveProjectFromAllUsers(ctx context.Context, account string, project primitive.ObjectID) error {
	ref := bson.M{"account": account, "project": project}
	return r.do(ctx, "remove_project_all", func(c *mongo.Collection) error {
		_, err := c.UpdateMany(ctx,
			bson.M{"projects": bson.M{"$elemMatch": ref}},
			bson.M{"$pull": bson.M{"projects": ref}},
		)
		return err
	})
}

func (r *Repo) updateOne(ctx context.Context, op, user string, update bson.M) error {
	var matched int64
	err := r.do(ctx, op, func(c *mongo.Collection) error {
		res, err := c.UpdateOne(ctx, bson.M{"_id": user}, update)
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
		return ErrUserNotFound
	}
	return nil
}

// PermissionTemplates returns the templates defined on a teamspace.
func (r *Repo) PermissionTemplates(ctx context.Context, account string) ([]permissions.Template, error) {
	teamspace, err := r.FindByUserName(ctx, account)
	if err != nil {
		return nil, err
	}
	if teamspace.PermissionTemplates == nil {
		return []permissions.Template{}, nil
	}
	return teamspace.PermissionTemplates, nil
}

// AddPermissionTemplate appends t unless a template with the same id exists.
func (r *Repo) AddPermissionTemplate(ctx context.Context, account string, t permissions.Template) error {
	var matched int64
	err := r.do(ctx, "add_template", func(c *mongo.Collection) error {
		res, err := c.UpdateOne(ctx,
			bson.M{"_id": account, "permissionTemplates._id": bson.M{"$ne": t.ID}},
			bson.M{"$push": bson.M{"permissionTemplates": t}},
		)
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
		return permissions.ErrDuplicateTemplate
	}
	return nil
}

// RemovePermissionTemplate reports whether a template was removed.
func (r *Repo) RemovePermissionTemplate(ctx context.Context, account, id string) (bool, error) {
	var modified int64
	err := r.do(ctx, "remove_template", func(c *mongo.Collection) error {
		res, err := c.UpdateOne(ctx,
			bson.M{"_id": account},
			bson.M{"$pull": bson.M{"permissionTemplates": bson.M{"_id": id}}},
		)
		if err != nil {
			return err
		}
		modified = res.ModifiedCount
		return nil
	})
	return modified > 0, err
}
