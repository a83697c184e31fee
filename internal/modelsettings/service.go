package modelsettings

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/internal/logging"
	"github.com/threedrepo/repo-backend/internal/permissions"
	"github.com/threedrepo/repo-backend/internal/users"
)

// Store is the persistence the service needs. Implemented by Repo.
type Store interface {
	Find(ctx context.Context, account string, filter any) ([]ModelSetting, error)
	FindByID(ctx context.Context, account, model string) (*ModelSetting, error)
	ChangePermissions(ctx context.Context, account, model string, perms []ModelPermission) error
	Delete(ctx context.Context, account, model string) error
	StripUser(ctx context.Context, account string, models []string, user string) error
}

// TemplateFinder resolves a permission template of a teamspace.
type TemplateFinder interface {
	Find(ctx context.Context, account, id string) (*permissions.Template, error)
}

// UserFinder resolves user records. Implemented by users.Repo.
type UserFinder interface {
	FindByUserName(ctx context.Context, user string) (*users.User, error)
}

// ProjectModelRemover takes a deleted model out of the teamspace's projects.
type ProjectModelRemover interface {
	RemoveModel(ctx context.Context, account, model string) error
}

type Service struct {
	store     Store
	templates TemplateFinder
	users     UserFinder
	projects  ProjectModelRemover
	log       *zap.Logger
}

func NewService(store Store, templates TemplateFinder, userDir UserFinder, projects ProjectModelRemover, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, templates: templates, users: userDir, projects: projects, log: log}
}

// List returns the model settings of account. A non-empty user narrows it
// to the models where user holds a model-level permission.
func (s *Service) List(ctx context.Context, account, user string) ([]ModelSetting, error) {
	var filter any
	if user = strings.TrimSpace(user); user != "" {
		filter = bson.M{"permissions.user": user}
	}
	return s.store.Find(ctx, account, filter)
}

// Get returns the settings of model.
func (s *Service) Get(ctx context.Context, account, model string) (*ModelSetting, error) {
	return s.store.FindByID(ctx, account, model)
}

// AssignPermissions replaces the model-level permissions of model. Each
// user may appear once and must exist, and every referenced template must
// exist on the teamspace.
func (s *Service) AssignPermissions(ctx context.Context, account, model string, perms []ModelPermission) (*ModelSetting, error) {
	seen := make(map[string]struct{}, len(perms))
	clean := make([]ModelPermission, 0, len(perms))
	for _, p := range perms {
		p.User = strings.TrimSpace(p.User)
		p.Permission = strings.TrimSpace(p.Permission)
		if p.User == "" || p.Permission == "" {
			return nil, ErrInvalidArguments
		}
		if _, dup := seen[p.User]; dup {
			return nil, ErrInvalidArguments
		}
		seen[p.User] = struct{}{}
		clean = append(clean, p)
	}

	setting, err := s.store.FindByID(ctx, account, model)
	if err != nil {
		return nil, err
	}

	for _, p := range clean {
		if _, err := s.users.FindByUserName(ctx, p.User); err != nil {
			return nil, err
		}
	}

	checked := make(map[string]struct{})
	for _, p := range clean {
		if _, ok := checked[p.Permission]; ok {
			continue
		}
		if _, err := s.templates.Find(ctx, account, p.Permission); err != nil {
			return nil, err
		}
		checked[p.Permission] = struct{}{}
	}

	if err := s.store.ChangePermissions(ctx, account, model, clean); err != nil {
		return nil, err
	}
	setting.Permissions = clean

	logging.FromContext(ctx, s.log).Info("model permissions changed",
		zap.String("account", account),
		zap.String("model", model),
		zap.Int("entries", len(clean)),
	)
	return setting, nil
}

// StripUser removes user from the model-level permissions of models.
func (s *Service) StripUser(ctx context.Context, account string, models []string, user string) error {
	return s.store.StripUser(ctx, account, models, user)
}

// DeleteModel drops the settings of model and removes it from every
// project of the teamspace.
func (s *Service) DeleteModel(ctx context.Context, account, model string) error {
	if err := s.store.Delete(ctx, account, model); err != nil {
		return err
	}
	if err := s.projects.RemoveModel(ctx, account, model); err != nil {
		return err
	}
	logging.FromContext(ctx, s.log).Info("model deleted", zap.String("account", account), zap.String("model", model))
	return nil
}
