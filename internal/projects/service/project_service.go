package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/internal/logging"
	"github.com/threedrepo/repo-backend/internal/permissions"
	"github.com/threedrepo/repo-backend/internal/projects/domain"
	"github.com/threedrepo/repo-backend/internal/users"
)

// ProjectStore persists projects. Implemented by repository.ProjectRepository.
type ProjectStore interface {
	FindByName(ctx context.Context, account, name string) (*domain.Project, error)
	List(ctx context.Context, account string) ([]domain.Project, error)
	Insert(ctx context.Context, p *domain.Project) error
	Replace(ctx context.Context, p *domain.Project) error
	DeleteByName(ctx context.Context, account, name string) (*domain.Project, error)
	PullModel(ctx context.Context, account, model string) error
}

// UserDirectory maintains the project back-references on user records and
// exposes the teamspace record with its billing.
type UserDirectory interface {
	FindByUserName(ctx context.Context, user string) (*users.User, error)
	AddProject(ctx context.Context, user, account string, project primitive.ObjectID) error
	RemoveProject(ctx context.Context, user, account string, project primitive.ObjectID) error
	RemoveProjectFromAllUsers(ctx context.Context, account string, project primitive.ObjectID) error
}

// ModelPermissionStripper removes a user from the model-level permissions
// of the given models.
type ModelPermissionStripper interface {
	StripUser(ctx context.Context, account string, models []string, user string) error
}

// ProjectService handles project-related business logic
type ProjectService struct {
	repo   ProjectStore
	users  UserDirectory
	models ModelPermissionStripper
	log    *zap.Logger
	hooks  []saveHook
}

// NewProjectService creates a new project service
func NewProjectService(repo ProjectStore, userDir UserDirectory, models ModelPermissionStripper, log *zap.Logger) *ProjectService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &ProjectService{
		repo:   repo,
		users:  userDir,
		models: models,
		log:    log,
	}
	s.hooks = s.defaultHooks()
	return s
}

// Get returns the project called name.
func (s *ProjectService) Get(ctx context.Context, account, name string) (*domain.Project, error) {
	return s.repo.FindByName(ctx, account, name)
}

// List returns every project of account.
func (s *ProjectService) List(ctx context.Context, account string) ([]domain.Project, error) {
	return s.repo.List(ctx, account)
}

// CreateProject stores a new project. A creator who is not teamspace admin
// becomes the project's admin and gets a back-reference to it. When only the
// back-reference fails, the stored project is returned with the error.
func (s *ProjectService) CreateProject(ctx context.Context, account, name, username string, userPermissions []string) (*domain.Project, error) {
	p := &domain.Project{
		ID:          primitive.NewObjectID(),
		Account:     account,
		Name:        strings.TrimSpace(name),
		Models:      []string{},
		Permissions: []domain.PermissionEntry{},
	}

	teamspaceAdmin := permissions.IsTeamspaceAdmin(userPermissions)
	if !teamspaceAdmin {
		p.Permissions = []domain.PermissionEntry{{
			User:        username,
			Permissions: []string{permissions.PermProjectAdmin},
		}}
	}

	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}

	if !teamspaceAdmin {
		if err := s.users.AddProject(ctx, username, account, p.ID); err != nil {
			return p, fmt.Errorf("register project on %s: %w", username, err)
		}
	}

	s.logger(ctx).Info("project created",
		zap.String("account", account),
		zap.String("project", p.Name),
		zap.String("by", username),
	)
	return p, nil
}

// Delete removes the project called name and every user's reference to it.
// The deleted record is returned.
func (s *ProjectService) Delete(ctx context.Context, account, name string) (*domain.Project, error) {
	p, err := s.repo.DeleteByName(ctx, account, name)
	if err != nil {
		return nil, err
	}

	if err := s.users.RemoveProjectFromAllUsers(ctx, account, p.ID); err != nil {
		return p, fmt.Errorf("remove project references: %w", err)
	}

	s.logger(ctx).Info("project deleted", zap.String("account", account), zap.String("project", name))
	return p, nil
}

// RemoveModel takes model out of every project of account. Removing a
// model no project lists is a no-op.
func (s *ProjectService) RemoveModel(ctx context.Context, account, model string) error {
	return s.repo.PullModel(ctx, account, model)
}

// UpdateAttrs applies a name and/or permission change to p. Every user left
// holding permissions must have a licence seat in the teamspace. Nothing is
// written when validation fails. User records and model permissions follow
// the stored project; their failures come back with the updated project.
func (s *ProjectService) UpdateAttrs(ctx context.Context, p *domain.Project, upd domain.ProjectUpdate) (*domain.Project, error) {
	next := p.Clone()

	var usersToAdd, usersToRemove []string
	if upd.Permissions != nil {
		perms := make([]domain.PermissionEntry, 0, len(*upd.Permissions))
		for _, entry := range *upd.Permissions {
			if strings.TrimSpace(entry.User) == "" || len(entry.Permissions) == 0 {
				continue
			}
			perms = append(perms, entry)
		}
		next.Permissions = perms

		current, wanted := p.PermissionUsers(), next.PermissionUsers()
		usersToRemove = difference(current, wanted)
		usersToAdd = difference(wanted, current)
	}
	if upd.Name != nil {
		next.Name = strings.TrimSpace(*upd.Name)
	}

	if len(next.Permissions) > 0 {
		if err := s.checkLicences(ctx, next); err != nil {
			return nil, err
		}
	}

	if err := s.validate(ctx, next); err != nil {
		return nil, err
	}

	if err := s.repo.Replace(ctx, next); err != nil {
		return nil, err
	}

	s.logger(ctx).Info("project updated",
		zap.String("account", next.Account),
		zap.String("project", next.Name),
		zap.Strings("added", usersToAdd),
		zap.Strings("removed", usersToRemove),
	)

	if err := s.applyMembership(ctx, next, usersToAdd, usersToRemove); err != nil {
		return next, err
	}
	return next, nil
}

func (s *ProjectService) checkLicences(ctx context.Context, p *domain.Project) error {
	teamspace, err := s.users.FindByUserName(ctx, p.Account)
	if err != nil {
		return err
	}
	for _, entry := range p.Permissions {
		if teamspace.Billing.Subscriptions.FindByAssignedUser(entry.User) == nil {
			return domain.ErrUserNotAssignedWithLicense
		}
	}
	return nil
}

// applyMembership mirrors a permission change onto user records. A removed
// user also loses model-level permissions on the project's models. All
// steps are attempted; their failures are returned together.
func (s *ProjectService) applyMembership(ctx context.Context, p *domain.Project, add, remove []string) error {
	var errs []error

	for _, user := range remove {
		if err := s.users.RemoveProject(ctx, user, p.Account, p.ID); err != nil {
			errs = append(errs, fmt.Errorf("remove project from %s: %w", user, err))
		}
		if len(p.Models) > 0 {
			if err := s.models.StripUser(ctx, p.Account, p.Models, user); err != nil {
				errs = append(errs, fmt.Errorf("strip model permissions of %s: %w", user, err))
			}
		}
	}

	for _, user := range add {
		if err := s.users.AddProject(ctx, user, p.Account, p.ID); err != nil {
			errs = append(errs, fmt.Errorf("add project to %s: %w", user, err))
		}
	}

	return errors.Join(errs...)
}

// CanManage reports whether user may change or delete p: teamspace admins
// and project admins can.
func (s *ProjectService) CanManage(ctx context.Context, p *domain.Project, user string) (bool, error) {
	if entry := p.FindPermsByUser(user); entry != nil && slices.Contains(entry.Permissions, permissions.PermProjectAdmin) {
		return true, nil
	}
	teamspace, err := s.users.FindByUserName(ctx, p.Account)
	if err != nil {
		return false, err
	}
	return permissions.IsTeamspaceAdmin(teamspace.TeamspacePermissionsOf(user)), nil
}

func (s *ProjectService) logger(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, s.log)
}

// difference returns the elements of a missing from b, in a's order.
func difference(a, b []string) []string {
	var out []string
	for _, v := range a {
		if !slices.Contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}
