package service

import (
	"context"
	"errors"
	"strings"

	"github.com/threedrepo/repo-backend/internal/permissions"
	"github.com/threedrepo/repo-backend/internal/projects/domain"
)

// saveHook checks one invariant of a project about to be written.
type saveHook func(ctx context.Context, p *domain.Project) error

// defaultHooks is the validation pipeline run before every write. Order
// decides which error a caller sees when several invariants fail.
func (s *ProjectService) defaultHooks() []saveHook {
	return []saveHook{
		checkInvalidName,
		s.checkDupName,
		checkPermissionNames,
	}
}

func (s *ProjectService) validate(ctx context.Context, p *domain.Project) error {
	for _, hook := range s.hooks {
		if err := hook(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func checkInvalidName(_ context.Context, p *domain.Project) error {
	if strings.TrimSpace(p.Name) == "" || p.Name == permissions.DefaultProjectName {
		return domain.ErrInvalidProjectName
	}
	return nil
}

// checkDupName is a best-effort pre-check; the unique index on name is what
// settles concurrent writers.
func (s *ProjectService) checkDupName(ctx context.Context, p *domain.Project) error {
	existing, err := s.repo.FindByName(ctx, p.Account, p.Name)
	if errors.Is(err, domain.ErrProjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != p.ID {
		return domain.ErrProjectExists
	}
	return nil
}

func checkPermissionNames(_ context.Context, p *domain.Project) error {
	for _, entry := range p.Permissions {
		if !permissions.ValidProjectPermissions(entry.Permissions) {
			return domain.ErrInvalidPermission
		}
	}

	seen := make(map[string]struct{}, len(p.Permissions))
	for _, entry := range p.Permissions {
		if _, dup := seen[entry.User]; dup {
			return domain.ErrDuplicatePermissionUser
		}
		seen[entry.User] = struct{}{}
	}
	return nil
}
