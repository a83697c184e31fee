package permissions

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Template is a named, reusable set of model permissions owned by a teamspace.
type Template struct {
	ID          string   `json:"_id" bson:"_id"`
	Permissions []string `json:"permissions" bson:"permissions"`
}

// TemplateStore persists the templates of a teamspace.
type TemplateStore interface {
	PermissionTemplates(ctx context.Context, account string) ([]Template, error)
	AddPermissionTemplate(ctx context.Context, account string, t Template) error
	RemovePermissionTemplate(ctx context.Context, account, id string) (bool, error)
}

// TemplateService validates and stores permission templates.
type TemplateService struct {
	store TemplateStore
	log   *zap.Logger
}

func NewTemplateService(store TemplateStore, log *zap.Logger) *TemplateService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TemplateService{store: store, log: log}
}

// List returns the templates of account.
func (s *TemplateService) List(ctx context.Context, account string) ([]Template, error) {
	return s.store.PermissionTemplates(ctx, account)
}

// Find returns the template with id, or ErrPermissionTemplateNotFound.
func (s *TemplateService) Find(ctx context.Context, account, id string) (*Template, error) {
	templates, err := s.store.PermissionTemplates(ctx, account)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(templates, func(t Template) bool { return t.ID == id })
	if i < 0 {
		return nil, ErrPermissionTemplateNotFound
	}
	return &templates[i], nil
}

// Create adds a template. Permissions are checked before the id.
func (s *TemplateService) Create(ctx context.Context, account string, t Template) (*Template, error) {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return nil, ErrInvalidTemplateID
	}
	if !ValidModelPermissions(t.Permissions) {
		return nil, ErrInvalidPermission
	}
	if t.Permissions == nil {
		t.Permissions = []string{}
	}

	if _, err := s.Find(ctx, account, t.ID); err == nil {
		return nil, ErrDuplicateTemplate
	} else if !errors.Is(err, ErrPermissionTemplateNotFound) {
		return nil, err
	}

	if err := s.store.AddPermissionTemplate(ctx, account, t); err != nil {
		return nil, err
	}

	s.log.Info("permission template created", zap.String("account", account), zap.String("template", t.ID))
	return &t, nil
}

// Delete removes a template, ErrPermissionTemplateNotFound if absent.
func (s *TemplateService) Delete(ctx context.Context, account, id string) error {
	removed, err := s.store.RemovePermissionTemplate(ctx, account, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrPermissionTemplateNotFound
	}
	s.log.Info("permission template removed", zap.String("account", account), zap.String("template", id))
	return nil
}
