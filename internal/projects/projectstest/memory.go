// Package projectstest provides in-memory stand-ins for the stores behind
// the project service.
package projectstest

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/threedrepo/repo-backend/internal/projects/domain"
	"github.com/threedrepo/repo-backend/internal/users"
)

// MemProjects mimics the projects collection including its unique name index.
type MemProjects struct {
	mu       sync.Mutex
	Projects map[string][]*domain.Project
	Writes   int
}

func NewMemProjects() *MemProjects {
	return &MemProjects{Projects: map[string][]*domain.Project{}}
}

func (m *MemProjects) FindByName(_ context.Context, account, name string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Projects[account] {
		if p.Name == name {
			return p.Clone(), nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (m *MemProjects) List(_ context.Context, account string) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Project, 0, len(m.Projects[account]))
	for _, p := range m.Projects[account] {
		out = append(out, *p.Clone())
	}
	return out, nil
}

func (m *MemProjects) nameTaken(account, name string, except primitive.ObjectID) bool {
	for _, p := range m.Projects[account] {
		if p.Name == name && p.ID != except {
			return true
		}
	}
	return false
}

func (m *MemProjects) Insert(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(p.Account, p.Name, p.ID) {
		return domain.ErrProjectExists
	}
	m.Writes++
	m.Projects[p.Account] = append(m.Projects[p.Account], p.Clone())
	return nil
}

func (m *MemProjects) Replace(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(p.Account, p.Name, p.ID) {
		return domain.ErrProjectExists
	}
	for i, existing := range m.Projects[p.Account] {
		if existing.ID == p.ID {
			m.Writes++
			m.Projects[p.Account][i] = p.Clone()
			return nil
		}
	}
	return domain.ErrProjectNotFound
}

func (m *MemProjects) DeleteByName(_ context.Context, account, name string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.Projects[account] {
		if p.Name == name {
			m.Projects[account] = slices.Delete(m.Projects[account], i, i+1)
			return p, nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (m *MemProjects) PullModel(_ context.Context, account, model string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Projects[account] {
		p.Models = slices.DeleteFunc(p.Models, func(id string) bool { return id == model })
	}
	return nil
}

// SetModels overwrites the model list of the stored project called name.
func (m *MemProjects) SetModels(account, name string, models ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Projects[account] {
		if p.Name == name {
			p.Models = models
		}
	}
}

// Seed stores p as is, bypassing validation.
func (m *MemProjects) Seed(p *domain.Project) *domain.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.Projects[p.Account] = append(m.Projects[p.Account], p.Clone())
	return p
}

// MemUsers holds user and teamspace records.
type MemUsers struct {
	mu        sync.Mutex
	users     map[string]*users.User
	FailAddTo string
}

func NewMemUsers(records ...*users.User) *MemUsers {
	m := &MemUsers{users: map[string]*users.User{}}
	for _, u := range records {
		m.users[u.User] = u
	}
	return m
}

var ErrAddFailed = errors.New("add project failed")

func (m *MemUsers) FindByUserName(_ context.Context, user string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[user]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func (m *MemUsers) AddProject(_ context.Context, user, account string, project primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user == m.FailAddTo {
		return ErrAddFailed
	}
	u, ok := m.users[user]
	if !ok {
		return users.ErrUserNotFound
	}
	ref := users.ProjectRef{Account: account, Project: project}
	if !slices.Contains(u.Projects, ref) {
		u.Projects = append(u.Projects, ref)
	}
	return nil
}

// RemoveProject ignores unknown users, like users.Repo.
func (m *MemUsers) RemoveProject(_ context.Context, user, account string, project primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[user]
	if !ok {
		return nil
	}
	u.Projects = slices.DeleteFunc(u.Projects, func(r users.ProjectRef) bool {
		return r.Account == account && r.Project == project
	})
	return nil
}

func (m *MemUsers) RemoveProjectFromAllUsers(ctx context.Context, account string, project primitive.ObjectID) error {
	m.mu.Lock()
	names := make([]string, 0, len(m.users))
	for name := range m.users {
		names = append(names, name)
	}
	m.mu.Unlock()
	for _, name := range names {
		if err := m.RemoveProject(ctx, name, account, project); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the stored record of user.
func (m *MemUsers) Get(user string) *users.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[user]
}

// MemModelPerms tracks model-level permission holders per model.
type MemModelPerms struct {
	mu    sync.Mutex
	Perms map[string][]string
	Calls [][]string
}

func NewMemModelPerms() *MemModelPerms {
	return &MemModelPerms{Perms: map[string][]string{}}
}

func (m *MemModelPerms) StripUser(_ context.Context, _ string, models []string, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, append(slices.Clone(models), user))
	for _, model := range models {
		m.Perms[model] = slices.DeleteFunc(m.Perms[model], func(u string) bool { return u == user })
	}
	return nil
}

func (m *MemModelPerms) Holders(model string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.Perms[model])
}
