package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threedrepo/repo-backend/internal/permissions"
	"github.com/threedrepo/repo-backend/internal/projects/domain"
	"github.com/threedrepo/repo-backend/internal/projects/projectstest"
	"github.com/threedrepo/repo-backend/internal/users"
)

const account = "T"

type fixture struct {
	svc      *ProjectService
	projects *projectstest.MemProjects
	users    *projectstest.MemUsers
	models   *projectstest.MemModelPerms
}

// newFixture builds teamspace T, administered by tsadmin, with licence seats
// for alice and bob. carol has an account but no seat.
func newFixture() *fixture {
	teamspace := &users.User{
		User: account,
		Permissions: []users.TeamspacePermission{
			{User: "tsadmin", Permissions: []string{permissions.PermTeamspaceAdmin}},
		},
		Billing: users.Billing{Subscriptions: users.Subscriptions{
			{ID: "s1", AssignedUser: "alice", Active: true},
			{ID: "s2", AssignedUser: "bob", Active: true},
			{ID: "s3", AssignedUser: "tsadmin", Active: true},
		}},
	}
	f := &fixture{
		projects: projectstest.NewMemProjects(),
		users: projectstest.NewMemUsers(
			teamspace,
			&users.User{User: "alice"},
			&users.User{User: "bob"},
			&users.User{User: "carol"},
			&users.User{User: "tsadmin"},
		),
		models: projectstest.NewMemModelPerms(),
	}
	f.svc = NewProjectService(f.projects, f.users, f.models, nil)
	return f
}

func strPtr(s string) *string { return &s }

func permsPtr(entries ...domain.PermissionEntry) *[]domain.PermissionEntry { return &entries }

func TestCreateProject(t *testing.T) {
	ctx := context.Background()

	t.Run("creator becomes project admin", func(t *testing.T) {
		f := newFixture()

		p, err := f.svc.CreateProject(ctx, account, "A", "alice", nil)
		require.NoError(t, err)

		assert.Equal(t, "A", p.Name)
		assert.Equal(t, []domain.PermissionEntry{{User: "alice", Permissions: []string{permissions.PermProjectAdmin}}}, p.Permissions)
		assert.True(t, f.users.Get("alice").HasProject(account, p.ID))

		stored, err := f.projects.FindByName(ctx, account, "A")
		require.NoError(t, err)
		assert.Equal(t, p.ID, stored.ID)
		assert.Equal(t, p.Permissions, stored.Permissions)
	})

	t.Run("teamspace admin gets no project entry", func(t *testing.T) {
		f := newFixture()

		p, err := f.svc.CreateProject(ctx, account, "A", "tsadmin", []string{permissions.PermTeamspaceAdmin})
		require.NoError(t, err)

		assert.Empty(t, p.Permissions)
		assert.Empty(t, f.users.Get("tsadmin").Projects)
	})

	t.Run("reserved name", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.CreateProject(ctx, account, permissions.DefaultProjectName, "alice", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidProjectName)
		assert.Zero(t, f.projects.Writes)
		assert.Empty(t, f.users.Get("alice").Projects)
	})

	t.Run("blank name", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.CreateProject(ctx, account, "   ", "alice", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidProjectName)
	})

	t.Run("duplicate name leaves the existing project alone", func(t *testing.T) {
		f := newFixture()

		first, err := f.svc.CreateProject(ctx, account, "A", "alice", nil)
		require.NoError(t, err)
		f.projects.SetModels(account, "A", "m1")

		_, err = f.svc.CreateProject(ctx, account, "A", "bob", nil)
		assert.ErrorIs(t, err, domain.ErrProjectExists)

		stored, err := f.projects.FindByName(ctx, account, "A")
		require.NoError(t, err)
		assert.Equal(t, first.ID, stored.ID)
		assert.Equal(t, []string{"m1"}, stored.Models)
		assert.Equal(t, first.Permissions, stored.Permissions)
		assert.Empty(t, f.users.Get("bob").Projects)
	})

	t.Run("same name in another teamspace", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.CreateProject(ctx, account, "A", "alice", nil)
		require.NoError(t, err)
		_, err = f.svc.CreateProject(ctx, "other", "A", "alice", nil)
		assert.NoError(t, err)
	})

	t.Run("failed back-reference is reported", func(t *testing.T) {
		f := newFixture()
		f.users.FailAddTo = "alice"

		p, err := f.svc.CreateProject(ctx, account, "A", "alice", nil)
		assert.ErrorIs(t, err, projectstest.ErrAddFailed)
		require.NotNil(t, p, "the stored project comes back with the error")

		stored, err := f.projects.FindByName(ctx, account, "A")
		require.NoError(t, err)
		assert.Equal(t, p.ID, stored.ID)
	})
}

func TestValidationOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("reserved name wins over everything", func(t *testing.T) {
		f := newFixture()
		f.projects.Seed(&domain.Project{Account: account, Name: permissions.DefaultProjectName})

		p := &domain.Project{Account: account, Name: permissions.DefaultProjectName,
			Permissions: []domain.PermissionEntry{{User: "alice", Permissions: []string{"nonsense"}}}}
		assert.ErrorIs(t, f.svc.validate(ctx, p), domain.ErrInvalidProjectName)
	})

	t.Run("duplicate name wins over bad permissions", func(t *testing.T) {
		f := newFixture()
		f.projects.Seed(&domain.Project{Account: account, Name: "A"})

		p := &domain.Project{Account: account, Name: "A",
			Permissions: []domain.PermissionEntry{{User: "alice", Permissions: []string{"nonsense"}}}}
		assert.ErrorIs(t, f.svc.validate(ctx, p), domain.ErrProjectExists)
	})

	t.Run("a project does not collide with itself", func(t *testing.T) {
		f := newFixture()
		existing := f.projects.Seed(&domain.Project{Account: account, Name: "A"})

		assert.NoError(t, f.svc.validate(ctx, existing))
	})

	t.Run("duplicated user", func(t *testing.T) {
		f := newFixture()

		p := &domain.Project{Account: account, Name: "A", Permissions: []domain.PermissionEntry{
			{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
			{User: "alice", Permissions: []string{"edit_project"}},
		}}
		assert.ErrorIs(t, f.svc.validate(ctx, p), domain.ErrDuplicatePermissionUser)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.Delete(ctx, account, "missing")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	p, err := f.svc.CreateProject(ctx, account, "A", "alice", nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr(
		domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
		domain.PermissionEntry{User: "bob", Permissions: []string{"view_model_all_models"}},
	)})
	require.NoError(t, err)
	require.True(t, f.users.Get("bob").HasProject(account, p.ID))

	deleted, err := f.svc.Delete(ctx, account, "A")
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)
	assert.False(t, f.users.Get("alice").HasProject(account, p.ID))
	assert.False(t, f.users.Get("bob").HasProject(account, p.ID))

	_, err = f.svc.Get(ctx, account, "A")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = f.svc.Delete(ctx, account, "A")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestRemoveModel(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.Seed(&domain.Project{Account: account, Name: "A", Models: []string{"m1", "m2"}})
	f.projects.Seed(&domain.Project{Account: account, Name: "B", Models: []string{"m1"}})

	require.NoError(t, f.svc.RemoveModel(ctx, account, "m1"))
	require.NoError(t, f.svc.RemoveModel(ctx, account, "m1"))
	require.NoError(t, f.svc.RemoveModel(ctx, account, "never-there"))

	a, _ := f.projects.FindByName(ctx, account, "A")
	b, _ := f.projects.FindByName(ctx, account, "B")
	assert.Equal(t, []string{"m2"}, a.Models)
	assert.Empty(t, b.Models)
}

func TestUpdateAttrs(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *domain.Project) {
		f := newFixture()
		p, err := f.svc.CreateProject(ctx, account, "A", "alice", nil)
		require.NoError(t, err)
		f.projects.SetModels(account, "A", "m1", "m2")
		p.Models = []string{"m1", "m2"}
		return f, p
	}

	t.Run("adds a licensed user", func(t *testing.T) {
		f, p := setup(t)

		updated, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr(
			domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
			domain.PermissionEntry{User: "bob", Permissions: []string{"upload_files_all_models"}},
		)})
		require.NoError(t, err)

		assert.Equal(t, []string{"alice", "bob"}, updated.PermissionUsers())
		assert.True(t, f.users.Get("bob").HasProject(account, p.ID))

		stored, _ := f.projects.FindByName(ctx, account, "A")
		assert.Equal(t, []string{"alice", "bob"}, stored.PermissionUsers())
	})

	t.Run("unlicensed user fails and changes nothing", func(t *testing.T) {
		f, p := setup(t)
		writes := f.projects.Writes

		_, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr(
			domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
			domain.PermissionEntry{User: "carol", Permissions: []string{"view_model_all_models"}},
		)})
		assert.ErrorIs(t, err, domain.ErrUserNotAssignedWithLicense)

		assert.Equal(t, writes, f.projects.Writes)
		stored, _ := f.projects.FindByName(ctx, account, "A")
		assert.Equal(t, []string{"alice"}, stored.PermissionUsers())
		assert.Empty(t, f.users.Get("carol").Projects)
		assert.Equal(t, []string{"alice"}, p.PermissionUsers(), "input project is not mutated")
	})

	t.Run("invalid permission fails and changes nothing", func(t *testing.T) {
		f, p := setup(t)
		writes := f.projects.Writes

		_, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr(
			domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
			domain.PermissionEntry{User: "bob", Permissions: []string{"nonsense"}},
		)})
		assert.ErrorIs(t, err, domain.ErrInvalidPermission)
		assert.Equal(t, writes, f.projects.Writes)
		assert.Empty(t, f.users.Get("bob").Projects)
	})

	t.Run("removing a user strips model permissions in the project", func(t *testing.T) {
		f, p := setup(t)
		f.models.Perms["m1"] = []string{"bob", "alice"}
		f.models.Perms["m2"] = []string{"bob"}
		f.models.Perms["elsewhere"] = []string{"bob"}

		p, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr(
			domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
			domain.PermissionEntry{User: "bob", Permissions: []string{"view_model_all_models"}},
		)})
		require.NoError(t, err)

		_, err = f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr(
			domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
		)})
		require.NoError(t, err)

		assert.False(t, f.users.Get("bob").HasProject(account, p.ID))
		assert.Equal(t, []string{"alice"}, f.models.Holders("m1"))
		assert.Empty(t, f.models.Holders("m2"))
		assert.Equal(t, []string{"bob"}, f.models.Holders("elsewhere"))
		assert.Equal(t, [][]string{{"m1", "m2", "bob"}}, f.models.Calls)
	})

	t.Run("empty permission entries are dropped", func(t *testing.T) {
		f, p := setup(t)

		updated, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr(
			domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
			domain.PermissionEntry{User: "bob", Permissions: []string{}},
			domain.PermissionEntry{User: "carol"},
		)})
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, updated.PermissionUsers())
		assert.Empty(t, f.users.Get("bob").Projects)
	})

	t.Run("clearing permissions skips the licence check", func(t *testing.T) {
		f, p := setup(t)

		updated, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr()})
		require.NoError(t, err)
		assert.Empty(t, updated.Permissions)
		assert.False(t, f.users.Get("alice").HasProject(account, p.ID))
	})

	t.Run("rename", func(t *testing.T) {
		f, p := setup(t)

		updated, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Name: strPtr("B")})
		require.NoError(t, err)
		assert.Equal(t, "B", updated.Name)
		assert.Equal(t, p.Permissions, updated.Permissions)

		_, err = f.projects.FindByName(ctx, account, "A")
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	})

	t.Run("rename onto another project", func(t *testing.T) {
		f, p := setup(t)
		f.projects.Seed(&domain.Project{Account: account, Name: "B"})

		_, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Name: strPtr("B")})
		assert.ErrorIs(t, err, domain.ErrProjectExists)
	})

	t.Run("rename to reserved name", func(t *testing.T) {
		f, p := setup(t)

		_, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Name: strPtr(permissions.DefaultProjectName)})
		assert.ErrorIs(t, err, domain.ErrInvalidProjectName)
	})

	t.Run("cascade failure is reported after the save", func(t *testing.T) {
		f, p := setup(t)
		f.users.FailAddTo = "bob"
		writes := f.projects.Writes

		updated, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr(
			domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
			domain.PermissionEntry{User: "bob", Permissions: []string{"view_model_all_models"}},
		)})
		assert.ErrorIs(t, err, projectstest.ErrAddFailed)
		require.NotNil(t, updated)
		assert.Equal(t, writes+1, f.projects.Writes)

		stored, _ := f.projects.FindByName(ctx, account, "A")
		assert.Equal(t, []string{"alice", "bob"}, stored.PermissionUsers())
	})

	t.Run("removing a user whose record is gone", func(t *testing.T) {
		f := newFixture()
		p := f.projects.Seed(&domain.Project{
			Account: account,
			Name:    "P",
			Models:  []string{"m1"},
			Permissions: []domain.PermissionEntry{
				{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
				{User: "bob", Permissions: []string{"view_model_all_models"}},
				{User: "dave", Permissions: []string{"view_model_all_models"}},
			},
		})
		require.NoError(t, f.users.AddProject(ctx, "alice", account, p.ID))
		require.NoError(t, f.users.AddProject(ctx, "bob", account, p.ID))
		f.models.Perms["m1"] = []string{"bob", "dave"}

		_, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr(
			domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
		)})
		require.NoError(t, err)

		stored, _ := f.projects.FindByName(ctx, account, "P")
		assert.Equal(t, []string{"alice"}, stored.PermissionUsers())
		assert.True(t, f.users.Get("alice").HasProject(account, p.ID))
		assert.False(t, f.users.Get("bob").HasProject(account, p.ID))
		assert.Empty(t, f.models.Holders("m1"))
	})

	t.Run("rename lost to a concurrent writer leaves users alone", func(t *testing.T) {
		f, p := setup(t)
		require.NoError(t, f.users.AddProject(ctx, "bob", account, p.ID))
		p.Permissions = append(p.Permissions, domain.PermissionEntry{User: "bob", Permissions: []string{"view_model_all_models"}})
		f.models.Perms["m1"] = []string{"bob"}
		f.projects.Seed(&domain.Project{Account: account, Name: "B"})
		// the other writer's insert landed after the duplicate-name check
		f.svc.hooks = []saveHook{checkInvalidName, checkPermissionNames}

		_, err := f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{
			Name: strPtr("B"),
			Permissions: permsPtr(
				domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
			),
		})
		assert.ErrorIs(t, err, domain.ErrProjectExists)

		assert.True(t, f.users.Get("bob").HasProject(account, p.ID))
		assert.Equal(t, []string{"bob"}, f.models.Holders("m1"))
		assert.Empty(t, f.models.Calls)
	})
}

func TestCanManage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p, err := f.svc.CreateProject(ctx, account, "A", "alice", nil)
	require.NoError(t, err)
	p, err = f.svc.UpdateAttrs(ctx, p, domain.ProjectUpdate{Permissions: permsPtr(
		domain.PermissionEntry{User: "alice", Permissions: []string{permissions.PermProjectAdmin}},
		domain.PermissionEntry{User: "bob", Permissions: []string{"view_model_all_models"}},
	)})
	require.NoError(t, err)

	for user, want := range map[string]bool{
		"alice":   true,
		"bob":     false,
		"tsadmin": true,
		account:   true,
		"mallory": false,
	} {
		got, err := f.svc.CanManage(ctx, p, user)
		require.NoError(t, err)
		assert.Equal(t, want, got, user)
	}
}

func TestDifference(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, difference([]string{"a", "b", "c"}, []string{"b"}))
	assert.Empty(t, difference([]string{"a"}, []string{"a"}))
	assert.Empty(t, difference(nil, []string{"a"}))
}
