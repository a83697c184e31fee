package users

import (
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/threedrepo/repo-backend/internal/permissions"
)

// User is a record in the admin database. Teamspaces are users too: the
// account record carries the teamspace permissions, templates and billing.
type User struct {
	User                string                 `json:"user" bson:"_id"`
	Projects            []ProjectRef           `json:"projects" bson:"projects"`
	Permissions         []TeamspacePermission  `json:"permissions,omitempty" bson:"permissions,omitempty"`
	PermissionTemplates []permissions.Template `json:"permissionTemplates,omitempty" bson:"permissionTemplates,omitempty"`
	Billing             Billing                `json:"billing" bson:"billing"`
}

// ProjectRef is the back-reference a user holds to a project it has
// permissions on. The project owns the relationship.
type ProjectRef struct {
	Account string             `json:"account" bson:"account"`
	Project primitive.ObjectID `json:"project" bson:"project"`
}

type TeamspacePermission struct {
	User        string   `json:"user" bson:"user"`
	Permissions []string `json:"permissions" bson:"permissions"`
}

type Billing struct {
	Subscriptions Subscriptions `json:"subscriptions" bson:"subscriptions"`
}

// Subscription is one licence seat of a teamspace.
type Subscription struct {
	ID           string `json:"_id" bson:"_id"`
	Plan         string `json:"plan" bson:"plan"`
	AssignedUser string `json:"assignedUser,omitempty" bson:"assignedUser,omitempty"`
	Active       bool   `json:"active" bson:"active"`
}

type Subscriptions []Subscription

// FindByAssignedUser returns the active seat assigned to user, or nil.
func (s Subscriptions) FindByAssignedUser(user string) *Subscription {
	for i := range s {
		if s[i].Active && s[i].AssignedUser == user {
			return &s[i]
		}
	}
	return nil
}

// TeamspacePermissionsOf returns the teamspace-level permissions user holds
// on this account. The account owner is always admin.
func (u *User) TeamspacePermissionsOf(user string) []string {
	if user == u.User {
		return []string{permissions.PermTeamspaceAdmin}
	}
	i := slices.IndexFunc(u.Permissions, func(p TeamspacePermission) bool { return p.User == user })
	if i < 0 {
		return nil
	}
	return u.Permissions[i].Permissions
}

// HasProject reports whether the user references project in account.
func (u *User) HasProject(account string, project primitive.ObjectID) bool {
	return slices.Contains(u.Projects, ProjectRef{Account: account, Project: project})
}
