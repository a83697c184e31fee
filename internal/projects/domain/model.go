package domain

import (
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a named group of models inside a teamspace, with per-user
// permission assignments. The project is the sole owner of its permission
// list; user records only mirror membership.
type Project struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Account     string             `json:"account" bson:"-"`
	Name        string             `json:"name" bson:"name"`
	Models      []string           `json:"models" bson:"models"`
	Permissions []PermissionEntry  `json:"permissions" bson:"permissions"`
}

// PermissionEntry assigns project permissions to one user.
type PermissionEntry struct {
	User        string   `json:"user" bson:"user"`
	Permissions []string `json:"permissions" bson:"permissions"`
}

// ProjectUpdate lists the only fields a caller may change. Nil means
// "leave as is".
type ProjectUpdate struct {
	Name        *string            `json:"name,omitempty"`
	Permissions *[]PermissionEntry `json:"permissions,omitempty"`
}

// FindPermsByUser returns the permission entry of user, or nil.
func (p *Project) FindPermsByUser(user string) *PermissionEntry {
	for i := range p.Permissions {
		if p.Permissions[i].User == user {
			return &p.Permissions[i]
		}
	}
	return nil
}

// PermissionUsers lists users holding an entry, in entry order.
func (p *Project) PermissionUsers() []string {
	out := make([]string, 0, len(p.Permissions))
	for _, e := range p.Permissions {
		out = append(out, e.User)
	}
	return out
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	c := *p
	c.Models = slices.Clone(p.Models)
	c.Permissions = make([]PermissionEntry, len(p.Permissions))
	for i, e := range p.Permissions {
		c.Permissions[i] = PermissionEntry{User: e.User, Permissions: slices.Clone(e.Permissions)}
	}
	return &c
}
