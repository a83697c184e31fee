// Package modelsettings stores per-model settings of a teamspace, most
// importantly the model-level permission assignments.
package modelsettings

// Collection holds one settings document per model in the teamspace database.
const Collection = "settings"

// ModelSetting is the settings document of one model.
type ModelSetting struct {
	ID          string            `json:"_id" bson:"_id"`
	Name        string            `json:"name" bson:"name"`
	Permissions []ModelPermission `json:"permissions" bson:"permissions"`
}

// ModelPermission grants user the permissions of a teamspace template.
type ModelPermission struct {
	User       string `json:"user" bson:"user"`
	Permission string `json:"permission" bson:"permission"`
}

// FindPermsByUser returns the entry of user, or nil.
func (m *ModelSetting) FindPermsByUser(user string) *ModelPermission {
	for i := range m.Permissions {
		if m.Permissions[i].User == user {
			return &m.Permissions[i]
		}
	}
	return nil
}
