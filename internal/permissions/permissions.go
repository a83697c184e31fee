// Package permissions defines the capability names understood by the
// backend and manages teamspace permission templates.
package permissions

import "slices"

const (
	// DefaultProjectName is reserved for the implicit project every
	// teamspace has; no stored project may use it.
	DefaultProjectName = "default"

	PermTeamspaceAdmin = "teamspace_admin"
	PermCreateProject  = "create_project"
	PermAssignLicence  = "assign_licence"

	PermProjectAdmin = "admin_project"
)

// ProjectPermissions is the whitelist for project-level permission entries.
var ProjectPermissions = []string{
	"create_model",
	"create_federation",
	PermProjectAdmin,
	"edit_project",
	"delete_project",
	"upload_files_all_models",
	"edit_federation_all_models",
	"create_issue_all_models",
	"comment_issue_all_models",
	"view_issue_all_models",
	"view_model_all_models",
	"download_model_all_models",
	"change_model_settings_all_models",
}

// ModelPermissions is the whitelist for permission templates, which are
// applied at model level.
var ModelPermissions = []string{
	"change_model_settings",
	"upload_files",
	"create_issue",
	"comment_issue",
	"view_issue",
	"view_model",
	"download_model",
	"edit_federation",
	"delete_federation",
	"delete_model",
	"manage_model_permission",
}

// ValidProjectPermissions reports whether every name is a project permission.
func ValidProjectPermissions(names []string) bool {
	return allIn(names, ProjectPermissions)
}

// ValidModelPermissions reports whether every name is a model permission.
func ValidModelPermissions(names []string) bool {
	return allIn(names, ModelPermissions)
}

func allIn(names, whitelist []string) bool {
	for _, n := range names {
		if !slices.Contains(whitelist, n) {
			return false
		}
	}
	return true
}

// IsTeamspaceAdmin reports whether teamspace-level permissions include admin.
func IsTeamspaceAdmin(perms []string) bool {
	return slices.Contains(perms, PermTeamspaceAdmin)
}
