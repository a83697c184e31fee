package permissions

import "errors"

var (
	ErrInvalidPermission          = errors.New("invalid permission")
	ErrDuplicateTemplate          = errors.New("permission template already exists")
	ErrPermissionTemplateNotFound = errors.New("permission template not found")
	ErrInvalidTemplateID          = errors.New("permission template id required")
)
