package domain

import "errors"

var (
	ErrInvalidProjectName         = errors.New("invalid project name")
	ErrProjectExists              = errors.New("project already exists")
	ErrProjectNotFound            = errors.New("project not found")
	ErrInvalidPermission          = errors.New("invalid permission")
	ErrDuplicatePermissionUser    = errors.New("user appears more than once in permissions")
	ErrUserNotAssignedWithLicense = errors.New("user not assigned with a licence")
)
