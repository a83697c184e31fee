// Package response maps service errors onto the API's response codes and
// writes them as JSON.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/threedrepo/repo-backend/internal/auth"
	"github.com/threedrepo/repo-backend/internal/modelsettings"
	"github.com/threedrepo/repo-backend/internal/permissions"
	"github.com/threedrepo/repo-backend/internal/projects/domain"
	"github.com/threedrepo/repo-backend/internal/revisions"
	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
	"github.com/threedrepo/repo-backend/internal/users"
)

// Code is one entry of the response code table. It is also the JSON body
// of every error reply.
type Code struct {
	Value   int    `json:"value"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

var (
	OK                         = Code{0, "OK", "OK", http.StatusOK}
	Internal                   = Code{1, "INTERNAL_ERROR", "Internal error", http.StatusInternalServerError}
	DBError                    = Code{1000, "DB_ERROR", "Database error", http.StatusInternalServerError}
	InvalidProjectName         = Code{101, "INVALID_PROJECT_NAME", "Invalid project name", http.StatusBadRequest}
	ProjectExist               = Code{102, "PROJECT_EXIST", "Project already exists", http.StatusBadRequest}
	ProjectNotFound            = Code{103, "PROJECT_NOT_FOUND", "Project not found", http.StatusNotFound}
	InvalidPerm                = Code{104, "INVALID_PERM", "Invalid permission", http.StatusBadRequest}
	DupPermUser                = Code{105, "DUP_PERM_USER", "Duplicate user in permissions", http.StatusBadRequest}
	UserNotAssignedWithLicense = Code{106, "USER_NOT_ASSIGNED_WITH_LICENSE", "User is not assigned with a licence", http.StatusBadRequest}
	DupPermTemplate            = Code{107, "DUP_PERM_TEMPLATE", "Permission template already exists", http.StatusBadRequest}
	PermNotFound               = Code{108, "PERM_NOT_FOUND", "Permission template not found", http.StatusNotFound}
	UserNotFound               = Code{109, "USER_NOT_FOUND", "User not found", http.StatusNotFound}
	RevisionNotFound           = Code{110, "REVISION_NOT_FOUND", "Revision not found", http.StatusNotFound}
	FileNotFound               = Code{111, "FILE_NOT_FOUND", "File not found", http.StatusNotFound}
	InvalidArguments           = Code{112, "INVALID_ARGUMENTS", "Invalid arguments", http.StatusBadRequest}
	ModelNotFound              = Code{113, "MODEL_NOT_FOUND", "Model not found", http.StatusNotFound}
	NotAuthorized              = Code{401, "NOT_AUTHORIZED", "Not authorized", http.StatusUnauthorized}
	Forbidden                  = Code{403, "FORBIDDEN", "Forbidden", http.StatusForbidden}
	TooManyRequests            = Code{429, "TOO_MANY_REQUESTS", "Too many requests", http.StatusTooManyRequests}
)

// errorCodes is matched top to bottom; domain errors come before
// ErrDatabase because some of them travel wrapped in a database error.
var errorCodes = []struct {
	err  error
	code Code
}{
	{domain.ErrInvalidProjectName, InvalidProjectName},
	{domain.ErrProjectExists, ProjectExist},
	{domain.ErrProjectNotFound, ProjectNotFound},
	{domain.ErrInvalidPermission, InvalidPerm},
	{domain.ErrDuplicatePermissionUser, DupPermUser},
	{domain.ErrUserNotAssignedWithLicense, UserNotAssignedWithLicense},
	{permissions.ErrInvalidPermission, InvalidPerm},
	{permissions.ErrDuplicateTemplate, DupPermTemplate},
	{permissions.ErrPermissionTemplateNotFound, PermNotFound},
	{permissions.ErrInvalidTemplateID, InvalidArguments},
	{users.ErrUserNotFound, UserNotFound},
	{revisions.ErrRevisionNotFound, RevisionNotFound},
	{revisions.ErrFileNotFound, FileNotFound},
	{modelsettings.ErrModelNotFound, ModelNotFound},
	{modelsettings.ErrInvalidArguments, InvalidArguments},
	{auth.ErrInvalidCredentials, NotAuthorized},
	{auth.ErrSessionNotFound, NotAuthorized},
	{auth.ErrForbidden, Forbidden},
	{auth.ErrTooManyRequests, TooManyRequests},
	{mongodb.ErrDatabase, DBError},
}

// FromError returns the response code for err. Unknown errors are internal.
func FromError(err error) Code {
	if err == nil {
		return OK
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return Internal
}

// Error aborts the request with the code mapped from err. Server-side
// failures are attached to the gin context for the request logger.
func Error(c *gin.Context, err error) {
	code := FromError(err)
	if code.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	Abort(c, code)
}

// Abort writes code as the error body and stops the handler chain.
func Abort(c *gin.Context, code Code) {
	c.AbortWithStatusJSON(code.Status, code)
}

// Invalid rejects a malformed request body or parameter.
func Invalid(c *gin.Context) {
	Abort(c, InvalidArguments)
}
