package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/threedrepo/repo-backend/internal/api/http/response"
	"github.com/threedrepo/repo-backend/internal/auth"
	"github.com/threedrepo/repo-backend/internal/permissions"
)

// CtxTeamspacePermissions holds the session user's permissions on the
// teamspace named by the :account parameter.
const CtxTeamspacePermissions = "teamspace_permissions"

// TeamspacePermissionLookup returns the teamspace-level permissions of user
// on account. Implemented by users.Repo.
type TeamspacePermissionLookup interface {
	TeamspacePermissions(ctx context.Context, account, user string) ([]string, error)
}

// LoadTeamspacePermissions resolves the session user's teamspace
// permissions once per request.
func LoadTeamspacePermissions(lookup TeamspacePermissionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms, err := lookup.TeamspacePermissions(c.Request.Context(), c.Param("account"), auth.Username(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(CtxTeamspacePermissions, perms)
		c.Next()
	}
}

// TeamspacePermissions returns what LoadTeamspacePermissions stored.
func TeamspacePermissions(c *gin.Context) []string {
	v, _ := c.Get(CtxTeamspacePermissions)
	perms, _ := v.([]string)
	return perms
}

// RequireTeamspacePermission lets the request through when the user is
// teamspace admin or holds any of perms. Must run after
// LoadTeamspacePermissions.
func RequireTeamspacePermission(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held := TeamspacePermissions(c)
		if permissions.IsTeamspaceAdmin(held) || slices.ContainsFunc(perms, func(p string) bool { return slices.Contains(held, p) }) {
			c.Next()
			return
		}
		response.Error(c, auth.ErrForbidden)
	}
}
