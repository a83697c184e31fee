package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/threedrepo/repo-backend/internal/api/http/models"
	"github.com/threedrepo/repo-backend/internal/api/http/templates"
	"github.com/threedrepo/repo-backend/internal/auth"
	authhttp "github.com/threedrepo/repo-backend/internal/auth/http"
	"github.com/threedrepo/repo-backend/internal/auth/middleware"
	"github.com/threedrepo/repo-backend/internal/modelsettings"
	"github.com/threedrepo/repo-backend/internal/permissions"
	projecthttp "github.com/threedrepo/repo-backend/internal/projects/http"
	projectservice "github.com/threedrepo/repo-backend/internal/projects/service"
	"github.com/threedrepo/repo-backend/internal/revisions"
	"github.com/threedrepo/repo-backend/internal/users"
)

type Deps struct {
	Sessions     *auth.Service
	LoginLimiter *middleware.IPRateLimiter
	Users        *users.Repo
	Projects     *projectservice.ProjectService
	Templates    *permissions.TemplateService
	Settings     *modelsettings.Service
	Revisions    *revisions.Service
}

// Register attaches the session routes at the root and every teamspace
// route under /:account. Teamspace routes need a session.
func Register(r *gin.Engine, dep Deps) {
	requireSession := middleware.RequireSession(dep.Sessions)

	authhttp.New(dep.Sessions).Register(r, []gin.HandlerFunc{dep.LoginLimiter.Middleware()}, requireSession)

	account := r.Group("/:account", requireSession, middleware.LoadTeamspacePermissions(dep.Users))

	projecthttp.New(dep.Projects).Register(account.Group("/projects"))
	templates.New(dep.Templates).Register(account.Group("/permission-templates"))
	models.New(dep.Settings, dep.Revisions).Register(account)
}
