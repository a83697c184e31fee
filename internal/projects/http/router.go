package http

import (
	"github.com/gin-gonic/gin"

	"github.com/threedrepo/repo-backend/internal/auth/middleware"
	"github.com/threedrepo/repo-backend/internal/permissions"
)

// Register attaches project routes to a /:account/projects group. The group
// must already resolve the session and the teamspace permissions.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", middleware.RequireTeamspacePermission(permissions.PermCreateProject), h.create)
	rg.GET("/:project", h.get)
	rg.PUT("/:project", h.update)
	rg.DELETE("/:project", h.delete)
}
