// Package templates serves the permission templates of a teamspace.
package templates

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/threedrepo/repo-backend/internal/api/http/response"
	"github.com/threedrepo/repo-backend/internal/auth/middleware"
	"github.com/threedrepo/repo-backend/internal/permissions"
)

type Handler struct {
	svc *permissions.TemplateService
}

func New(svc *permissions.TemplateService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches the routes to a /:account/permission-templates group.
// Changes are reserved to teamspace admins.
func (h *Handler) Register(rg *gin.RouterGroup) {
	admin := middleware.RequireTeamspacePermission(permissions.PermTeamspaceAdmin)

	rg.GET("", h.list)
	rg.POST("", admin, h.create)
	rg.DELETE("/:template", admin, h.delete)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.Param("account"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) create(c *gin.Context) {
	var t permissions.Template
	if err := c.ShouldBindJSON(&t); err != nil {
		response.Invalid(c)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), c.Param("account"), t)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("template")
	if err := h.svc.Delete(c.Request.Context(), c.Param("account"), id); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"_id": id})
}
