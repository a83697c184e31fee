// Package models serves model-level endpoints: permissions, deletion,
// revision history and stored files.
package models

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/threedrepo/repo-backend/internal/api/http/response"
	"github.com/threedrepo/repo-backend/internal/auth/middleware"
	"github.com/threedrepo/repo-backend/internal/modelsettings"
	"github.com/threedrepo/repo-backend/internal/permissions"
	"github.com/threedrepo/repo-backend/internal/revisions"
)

type Handler struct {
	settings  *modelsettings.Service
	revisions *revisions.Service
}

func New(settings *modelsettings.Service, revs *revisions.Service) *Handler {
	return &Handler{settings: settings, revisions: revs}
}

// Register attaches the routes to a /:account group. Permission changes
// and deletion are reserved to teamspace admins.
func (h *Handler) Register(rg *gin.RouterGroup) {
	admin := middleware.RequireTeamspacePermission(permissions.PermTeamspaceAdmin)

	rg.GET("/models", h.list)
	rg.GET("/:model/permissions", h.permissions)
	rg.POST("/:model/permissions", admin, h.assignPermissions)
	rg.DELETE("/:model", admin, h.deleteModel)
	rg.GET("/:model/revisions", h.listRevisions)
	rg.GET("/:model/revisions/latest", h.latestRevision)
	rg.GET("/:model/files/:file", h.file)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.settings.List(c.Request.Context(), c.Param("account"), c.Query("user"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) permissions(c *gin.Context) {
	setting, err := h.settings.Get(c.Request.Context(), c.Param("account"), c.Param("model"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, setting.Permissions)
}

func (h *Handler) assignPermissions(c *gin.Context) {
	var perms []modelsettings.ModelPermission
	if err := c.ShouldBindJSON(&perms); err != nil {
		response.Invalid(c)
		return
	}

	setting, err := h.settings.AssignPermissions(c.Request.Context(), c.Param("account"), c.Param("model"), perms)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (h *Handler) deleteModel(c *gin.Context) {
	model := c.Param("model")
	if err := h.settings.DeleteModel(c.Request.Context(), c.Param("account"), model); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"_id": model})
}

func (h *Handler) listRevisions(c *gin.Context) {
	revs, err := h.revisions.List(c.Request.Context(), c.Param("account"), c.Param("model"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, revs)
}

func (h *Handler) latestRevision(c *gin.Context) {
	rev, err := h.revisions.Latest(c.Request.Context(), c.Param("account"), c.Param("model"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, rev)
}

func (h *Handler) file(c *gin.Context) {
	data, err := h.revisions.File(c.Request.Context(), c.Param("account"), c.Param("model"), c.Param("file"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": c.Param("file")}))
	c.Data(http.StatusOK, "application/octet-stream", data)
}
