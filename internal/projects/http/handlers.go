package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/threedrepo/repo-backend/internal/api/http/response"
	"github.com/threedrepo/repo-backend/internal/auth"
	"github.com/threedrepo/repo-backend/internal/auth/middleware"
	"github.com/threedrepo/repo-backend/internal/projects/domain"
)

type createReq struct {
	Name string `json:"name"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c)
		return
	}

	p, err := h.svc.CreateProject(c.Request.Context(), c.Param("account"), req.Name,
		auth.Username(c), middleware.TeamspacePermissions(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.Param("account"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("account"), c.Param("project"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) update(c *gin.Context) {
	var upd domain.ProjectUpdate
	if err := c.ShouldBindJSON(&upd); err != nil || (upd.Name == nil && upd.Permissions == nil) {
		response.Invalid(c)
		return
	}

	p, ok := h.manageable(c)
	if !ok {
		return
	}

	updated, err := h.svc.UpdateAttrs(c.Request.Context(), p, upd)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) delete(c *gin.Context) {
	p, ok := h.manageable(c)
	if !ok {
		return
	}

	deleted, err := h.svc.Delete(c.Request.Context(), p.Account, p.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

// manageable loads the addressed project and checks the session user may
// change it. On false the response has been written.
func (h *Handler) manageable(c *gin.Context) (*domain.Project, bool) {
	ctx := c.Request.Context()

	p, err := h.svc.Get(ctx, c.Param("account"), c.Param("project"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}

	allowed, err := h.svc.CanManage(ctx, p, auth.Username(c))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !allowed {
		response.Error(c, auth.ErrForbidden)
		return nil, false
	}
	return p, true
}
