package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/threedrepo/repo-backend/internal/api/http/response"
	"github.com/threedrepo/repo-backend/internal/auth"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Login checks the credentials against the database and opens a session.
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c)
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResp{
		Username:  session.Username,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(http.TimeFormat),
	})
}

// Logout ends the caller's session.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), auth.Token(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": auth.Username(c)})
}
