package http

import "github.com/gin-gonic/gin"

// Register attaches /login and /logout. The login route goes through
// loginGuards (rate limiting), logout through the session middleware.
func (h *Handler) Register(r gin.IRouter, loginGuards []gin.HandlerFunc, requireSession gin.HandlerFunc) {
	r.POST("/login", append(loginGuards, h.Login)...)
	r.POST("/logout", requireSession, h.Logout)
}
