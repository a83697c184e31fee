package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/threedrepo/repo-backend/internal/api/http/response"
	"github.com/threedrepo/repo-backend/internal/auth"
)

// SessionResolver maps a bearer token to its user. Implemented by auth.Service.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// RequireSession rejects requests without a live session and stores the
// session user in the gin context under auth.CtxUsername.
func RequireSession(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c)
		if token == "" {
			response.Abort(c, response.NotAuthorized)
			return
		}

		username, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(auth.CtxUsername, username)
		c.Set(auth.CtxToken, token)
		c.Next()
	}
}
