package http

import "github.com/threedrepo/repo-backend/internal/auth"

// Handler bundles the dependencies for session endpoints.
type Handler struct {
	svc *auth.Service
}

func New(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}
