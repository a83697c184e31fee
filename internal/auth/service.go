// Package auth logs users in against the database's own credential store
// and keeps their sessions in Redis.
package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
)

// Authenticator checks database credentials. Implemented by
// mongodb.ConnectionManager.
type Authenticator interface {
	AuthenticateUser(ctx context.Context, username, password string) error
}

type Service struct {
	authn    Authenticator
	sessions *SessionRepository
	log      *zap.Logger
}

func NewService(authn Authenticator, sessions *SessionRepository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{authn: authn, sessions: sessions, log: log}
}

// Login authenticates the credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if err := s.authn.AuthenticateUser(ctx, username, password); err != nil {
		if !mongodb.IsAuthError(err) {
			s.log.Error("login failed", zap.String("user", username), zap.Error(err))
			return nil, err
		}
		s.log.Info("login rejected", zap.String("user", username), zap.Error(err))
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Create(ctx, username)
	if err != nil {
		return nil, err
	}
	s.log.Info("user logged in", zap.String("user", username))
	return session, nil
}

// Logout ends the session of token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Resolve returns the user owning token.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return "", err
	}
	return session.Username, nil
}
