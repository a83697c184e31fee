package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("not allowed to perform this action")
	ErrTooManyRequests    = errors.New("too many login attempts")
)
