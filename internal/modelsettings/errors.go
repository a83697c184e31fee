package modelsettings

import "errors"

var (
	ErrModelNotFound    = errors.New("model settings not found")
	ErrInvalidArguments = errors.New("invalid model permission entry")
)
