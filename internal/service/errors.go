package service

import "errors"

var (
	ErrUnauthorized       = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("state transition not allowed")
)
