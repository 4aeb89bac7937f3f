package service

import "errors"

// Sentinel errors mapped to HTTP statuses at the handler layer.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDuplicatePending = errors.New("a pending request already exists for this target")
	ErrInvalidLogin     = errors.New("invalid username or password")
)
