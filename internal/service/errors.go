package service

import "errors"

// Sentinel errors returned by the services. Handlers translate these
// into HTTP statuses and user-facing messages.
var (
	ErrQueryRequired       = errors.New("query is required")
	ErrNotFound            = errors.New("not found")
	ErrActiveSessionExists = errors.New("you already have an active audit session")
	ErrInvalidSession      = errors.New("invalid session")
	ErrPermission          = errors.New("insufficient permissions")
	ErrSKUExists           = errors.New("sku already exists")
	ErrBadCredentials      = errors.New("invalid credentials")
	ErrLockedOut           = errors.New("too many failed login attempts, try again later")
	ErrInvalidToken        = errors.New("invalid or expired token")
)
