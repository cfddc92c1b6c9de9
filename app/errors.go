package app

import "errors"

// Sentinel errors shared across the store and handlers. Handlers map these to
// HTTP statuses at the boundary; nothing below the handler layer speaks HTTP.
var (
	ErrNotFound      = errors.New("not found")
	ErrLimitReached  = errors.New("plan limit reached")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotConnected  = errors.New("google account not connected")
	ErrTokenExpired  = errors.New("google token expired")
	ErrNotConfigured = errors.New("service not configured")
)
