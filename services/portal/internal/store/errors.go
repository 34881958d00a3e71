package store

import "errors"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrNoSession    = errors.New("no active session")
)
