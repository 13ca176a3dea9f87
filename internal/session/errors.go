package session

import "errors"

var (
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrAddressNotFound  = errors.New("saved address not found")
)
