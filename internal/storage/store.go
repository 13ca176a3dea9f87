package storage

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("blob not found")

// Store is the keyed blob contract the session host persists through.
type Store interface {
	// Load returns ErrNotFound when nothing is stored under key.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
	Close() error
}

func CartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:cart", sessionID)
}

func ResolutionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:resolution", sessionID)
}

func OrdersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:orders", sessionID)
}
