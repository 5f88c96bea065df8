package session

import (
	"context"
	"errors"
)

// ErrEmpty the session has no stored analysis yet.
var ErrEmpty = errors.New("no analysis stored for session")

// Store holds the latest analysis per session. Writes are last-write-wins
// per key; different keys never see each other's value.
type Store interface {
	Put(ctx context.Context, sessionID string, payload []byte) error
	Get(ctx context.Context, sessionID string) ([]byte, error)
}
