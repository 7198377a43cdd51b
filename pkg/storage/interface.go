package storage

import (
	"context"
	"errors"

	"github.com/gokaycavdar/go-senderinfo/pkg/models"
)

// ErrSessionNotFound is returned when no session exists for an ID.
var ErrSessionNotFound = errors.New("session not found")

// ErrStoreUnavailable wraps failures of the storage backend.
var ErrStoreUnavailable = errors.New("session store unavailable")

// SessionStore keeps the sessions of connected clients, including the
// sender metadata derived at connect time.
type SessionStore interface {
	// Save creates or replaces the session with the same ID.
	Save(ctx context.Context, session *models.Session) error

	// Get returns ErrSessionNotFound for unknown or expired IDs.
	Get(ctx context.Context, id string) (*models.Session, error)

	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}
