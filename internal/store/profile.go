package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
)

// ProfileStore defines the interface for user profile persistence.
type ProfileStore interface {
	// Get retrieves the profile of userID.
	// Returns ErrProfileNotFound if none has been saved.
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)

	// Upsert creates or replaces the profile, traits included.
	Upsert(ctx context.Context, profile *domain.UserProfile) error

	// WithTx returns a ProfileStore bound to tx.
	WithTx(tx *sql.Tx) ProfileStore
}
