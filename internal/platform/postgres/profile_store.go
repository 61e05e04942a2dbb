package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/platform/logger"
	"github.com/phrazzld/tempo/internal/redact"
	"github.com/phrazzld/tempo/internal/store"
)

// PostgresProfileStore implements store.ProfileStore. Traits are stored as
// a JSONB array and always written as a whole.
type PostgresProfileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProfileStore creates a new PostgresProfileStore.
func NewPostgresProfileStore(db store.DBTX, logger *slog.Logger) *PostgresProfileStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProfileStore{
		db:     db,
		logger: logger.With(slog.String("component", "profile_store")),
	}
}

var _ store.ProfileStore = (*PostgresProfileStore)(nil)

// WithTx implements store.ProfileStore.WithTx
func (s *PostgresProfileStore) WithTx(tx *sql.Tx) store.ProfileStore {
	return &PostgresProfileStore{db: tx, logger: s.logger}
}

// Get implements store.ProfileStore.Get
func (s *PostgresProfileStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	query := `
		SELECT traits, productive_period, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`
	var (
		rawTraits []byte
		period    sql.NullString
	)
	profile := domain.NewUserProfile(userID)

	err := s.db.QueryRowContext(ctx, query, userID).Scan(&rawTraits, &period, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProfileNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get profile",
			slog.String("user_id", userID.String()),
			slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}

	if err := json.Unmarshal(rawTraits, &profile.Traits); err != nil {
		return nil, fmt.Errorf("%w: malformed traits for user %s: %v", store.ErrInvalidEntity, userID, err)
	}
	profile.Traits = domain.CopyTraits(profile.Traits)
	if period.Valid {
		p := domain.Period(period.String)
		profile.ProductivePeriod = &p
	}
	return profile, nil
}

// Upsert implements store.ProfileStore.Upsert
func (s *PostgresProfileStore) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := profile.Validate(); err != nil {
		return err
	}

	rawTraits, err := json.Marshal(domain.CopyTraits(profile.Traits))
	if err != nil {
		return fmt.Errorf("failed to encode traits: %w", err)
	}

	var period sql.NullString
	if profile.ProductivePeriod != nil {
		period = sql.NullString{String: string(*profile.ProductivePeriod), Valid: true}
	}

	query := `
		INSERT INTO user_profiles (user_id, traits, productive_period, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET traits = EXCLUDED.traits,
			productive_period = EXCLUDED.productive_period,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, profile.UserID, rawTraits, period, profile.UpdatedAt); err != nil {
		log.Error("failed to upsert profile",
			slog.String("user_id", profile.UserID.String()),
			slog.String("error", redact.Error(err)))
		return MapError(err)
	}

	log.Debug("profile saved",
		slog.String("user_id", profile.UserID.String()),
		slog.Int("trait_count", len(profile.Traits)))
	return nil
}
