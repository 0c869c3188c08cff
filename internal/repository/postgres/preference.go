package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/brewcycle/brewcycle/internal/domain/preference"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/postgres"
)

type preferenceRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewPreferenceRepository(db postgres.IClient, logger *logger.Logger) preference.Repository {
	return &preferenceRepository{db: db, logger: logger}
}

func (r *preferenceRepository) Get(ctx context.Context, userID string) (*preference.FlavorPreferences, error) {
	var prefs preference.FlavorPreferences
	query := `
		SELECT user_id, liked_flavors, disliked_flavors, preferred_intensity, updated_at
		FROM user_preferences
		WHERE user_id = $1`

	err := r.db.Querier(ctx).GetContext(ctx, &prefs, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, databaseError(err, "Failed to load flavor preferences")
	}
	return &prefs, nil
}

func (r *preferenceRepository) Upsert(ctx context.Context, prefs *preference.FlavorPreferences) error {
	prefs.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO user_preferences (user_id, liked_flavors, disliked_flavors, preferred_intensity, updated_at)
		VALUES (:user_id, :liked_flavors, :disliked_flavors, :preferred_intensity, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			liked_flavors = EXCLUDED.liked_flavors,
			disliked_flavors = EXCLUDED.disliked_flavors,
			preferred_intensity = EXCLUDED.preferred_intensity,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, prefs); err != nil {
		return databaseError(err, "Failed to save flavor preferences")
	}
	return nil
}
