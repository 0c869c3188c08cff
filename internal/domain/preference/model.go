package preference

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/types"
)

// FlavorPreferences are a user's stated tastes, used to rank the catalog
type FlavorPreferences struct {
	UserID             string           `db:"user_id" json:"user_id"`
	LikedFlavors       types.StringList `db:"liked_flavors" json:"liked_flavors"`
	DislikedFlavors    types.StringList `db:"disliked_flavors" json:"disliked_flavors"`
	PreferredIntensity *int             `db:"preferred_intensity" json:"preferred_intensity,omitempty"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// Repository stores flavor preferences per user
type Repository interface {
	// Get returns nil and no error when the user has not stated any preferences
	Get(ctx context.Context, userID string) (*FlavorPreferences, error)
	Upsert(ctx context.Context, prefs *FlavorPreferences) error
}
