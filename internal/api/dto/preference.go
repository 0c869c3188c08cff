package dto

import (
	"github.com/brewcycle/brewcycle/internal/domain/preference"
	"github.com/brewcycle/brewcycle/internal/domain/recommendation"
	"github.com/brewcycle/brewcycle/internal/validator"
)

type UpdatePreferencesRequest struct {
	LikedFlavors       []string `json:"liked_flavors" validate:"omitempty,dive,required"`
	DislikedFlavors    []string `json:"disliked_flavors" validate:"omitempty,dive,required"`
	PreferredIntensity *int     `json:"preferred_intensity,omitempty" validate:"omitempty,min=1,max=5"`
}

func (r *UpdatePreferencesRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type PreferencesResponse struct {
	*preference.FlavorPreferences
}

// RecommendationsResponse lists the best matching active products, best first
type RecommendationsResponse struct {
	Items []recommendation.ScoredProduct `json:"items"`
}
