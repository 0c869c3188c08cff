package service

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/api/dto"
	"github.com/brewcycle/brewcycle/internal/domain/preference"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/samber/lo"
)

// PreferenceService manages the caller's flavor preferences
type PreferenceService interface {
	GetPreferences(ctx context.Context) (*dto.PreferencesResponse, error)
	UpdatePreferences(ctx context.Context, req dto.UpdatePreferencesRequest) (*dto.PreferencesResponse, error)
}

type preferenceService struct {
	ServiceParams
}

func NewPreferenceService(params ServiceParams) PreferenceService {
	return &preferenceService{ServiceParams: params}
}

func (s *preferenceService) GetPreferences(ctx context.Context) (*dto.PreferencesResponse, error) {
	userID := types.GetUserID(ctx)
	prefs, err := s.PreferenceRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return nil, ierr.NewErrorf("no preferences for user %s", userID).
			WithHint("No flavor preferences have been set").
			Mark(ierr.ErrNotFound)
	}
	return &dto.PreferencesResponse{FlavorPreferences: prefs}, nil
}

func (s *preferenceService) UpdatePreferences(ctx context.Context, req dto.UpdatePreferencesRequest) (*dto.PreferencesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prefs := &preference.FlavorPreferences{
		UserID:             types.GetUserID(ctx),
		LikedFlavors:       lo.Uniq(req.LikedFlavors),
		DislikedFlavors:    lo.Uniq(req.DislikedFlavors),
		PreferredIntensity: req.PreferredIntensity,
		UpdatedAt:          time.Now().UTC(),
	}
	if err := s.PreferenceRepo.Upsert(ctx, prefs); err != nil {
		return nil, err
	}
	return &dto.PreferencesResponse{FlavorPreferences: prefs}, nil
}
