package testutil

import (
	"context"

	"github.com/brewcycle/brewcycle/internal/domain/preference"
	"github.com/brewcycle/brewcycle/internal/errors"
)

var _ preference.Repository = (*InMemoryPreferenceStore)(nil)

// InMemoryPreferenceStore implements preference.Repository
type InMemoryPreferenceStore struct {
	*InMemoryStore[*preference.FlavorPreferences]
}

func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		InMemoryStore: NewInMemoryStore[*preference.FlavorPreferences](),
	}
}

func (s *InMemoryPreferenceStore) Get(ctx context.Context, userID string) (*preference.FlavorPreferences, error) {
	prefs, err := s.InMemoryStore.Get(ctx, userID)
	if errors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c := *prefs
	return &c, nil
}

func (s *InMemoryPreferenceStore) Upsert(ctx context.Context, prefs *preference.FlavorPreferences) error {
	c := *prefs
	if err := s.InMemoryStore.Create(ctx, prefs.UserID, &c); err != nil {
		if errors.IsAlreadyExists(err) {
			return s.InMemoryStore.Update(ctx, prefs.UserID, &c)
		}
		return err
	}
	return nil
}
