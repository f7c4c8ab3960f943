package services

import (
	"context"

	"github.com/fitsync-app/fitsync/internal/backend"
	"github.com/fitsync-app/fitsync/internal/common"
	"github.com/fitsync-app/fitsync/internal/models"
)

// ProfileService reads and updates the application profile row that mirrors
// the auth identity.
type ProfileService struct {
	store backend.RowStore
	ident identity
}

func NewProfileService(store backend.RowStore, ident identity) *ProfileService {
	return &ProfileService{store: store, ident: ident}
}

// Get returns the signed-in user's profile. A missing row yields
// common.ErrNotFound.
func (s *ProfileService) Get(ctx context.Context) (*models.Profile, error) {
	userID := s.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	var profile models.Profile
	err := s.store.SelectSingle(ctx, "users", &profile, backend.Eq("id", userID))
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update patches the signed-in user's profile and returns the updated row.
func (s *ProfileService) Update(ctx context.Context, patch map[string]any) (*models.Profile, error) {
	userID := s.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	var profile models.Profile
	err := s.store.Update(ctx, "users", patch, &profile, backend.Eq("id", userID))
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
