package user

import (
	"context"
	"time"

	"github.com/n-device/core/internal/models"
	"github.com/n-device/core/internal/store"
)

type Service struct {
	users store.UserStore
}

func NewService(users store.UserStore) *Service {
	return &Service{users: users}
}

func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errUserNotFound
	}
	return u, nil
}

// Update applies a partial profile patch. Patches carrying no fields are
// rejected rather than silently succeeding.
func (s *Service) Update(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	if patch.Empty() {
		return nil, errNoFields
	}
	u, err := s.users.UpdateProfile(ctx, userID, patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errUserNotFound
	}
	return u, nil
}
