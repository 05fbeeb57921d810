package service

import (
	"context"
	"errors"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/store"
)

// IdentityService turns a verified token subject into a Caller. Role and
// active flag come from the user row, not the token.
type IdentityService struct {
	store store.Repository
}

// NewIdentityService creates a new identity service
func NewIdentityService(store store.Repository) *IdentityService {
	return &IdentityService{store: store}
}

// Resolve loads the user behind userID
func (s *IdentityService) Resolve(ctx context.Context, userID int64) (*Caller, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Unauthorized("could not validate credentials")
	}
	if err != nil {
		return nil, mapStoreError(err, "user")
	}
	if !user.IsActive {
		return nil, apperror.Forbidden("inactive user")
	}
	return &Caller{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}
