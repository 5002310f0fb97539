package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nusalend/nusalend/internal/authz"
	"github.com/nusalend/nusalend/internal/shared"
)

// GrantSource resolves a user's role grants at login time.
type GrantSource interface {
	GrantsForUser(ctx context.Context, userID int64) ([]authz.RoleGrant, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	grants GrantSource
}

// NewService constructs a new Service.
func NewService(repo Repository, grants GrantSource) *Service {
	return &Service{repo: repo, grants: grants}
}

// Authenticate validates username/password credentials and builds the
// principal snapshot. Roles and permissions are flattened once, here;
// everything downstream consults the snapshot only.
func (s *Service) Authenticate(ctx context.Context, username, password string) (authz.Principal, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return authz.Principal{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return authz.Principal{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return authz.Principal{}, shared.ErrInvalidCredentials
	}
	grants, err := s.grants.GrantsForUser(ctx, user.ID)
	if err != nil {
		return authz.Principal{}, err
	}
	return authz.NewPrincipal(user.ID, user.Username, user.Email, grants), nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
