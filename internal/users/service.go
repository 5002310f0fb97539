package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/nusalend/nusalend/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, username, email, passwordHash string, roles []string) (User, error)
	UpdateUser(ctx context.Context, id int64, email string, isActive bool, roles []string) (User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
}

// AuditPort records account mutations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cost  int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, cost: bcrypt.DefaultCost}
}

// CreateInput carries new account fields.
type CreateInput struct {
	Username string
	Email    string
	Password string
	Roles    []string
}

// UpdateInput carries mutable account fields.
type UpdateInput struct {
	Email    string
	IsActive bool
	Roles    []string
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser registers a new account with a hashed password.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" {
		return User{}, fmt.Errorf("%w: username and email are required", ErrValidation)
	}
	if err := CheckPassword(in.Password); err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, in.Username, in.Email, string(hash), in.Roles)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, "USER_CREATE", user.ID, map[string]any{"username": user.Username, "roles": user.Roles})
	return user, nil
}

// UpdateUser mutates account profile fields and role membership. Sessions
// issued before the change keep their permission snapshot until the user
// logs in again.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateInput) (User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return User{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	user, err := s.repo.UpdateUser(ctx, id, in.Email, in.IsActive, in.Roles)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, "USER_UPDATE", id, map[string]any{"isActive": in.IsActive, "roles": in.Roles})
	return user, nil
}

// ChangePassword rehashes and stores a new password.
func (s *Service) ChangePassword(ctx context.Context, id int64, password string) error {
	if err := CheckPassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}
	s.recordAudit(ctx, "USER_CHANGE_PASSWORD", id, nil)
	return nil
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "USER_DELETE", id, nil)
	return nil
}

// CheckPassword enforces the account password policy: at least 8
// characters including an uppercase letter, a lowercase letter and a digit.
func CheckPassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return fmt.Errorf("%w: password needs an uppercase letter, a lowercase letter and a digit", ErrValidation)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
