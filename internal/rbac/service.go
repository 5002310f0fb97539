package rbac

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nusalend/nusalend/internal/authz"
	"github.com/nusalend/nusalend/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, code string) (Permission, error)
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	// ReplaceRolePermissions swaps the role's permission set wholesale.
	ReplaceRolePermissions(ctx context.Context, roleID int64, codes []string) ([]Permission, error)
	UserGrants(ctx context.Context, userID int64) ([]authz.RoleGrant, error)
}

// AuditPort records catalog mutations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates catalog operations. Role mutations are serialized
// per role so concurrent assignment requests cannot interleave the
// read-replace sequence.
type Service struct {
	repo  RepositoryPort
	locks *shared.KeyedMutex
	audit AuditPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, locks: shared.NewKeyedMutex(), audit: audit}
}

// ListPermissions returns the whole catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// CreatePermission registers a new code. Codes are trimmed, uppercased and
// must be unique.
func (s *Service) CreatePermission(ctx context.Context, code string) (Permission, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Permission{}, fmt.Errorf("%w: permission code required", ErrValidation)
	}
	perm, err := s.repo.CreatePermission(ctx, code)
	if err != nil {
		return Permission{}, err
	}
	s.recordAudit(ctx, "PERMISSION_CREATE", perm.ID, map[string]any{"code": perm.Code})
	return perm, nil
}

// ListRoles returns all roles with their permission sets.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", ErrValidation)
	}
	role, err := s.repo.CreateRole(ctx, name)
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, "ROLE_CREATE", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// UpdateRole renames an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", ErrValidation)
	}
	unlock := s.locks.Lock(roleKey(id))
	defer unlock()
	role, err := s.repo.UpdateRole(ctx, id, name)
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, "ROLE_UPDATE", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// DeleteRole removes a role. Sessions already issued keep their snapshot
// until re-authentication.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(roleKey(id))
	defer unlock()
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "ROLE_DELETE", id, nil)
	return nil
}

// AssignPermissions replaces the role's permission set wholesale with the
// given codes; it is not an additive merge. Unknown codes fail the whole
// request.
func (s *Service) AssignPermissions(ctx context.Context, roleID int64, codes []string) (Role, error) {
	cleaned := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			return Role{}, fmt.Errorf("%w: empty permission code", ErrValidation)
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		cleaned = append(cleaned, code)
	}

	unlock := s.locks.Lock(roleKey(roleID))
	defer unlock()

	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	perms, err := s.repo.ReplaceRolePermissions(ctx, roleID, cleaned)
	if err != nil {
		return Role{}, err
	}
	role.Permissions = perms
	s.recordAudit(ctx, "ROLE_ASSIGN_PERMISSIONS", roleID, map[string]any{"codes": cleaned})
	return role, nil
}

// GrantsForUser returns the user's roles with their permission codes, the
// input for building a principal snapshot at login.
func (s *Service) GrantsForUser(ctx context.Context, userID int64) ([]authz.RoleGrant, error) {
	return s.repo.UserGrants(ctx, userID)
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "rbac",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}

func roleKey(id int64) string {
	return "role:" + strconv.FormatInt(id, 10)
}
