package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nusalend/nusalend/internal/authz"
	"github.com/nusalend/nusalend/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPermissions returns all permissions ordered by code.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code FROM permissions ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Code); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// CreatePermission inserts a new code, mapping unique violations to
// ErrDuplicate.
func (r *Repository) CreatePermission(ctx context.Context, code string) (Permission, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO permissions (code) VALUES ($1) RETURNING id, code`, code)
	var perm Permission
	if err := row.Scan(&perm.ID, &perm.Code); err != nil {
		if isUniqueViolation(err) {
			return Permission{}, fmt.Errorf("%w: permission %s", ErrDuplicate, code)
		}
		return Permission{}, err
	}
	return perm, nil
}

// ListRoles returns all roles with their permission sets.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range roles {
		perms, err := r.rolePermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

// GetRole fetches one role with its permission set.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name FROM roles WHERE id = $1`, id)
	var role Role
	if err := row.Scan(&role.ID, &role.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	perms, err := r.rolePermissions(ctx, id)
	if err != nil {
		return Role{}, err
	}
	role.Permissions = perms
	return role, nil
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO roles (name) VALUES ($1) RETURNING id, name`, name)
	var role Role
	if err := row.Scan(&role.ID, &role.Name); err != nil {
		if isUniqueViolation(err) {
			return Role{}, fmt.Errorf("%w: role %s", ErrDuplicate, name)
		}
		return Role{}, err
	}
	role.Permissions = []Permission{}
	return role, nil
}

// UpdateRole renames a role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, name string) (Role, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return Role{}, fmt.Errorf("%w: role %s", ErrDuplicate, name)
		}
		return Role{}, err
	}
	if tag.RowsAffected() == 0 {
		return Role{}, ErrNotFound
	}
	return r.GetRole(ctx, id)
}

// DeleteRole removes a role and its assignments.
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE role_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ReplaceRolePermissions swaps the role's assignment set in one
// transaction: everything is detached and the requested codes reattached.
func (r *Repository) ReplaceRolePermissions(ctx context.Context, roleID int64, codes []string) ([]Permission, error) {
	perms := make([]Permission, 0, len(codes))
	for _, code := range codes {
		row := r.pool.QueryRow(ctx, `SELECT id, code FROM permissions WHERE code = $1`, code)
		var perm Permission
		if err := row.Scan(&perm.ID, &perm.Code); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: permission %s", ErrNotFound, code)
			}
			return nil, err
		}
		perms = append(perms, perm)
	}

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, perm := range perms {
			if _, err := tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, perm.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// UserGrants returns the user's roles with their permission codes.
func (r *Repository) UserGrants(ctx context.Context, userID int64) ([]authz.RoleGrant, error) {
	rows, err := r.pool.Query(ctx, `SELECT ro.id, ro.name, COALESCE(p.code, '')
FROM user_roles ur
JOIN roles ro ON ro.id = ur.role_id
LEFT JOIN role_permissions rp ON rp.role_id = ro.id
LEFT JOIN permissions p ON p.id = rp.permission_id
WHERE ur.user_id = $1
ORDER BY ro.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []authz.RoleGrant
	index := make(map[int64]int)
	for rows.Next() {
		var roleID int64
		var name, code string
		if err := rows.Scan(&roleID, &name, &code); err != nil {
			return nil, err
		}
		i, ok := index[roleID]
		if !ok {
			i = len(grants)
			index[roleID] = i
			grants = append(grants, authz.RoleGrant{Name: name})
		}
		if code != "" {
			grants[i].Permissions = append(grants[i].Permissions, code)
		}
	}
	return grants, rows.Err()
}

func (r *Repository) rolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.code FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
WHERE rp.role_id = $1 ORDER BY p.code`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	perms := make([]Permission, 0)
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Code); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ RepositoryPort = (*Repository)(nil)
