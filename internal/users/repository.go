package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

// ListUsers returns all users with their role names.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, username, email, is_active, created_at, updated_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range users {
		roles, err := r.userRoles(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Roles = roles
	}
	return users, nil
}

// GetUser fetches one user with role names.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, username, email, is_active, created_at, updated_at FROM users WHERE id = $1`, id)
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	roles, err := r.userRoles(ctx, id)
	if err != nil {
		return User{}, err
	}
	user.Roles = roles
	return user, nil
}

// CreateUser inserts the account and attaches its roles in one transaction.
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash string, roles []string) (User, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		row := tx.QueryRow(ctx, `INSERT INTO users (username, email, password_hash, is_active, created_at, updated_at)
VALUES ($1, $2, $3, TRUE, $4, $4) RETURNING id`, username, email, passwordHash, now)
		if err := row.Scan(&id); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: username or email already taken", ErrDuplicate)
			}
			return err
		}
		return r.replaceRoles(ctx, tx, id, roles)
	})
	if err != nil {
		return User{}, err
	}
	return r.GetUser(ctx, id)
}

// UpdateUser mutates profile fields and replaces role membership.
func (r *Repository) UpdateUser(ctx context.Context, id int64, email string, isActive bool, roles []string) (User, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET email = $1, is_active = $2, updated_at = $3 WHERE id = $4`,
			email, isActive, time.Now().UTC(), id)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email already taken", ErrDuplicate)
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return r.replaceRoles(ctx, tx, id, roles)
	})
	if err != nil {
		return User{}, err
	}
	return r.GetUser(ctx, id)
}

// UpdatePassword stores a new password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the account and its role assignments.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Repository) replaceRoles(ctx context.Context, tx pgx.Tx, userID int64, roles []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, name := range roles {
		row := tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name)
		var roleID int64
		if err := row.Scan(&roleID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: role %s", ErrNotFound, name)
			}
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) userRoles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT ro.name FROM roles ro
JOIN user_roles ur ON ur.role_id = ro.id
WHERE ur.user_id = $1 ORDER BY ro.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ RepositoryPort = (*Repository)(nil)
