package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, user_id, full_name, national_id, phone_number, address, job, salary, created_at, updated_at`

// ListCustomers returns all customer records ordered by full name.
func (r *Repository) ListCustomers(ctx context.Context) ([]CustomerDetail, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customer_details ORDER BY full_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var customers []CustomerDetail
	for rows.Next() {
		var c CustomerDetail
		if err := rows.Scan(&c.ID, &c.UserID, &c.FullName, &c.NationalID, &c.PhoneNumber, &c.Address, &c.Job, &c.Salary, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// GetCustomer fetches one customer record by id.
func (r *Repository) GetCustomer(ctx context.Context, id int64) (CustomerDetail, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customer_details WHERE id = $1`, id)
	var c CustomerDetail
	if err := row.Scan(&c.ID, &c.UserID, &c.FullName, &c.NationalID, &c.PhoneNumber, &c.Address, &c.Job, &c.Salary, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CustomerDetail{}, ErrNotFound
		}
		return CustomerDetail{}, err
	}
	return c, nil
}

var _ RepositoryPort = (*Repository)(nil)
