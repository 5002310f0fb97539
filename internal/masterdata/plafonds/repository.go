package plafonds

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nusalend/nusalend/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Plafond, int, error)
	Get(ctx context.Context, id int64) (Plafond, error)
	Create(ctx context.Context, plafond Plafond) (Plafond, error)
	Update(ctx context.Context, id int64, plafond Plafond) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Plafond, int, error) {
	query := `SELECT id, name, max_amount, max_tenor, created_at, updated_at FROM plafonds WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.Search+"%")
	}

	countQuery := `SELECT COUNT(*) FROM plafonds WHERE 1=1`
	countArgs := []interface{}{}
	if filters.Search != "" {
		countQuery += ` AND name ILIKE $1`
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var plafonds []Plafond
	for rows.Next() {
		var p Plafond
		if err := rows.Scan(&p.ID, &p.Name, &p.MaxAmount, &p.MaxTenor, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		plafonds = append(plafonds, p)
	}
	return plafonds, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Plafond, error) {
	query := `SELECT id, name, max_amount, max_tenor, created_at, updated_at FROM plafonds WHERE id = $1`
	var p Plafond
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.MaxAmount, &p.MaxTenor, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plafond{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, plafond Plafond) (Plafond, error) {
	query := `INSERT INTO plafonds (name, max_amount, max_tenor, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query, plafond.Name, plafond.MaxAmount, plafond.MaxTenor, now, now).Scan(&plafond.ID)
	if err != nil {
		return Plafond{}, err
	}
	plafond.CreatedAt = now
	plafond.UpdatedAt = now
	return plafond, nil
}

func (r *repository) Update(ctx context.Context, id int64, plafond Plafond) error {
	query := `UPDATE plafonds SET name = $1, max_amount = $2, max_tenor = $3, updated_at = $4 WHERE id = $5`
	tag, err := r.db.Exec(ctx, query, plafond.Name, plafond.MaxAmount, plafond.MaxTenor, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM plafonds WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "max_amount":
		return "max_amount " + dir
	case "max_tenor":
		return "max_tenor " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
