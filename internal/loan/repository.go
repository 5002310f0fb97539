package loan

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetLoan fetches an application by id.
func (r *Repository) GetLoan(ctx context.Context, id uuid.UUID) (LoanApplication, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, status, principal_debt, outstanding_debt, installment_payment, tenor, interest_rate, product_id, customer_id, created_at
FROM loans WHERE id = $1`, id)
	var app LoanApplication
	if err := row.Scan(&app.ID, &app.Status, &app.PrincipalDebt, &app.OutstandingDebt, &app.InstallmentPayment, &app.Tenor, &app.InterestRate, &app.ProductID, &app.CustomerID, &app.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoanApplication{}, ErrNotFound
		}
		return LoanApplication{}, err
	}
	return app, nil
}

// ListLoans returns applications matching the filters, newest first.
func (r *Repository) ListLoans(ctx context.Context, filters ListFilters) ([]LoanApplication, error) {
	query := `SELECT id, status, principal_debt, outstanding_debt, installment_payment, tenor, interest_rate, product_id, customer_id, created_at
FROM loans WHERE ($1 = '' OR status = $1) AND ($2 = 0 OR customer_id = $2) ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, string(filters.Status), filters.CustomerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var apps []LoanApplication
	for rows.Next() {
		var app LoanApplication
		if err := rows.Scan(&app.ID, &app.Status, &app.PrincipalDebt, &app.OutstandingDebt, &app.InstallmentPayment, &app.Tenor, &app.InterestRate, &app.ProductID, &app.CustomerID, &app.CreatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// ListHistory returns the chronological status trail for an application.
func (r *Repository) ListHistory(ctx context.Context, id uuid.UUID) ([]StatusHistory, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, action, note, performed_by_username, performed_by_email, performed_at
FROM loan_status_histories WHERE loan_id = $1 ORDER BY performed_at ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []StatusHistory
	for rows.Next() {
		var entry StatusHistory
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Note, &entry.PerformedBy.Username, &entry.PerformedBy.Email, &entry.PerformedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetCustomer fetches customer master data together with its account info.
func (r *Repository) GetCustomer(ctx context.Context, customerID int64) (CustomerSummary, error) {
	row := r.pool.QueryRow(ctx, `SELECT c.id, c.full_name, c.national_id, c.phone_number, c.address, c.job, c.salary, u.id, u.username, u.email
FROM customer_details c JOIN users u ON u.id = c.user_id WHERE c.user_id = $1`, customerID)
	var c CustomerSummary
	if err := row.Scan(&c.ID, &c.FullName, &c.NationalID, &c.PhoneNumber, &c.Address, &c.Job, &c.Salary, &c.User.ID, &c.User.Username, &c.User.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CustomerSummary{}, ErrNotFound
		}
		return CustomerSummary{}, err
	}
	return c, nil
}

// ListDocuments returns supporting documents attached to an application.
func (r *Repository) ListDocuments(ctx context.Context, id uuid.UUID) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, filename, file_uri, doc_type, content_type, size
FROM loan_documents WHERE loan_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.FileURI, &doc.DocType, &doc.ContentType, &doc.Size); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetProductTerms resolves the product template and its plafond limits.
func (r *Repository) GetProductTerms(ctx context.Context, productID int64) (ProductTerms, error) {
	row := r.pool.QueryRow(ctx, `SELECT p.id, p.tenor, p.interest_rate, pl.name, pl.max_amount, pl.max_tenor
FROM products p JOIN plafonds pl ON pl.id = p.plafond_id WHERE p.id = $1`, productID)
	var terms ProductTerms
	if err := row.Scan(&terms.ProductID, &terms.Tenor, &terms.InterestRate, &terms.PlafondName, &terms.MaxAmount, &terms.MaxTenor); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductTerms{}, ErrNotFound
		}
		return ProductTerms{}, err
	}
	return terms, nil
}

// CreateLoan inserts a new application row.
func (t *txRepo) CreateLoan(ctx context.Context, app LoanApplication) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO loans (id, status, principal_debt, outstanding_debt, installment_payment, tenor, interest_rate, product_id, customer_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		app.ID, app.Status, app.PrincipalDebt, app.OutstandingDebt, app.InstallmentPayment, app.Tenor, app.InterestRate, app.ProductID, app.CustomerID, app.CreatedAt)
	return err
}

// UpdateLoanStatus performs the guarded status advance. The WHERE clause on
// the source status makes a lost-update impossible: zero affected rows means
// the application moved on and the transition is reported invalid.
func (t *txRepo) UpdateLoanStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE loans SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// AppendHistory inserts one history entry.
func (t *txRepo) AppendHistory(ctx context.Context, id uuid.UUID, entry StatusHistory) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO loan_status_histories (loan_id, action, note, performed_by_username, performed_by_email, performed_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		id, entry.Action, entry.Note, entry.PerformedBy.Username, entry.PerformedBy.Email, entry.PerformedAt)
	return err
}

var _ RepositoryPort = (*Repository)(nil)
var _ TxRepository = (*txRepo)(nil)
