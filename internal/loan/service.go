package loan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nusalend/nusalend/internal/authz"
	"github.com/nusalend/nusalend/internal/shared"
)

// ListFilters narrows loan listings.
type ListFilters struct {
	Status     Status
	CustomerID int64
}

// ProductTerms carries the interest/tenor template a loan is created from.
type ProductTerms struct {
	ProductID    int64
	Tenor        int
	InterestRate float64
	PlafondName  string
	MaxAmount    float64
	MaxTenor     int
}

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetLoan(ctx context.Context, id uuid.UUID) (LoanApplication, error)
	ListLoans(ctx context.Context, filters ListFilters) ([]LoanApplication, error)
	ListHistory(ctx context.Context, id uuid.UUID) ([]StatusHistory, error)
	GetCustomer(ctx context.Context, customerID int64) (CustomerSummary, error)
	ListDocuments(ctx context.Context, id uuid.UUID) ([]Document, error)
	GetProductTerms(ctx context.Context, productID int64) (ProductTerms, error)
}

// TxRepository groups the mutations that must land atomically.
type TxRepository interface {
	CreateLoan(ctx context.Context, loan LoanApplication) error
	// UpdateLoanStatus advances the status only when the stored status
	// still equals from; otherwise it returns ErrInvalidTransition.
	UpdateLoanStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	AppendHistory(ctx context.Context, id uuid.UUID, entry StatusHistory) error
}

// AuditPort records console-wide audit entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts transition outcomes.
type MetricsPort interface {
	RecordTransition(action string, outcome string)
}

// Service is the single writer of loan application state.
type Service struct {
	repo        RepositoryPort
	locks       *shared.KeyedMutex
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	metrics     MetricsPort
	now         func() time.Time
}

// NewService constructs the loan service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, metrics MetricsPort) *Service {
	return &Service{
		repo:        repo,
		locks:       shared.NewKeyedMutex(),
		audit:       audit,
		idempotency: idem,
		metrics:     metrics,
		now:         time.Now,
	}
}

// CreateInput describes a new application.
type CreateInput struct {
	ProductID     int64
	PrincipalDebt float64
	Tenor         int
}

// Create registers a new application in status CREATED with its first
// history entry.
func (s *Service) Create(ctx context.Context, principal authz.Principal, input CreateInput) (LoanApplication, error) {
	if input.ProductID <= 0 {
		return LoanApplication{}, fmt.Errorf("%w: product required", ErrValidation)
	}
	if input.PrincipalDebt <= 0 {
		return LoanApplication{}, fmt.Errorf("%w: principal debt must be positive", ErrValidation)
	}
	if input.Tenor < 1 {
		return LoanApplication{}, fmt.Errorf("%w: tenor must be at least 1", ErrValidation)
	}

	terms, err := s.repo.GetProductTerms(ctx, input.ProductID)
	if err != nil {
		return LoanApplication{}, err
	}
	if input.PrincipalDebt > terms.MaxAmount {
		return LoanApplication{}, fmt.Errorf("%w: principal exceeds plafond %s limit", ErrValidation, terms.PlafondName)
	}
	if input.Tenor > terms.MaxTenor {
		return LoanApplication{}, fmt.Errorf("%w: tenor exceeds plafond %s limit", ErrValidation, terms.PlafondName)
	}

	total := round2(input.PrincipalDebt * (1 + terms.InterestRate/100))
	app := LoanApplication{
		ID:                 uuid.New(),
		Status:             StatusCreated,
		PrincipalDebt:      input.PrincipalDebt,
		OutstandingDebt:    total,
		InstallmentPayment: round2(total / float64(input.Tenor)),
		Tenor:              input.Tenor,
		InterestRate:       terms.InterestRate,
		ProductID:          input.ProductID,
		CustomerID:         principal.ID,
		CreatedAt:          s.now().UTC(),
	}
	entry := StatusHistory{
		Action:      StatusCreated,
		Note:        "Application submitted",
		PerformedBy: Performer{Username: principal.Username, Email: principal.Email},
		PerformedAt: app.CreatedAt,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.CreateLoan(ctx, app); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, app.ID, entry)
	})
	if err != nil {
		return LoanApplication{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.recordAudit(ctx, principal, "LOAN_CREATE", app.ID, map[string]any{"product_id": app.ProductID, "principal": app.PrincipalDebt})
	return app, nil
}

// Apply executes one workflow action against an application. Check order is
// fixed: resolve the transition, authorize the principal, validate
// preconditions, then commit status and history atomically. Concurrent
// applies on the same application are serialized by a per-id lock.
func (s *Service) Apply(ctx context.Context, principal authz.Principal, loanID uuid.UUID, action Action, note string) (LoanApplication, error) {
	unlock := s.locks.Lock(loanID.String())
	defer unlock()

	app, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return LoanApplication{}, err
	}

	tr, err := Resolve(app.Status, action)
	if err != nil {
		s.observe(action, err)
		return LoanApplication{}, err
	}

	if authz.Authorize(principal, tr.Permission) == authz.Deny {
		s.observe(action, ErrPermissionDenied)
		return LoanApplication{}, fmt.Errorf("%w: %s requires %s", ErrPermissionDenied, action, tr.Permission)
	}

	note = strings.TrimSpace(note)
	if tr.RequireNote && note == "" {
		s.observe(action, ErrValidation)
		return LoanApplication{}, fmt.Errorf("%w: a note is required to reject", ErrValidation)
	}

	entry := StatusHistory{
		Action:      tr.To,
		Note:        note,
		PerformedBy: Performer{Username: principal.Username, Email: principal.Email},
		PerformedAt: s.now().UTC(),
	}

	var insertedKey string
	if action == ActionDisburse && s.idempotency != nil {
		key := fmt.Sprintf("LOAN:%s:DISBURSE", loanID)
		if err := s.idempotency.CheckAndInsert(ctx, key, "loan.disburse"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				s.observe(action, ErrInvalidTransition)
				return LoanApplication{}, ErrInvalidTransition
			}
			s.observe(action, ErrPersistence)
			return LoanApplication{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		insertedKey = key
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateLoanStatus(ctx, loanID, tr.From, tr.To); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, loanID, entry)
	})
	if err != nil {
		if insertedKey != "" {
			_ = s.idempotency.Delete(ctx, insertedKey)
		}
		if errors.Is(err, ErrInvalidTransition) {
			s.observe(action, ErrInvalidTransition)
			return LoanApplication{}, ErrInvalidTransition
		}
		s.observe(action, ErrPersistence)
		return LoanApplication{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	app.Status = tr.To
	s.observe(action, nil)
	s.recordAudit(ctx, principal, "LOAN_"+string(action), loanID, map[string]any{"from": tr.From, "to": tr.To})
	return app, nil
}

// List returns applications matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]LoanApplication, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, filters.Status)
	}
	return s.repo.ListLoans(ctx, filters)
}

// GetDetail assembles the loan detail aggregate. Customer, documents and
// history are independent reads and fetched concurrently.
func (s *Service) GetDetail(ctx context.Context, loanID uuid.UUID) (Detail, error) {
	app, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Loan: app}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		history, err := s.repo.ListHistory(gctx, loanID)
		if err != nil {
			return err
		}
		detail.History = history
		return nil
	})
	g.Go(func() error {
		customer, err := s.repo.GetCustomer(gctx, app.CustomerID)
		if err != nil {
			return err
		}
		detail.Customer = customer
		return nil
	})
	g.Go(func() error {
		docs, err := s.repo.ListDocuments(gctx, loanID)
		if err != nil {
			return err
		}
		detail.Documents = docs
		return nil
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	return detail, nil
}

// AvailableActions lists the actions the principal may actually perform on
// the application in its current status.
func (s *Service) AvailableActions(app LoanApplication, principal authz.Principal) []Action {
	var actions []Action
	for _, action := range NextActions(app.Status) {
		perm, ok := RequiredPermission(action)
		if !ok {
			continue
		}
		if authz.Authorize(principal, perm).Allowed() {
			actions = append(actions, action)
		}
	}
	return actions
}

func (s *Service) observe(action Action, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownTransition):
		outcome = "unknown_transition"
	case errors.Is(err, ErrInvalidTransition):
		outcome = "invalid_transition"
	case errors.Is(err, ErrPermissionDenied):
		outcome = "denied"
	case errors.Is(err, ErrValidation):
		outcome = "validation"
	default:
		outcome = "persistence"
	}
	s.metrics.RecordTransition(string(action), outcome)
}

func (s *Service) recordAudit(ctx context.Context, principal authz.Principal, action string, loanID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  principal.ID,
		Action:   action,
		Entity:   "loan",
		EntityID: loanID.String(),
		Meta:     meta,
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
