package loan

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nusalend/nusalend/internal/authz"
)

type memoryLoanRepo struct {
	mu        sync.Mutex
	loans     map[uuid.UUID]LoanApplication
	histories map[uuid.UUID][]StatusHistory
	customers map[int64]CustomerSummary
	documents map[uuid.UUID][]Document
	terms     map[int64]ProductTerms
	nextID    int64
	commitErr error
}

type memoryLoanTx struct {
	repo *memoryLoanRepo
}

func newMemoryLoanRepo() *memoryLoanRepo {
	return &memoryLoanRepo{
		loans:     make(map[uuid.UUID]LoanApplication),
		histories: make(map[uuid.UUID][]StatusHistory),
		customers: make(map[int64]CustomerSummary),
		documents: make(map[uuid.UUID][]Document),
		terms:     make(map[int64]ProductTerms),
	}
}

func (r *memoryLoanRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r.commitErr != nil {
		return r.commitErr
	}
	return fn(ctx, &memoryLoanTx{repo: r})
}

func (r *memoryLoanRepo) GetLoan(ctx context.Context, id uuid.UUID) (LoanApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.loans[id]
	if !ok {
		return LoanApplication{}, ErrNotFound
	}
	return app, nil
}

func (r *memoryLoanRepo) ListLoans(ctx context.Context, filters ListFilters) ([]LoanApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var apps []LoanApplication
	for _, app := range r.loans {
		if filters.Status != "" && app.Status != filters.Status {
			continue
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (r *memoryLoanRepo) ListHistory(ctx context.Context, id uuid.UUID) ([]StatusHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StatusHistory(nil), r.histories[id]...), nil
}

func (r *memoryLoanRepo) GetCustomer(ctx context.Context, customerID int64) (CustomerSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[customerID]
	if !ok {
		return CustomerSummary{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryLoanRepo) ListDocuments(ctx context.Context, id uuid.UUID) ([]Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Document(nil), r.documents[id]...), nil
}

func (r *memoryLoanRepo) GetProductTerms(ctx context.Context, productID int64) (ProductTerms, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	terms, ok := r.terms[productID]
	if !ok {
		return ProductTerms{}, ErrNotFound
	}
	return terms, nil
}

func (tx *memoryLoanTx) CreateLoan(ctx context.Context, app LoanApplication) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	tx.repo.loans[app.ID] = app
	return nil
}

func (tx *memoryLoanTx) UpdateLoanStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	app, ok := tx.repo.loans[id]
	if !ok || app.Status != from {
		return ErrInvalidTransition
	}
	app.Status = to
	tx.repo.loans[id] = app
	return nil
}

func (tx *memoryLoanTx) AppendHistory(ctx context.Context, id uuid.UUID, entry StatusHistory) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	tx.repo.nextID++
	entry.ID = tx.repo.nextID
	tx.repo.histories[id] = append(tx.repo.histories[id], entry)
	return nil
}

func seedLoan(repo *memoryLoanRepo, status Status) uuid.UUID {
	id := uuid.New()
	repo.loans[id] = LoanApplication{
		ID:            id,
		Status:        status,
		PrincipalDebt: 12_000_000,
		Tenor:         12,
		InterestRate:  10,
		ProductID:     1,
		CustomerID:    7,
	}
	return id
}

func reviewer() authz.Principal {
	return authz.NewPrincipal(10, "sari", "sari@nusalend.id", []authz.RoleGrant{
		{Name: "Marketing", Permissions: []string{authz.PermReviewLoan}},
	})
}

func approver() authz.Principal {
	return authz.NewPrincipal(11, "budi", "budi@nusalend.id", []authz.RoleGrant{
		{Name: "Branch Manager", Permissions: []string{authz.PermApproveLoan}},
	})
}

func disburser() authz.Principal {
	return authz.NewPrincipal(12, "tono", "tono@nusalend.id", []authz.RoleGrant{
		{Name: "Finance", Permissions: []string{authz.PermDisburseLoan}},
	})
}

func TestApplyReviewHappyPath(t *testing.T) {
	repo := newMemoryLoanRepo()
	id := seedLoan(repo, StatusCreated)
	svc := NewService(repo, nil, nil, nil)

	app, err := svc.Apply(context.Background(), reviewer(), id, ActionReview, "checked documents")
	require.NoError(t, err)
	require.Equal(t, StatusReviewed, app.Status)

	history := repo.histories[id]
	require.Len(t, history, 1)
	require.Equal(t, StatusReviewed, history[0].Action)
	require.Equal(t, "sari", history[0].PerformedBy.Username)
	require.Equal(t, "sari@nusalend.id", history[0].PerformedBy.Email)
}

func TestApplyDeniedWithoutPermission(t *testing.T) {
	repo := newMemoryLoanRepo()
	id := seedLoan(repo, StatusCreated)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	// Reviewer moves the application forward, then tries to approve it:
	// the transition is legal from REVIEWED but the permission is missing.
	_, err := svc.Apply(ctx, reviewer(), id, ActionReview, "")
	require.NoError(t, err)

	_, err = svc.Apply(ctx, reviewer(), id, ActionApprove, "")
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.Equal(t, StatusReviewed, repo.loans[id].Status)
	require.Len(t, repo.histories[id], 1)
}

func TestApplyRejectRequiresNote(t *testing.T) {
	repo := newMemoryLoanRepo()
	id := seedLoan(repo, StatusReviewed)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, approver(), id, ActionReject, "   ")
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, StatusReviewed, repo.loans[id].Status)
	require.Empty(t, repo.histories[id])

	app, err := svc.Apply(ctx, approver(), id, ActionReject, "insufficient income")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, app.Status)
	require.Len(t, repo.histories[id], 1)
	require.Equal(t, StatusRejected, repo.histories[id][0].Action)
	require.Equal(t, "insufficient income", repo.histories[id][0].Note)
}

func TestApplyDuplicateRequestRejected(t *testing.T) {
	repo := newMemoryLoanRepo()
	id := seedLoan(repo, StatusCreated)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, reviewer(), id, ActionReview, "")
	require.NoError(t, err)

	_, err = svc.Apply(ctx, reviewer(), id, ActionReview, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, StatusReviewed, repo.loans[id].Status)
	require.Len(t, repo.histories[id], 1)
}

func TestApplyUnknownActionLeavesStateUntouched(t *testing.T) {
	repo := newMemoryLoanRepo()
	id := seedLoan(repo, StatusCreated)
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Apply(context.Background(), reviewer(), id, Action("CANCEL"), "")
	require.ErrorIs(t, err, ErrUnknownTransition)
	require.Equal(t, StatusCreated, repo.loans[id].Status)
	require.Empty(t, repo.histories[id])
}

func TestApplyTerminalStatuses(t *testing.T) {
	repo := newMemoryLoanRepo()
	rejected := seedLoan(repo, StatusRejected)
	disbursed := seedLoan(repo, StatusDisbursed)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	all := authz.NewPrincipal(1, "root", "root@nusalend.id", []authz.RoleGrant{
		{Name: "Superuser", Permissions: authz.CatalogScopes()},
	})
	for _, id := range []uuid.UUID{rejected, disbursed} {
		for _, action := range []Action{ActionReview, ActionApprove, ActionReject, ActionDisburse} {
			_, err := svc.Apply(ctx, all, id, action, "note")
			require.ErrorIs(t, err, ErrInvalidTransition, "%s on %s", action, repo.loans[id].Status)
		}
	}
}

func TestApplyFullLifecycle(t *testing.T) {
	repo := newMemoryLoanRepo()
	id := seedLoan(repo, StatusCreated)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, reviewer(), id, ActionReview, "docs complete")
	require.NoError(t, err)
	_, err = svc.Apply(ctx, approver(), id, ActionApprove, "within plafond")
	require.NoError(t, err)
	app, err := svc.Apply(ctx, disburser(), id, ActionDisburse, "")
	require.NoError(t, err)
	require.Equal(t, StatusDisbursed, app.Status)

	history := repo.histories[id]
	require.Len(t, history, 3)
	require.Equal(t, StatusReviewed, history[0].Action)
	require.Equal(t, StatusApproved, history[1].Action)
	require.Equal(t, StatusDisbursed, history[2].Action)
}

func TestApplyPersistenceFailureRollsBack(t *testing.T) {
	repo := newMemoryLoanRepo()
	id := seedLoan(repo, StatusCreated)
	repo.commitErr = errors.New("connection reset")
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Apply(context.Background(), reviewer(), id, ActionReview, "")
	require.ErrorIs(t, err, ErrPersistence)
	require.Equal(t, StatusCreated, repo.loans[id].Status)
	require.Empty(t, repo.histories[id])
}

func TestApplyConcurrentSameLoan(t *testing.T) {
	repo := newMemoryLoanRepo()
	id := seedLoan(repo, StatusCreated)
	svc := NewService(repo, nil, nil, nil)

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Apply(context.Background(), reviewer(), id, ActionReview, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, invalid int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInvalidTransition):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, workers-1, invalid)
	require.Len(t, repo.histories[id], 1)
}

func TestCreateComputesTermsAndHistory(t *testing.T) {
	repo := newMemoryLoanRepo()
	repo.terms[1] = ProductTerms{ProductID: 1, Tenor: 12, InterestRate: 10, PlafondName: "Silver", MaxAmount: 50_000_000, MaxTenor: 24}
	svc := NewService(repo, nil, nil, nil)

	customer := authz.NewPrincipal(7, "rina", "rina@mail.id", []authz.RoleGrant{
		{Name: "Customer", Permissions: []string{authz.PermCreateLoan, authz.PermReadLoan}},
	})
	app, err := svc.Create(context.Background(), customer, CreateInput{ProductID: 1, PrincipalDebt: 12_000_000, Tenor: 12})
	require.NoError(t, err)
	require.Equal(t, StatusCreated, app.Status)
	require.Equal(t, 13_200_000.0, app.OutstandingDebt)
	require.Equal(t, 1_100_000.0, app.InstallmentPayment)
	require.Equal(t, int64(7), app.CustomerID)

	stored := repo.loans[app.ID]
	require.Equal(t, app, stored)
	history := repo.histories[app.ID]
	require.Len(t, history, 1)
	require.Equal(t, StatusCreated, history[0].Action)
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryLoanRepo()
	repo.terms[1] = ProductTerms{ProductID: 1, Tenor: 12, InterestRate: 10, PlafondName: "Silver", MaxAmount: 10_000_000, MaxTenor: 12}
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()
	customer := authz.NewPrincipal(7, "rina", "rina@mail.id", nil)

	_, err := svc.Create(ctx, customer, CreateInput{ProductID: 1, PrincipalDebt: 0, Tenor: 12})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, customer, CreateInput{ProductID: 1, PrincipalDebt: 1_000_000, Tenor: 0})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, customer, CreateInput{ProductID: 1, PrincipalDebt: 20_000_000, Tenor: 12})
	require.ErrorIs(t, err, ErrValidation, "principal above plafond limit")

	_, err = svc.Create(ctx, customer, CreateInput{ProductID: 1, PrincipalDebt: 1_000_000, Tenor: 36})
	require.ErrorIs(t, err, ErrValidation, "tenor above plafond limit")

	_, err = svc.Create(ctx, customer, CreateInput{ProductID: 99, PrincipalDebt: 1_000_000, Tenor: 6})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetDetailAggregates(t *testing.T) {
	repo := newMemoryLoanRepo()
	id := seedLoan(repo, StatusReviewed)
	customer := CustomerSummary{ID: 3, FullName: "Rina Wati", NationalID: "317501", Salary: 9_500_000}
	customer.User.ID = 7
	customer.User.Username = "rina"
	repo.customers[7] = customer
	repo.documents[id] = []Document{{ID: 1, Filename: "ktp.jpg", DocType: "KTP"}}
	repo.histories[id] = []StatusHistory{{ID: 1, Action: StatusCreated}, {ID: 2, Action: StatusReviewed}}
	svc := NewService(repo, nil, nil, nil)

	detail, err := svc.GetDetail(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, detail.Loan.ID)
	require.Equal(t, "Rina Wati", detail.Customer.FullName)
	require.Len(t, detail.Documents, 1)
	require.Len(t, detail.History, 2)
	require.Equal(t, StatusCreated, detail.History[0].Action)
}

func TestGetDetailResolvesCustomerByUserID(t *testing.T) {
	repo := newMemoryLoanRepo()
	id := seedLoan(repo, StatusCreated) // applicant user id 7
	customer := CustomerSummary{ID: 3, FullName: "Rina Wati"}
	customer.User.ID = 7

	// A customer row is addressed through the applicant's user id, never
	// through the row's own serial id.
	repo.customers[3] = customer
	_, err := detailOf(repo, id)
	require.ErrorIs(t, err, ErrNotFound)

	delete(repo.customers, 3)
	repo.customers[7] = customer
	detail, err := detailOf(repo, id)
	require.NoError(t, err)
	require.Equal(t, int64(3), detail.Customer.ID)
	require.Equal(t, int64(7), detail.Customer.User.ID)
}

func detailOf(repo *memoryLoanRepo, id uuid.UUID) (Detail, error) {
	return NewService(repo, nil, nil, nil).GetDetail(context.Background(), id)
}

func TestAvailableActions(t *testing.T) {
	svc := NewService(newMemoryLoanRepo(), nil, nil, nil)
	app := LoanApplication{Status: StatusReviewed}

	require.Equal(t, []Action{ActionApprove, ActionReject}, svc.AvailableActions(app, approver()))
	require.Empty(t, svc.AvailableActions(app, reviewer()))
	require.Empty(t, svc.AvailableActions(LoanApplication{Status: StatusDisbursed}, approver()))
}
