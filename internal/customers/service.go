package customers

import "context"

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	ListCustomers(ctx context.Context) ([]CustomerDetail, error)
	GetCustomer(ctx context.Context, id int64) (CustomerDetail, error)
}

// Service serves the read-only customer master data screens.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the customer service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all customer records.
func (s *Service) List(ctx context.Context) ([]CustomerDetail, error) {
	return s.repo.ListCustomers(ctx)
}

// Get fetches one customer record by its id.
func (s *Service) Get(ctx context.Context, id int64) (CustomerDetail, error) {
	if id <= 0 {
		return CustomerDetail{}, ErrNotFound
	}
	return s.repo.GetCustomer(ctx, id)
}
