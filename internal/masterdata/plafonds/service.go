package plafonds

import (
	"context"

	"github.com/nusalend/nusalend/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Plafond, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Plafond, error) {
	if id <= 0 {
		return Plafond{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, plafond Plafond) (Plafond, error) {
	if err := s.validate(plafond); err != nil {
		return Plafond{}, err
	}
	return s.repo.Create(ctx, plafond)
}

func (s *Service) Update(ctx context.Context, id int64, plafond Plafond) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(plafond); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, plafond)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}
