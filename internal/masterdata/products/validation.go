package products

import (
	"fmt"

	"github.com/nusalend/nusalend/internal/masterdata/shared"
)

func (s *Service) validate(p Product) error {
	if p.PlafondID <= 0 {
		return fmt.Errorf("%w: plafond id", shared.ErrRequiredField)
	}
	if p.Tenor < 1 {
		return fmt.Errorf("%w: tenor must be at least 1", shared.ErrValidation)
	}
	if p.InterestRate < 0 || p.InterestRate > 100 {
		return fmt.Errorf("%w: interest rate must be between 0 and 100", shared.ErrValidation)
	}
	return nil
}
