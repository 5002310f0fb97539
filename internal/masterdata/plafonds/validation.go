package plafonds

import (
	"fmt"
	"strings"

	"github.com/nusalend/nusalend/internal/masterdata/shared"
)

func (s *Service) validate(p Plafond) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: plafond name", shared.ErrRequiredField)
	}
	if p.MaxAmount <= 0 {
		return fmt.Errorf("%w: max amount must be positive", shared.ErrValidation)
	}
	if p.MaxTenor < 1 {
		return fmt.Errorf("%w: max tenor must be at least 1", shared.ErrValidation)
	}
	return nil
}
