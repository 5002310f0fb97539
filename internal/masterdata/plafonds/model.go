package plafonds

import (
	"time"
)

// Plafond represents a lending ceiling: the maximum principal and tenor a
// product tier may offer.
type Plafond struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	MaxAmount float64   `json:"maxAmount"`
	MaxTenor  int       `json:"maxTenor"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
