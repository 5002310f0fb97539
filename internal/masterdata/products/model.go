package products

import (
	"time"
)

// Product represents a lending product: an interest/tenor template under a
// plafond ceiling that a loan application references.
type Product struct {
	ID           int64     `json:"id"`
	PlafondID    int64     `json:"plafondId"`
	Tenor        int       `json:"tenor"`
	InterestRate float64   `json:"interestRate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
