package customers

import (
	"errors"
	"time"
)

// CustomerDetail is the master-data record behind a loan applicant. UserID
// links the record to the account that applies for loans; loan rows reference
// the applicant through that user id.
type CustomerDetail struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	FullName    string    `json:"fullName"`
	NationalID  string    `json:"nationalId"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     string    `json:"address"`
	Job         string    `json:"job"`
	Salary      float64   `json:"salary"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var (
	// ErrNotFound indicates the customer record does not exist.
	ErrNotFound = errors.New("customers: not found")
)
