// Package loan implements the loan application lifecycle: a finite state
// machine over application statuses where every transition is gated by a
// permission check and recorded in an append-only status history.
package loan

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status enumerates the loan application lifecycle states. CREATED is the
// sole initial state; REJECTED and DISBURSED are terminal.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusReviewed  Status = "REVIEWED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusDisbursed Status = "DISBURSED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusReviewed, StatusApproved, StatusRejected, StatusDisbursed:
		return true
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusDisbursed
}

// Action enumerates the workflow verbs callers may request.
type Action string

const (
	ActionReview   Action = "REVIEW"
	ActionApprove  Action = "APPROVE"
	ActionReject   Action = "REJECT"
	ActionDisburse Action = "DISBURSE"
)

// LoanApplication is the workflow entity. It is owned by the Service once
// created and mutated only through validated transitions.
type LoanApplication struct {
	ID                 uuid.UUID `json:"id"`
	Status             Status    `json:"status"`
	PrincipalDebt      float64   `json:"principalDebt"`
	OutstandingDebt    float64   `json:"outstandingDebt"`
	InstallmentPayment float64   `json:"installmentPayment"`
	Tenor              int       `json:"tenor"`
	InterestRate       float64   `json:"interestRate"`
	ProductID          int64     `json:"productId"`
	CustomerID         int64     `json:"customerId"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Performer identifies the principal that executed a transition.
type Performer struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// StatusHistory is one entry of a loan's chronological audit trail. Entries
// are append-only and never edited or removed.
type StatusHistory struct {
	ID          int64     `json:"id"`
	Action      Status    `json:"action"`
	Note        string    `json:"note"`
	PerformedBy Performer `json:"performedBy"`
	PerformedAt time.Time `json:"performedAt"`
}

// CustomerSummary is the slice of customer master data shown on the loan
// detail screen.
type CustomerSummary struct {
	ID          int64   `json:"id"`
	FullName    string  `json:"fullName"`
	NationalID  string  `json:"nationalId"`
	PhoneNumber string  `json:"phoneNumber"`
	Address     string  `json:"address"`
	Job         string  `json:"job"`
	Salary      float64 `json:"salary"`
	User        struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

// Document is an uploaded supporting file attached to an application.
type Document struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	FileURI     string `json:"fileUri"`
	DocType     string `json:"docType"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Detail aggregates everything the loan detail screen needs.
type Detail struct {
	Loan      LoanApplication `json:"loan"`
	Customer  CustomerSummary `json:"customerDetail"`
	Documents []Document      `json:"documents"`
	History   []StatusHistory `json:"loanStatusHistories"`
}

var (
	// ErrNotFound indicates the application does not exist.
	ErrNotFound = errors.New("loan: not found")
	// ErrUnknownTransition indicates the requested action is not a
	// workflow verb at all.
	ErrUnknownTransition = errors.New("loan: unknown transition")
	// ErrInvalidTransition occurs when the action is known but the
	// application is not in the required source status, including
	// duplicate requests after a transition already succeeded.
	ErrInvalidTransition = errors.New("loan: invalid state transition")
	// ErrPermissionDenied occurs when the transition is valid but the
	// principal lacks the required permission.
	ErrPermissionDenied = errors.New("loan: permission denied")
	// ErrValidation indicates an action-specific precondition was unmet.
	ErrValidation = errors.New("loan: invalid input")
	// ErrPersistence wraps a store failure at the commit boundary; the
	// in-memory state is left untouched when it is returned.
	ErrPersistence = errors.New("loan: persistence failure")
)
