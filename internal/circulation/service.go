// Copyright (c) 2026 OpenShelf. All rights reserved.

package circulation

import (
	"context"
	"time"

	"github.com/openshelf/openshelf/internal/platform/validate"
)

// Service implements the lending use cases.
type Service struct {
	loans LoanRepository
}

// NewService constructs a circulation [Service].
func NewService(loans LoanRepository) *Service {
	return &Service{loans: loans}
}

// Borrow lends one copy of a book to a member for [LoanPeriod].
func (service *Service) Borrow(ctx context.Context, userID, bookID string) (*Loan, error) {
	validator := &validate.Validator{}
	if err := validator.UUID("book_id", bookID).Err(); err != nil {
		return nil, err
	}
	return service.loans.Borrow(ctx, userID, bookID)
}

// Return closes a member's loan and restores the copy to the shelf.
func (service *Service) Return(ctx context.Context, userID, loanID string) (*Loan, error) {
	validator := &validate.Validator{}
	if err := validator.UUID("loan_id", loanID).Err(); err != nil {
		return nil, err
	}
	return service.loans.Return(ctx, userID, loanID)
}

// Reserve claims the next returned copy of a fully lent-out book.
func (service *Service) Reserve(ctx context.Context, userID, bookID string) (*Reservation, error) {
	validator := &validate.Validator{}
	if err := validator.UUID("book_id", bookID).Err(); err != nil {
		return nil, err
	}
	return service.loans.Reserve(ctx, userID, bookID)
}

// Dashboard is the member dashboard payload: the summary counters plus
// the loans and reservations the page renders.
type Dashboard struct {
	Stats        *DashboardStats `json:"stats"`
	Loans        []*LoanView     `json:"loans"`
	Reservations []*Reservation  `json:"reservations"`
}

// LoanView decorates a loan with its derived status for display.
type LoanView struct {
	*Loan
	Status LoanStatus `json:"status"`
}

// GetDashboard assembles the member dashboard.
func (service *Service) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	stats, err := service.loans.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	loans, err := service.loans.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	reservations, err := service.loans.ListReservationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	views := make([]*LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, &LoanView{Loan: loan, Status: loan.Status(now)})
	}

	return &Dashboard{Stats: stats, Loans: views, Reservations: reservations}, nil
}

// ListLoans returns a member's loan history, newest first, with derived
// statuses.
func (service *Service) ListLoans(ctx context.Context, userID string) ([]*LoanView, error) {
	loans, err := service.loans.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	views := make([]*LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, &LoanView{Loan: loan, Status: loan.Status(now)})
	}

	return views, nil
}
