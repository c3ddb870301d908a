// Copyright (c) 2026 OpenShelf. All rights reserved.

package circulation

import "context"

// LoanRepository defines the persistence contract for loans and
// reservations.
//
// # Transactional Semantics
//
// Borrow and Return are atomic: the loan row and the book's availability
// change together or not at all. Implementations must lock the book row
// so concurrent borrows cannot oversubscribe the last copy.
type LoanRepository interface {
	// Borrow opens a loan for one copy. Fails with Unprocessable when no
	// copy is on the shelf, and with Conflict when the member already has
	// this book on loan.
	Borrow(ctx context.Context, userID, bookID string) (*Loan, error)

	// Return closes a loan and puts the copy back on the shelf. Fails
	// with NotFound for a loan the member does not hold, and with
	// Unprocessable when the loan is already returned.
	Return(ctx context.Context, userID, loanID string) (*Loan, error)

	// Reserve claims the next returned copy. Fails with Unprocessable
	// when a copy is on the shelf (borrow instead), and with Conflict on
	// a duplicate reservation.
	Reserve(ctx context.Context, userID, bookID string) (*Reservation, error)

	// ListByUser returns a member's loans, newest first. With activeOnly
	// set, returned loans are excluded.
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]*Loan, error)

	// ListReservationsByUser returns a member's open reservations.
	ListReservationsByUser(ctx context.Context, userID string) ([]*Reservation, error)

	// Stats returns the dashboard summary for a member.
	Stats(ctx context.Context, userID string) (*DashboardStats, error)
}
