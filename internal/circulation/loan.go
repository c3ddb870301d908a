// Copyright (c) 2026 OpenShelf. All rights reserved.

/*
Package circulation implements lending: borrowing, returning, reserving,
and the member dashboard that summarizes them.

# Architecture

Availability arithmetic lives exclusively in this package's PostgreSQL
transactions. A borrow is one transaction that locks the book row, checks
a copy is on the shelf, inserts the loan, and decrements the count; a
return is the inverse. The catalogue never touches availability on its
own, so the 0 <= available <= total invariant has a single owner.
*/
package circulation

import "time"

// LoanPeriod is how long a borrowed book may be kept before it is overdue.
const LoanPeriod = 14 * 24 * time.Hour

// LoanStatus is the lifecycle state of a loan, derived from its
// timestamps rather than stored.
type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanOverdue  LoanStatus = "overdue"
	LoanReturned LoanStatus = "returned"
)

// LoanBook is the slice of catalogue data carried on a loan for display.
type LoanBook struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	CoverURL *string `json:"cover_url"`
}

// Loan records one member borrowing one copy of a book.
type Loan struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	BookID string `json:"book_id"`

	Book *LoanBook `json:"book,omitempty"`

	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at"`
}

// Status derives the lifecycle state at the given instant.
func (loan *Loan) Status(now time.Time) LoanStatus {
	if loan.ReturnedAt != nil {
		return LoanReturned
	}
	if now.After(loan.DueAt) {
		return LoanOverdue
	}
	return LoanActive
}

// Reservation is a member's claim on the next returned copy of a book
// that currently has none on the shelf.
type Reservation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	BookID     string    `json:"book_id"`
	Book       *LoanBook `json:"book,omitempty"`
	ReservedAt time.Time `json:"reserved_at"`
}

// DashboardStats is the member dashboard summary.
type DashboardStats struct {
	TotalBooks    int `json:"total_books"`
	BorrowedBooks int `json:"borrowed_books"`
	OverdueBooks  int `json:"overdue_books"`
}
