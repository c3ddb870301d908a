// Copyright (c) 2026 OpenShelf. All rights reserved.

package circulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openshelf/openshelf/internal/platform/apperr"
	"github.com/openshelf/openshelf/internal/platform/dberr"
	"github.com/openshelf/openshelf/pkg/uuidv7"
)

// postgresLoanRepository implements [LoanRepository] using pgx.
type postgresLoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates the PostgreSQL implementation of [LoanRepository].
func NewLoanRepository(pool *pgxpool.Pool) LoanRepository {
	return &postgresLoanRepository{pool: pool}
}

const loanColumns = `
	l.id, l.user_id, l.book_id, l.borrowed_at, l.due_at, l.returned_at,
	b.id, b.title, b.author, b.cover_url`

// scanLoan reads one loan row with its joined book summary.
func scanLoan(row pgx.Row) (*Loan, error) {
	loan := &Loan{Book: &LoanBook{}}

	err := row.Scan(
		&loan.ID,
		&loan.UserID,
		&loan.BookID,
		&loan.BorrowedAt,
		&loan.DueAt,
		&loan.ReturnedAt,
		&loan.Book.ID,
		&loan.Book.Title,
		&loan.Book.Author,
		&loan.Book.CoverURL,
	)
	if err != nil {
		return nil, err
	}

	return loan, nil
}

/*
Borrow opens a loan for one copy of a book.

Description: Runs as a single transaction:

 1. Lock the book row (SELECT ... FOR UPDATE) so concurrent borrows of
    the last copy serialize.
 2. Verify a copy is on the shelf, otherwise Unprocessable.
 3. Insert the loan with a due date [LoanPeriod] out. The partial unique
    index on (user_id, book_id) for open loans rejects a second copy of
    the same title as Conflict.
 4. Decrement the available count.

Parameters:
  - ctx: context.Context
  - userID: string
  - bookID: string

Returns:
  - *Loan: The opened loan with its book summary
  - error: NotFound, Unprocessable, Conflict, or execution errors
*/
func (repository *postgresLoanRepository) Borrow(ctx context.Context, userID, bookID string) (*Loan, error) {
	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(ctx)

	var available int
	var title, author string
	var coverURL *string

	err = transaction.QueryRow(ctx, `
		SELECT available_copies, title, author, cover_url
		FROM library.books
		WHERE id = $1
		FOR UPDATE`, bookID,
	).Scan(&available, &title, &author, &coverURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Book")
		}
		return nil, fmt.Errorf("postgres_loan_repo_lock_failed: %w", err)
	}

	if available <= 0 {
		return nil, apperr.Unprocessable("No copies available; the book can be reserved instead")
	}

	now := time.Now().UTC()
	loan := &Loan{
		ID:         uuidv7.New(),
		UserID:     userID,
		BookID:     bookID,
		Book:       &LoanBook{ID: bookID, Title: title, Author: author, CoverURL: coverURL},
		BorrowedAt: now,
		DueAt:      now.Add(LoanPeriod),
	}

	_, err = transaction.Exec(ctx, `
		INSERT INTO library.loans (id, user_id, book_id, borrowed_at, due_at)
		VALUES ($1, $2, $3, $4, $5)`,
		loan.ID, loan.UserID, loan.BookID, loan.BorrowedAt, loan.DueAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("You already have this book on loan")
		}
		return nil, fmt.Errorf("postgres_loan_repo_insert_failed: %w", err)
	}

	_, err = transaction.Exec(ctx, `
		UPDATE library.books
		SET available_copies = available_copies - 1, updated_at = NOW()
		WHERE id = $1`, bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_decrement_failed: %w", err)
	}

	if err := transaction.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_commit_failed: %w", err)
	}

	return loan, nil
}

/*
Return closes a loan and puts the copy back on the shelf.

Description: The inverse transaction of Borrow: lock the loan, verify it
belongs to the member and is still open, stamp returned_at, increment the
book's availability.

Parameters:
  - ctx: context.Context
  - userID: string
  - loanID: string

Returns:
  - *Loan: The closed loan
  - error: NotFound, Unprocessable, or execution errors
*/
func (repository *postgresLoanRepository) Return(ctx context.Context, userID, loanID string) (*Loan, error) {
	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(ctx)

	loan, err := scanLoan(transaction.QueryRow(ctx, `
		SELECT `+loanColumns+`
		FROM library.loans l
		JOIN library.books b ON b.id = l.book_id
		WHERE l.id = $1 AND l.user_id = $2
		FOR UPDATE OF l`, loanID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Loan")
		}
		return nil, fmt.Errorf("postgres_loan_repo_load_failed: %w", err)
	}

	if loan.ReturnedAt != nil {
		return nil, apperr.Unprocessable("This loan has already been returned")
	}

	now := time.Now().UTC()
	loan.ReturnedAt = &now

	_, err = transaction.Exec(ctx, `
		UPDATE library.loans SET returned_at = $2 WHERE id = $1`, loanID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_close_failed: %w", err)
	}

	_, err = transaction.Exec(ctx, `
		UPDATE library.books
		SET available_copies = available_copies + 1, updated_at = NOW()
		WHERE id = $1`, loan.BookID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_increment_failed: %w", err)
	}

	if err := transaction.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_commit_failed: %w", err)
	}

	return loan, nil
}

/*
Reserve claims the next returned copy of a fully lent-out book.

Description: Locks the book row to read a stable availability count. A
book with a copy on the shelf cannot be reserved (borrow it instead).
The partial unique index on open reservations rejects duplicates.

Returns:
  - *Reservation: The open reservation
  - error: NotFound, Unprocessable, Conflict, or execution errors
*/
func (repository *postgresLoanRepository) Reserve(ctx context.Context, userID, bookID string) (*Reservation, error) {
	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(ctx)

	var available int
	var title, author string
	var coverURL *string

	err = transaction.QueryRow(ctx, `
		SELECT available_copies, title, author, cover_url
		FROM library.books
		WHERE id = $1
		FOR UPDATE`, bookID,
	).Scan(&available, &title, &author, &coverURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Book")
		}
		return nil, fmt.Errorf("postgres_loan_repo_lock_failed: %w", err)
	}

	if available > 0 {
		return nil, apperr.Unprocessable("Copies are available; borrow the book instead of reserving it")
	}

	reservation := &Reservation{
		ID:         uuidv7.New(),
		UserID:     userID,
		BookID:     bookID,
		Book:       &LoanBook{ID: bookID, Title: title, Author: author, CoverURL: coverURL},
		ReservedAt: time.Now().UTC(),
	}

	_, err = transaction.Exec(ctx, `
		INSERT INTO library.reservations (id, user_id, book_id, reserved_at)
		VALUES ($1, $2, $3, $4)`,
		reservation.ID, reservation.UserID, reservation.BookID, reservation.ReservedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("You already have a reservation for this book")
		}
		return nil, fmt.Errorf("postgres_loan_repo_reserve_failed: %w", err)
	}

	if err := transaction.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_commit_failed: %w", err)
	}

	return reservation, nil
}

// ListByUser returns a member's loans, newest first.
func (repository *postgresLoanRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]*Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM library.loans l
		JOIN library.books b ON b.id = l.book_id
		WHERE l.user_id = $1`
	if activeOnly {
		query += ` AND l.returned_at IS NULL`
	}
	query += ` ORDER BY l.borrowed_at DESC`

	rows, err := repository.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var loans []*Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_loan_repo_scan_failed: %w", err)
		}
		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_rows_failed: %w", err)
	}

	return loans, nil
}

// ListReservationsByUser returns a member's open reservations.
func (repository *postgresLoanRepository) ListReservationsByUser(ctx context.Context, userID string) ([]*Reservation, error) {
	const query = `
		SELECT r.id, r.user_id, r.book_id, r.reserved_at,
			b.id, b.title, b.author, b.cover_url
		FROM library.reservations r
		JOIN library.books b ON b.id = r.book_id
		WHERE r.user_id = $1 AND r.fulfilled_at IS NULL AND r.cancelled_at IS NULL
		ORDER BY r.reserved_at DESC`

	rows, err := repository.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_reservations_failed: %w", err)
	}
	defer rows.Close()

	var reservations []*Reservation
	for rows.Next() {
		reservation := &Reservation{Book: &LoanBook{}}
		err := rows.Scan(
			&reservation.ID,
			&reservation.UserID,
			&reservation.BookID,
			&reservation.ReservedAt,
			&reservation.Book.ID,
			&reservation.Book.Title,
			&reservation.Book.Author,
			&reservation.Book.CoverURL,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_loan_repo_reservation_scan_failed: %w", err)
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_reservation_rows_failed: %w", err)
	}

	return reservations, nil
}

// Stats returns the dashboard summary for a member in one round-trip.
func (repository *postgresLoanRepository) Stats(ctx context.Context, userID string) (*DashboardStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM library.books) AS total_books,
			COUNT(*) FILTER (WHERE l.returned_at IS NULL) AS borrowed_books,
			COUNT(*) FILTER (WHERE l.returned_at IS NULL AND l.due_at < NOW()) AS overdue_books
		FROM library.loans l
		WHERE l.user_id = $1`

	stats := &DashboardStats{}
	err := repository.pool.QueryRow(ctx, query, userID).
		Scan(&stats.TotalBooks, &stats.BorrowedBooks, &stats.OverdueBooks)
	if err != nil {
		return nil, fmt.Errorf("postgres_loan_repo_stats_failed: %w", err)
	}

	return stats, nil
}
