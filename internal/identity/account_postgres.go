// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openshelf/openshelf/internal/platform/apperr"
	"github.com/openshelf/openshelf/internal/platform/dberr"
)

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates the PostgreSQL implementation of [AccountRepository].
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// Create persists a new account row into identity.account.
func (repository *PostgresAccountRepository) Create(ctx context.Context, account *Account) error {
	const query = `
		INSERT INTO identity.account (
			subject_id, email, password_hash, username, full_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(ctx, query,
		account.SubjectID,
		account.Email,
		account.PasswordHash,
		account.Username,
		account.FullName,
		account.CreatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return fmt.Errorf("postgres_account_repo_create_failed: %w", err)
	}

	return nil
}

// FindByEmail retrieves an account by its unique email address.
func (repository *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	const query = `
		SELECT subject_id, email, password_hash, username, full_name, created_at
		FROM identity.account
		WHERE email = $1`

	account := &Account{}
	err := repository.pool.QueryRow(ctx, query, email).Scan(
		&account.SubjectID,
		&account.Email,
		&account.PasswordHash,
		&account.Username,
		&account.FullName,
		&account.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_email_failed: %w", err)
	}

	return account, nil
}

// FindBySubjectID retrieves an account by its subject id.
func (repository *PostgresAccountRepository) FindBySubjectID(ctx context.Context, subjectID string) (*Account, error) {
	const query = `
		SELECT subject_id, email, password_hash, username, full_name, created_at
		FROM identity.account
		WHERE subject_id = $1`

	account := &Account{}
	err := repository.pool.QueryRow(ctx, query, subjectID).Scan(
		&account.SubjectID,
		&account.Email,
		&account.PasswordHash,
		&account.Username,
		&account.FullName,
		&account.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_subject_failed: %w", err)
	}

	return account, nil
}

// UpdatePassword replaces only the password hash for an account.
func (repository *PostgresAccountRepository) UpdatePassword(ctx context.Context, subjectID, newHash string) error {
	const query = `
		UPDATE identity.account
		SET password_hash = $2
		WHERE subject_id = $1`

	tag, err := repository.pool.Exec(ctx, query, subjectID, newHash)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_password_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}
