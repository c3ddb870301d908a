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
	"github.com/openshelf/openshelf/internal/platform/sec"
)

// PostgresProfileRepository implements [ProfileRepository] using pgx.
type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates the PostgreSQL implementation of [ProfileRepository].
func NewProfileRepository(pool *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

const profileColumns = `user_id, email, username, full_name, role, membership_type, created_at, updated_at`

// scanProfile reads one profile row from a pgx row scanner.
func scanProfile(row pgx.Row) (*Profile, error) {
	profile := &Profile{}
	err := row.Scan(
		&profile.UserID,
		&profile.Email,
		&profile.Username,
		&profile.FullName,
		&profile.Role,
		&profile.MembershipType,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// FindByUserID retrieves a profile by the session subject id.
//
// # Returns
//
// Returns [*Profile] if found, or [apperr.NotFound] if no profile exists.
func (repository *PostgresProfileRepository) FindByUserID(ctx context.Context, userID string) (*Profile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM library.users
		WHERE user_id = $1`

	profile, err := scanProfile(repository.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Profile")
		}
		return nil, fmt.Errorf("postgres_profile_repo_find_by_user_id_failed: %w", err)
	}

	return profile, nil
}

// FindByEmail retrieves a profile by its unique email address.
func (repository *PostgresProfileRepository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM library.users
		WHERE email = $1`

	profile, err := scanProfile(repository.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Profile")
		}
		return nil, fmt.Errorf("postgres_profile_repo_find_by_email_failed: %w", err)
	}

	return profile, nil
}

// Insert persists a new profile row.
//
// # Conflicts
//
// A unique-constraint violation (duplicate user_id or email) is returned as
// [apperr.Conflict] so the synchronizer can distinguish a duplicate-email
// race from an infrastructure failure.
func (repository *PostgresProfileRepository) Insert(ctx context.Context, profile *Profile) error {
	const query = `
		INSERT INTO library.users (
			user_id, email, username, full_name, role, membership_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		profile.UserID,
		profile.Email,
		profile.Username,
		profile.FullName,
		profile.Role,
		profile.MembershipType,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Profile already exists for this email or subject")
		}
		return fmt.Errorf("postgres_profile_repo_insert_failed: %w", err)
	}

	return nil
}

// Update persists changes to mutable profile fields (never the role).
func (repository *PostgresProfileRepository) Update(ctx context.Context, profile *Profile) error {
	const query = `
		UPDATE library.users
		SET username = $2, full_name = $3, membership_type = $4, updated_at = $5
		WHERE user_id = $1`

	profile.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(ctx, query,
		profile.UserID,
		profile.Username,
		profile.FullName,
		profile.MembershipType,
		profile.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_profile_repo_update_failed: %w", err)
	}

	return nil
}

// List returns a page of profiles ordered by creation time plus the total count.
func (repository *PostgresProfileRepository) List(ctx context.Context, limit, offset int) ([]Profile, int, error) {
	const query = `
		SELECT ` + profileColumns + `, COUNT(*) OVER() AS total
		FROM library.users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_profile_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	total := 0

	for rows.Next() {
		var profile Profile
		if err := rows.Scan(
			&profile.UserID,
			&profile.Email,
			&profile.Username,
			&profile.FullName,
			&profile.Role,
			&profile.MembershipType,
			&profile.CreatedAt,
			&profile.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_profile_repo_list_scan_failed: %w", err)
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_profile_repo_list_rows_failed: %w", err)
	}

	return profiles, total, nil
}

// UpdateRole changes only the authorization role. Administrator action.
func (repository *PostgresProfileRepository) UpdateRole(ctx context.Context, userID string, role sec.Role) error {
	const query = `
		UPDATE library.users
		SET role = $2, updated_at = $3
		WHERE user_id = $1`

	tag, err := repository.pool.Exec(ctx, query, userID, role, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_profile_repo_update_role_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Profile")
	}

	return nil
}
