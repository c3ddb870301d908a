// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity

import (
	"context"
	"time"
)

// Account holds the credentials the session store verifies on sign-in.
//
// # Separation from Profile
//
// The account row is owned by the auth layer; the [Profile] row is owned by
// the library. They share the subject id but nothing else — the profile is
// created lazily by the [Synchronizer] on first successful authentication,
// never by the session store itself.
type Account struct {
	SubjectID    string    `json:"subject_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Metadata returns the sign-up attributes in the shape sessions carry them.
func (a *Account) Metadata() map[string]string {
	metadata := map[string]string{}
	if a.Username != "" {
		metadata["username"] = a.Username
	}
	if a.FullName != "" {
		metadata["full_name"] = a.FullName
	}
	return metadata
}

// AccountRepository defines the data access contract for credentials.
type AccountRepository interface {
	// Create persists a new account. Returns [apperr.Conflict] if the
	// email is already registered.
	Create(ctx context.Context, account *Account) error

	// FindByEmail returns the account for a sign-in attempt.
	// Returns [apperr.NotFound] if no account exists.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindBySubjectID returns the account by its subject id.
	FindBySubjectID(ctx context.Context, subjectID string) (*Account, error)

	// UpdatePassword replaces only the password hash. Used by the
	// reset-password flow.
	UpdatePassword(ctx context.Context, subjectID, newHash string) error
}
