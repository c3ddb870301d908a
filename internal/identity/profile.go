// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity

import (
	"context"
	"time"

	"github.com/openshelf/openshelf/internal/platform/sec"
)

// Profile is the library-owned row describing a session subject.
//
// # Invariants
//
// At most one Profile per UserID and at most one per Email, enforced by
// UNIQUE constraints in the profile repository — the reconciliation core
// relies on those constraints as its concurrency guard across devices
// signing up simultaneously.
type Profile struct {
	// UserID equals the session subject id.
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Role           sec.Role  `json:"role"`
	MembershipType string    `json:"membership_type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Defaults applied when the synchronizer creates a profile on first login.
const (
	// DefaultUsername is used when the session email has no local part.
	DefaultUsername = "user"

	// DefaultFullName is used when sign-up metadata carries no full name.
	DefaultFullName = "Unknown"

	// DefaultMembership is the membership tier assigned at creation.
	DefaultMembership = "regular"
)

// ProfileRepository defines the data access contract for library profiles.
//
// # Error Semantics
//
// Find methods return [apperr.NotFound] when no row matches. Insert must
// surface a distinguishable [apperr.Conflict] on a unique-constraint
// violation so the synchronizer can react specifically to duplicate-email
// races.
type ProfileRepository interface {
	// FindByUserID returns the profile whose user_id equals the session
	// subject id.
	FindByUserID(ctx context.Context, userID string) (*Profile, error)

	// FindByEmail returns the profile registered under the given email.
	FindByEmail(ctx context.Context, email string) (*Profile, error)

	// Insert persists a brand-new profile row.
	Insert(ctx context.Context, profile *Profile) error

	// Update persists changes to mutable profile fields.
	Update(ctx context.Context, profile *Profile) error

	// List returns a page of profiles ordered by creation time, plus the
	// total count. Used by the admin console.
	List(ctx context.Context, limit, offset int) ([]Profile, int, error)

	// UpdateRole changes only the authorization role of a profile.
	// Reserved for administrator actions.
	UpdateRole(ctx context.Context, userID string, role sec.Role) error
}
