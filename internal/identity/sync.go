// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openshelf/openshelf/internal/platform/apperr"
	"github.com/openshelf/openshelf/internal/platform/metrics"
	"github.com/openshelf/openshelf/internal/platform/sec"
)

// Reconciliation outcome labels for the reconcile counter.
const (
	outcomeAdopted  = "adopted"
	outcomeCreated  = "created"
	outcomeConflict = "conflict"
	outcomeFailed   = "failed"
)

// Synchronizer guarantees that every session subject has exactly one
// library profile, and derives the authorization role from it.
//
// # Invariants
//
//  1. Reconcile is idempotent: re-running it for the same session never
//     creates a second profile or changes an existing one.
//  2. The profile row is the single source of truth for the role. Sessions
//     never carry role claims of their own.
//  3. On any failure the caller gets an error and no role. The role never
//     silently defaults — in particular never to admin.
type Synchronizer struct {
	profiles ProfileRepository
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewSynchronizer constructs a [Synchronizer].
func NewSynchronizer(profiles ProfileRepository, m *metrics.Metrics, log *slog.Logger) *Synchronizer {
	return &Synchronizer{
		profiles: profiles,
		metrics:  m,
		log:      log.With(slog.String("component", "profile_synchronizer")),
	}
}

/*
Reconcile resolves the library profile for a session, creating one on
first contact.

The lookup runs in two stages:

 1. By subject ID. A hit means the session has reconciled before; the
    existing profile is adopted unchanged.
 2. By email, skipped when the session carries none. A hit bound to the
    same subject is adopted. A hit bound to
    a DIFFERENT subject is a data-integrity conflict: the existing
    profile's role is still adopted (no second insert, which would
    violate the email uniqueness constraint), and the conflict is logged
    and counted so operators can repair the linkage.

When neither stage finds a row, a new profile is inserted with the
defaults: role user, membership regular, username from the sign-up
metadata or the email local part, full name from the metadata or
"Unknown". A unique-constraint conflict on that insert means a concurrent
reconciliation won the race; the subject lookup is retried once and the
winner's profile is adopted.
*/
func (synchronizer *Synchronizer) Reconcile(ctx context.Context, session *Session) (*Profile, error) {
	if session == nil || session.SubjectID == "" {
		return nil, apperr.Unauthorized("No session to reconcile")
	}

	// ── 1. Look up by subject ID ──

	profile, err := synchronizer.profiles.FindByUserID(ctx, session.SubjectID)
	if err == nil {
		synchronizer.count(outcomeAdopted)
		return profile, nil
	}
	if !apperr.IsCode(err, "NOT_FOUND") {
		synchronizer.count(outcomeFailed)
		return nil, fmt.Errorf("reconcile_subject_lookup_failed: %w", err)
	}

	// ── 2. Look up by email, when the session carries one ──

	if session.Email != "" {
		profile, err = synchronizer.profiles.FindByEmail(ctx, session.Email)
		if err == nil {
			if profile.UserID == session.SubjectID {
				synchronizer.count(outcomeAdopted)
				return profile, nil
			}

			// Email already bound to a different subject. Adopt the existing
			// row's role rather than inserting a duplicate email, and surface
			// the mismatch for operators.
			synchronizer.log.Warn("email bound to a different subject",
				slog.String("email", session.Email),
				slog.String("session_subject", session.SubjectID),
				slog.String("profile_subject", profile.UserID),
			)
			if synchronizer.metrics != nil {
				synchronizer.metrics.EmailConflicts.Inc()
			}
			synchronizer.count(outcomeConflict)
			return profile, nil
		}
		if !apperr.IsCode(err, "NOT_FOUND") {
			synchronizer.count(outcomeFailed)
			return nil, fmt.Errorf("reconcile_email_lookup_failed: %w", err)
		}
	}

	// ── 3. First contact: insert with defaults ──

	profile = defaultProfile(session)

	if err := synchronizer.profiles.Insert(ctx, profile); err != nil {
		if apperr.IsCode(err, "CONFLICT") {
			// A concurrent reconciliation for the same session inserted
			// first. Adopt its row.
			winner, lookupErr := synchronizer.profiles.FindByUserID(ctx, session.SubjectID)
			if lookupErr == nil {
				synchronizer.count(outcomeAdopted)
				return winner, nil
			}
			synchronizer.count(outcomeFailed)
			return nil, fmt.Errorf("reconcile_insert_conflict_unresolved: %w", err)
		}
		synchronizer.count(outcomeFailed)
		return nil, fmt.Errorf("reconcile_insert_failed: %w", err)
	}

	synchronizer.log.Info("profile created",
		slog.String("subject", session.SubjectID),
		slog.String("username", profile.Username),
	)
	synchronizer.count(outcomeCreated)
	return profile, nil
}

// defaultProfile builds the first-contact profile row for a session.
func defaultProfile(session *Session) *Profile {
	username := session.Metadata["username"]
	if username == "" {
		username = emailLocalPart(session.Email)
	}
	if username == "" {
		username = DefaultUsername
	}

	fullName := session.Metadata["full_name"]
	if fullName == "" {
		fullName = DefaultFullName
	}

	return &Profile{
		UserID:         session.SubjectID,
		Email:          session.Email,
		Username:       username,
		FullName:       fullName,
		Role:           sec.RoleUser,
		MembershipType: DefaultMembership,
	}
}

// emailLocalPart returns the part of an address before the "@", or "".
func emailLocalPart(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return ""
	}
	return email[:at]
}

// count records a reconciliation outcome. Metrics are optional in tests.
func (synchronizer *Synchronizer) count(outcome string) {
	if synchronizer.metrics != nil {
		synchronizer.metrics.ReconcileTotal.WithLabelValues(outcome).Inc()
	}
}
