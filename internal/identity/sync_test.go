// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/identity"
	"github.com/openshelf/openshelf/internal/platform/apperr"
	"github.com/openshelf/openshelf/internal/platform/sec"
)

// fakeProfiles is an in-memory ProfileRepository.
type fakeProfiles struct {
	mu      sync.Mutex
	byUser  map[string]*identity.Profile
	byEmail map[string]*identity.Profile

	insertErr   error
	lookupErr   error
	insertCalls int
	emailCalls  int

	// userMisses makes the next N FindByUserID calls return NotFound even
	// when a row exists, to stage lookup/insert races.
	userMisses int

	// blockFind, when set, stalls FindByUserID until the channel closes.
	blockFind chan struct{}
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		byUser:  map[string]*identity.Profile{},
		byEmail: map[string]*identity.Profile{},
	}
}

func (f *fakeProfiles) put(profile *identity.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[profile.UserID] = profile
	f.byEmail[profile.Email] = profile
}

func (f *fakeProfiles) FindByUserID(ctx context.Context, userID string) (*identity.Profile, error) {
	if f.blockFind != nil {
		<-f.blockFind
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if f.userMisses > 0 {
		f.userMisses--
		return nil, apperr.NotFound("Profile")
	}
	if profile, ok := f.byUser[userID]; ok {
		return profile, nil
	}
	return nil, apperr.NotFound("Profile")
}

func (f *fakeProfiles) FindByEmail(ctx context.Context, email string) (*identity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailCalls++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if profile, ok := f.byEmail[email]; ok {
		return profile, nil
	}
	return nil, apperr.NotFound("Profile")
}

func (f *fakeProfiles) Insert(ctx context.Context, profile *identity.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, exists := f.byUser[profile.UserID]; exists {
		return apperr.Conflict("Profile already exists for this email or subject")
	}
	if _, exists := f.byEmail[profile.Email]; exists {
		return apperr.Conflict("Profile already exists for this email or subject")
	}
	f.byUser[profile.UserID] = profile
	f.byEmail[profile.Email] = profile
	return nil
}

func (f *fakeProfiles) Update(ctx context.Context, profile *identity.Profile) error {
	f.put(profile)
	return nil
}

func (f *fakeProfiles) List(ctx context.Context, limit, offset int) ([]identity.Profile, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []identity.Profile
	for _, profile := range f.byUser {
		out = append(out, *profile)
	}
	return out, len(out), nil
}

func (f *fakeProfiles) UpdateRole(ctx context.Context, userID string, role sec.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.byUser[userID]
	if !ok {
		return apperr.NotFound("Profile")
	}
	profile.Role = role
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSynchronizer(profiles *fakeProfiles) *identity.Synchronizer {
	return identity.NewSynchronizer(profiles, nil, testLogger())
}

/*
TestSynchronizer_FirstContact verifies that an unseen session gets a
profile with the documented defaults.
*/
func TestSynchronizer_FirstContact(t *testing.T) {
	tests := []struct {
		name         string
		session      *identity.Session
		wantUsername string
		wantFullName string
	}{
		{
			name: "metadata_wins",
			session: &identity.Session{
				SubjectID: "subject-1",
				Email:     "ada@example.com",
				Metadata:  map[string]string{"username": "ada", "full_name": "Ada Lovelace"},
			},
			wantUsername: "ada",
			wantFullName: "Ada Lovelace",
		},
		{
			name: "email_local_part_fallback",
			session: &identity.Session{
				SubjectID: "subject-2",
				Email:     "grace@example.com",
			},
			wantUsername: "grace",
			wantFullName: "Unknown",
		},
		{
			name: "bare_defaults_without_email",
			session: &identity.Session{
				SubjectID: "subject-3",
				Email:     "",
			},
			wantUsername: "user",
			wantFullName: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := newFakeProfiles()
			synchronizer := newSynchronizer(profiles)

			profile, err := synchronizer.Reconcile(context.Background(), tt.session)
			require.NoError(t, err)

			assert.Equal(t, tt.session.SubjectID, profile.UserID)
			assert.Equal(t, tt.wantUsername, profile.Username)
			assert.Equal(t, tt.wantFullName, profile.FullName)
			assert.Equal(t, sec.RoleUser, profile.Role)
			assert.Equal(t, "regular", profile.MembershipType)
		})
	}
}

/*
TestSynchronizer_Idempotent verifies that reconciling the same session
twice adopts the first profile instead of creating a second one.
*/
func TestSynchronizer_Idempotent(t *testing.T) {
	profiles := newFakeProfiles()
	synchronizer := newSynchronizer(profiles)
	session := &identity.Session{SubjectID: "subject-1", Email: "ada@example.com"}

	first, err := synchronizer.Reconcile(context.Background(), session)
	require.NoError(t, err)

	second, err := synchronizer.Reconcile(context.Background(), session)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, profiles.insertCalls)
}

/*
TestSynchronizer_AdoptsExistingRole verifies that reconciliation never
resets a role that an admin has promoted.
*/
func TestSynchronizer_AdoptsExistingRole(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.put(&identity.Profile{
		UserID: "subject-1",
		Email:  "root@example.com",
		Role:   sec.RoleAdmin,
	})
	synchronizer := newSynchronizer(profiles)

	profile, err := synchronizer.Reconcile(context.Background(), &identity.Session{
		SubjectID: "subject-1",
		Email:     "root@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, profile.Role)
	assert.Equal(t, 0, profiles.insertCalls)
}

/*
TestSynchronizer_EmailConflict verifies the data-integrity branch: when
the email belongs to a different subject, the existing profile's role is
adopted and no insert is attempted.
*/
func TestSynchronizer_EmailConflict(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.put(&identity.Profile{
		UserID: "old-subject",
		Email:  "shared@example.com",
		Role:   sec.RoleAdmin,
	})
	synchronizer := newSynchronizer(profiles)

	profile, err := synchronizer.Reconcile(context.Background(), &identity.Session{
		SubjectID: "new-subject",
		Email:     "shared@example.com",
	})
	require.NoError(t, err)

	// Existing row wins: its role, its subject. No duplicate was created.
	assert.Equal(t, "old-subject", profile.UserID)
	assert.Equal(t, sec.RoleAdmin, profile.Role)
	assert.Equal(t, 0, profiles.insertCalls)
}

/*
TestSynchronizer_InsertRace verifies that losing a concurrent
first-contact insert adopts the winner's row.
*/
func TestSynchronizer_InsertRace(t *testing.T) {
	profiles := newFakeProfiles()
	synchronizer := newSynchronizer(profiles)

	winner := &identity.Profile{
		UserID: "subject-1",
		Email:  "ada@example.com",
		Role:   sec.RoleUser,
	}

	// Simulate the race: the initial subject lookup misses, the insert then
	// fails with Conflict, and the retry lookup finds the winner's row.
	profiles.userMisses = 1
	profiles.insertErr = apperr.Conflict("Profile already exists for this email or subject")
	profiles.byUser["subject-1"] = winner

	profile, err := synchronizer.Reconcile(context.Background(), &identity.Session{
		SubjectID: "subject-1",
		Email:     "other@example.com",
	})
	require.NoError(t, err)
	assert.Same(t, winner, profile)
}

/*
TestSynchronizer_SkipsEmailLookupWithoutEmail verifies that a session
carrying no email goes straight to first-contact creation without an
email round-trip.
*/
func TestSynchronizer_SkipsEmailLookupWithoutEmail(t *testing.T) {
	profiles := newFakeProfiles()
	synchronizer := newSynchronizer(profiles)

	profile, err := synchronizer.Reconcile(context.Background(), &identity.Session{
		SubjectID: "subject-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "user", profile.Username)
	assert.Equal(t, 0, profiles.emailCalls)
}

/*
TestSynchronizer_BackendFailure verifies that a failing repository yields
an error and never a defaulted role.
*/
func TestSynchronizer_BackendFailure(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.lookupErr = errors.New("connection refused")
	synchronizer := newSynchronizer(profiles)

	profile, err := synchronizer.Reconcile(context.Background(), &identity.Session{
		SubjectID: "subject-1",
		Email:     "ada@example.com",
	})
	require.Error(t, err)
	assert.Nil(t, profile)
}

/*
TestSynchronizer_NilSession verifies the guard clause for empty sessions.
*/
func TestSynchronizer_NilSession(t *testing.T) {
	synchronizer := newSynchronizer(newFakeProfiles())

	_, err := synchronizer.Reconcile(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}
